// Package clients declares the outbound collaborators of the engine that are
// not databases.
package clients

import (
	"context"
	"io"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

// Classifier returns cost-center suggestions ranked by confidence, highest first.
type Classifier interface {
	Suggest(ctx context.Context, req domain.ClassificationRequest) ([]domain.Suggestion, error)
}

// AlertNotifier pushes newly created alerts to people.
type AlertNotifier interface {
	NotifyAlert(ctx context.Context, alert domain.BudgetAlert) error
}

// EventTracker records product analytics events.
type EventTracker interface {
	Track(distinctID string, event string, properties map[string]any)
}

// BudgetExporter renders budget metrics as a downloadable document.
type BudgetExporter interface {
	WriteBudgetMetrics(w io.Writer, budget domain.Budget, lines []domain.BudgetLineWithMetrics) error
}
