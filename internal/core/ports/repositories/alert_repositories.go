package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

// AlertFilter narrows ListAlerts. Nil fields are not applied.
type AlertFilter struct {
	BudgetID     *string
	Acknowledged *bool
	// NewestFirst orders purely by creation time instead of severity first.
	NewestFirst bool
	Limit       int
}

// AlertReader defines read operations for budget alerts.
type AlertReader interface {
	FindAlertByID(ctx context.Context, alertID string) (*domain.BudgetAlert, error)

	// ListOpenAlertsForLine returns unacknowledged alerts of a budget line.
	ListOpenAlertsForLine(ctx context.Context, budgetLineID string) ([]domain.BudgetAlert, error)

	ListAlerts(ctx context.Context, filter AlertFilter) ([]domain.BudgetAlert, error)

	CountAlerts(ctx context.Context) (*domain.AlertStats, error)
}

// AlertWriter defines write operations for budget alerts.
type AlertWriter interface {
	// CreateAlert inserts an alert unless an unacknowledged alert of the same
	// type already exists for the line. created is false in that case.
	CreateAlert(ctx context.Context, alert domain.BudgetAlert) (created bool, err error)

	// AcknowledgeAlert marks an open alert acknowledged.
	AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string, at time.Time) error
}

// AlertRepositoryFacade combines all alert-related repository interfaces
type AlertRepositoryFacade interface {
	AlertReader
	AlertWriter
}
