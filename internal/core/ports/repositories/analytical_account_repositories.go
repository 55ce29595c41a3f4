package repositories

import (
	"context"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

// AnalyticalAccountRepository reads the cost center catalog.
type AnalyticalAccountRepository interface {
	// FindAnalyticalAccountsByIDs returns the accounts found, keyed by ID.
	// Missing IDs are simply absent from the map.
	FindAnalyticalAccountsByIDs(ctx context.Context, ids []string) (map[string]domain.AnalyticalAccount, error)
}
