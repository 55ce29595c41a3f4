package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BudgetFilter narrows ListBudgets. Nil or empty fields are not applied.
type BudgetFilter struct {
	Statuses []domain.BudgetStatus
	// ActiveOn keeps budgets whose period contains the date.
	ActiveOn *time.Time
	// EndingOnOrBefore keeps budgets whose period ends no later than the date.
	EndingOnOrBefore *time.Time
	Limit            int
	Offset           int
}

// BudgetReader defines read operations for budgets and their lines.
type BudgetReader interface {
	// FindBudgetByID retrieves a budget with its lines in creation order.
	FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error)

	// ListBudgets retrieves budgets with their lines.
	ListBudgets(ctx context.Context, filter BudgetFilter) ([]domain.Budget, error)
}

// BudgetWriter defines write operations for budgets.
type BudgetWriter interface {
	// SaveBudget persists a new budget and its lines atomically.
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// UpdateBudgetStatus moves a budget to a new lifecycle status.
	UpdateBudgetStatus(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string, now time.Time) error

	// RefreshAchievedAmount recomputes a line's achieved amount from posted
	// transactions in a single statement and returns the new value.
	RefreshAchievedAmount(ctx context.Context, line domain.BudgetLine, period domain.Period) (decimal.Decimal, error)
}

// BudgetRepositoryFacade combines all budget-related repository interfaces
type BudgetRepositoryFacade interface {
	BudgetReader
	BudgetWriter
}
