package services

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
)

// BudgetReaderSvc defines read operations for budgets
type BudgetReaderSvc interface {
	// GetBudget retrieves a budget with its lines.
	GetBudget(ctx context.Context, budgetID string) (*domain.Budget, error)

	// ListBudgets retrieves a page of budgets, optionally filtered by status.
	ListBudgets(ctx context.Context, params dto.ListBudgetsParams) ([]domain.Budget, error)
}

// BudgetWriterSvc defines write operations for budgets
type BudgetWriterSvc interface {
	// CreateBudget persists a new DRAFT budget with its lines.
	CreateBudget(ctx context.Context, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error)

	// TransitionBudget moves a budget along its lifecycle.
	TransitionBudget(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string) (*domain.Budget, error)

	// RecomputeBudget refreshes every line's achieved amount from posted transactions.
	RecomputeBudget(ctx context.Context, budgetID string) (*domain.Budget, error)
}

// BudgetAnalyticsSvc defines the budget aggregation operations
type BudgetAnalyticsSvc interface {
	// GetBudgetWithMetrics returns the budget and its lines with computed metrics, in line order.
	GetBudgetWithMetrics(ctx context.Context, budgetID string) (*domain.Budget, []domain.BudgetLineWithMetrics, error)

	// GetDashboardSummary rolls up all active budgets.
	GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error)

	// SimulateBudget runs a what-if with replaced planned amounts. Nothing is persisted.
	SimulateBudget(ctx context.Context, budgetID string, adjustments []domain.PlannedAdjustment) (*domain.SimulationResult, error)

	// CheckExpenseLimits reports whether expenses dated date fit the active budget.
	CheckExpenseLimits(ctx context.Context, date time.Time, expenses []dto.ExpenseAmount) (*domain.LimitCheckResult, error)

	// ExportBudgetMetrics writes the budget metrics as a spreadsheet.
	ExportBudgetMetrics(ctx context.Context, budgetID string, w io.Writer) error
}

// BudgetSvcFacade combines all budget-related service interfaces
type BudgetSvcFacade interface {
	BudgetReaderSvc
	BudgetWriterSvc
	BudgetAnalyticsSvc
}
