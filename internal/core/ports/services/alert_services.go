package services

import (
	"context"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// AlertEvaluatorSvc defines the threshold evaluation operations
type AlertEvaluatorSvc interface {
	// EvaluateLine recomputes a line from source and raises the next alert tier if due.
	// It returns the created alert, or nil when nothing was raised.
	EvaluateLine(ctx context.Context, budget domain.Budget, line domain.BudgetLine) (*domain.BudgetAlert, error)

	// ProcessAllBudgets sweeps every line of active budgets.
	ProcessAllBudgets(ctx context.Context) (*domain.SweepResult, error)

	// EvaluateAccount sweeps the lines of one cost center in budgets active on date.
	EvaluateAccount(ctx context.Context, analyticalAccountID string, date time.Time) (*domain.SweepResult, error)

	// CheckUnderutilization flags lines of validated budgets ending within a week.
	// A nil threshold uses the configured default. It returns the alerts created.
	CheckUnderutilization(ctx context.Context, thresholdPercent *decimal.Decimal) ([]domain.BudgetAlert, error)
}

// AlertManagerSvc defines read and acknowledgement operations for alerts
type AlertManagerSvc interface {
	AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string) (*domain.BudgetAlert, error)

	// ListActiveAlerts returns unacknowledged alerts by severity, newest first.
	ListActiveAlerts(ctx context.Context, budgetID *string, limit int) ([]domain.BudgetAlert, error)

	GetAlertStats(ctx context.Context) (*domain.AlertStats, error)
}

// AlertSvcFacade combines all alert-related service interfaces
type AlertSvcFacade interface {
	AlertEvaluatorSvc
	AlertManagerSvc
}
