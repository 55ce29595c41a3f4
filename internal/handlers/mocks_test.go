package handlers_test

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock BudgetService ---
type MockBudgetService struct {
	mock.Mock
}

var _ portssvc.BudgetSvcFacade = (*MockBudgetService)(nil)

func (m *MockBudgetService) GetBudget(ctx context.Context, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) ListBudgets(ctx context.Context, params dto.ListBudgetsParams) ([]domain.Budget, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Budget), args.Error(1)
}

func (m *MockBudgetService) CreateBudget(ctx context.Context, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) TransitionBudget(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID, status, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) RecomputeBudget(ctx context.Context, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetService) GetBudgetWithMetrics(ctx context.Context, budgetID string) (*domain.Budget, []domain.BudgetLineWithMetrics, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*domain.Budget), args.Get(1).([]domain.BudgetLineWithMetrics), args.Error(2)
}

func (m *MockBudgetService) GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardSummary), args.Error(1)
}

func (m *MockBudgetService) SimulateBudget(ctx context.Context, budgetID string, adjustments []domain.PlannedAdjustment) (*domain.SimulationResult, error) {
	args := m.Called(ctx, budgetID, adjustments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SimulationResult), args.Error(1)
}

func (m *MockBudgetService) CheckExpenseLimits(ctx context.Context, date time.Time, expenses []dto.ExpenseAmount) (*domain.LimitCheckResult, error) {
	args := m.Called(ctx, date, expenses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LimitCheckResult), args.Error(1)
}

func (m *MockBudgetService) ExportBudgetMetrics(ctx context.Context, budgetID string, w io.Writer) error {
	args := m.Called(ctx, budgetID, w)
	return args.Error(0)
}

// --- Mock AlertService ---
type MockAlertService struct {
	mock.Mock
}

var _ portssvc.AlertSvcFacade = (*MockAlertService)(nil)

func (m *MockAlertService) EvaluateLine(ctx context.Context, budget domain.Budget, line domain.BudgetLine) (*domain.BudgetAlert, error) {
	args := m.Called(ctx, budget, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertService) ProcessAllBudgets(ctx context.Context) (*domain.SweepResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

func (m *MockAlertService) EvaluateAccount(ctx context.Context, analyticalAccountID string, date time.Time) (*domain.SweepResult, error) {
	args := m.Called(ctx, analyticalAccountID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SweepResult), args.Error(1)
}

func (m *MockAlertService) CheckUnderutilization(ctx context.Context, thresholdPercent *decimal.Decimal) ([]domain.BudgetAlert, error) {
	args := m.Called(ctx, thresholdPercent)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertService) AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string) (*domain.BudgetAlert, error) {
	args := m.Called(ctx, alertID, userID, actionTaken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertService) ListActiveAlerts(ctx context.Context, budgetID *string, limit int) ([]domain.BudgetAlert, error) {
	args := m.Called(ctx, budgetID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertService) GetAlertStats(ctx context.Context) (*domain.AlertStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AlertStats), args.Error(1)
}

// --- Mock AssignmentService ---
type MockAssignmentService struct {
	mock.Mock
}

var _ portssvc.AssignmentSvcFacade = (*MockAssignmentService)(nil)

func (m *MockAssignmentService) FindAssignment(ctx context.Context, line domain.TransactionLine) (*domain.AssignmentResult, error) {
	args := m.Called(ctx, line)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentResult), args.Error(1)
}

func (m *MockAssignmentService) ApplyToLines(ctx context.Context, lines []domain.TransactionLine) ([]domain.AssignmentResult, error) {
	args := m.Called(ctx, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentResult), args.Error(1)
}

func (m *MockAssignmentService) TestRule(ctx context.Context, ruleID string, lines []domain.TransactionLine) (*dto.TestRuleResponse, error) {
	args := m.Called(ctx, ruleID, lines)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TestRuleResponse), args.Error(1)
}

func (m *MockAssignmentService) CreateRule(ctx context.Context, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error) {
	args := m.Called(ctx, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentRule), args.Error(1)
}

func (m *MockAssignmentService) UpdateRule(ctx context.Context, ruleID string, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error) {
	args := m.Called(ctx, ruleID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentRule), args.Error(1)
}

func (m *MockAssignmentService) DeleteRule(ctx context.Context, ruleID string) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

func (m *MockAssignmentService) GetRule(ctx context.Context, ruleID string) (*domain.AssignmentRule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentRule), args.Error(1)
}

func (m *MockAssignmentService) ListRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentRule), args.Error(1)
}

func (m *MockAssignmentService) ListConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentSuggestion), args.Error(1)
}

func (m *MockAssignmentService) ResolveConflict(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error) {
	args := m.Called(ctx, suggestionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentSuggestion), args.Error(1)
}
