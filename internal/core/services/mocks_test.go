package services_test

import (
	"context"
	"io"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// --- Mock BudgetRepository ---
type MockBudgetRepository struct {
	mock.Mock
}

var _ portsrepo.BudgetRepositoryFacade = (*MockBudgetRepository)(nil)

func (m *MockBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) ListBudgets(ctx context.Context, filter portsrepo.BudgetFilter) ([]domain.Budget, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Budget), args.Error(1)
}

func (m *MockBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) UpdateBudgetStatus(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string, now time.Time) error {
	args := m.Called(ctx, budgetID, status, userID, now)
	return args.Error(0)
}

func (m *MockBudgetRepository) RefreshAchievedAmount(ctx context.Context, line domain.BudgetLine, period domain.Period) (decimal.Decimal, error) {
	args := m.Called(ctx, line, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// --- Mock AlertRepository ---
type MockAlertRepository struct {
	mock.Mock
}

var _ portsrepo.AlertRepositoryFacade = (*MockAlertRepository)(nil)

func (m *MockAlertRepository) FindAlertByID(ctx context.Context, alertID string) (*domain.BudgetAlert, error) {
	args := m.Called(ctx, alertID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertRepository) ListOpenAlertsForLine(ctx context.Context, budgetLineID string) ([]domain.BudgetAlert, error) {
	args := m.Called(ctx, budgetLineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertRepository) ListAlerts(ctx context.Context, filter portsrepo.AlertFilter) ([]domain.BudgetAlert, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BudgetAlert), args.Error(1)
}

func (m *MockAlertRepository) CountAlerts(ctx context.Context) (*domain.AlertStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AlertStats), args.Error(1)
}

func (m *MockAlertRepository) CreateAlert(ctx context.Context, alert domain.BudgetAlert) (bool, error) {
	args := m.Called(ctx, alert)
	return args.Bool(0), args.Error(1)
}

func (m *MockAlertRepository) AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string, at time.Time) error {
	args := m.Called(ctx, alertID, userID, actionTaken, at)
	return args.Error(0)
}

// --- Mock RuleRepository ---
type MockRuleRepository struct {
	mock.Mock
}

var _ portsrepo.RuleRepositoryFacade = (*MockRuleRepository)(nil)

func (m *MockRuleRepository) ListActiveRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentRule), args.Error(1)
}

func (m *MockRuleRepository) ListRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentRule), args.Error(1)
}

func (m *MockRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.AssignmentRule, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentRule), args.Error(1)
}

func (m *MockRuleRepository) SaveRule(ctx context.Context, rule domain.AssignmentRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) UpdateRule(ctx context.Context, rule domain.AssignmentRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	args := m.Called(ctx, ruleID)
	return args.Error(0)
}

func (m *MockRuleRepository) RecordRuleApplied(ctx context.Context, ruleID string, at time.Time) error {
	args := m.Called(ctx, ruleID, at)
	return args.Error(0)
}

// --- Mock SuggestionRepository ---
type MockSuggestionRepository struct {
	mock.Mock
}

var _ portsrepo.SuggestionRepositoryFacade = (*MockSuggestionRepository)(nil)

func (m *MockSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []domain.AssignmentSuggestion) error {
	args := m.Called(ctx, suggestions)
	return args.Error(0)
}

func (m *MockSuggestionRepository) ListPendingConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AssignmentSuggestion), args.Error(1)
}

func (m *MockSuggestionRepository) FindSuggestionByID(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error) {
	args := m.Called(ctx, suggestionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AssignmentSuggestion), args.Error(1)
}

func (m *MockSuggestionRepository) ResolveSuggestionInTx(ctx context.Context, tx pgx.Tx, suggestion domain.AssignmentSuggestion) error {
	args := m.Called(ctx, tx, suggestion)
	return args.Error(0)
}

// --- Mock AnalyticalAccountRepository ---
type MockAnalyticalAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AnalyticalAccountRepository = (*MockAnalyticalAccountRepository)(nil)

func (m *MockAnalyticalAccountRepository) FindAnalyticalAccountsByIDs(ctx context.Context, ids []string) (map[string]domain.AnalyticalAccount, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.AnalyticalAccount), args.Error(1)
}

// --- Mock TransactionStore ---
type MockTransactionStore struct {
	mock.Mock
}

var _ portsrepo.TransactionStore = (*MockTransactionStore)(nil)

func (m *MockTransactionStore) SumPostedLineTotals(ctx context.Context, analyticalAccountID string, txType domain.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, analyticalAccountID, txType, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionStore) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *MockTransactionStore) FindContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	args := m.Called(ctx, contactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *MockTransactionStore) SetLineAnalyticalAccountInTx(ctx context.Context, tx pgx.Tx, ref domain.LineRef, analyticalAccountID string) error {
	args := m.Called(ctx, tx, ref, analyticalAccountID)
	return args.Error(0)
}

// --- Mock TransactionManager ---
type MockTxManager struct {
	mock.Mock
}

var _ portsrepo.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockTxManager) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTxManager) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// --- Mock clients ---
type MockClassifier struct {
	mock.Mock
}

var _ clients.Classifier = (*MockClassifier)(nil)

func (m *MockClassifier) Suggest(ctx context.Context, req domain.ClassificationRequest) ([]domain.Suggestion, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Suggestion), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

var _ clients.AlertNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifyAlert(ctx context.Context, alert domain.BudgetAlert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

type MockTracker struct {
	mock.Mock
}

var _ clients.EventTracker = (*MockTracker)(nil)

func (m *MockTracker) Track(distinctID string, event string, properties map[string]any) {
	m.Called(distinctID, event, properties)
}

type MockExporter struct {
	mock.Mock
}

var _ clients.BudgetExporter = (*MockExporter)(nil)

func (m *MockExporter) WriteBudgetMetrics(w io.Writer, budget domain.Budget, lines []domain.BudgetLineWithMetrics) error {
	args := m.Called(w, budget, lines)
	return args.Error(0)
}
