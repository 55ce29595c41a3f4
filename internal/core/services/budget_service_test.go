package services_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/SscSPs/furniture_budget_engine/internal/core/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t assert.TestingT, want string, got decimal.Decimal) {
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fiscalBudget is a confirmed April-to-March budget with two expense lines.
func fiscalBudget() *domain.Budget {
	return &domain.Budget{
		BudgetID: "budget-fy",
		Name:     "FY 2024-25",
		Period:   domain.Period{From: day(2024, 4, 1), To: day(2025, 3, 31)}.Inclusive(),
		Status:   domain.BudgetConfirmed,
		Lines: []domain.BudgetLine{
			{BudgetLineID: "line-prod", BudgetID: "budget-fy", AnalyticalAccountID: "cc-prod", AccountCode: "PROD", AccountName: "Production", Type: domain.LineExpense, PlannedAmount: dec("500000")},
			{BudgetLineID: "line-show", BudgetID: "budget-fy", AnalyticalAccountID: "cc-show", AccountCode: "SHOW", AccountName: "Showroom", Type: domain.LineExpense, PlannedAmount: dec("100000")},
		},
	}
}

type BudgetServiceTestSuite struct {
	suite.Suite
	budgetRepo  *MockBudgetRepository
	accountRepo *MockAnalyticalAccountRepository
	txStore     *MockTransactionStore
	alertRepo   *MockAlertRepository
	exporter    *MockExporter
	now         time.Time
	service     *services.BudgetService
}

func (suite *BudgetServiceTestSuite) SetupTest() {
	suite.budgetRepo = new(MockBudgetRepository)
	suite.accountRepo = new(MockAnalyticalAccountRepository)
	suite.txStore = new(MockTransactionStore)
	suite.alertRepo = new(MockAlertRepository)
	suite.exporter = new(MockExporter)
	suite.now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewBudgetService(
		suite.budgetRepo,
		suite.accountRepo,
		suite.txStore,
		services.WithBudgetClock(func() time.Time { return suite.now }),
		services.WithBudgetAlertReader(suite.alertRepo),
		services.WithBudgetExporter(suite.exporter),
	)
}

func (suite *BudgetServiceTestSuite) TearDownTest() {
	suite.budgetRepo.AssertExpectations(suite.T())
	suite.txStore.AssertExpectations(suite.T())
	suite.accountRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) expectSpent(accountID, amount string) {
	suite.txStore.On("SumPostedLineTotals", mock.Anything, accountID, domain.TransactionPurchase, mock.Anything, mock.Anything).
		Return(dec(amount), nil)
}

// --- CreateBudget ---

func (suite *BudgetServiceTestSuite) validCreateRequest() dto.CreateBudgetRequest {
	return dto.CreateBudgetRequest{
		Name:     "FY 2024-25",
		DateFrom: day(2024, 4, 1),
		DateTo:   day(2025, 3, 31),
		Lines: []dto.CreateBudgetLineRequest{
			{AnalyticalAccountID: "cc-prod", Type: domain.LineExpense, PlannedAmount: dec("500000")},
			{AnalyticalAccountID: "cc-prod", Type: domain.LineIncome, PlannedAmount: dec("900000")},
		},
	}
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_Success() {
	suite.accountRepo.On("FindAnalyticalAccountsByIDs", mock.Anything, []string{"cc-prod", "cc-prod"}).
		Return(map[string]domain.AnalyticalAccount{"cc-prod": {AnalyticalAccountID: "cc-prod", Code: "PROD", Name: "Production"}}, nil)
	suite.budgetRepo.On("SaveBudget", mock.Anything, mock.MatchedBy(func(b domain.Budget) bool {
		return b.Status == domain.BudgetDraft &&
			len(b.Lines) == 2 &&
			b.Lines[0].CreatedAt.Before(b.Lines[1].CreatedAt) &&
			b.Lines[0].AchievedAmount.IsZero() &&
			b.CreatedBy == "user-1"
	})).Return(nil)

	budget, err := suite.service.CreateBudget(context.Background(), suite.validCreateRequest(), "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.BudgetDraft, budget.Status)
	suite.Equal("Production", budget.Lines[0].AccountName)
	suite.Equal(domain.EndOfDay(day(2025, 3, 31)), budget.Period.To)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_InvalidPeriod() {
	req := suite.validCreateRequest()
	req.DateFrom, req.DateTo = req.DateTo, req.DateFrom

	_, err := suite.service.CreateBudget(context.Background(), req, "user-1")

	suite.ErrorIs(err, apperrors.ErrInvalidPeriod)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.budgetRepo.AssertNotCalled(suite.T(), "SaveBudget", mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_DuplicateLine() {
	req := suite.validCreateRequest()
	req.Lines[1].Type = domain.LineExpense

	_, err := suite.service.CreateBudget(context.Background(), req, "user-1")

	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_NegativePlanned() {
	req := suite.validCreateRequest()
	req.Lines[0].PlannedAmount = dec("-1")

	_, err := suite.service.CreateBudget(context.Background(), req, "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_UnknownAccount() {
	suite.accountRepo.On("FindAnalyticalAccountsByIDs", mock.Anything, mock.Anything).
		Return(map[string]domain.AnalyticalAccount{}, nil)

	_, err := suite.service.CreateBudget(context.Background(), suite.validCreateRequest(), "user-1")

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.budgetRepo.AssertNotCalled(suite.T(), "SaveBudget", mock.Anything, mock.Anything)
}

// --- TransitionBudget ---

func (suite *BudgetServiceTestSuite) TestTransitionBudget_Valid() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)
	suite.budgetRepo.On("UpdateBudgetStatus", mock.Anything, "budget-fy", domain.BudgetValidated, "user-1", suite.now).Return(nil)

	budget, err := suite.service.TransitionBudget(context.Background(), "budget-fy", domain.BudgetValidated, "user-1")

	suite.Require().NoError(err)
	suite.Equal(domain.BudgetValidated, budget.Status)
	suite.Equal("user-1", budget.LastUpdatedBy)
}

func (suite *BudgetServiceTestSuite) TestTransitionBudget_Invalid() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)

	_, err := suite.service.TransitionBudget(context.Background(), "budget-fy", domain.BudgetDraft, "user-1")

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.budgetRepo.AssertNotCalled(suite.T(), "UpdateBudgetStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestGetBudget_NotFound() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "missing").Return(nil, apperrors.ErrBudgetNotFound)

	_, err := suite.service.GetBudget(context.Background(), "missing")

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Metrics ---

func (suite *BudgetServiceTestSuite) TestGetBudgetWithMetrics_FiscalYear() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)
	suite.expectSpent("cc-prod", "95000")
	suite.expectSpent("cc-show", "95000")

	_, lines, err := suite.service.GetBudgetWithMetrics(context.Background(), "budget-fy")

	suite.Require().NoError(err)
	suite.Require().Len(lines, 2)
	suite.Equal("line-prod", lines[0].BudgetLineID)
	assertDec(suite.T(), "124657.53", lines[0].Metrics.TheoreticalAmount)
	assertDec(suite.T(), "19", lines[0].Metrics.AchievementPercent)
	suite.Equal(domain.StatusOK, lines[0].AlertStatus)

	assertDec(suite.T(), "95", lines[1].Metrics.AchievementPercent)
	assertDec(suite.T(), "5000", lines[1].Metrics.RemainingAmount)
	suite.Equal(domain.StatusCritical, lines[1].AlertStatus)
}

func (suite *BudgetServiceTestSuite) TestGetBudgetWithMetrics_DraftReportsZeroPractical() {
	draft := fiscalBudget()
	draft.Status = domain.BudgetDraft
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(draft, nil)

	_, lines, err := suite.service.GetBudgetWithMetrics(context.Background(), "budget-fy")

	suite.Require().NoError(err)
	for _, l := range lines {
		suite.True(l.Metrics.PracticalAmount.IsZero())
	}
	suite.txStore.AssertNotCalled(suite.T(), "SumPostedLineTotals", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestGetBudgetWithMetrics_StoreFailureDegradesToZero() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)
	suite.txStore.On("SumPostedLineTotals", mock.Anything, "cc-prod", domain.TransactionPurchase, mock.Anything, mock.Anything).
		Return(decimal.Zero, errors.New("connection reset"))
	suite.expectSpent("cc-show", "40000")

	_, lines, err := suite.service.GetBudgetWithMetrics(context.Background(), "budget-fy")

	suite.Require().NoError(err)
	suite.True(lines[0].Metrics.PracticalAmount.IsZero())
	assertDec(suite.T(), "40000", lines[1].Metrics.PracticalAmount)
}

// --- Dashboard ---

func (suite *BudgetServiceTestSuite) TestGetDashboardSummary_MergesAndSorts() {
	second := domain.Budget{
		BudgetID: "budget-q3",
		Name:     "Q3 showroom push",
		Period:   domain.Period{From: day(2024, 4, 1), To: day(2024, 9, 30)}.Inclusive(),
		Status:   domain.BudgetValidated,
		Lines: []domain.BudgetLine{
			{BudgetLineID: "line-q3", AnalyticalAccountID: "cc-prod", AccountCode: "PROD-2", AccountName: "Production (renamed)", Type: domain.LineExpense, PlannedAmount: dec("100000")},
		},
	}
	suite.budgetRepo.On("ListBudgets", mock.Anything, portsrepo.BudgetFilter{Statuses: domain.ActiveBudgetStatuses}).
		Return([]domain.Budget{*fiscalBudget(), second}, nil)
	suite.expectSpent("cc-prod", "60000")
	suite.expectSpent("cc-show", "80000")
	recent := []domain.BudgetAlert{{AlertID: "a-1"}}
	suite.alertRepo.On("ListAlerts", mock.Anything, mock.MatchedBy(func(f portsrepo.AlertFilter) bool {
		return f.Acknowledged != nil && !*f.Acknowledged && f.NewestFirst && f.Limit == 10
	})).Return(recent, nil)

	summary, err := suite.service.GetDashboardSummary(context.Background())

	suite.Require().NoError(err)
	suite.Equal(2, summary.ActiveBudgetsCount)
	assertDec(suite.T(), "700000", summary.TotalPlanned)
	assertDec(suite.T(), "200000", summary.TotalPractical)
	assertDec(suite.T(), "500000", summary.TotalRemaining)
	assertDec(suite.T(), "28.57", summary.OverallAchievement)

	suite.Require().Len(summary.CostCenters, 2)
	suite.Equal("cc-show", summary.CostCenters[0].AnalyticalAccountID)
	assertDec(suite.T(), "80", summary.CostCenters[0].Percent)
	suite.Equal(domain.StatusWarning, summary.CostCenters[0].Status)

	prod := summary.CostCenters[1]
	suite.Equal("Production", prod.Name, "first-seen identity wins")
	assertDec(suite.T(), "600000", prod.Planned)
	assertDec(suite.T(), "120000", prod.Actual)
	assertDec(suite.T(), "20", prod.Percent)
	suite.Equal(recent, summary.RecentAlerts)
}

func (suite *BudgetServiceTestSuite) TestGetDashboardSummary_Empty() {
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.Anything).Return([]domain.Budget{}, nil)
	suite.alertRepo.On("ListAlerts", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	summary, err := suite.service.GetDashboardSummary(context.Background())

	suite.Require().NoError(err)
	suite.True(summary.TotalPlanned.IsZero())
	suite.True(summary.OverallAchievement.IsZero())
	suite.Empty(summary.CostCenters)
	suite.Empty(summary.RecentAlerts)
}

// --- Simulation ---

func (suite *BudgetServiceTestSuite) TestSimulateBudget_DoesNotMutateLines() {
	budget := fiscalBudget()
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(budget, nil)
	suite.expectSpent("cc-prod", "95000")
	suite.expectSpent("cc-show", "95000")

	result, err := suite.service.SimulateBudget(context.Background(), "budget-fy", []domain.PlannedAdjustment{
		{BudgetLineID: "line-show", PlannedAmount: dec("200000")},
	})

	suite.Require().NoError(err)
	suite.Require().Len(result.Lines, 2)
	show := result.Lines[1]
	assertDec(suite.T(), "100000", show.OriginalPlanned)
	assertDec(suite.T(), "200000", show.SimulatedPlanned)
	assertDec(suite.T(), "47.5", show.SimulatedAchievement)
	suite.Equal(domain.StatusOK, show.SimulatedStatus)
	assertDec(suite.T(), "500000", result.Lines[0].SimulatedPlanned)

	assertDec(suite.T(), "100000", budget.Lines[1].PlannedAmount)
	suite.budgetRepo.AssertNotCalled(suite.T(), "SaveBudget", mock.Anything, mock.Anything)
	suite.budgetRepo.AssertNotCalled(suite.T(), "RefreshAchievedAmount", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestSimulateBudget_UnknownLine() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)

	_, err := suite.service.SimulateBudget(context.Background(), "budget-fy", []domain.PlannedAdjustment{
		{BudgetLineID: "line-other", PlannedAmount: dec("1")},
	})

	suite.ErrorIs(err, apperrors.ErrBudgetLineNotFound)
}

func (suite *BudgetServiceTestSuite) TestSimulateBudget_NegativeAmount() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)

	_, err := suite.service.SimulateBudget(context.Background(), "budget-fy", []domain.PlannedAdjustment{
		{BudgetLineID: "line-show", PlannedAmount: dec("-5")},
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

// --- Expense limits ---

func (suite *BudgetServiceTestSuite) TestCheckExpenseLimits() {
	date := day(2024, 7, 15)
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.MatchedBy(func(f portsrepo.BudgetFilter) bool {
		return f.ActiveOn != nil && f.ActiveOn.Equal(date) && f.Limit == 1
	})).Return([]domain.Budget{*fiscalBudget()}, nil)
	suite.expectSpent("cc-prod", "100000")
	suite.expectSpent("cc-show", "95000")
	suite.accountRepo.On("FindAnalyticalAccountsByIDs", mock.Anything, []string{"cc-hr"}).
		Return(map[string]domain.AnalyticalAccount{"cc-hr": {Name: "Human Resources"}}, nil)

	result, err := suite.service.CheckExpenseLimits(context.Background(), date, []dto.ExpenseAmount{
		{AnalyticalAccountID: "cc-prod", Amount: dec("1000")},
		{AnalyticalAccountID: "cc-show", Amount: dec("4000")},
		{AnalyticalAccountID: "cc-show", Amount: dec("3000")},
		{AnalyticalAccountID: "cc-hr", Amount: dec("10")},
	})

	suite.Require().NoError(err)
	suite.False(result.IsValid)
	suite.Equal([]string{"Human Resources"}, result.MissingAccounts)
	suite.Require().Len(result.Breaches, 1)
	breach := result.Breaches[0]
	suite.Equal("cc-show", breach.AnalyticalAccountID)
	assertDec(suite.T(), "7000", breach.NewExpense)
	assertDec(suite.T(), "2000", breach.WouldExceedBy)
}

func (suite *BudgetServiceTestSuite) TestCheckExpenseLimits_NoActiveBudget() {
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.Anything).Return([]domain.Budget{}, nil)

	_, err := suite.service.CheckExpenseLimits(context.Background(), day(2030, 1, 1), []dto.ExpenseAmount{
		{AnalyticalAccountID: "cc-prod", Amount: dec("1")},
	})

	suite.ErrorIs(err, apperrors.ErrBudgetNotFound)
}

// --- Export ---

func (suite *BudgetServiceTestSuite) TestExportBudgetMetrics() {
	suite.budgetRepo.On("FindBudgetByID", mock.Anything, "budget-fy").Return(fiscalBudget(), nil)
	suite.expectSpent("cc-prod", "0")
	suite.expectSpent("cc-show", "0")
	var buf bytes.Buffer
	suite.exporter.On("WriteBudgetMetrics", &buf, mock.Anything, mock.MatchedBy(func(lines []domain.BudgetLineWithMetrics) bool {
		return len(lines) == 2
	})).Return(nil)

	err := suite.service.ExportBudgetMetrics(context.Background(), "budget-fy", &buf)

	suite.NoError(err)
	suite.exporter.AssertExpectations(suite.T())
}

func TestBudgetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BudgetServiceTestSuite))
}

func TestBudgetService_ExportWithoutExporter(t *testing.T) {
	svc := services.NewBudgetService(new(MockBudgetRepository), new(MockAnalyticalAccountRepository), new(MockTransactionStore))
	err := svc.ExportBudgetMetrics(context.Background(), "budget-fy", &bytes.Buffer{})
	require.Error(t, err)
}
