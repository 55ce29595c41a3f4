package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/SscSPs/furniture_budget_engine/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AlertServiceTestSuite struct {
	suite.Suite
	budgetRepo *MockBudgetRepository
	alertRepo  *MockAlertRepository
	notifier   *MockNotifier
	tracker    *MockTracker
	now        time.Time
	service    *services.AlertService
}

func (suite *AlertServiceTestSuite) SetupTest() {
	suite.budgetRepo = new(MockBudgetRepository)
	suite.alertRepo = new(MockAlertRepository)
	suite.notifier = new(MockNotifier)
	suite.tracker = new(MockTracker)
	suite.now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	suite.service = services.NewAlertService(
		suite.budgetRepo,
		suite.alertRepo,
		services.WithAlertClock(func() time.Time { return suite.now }),
		services.WithAlertNotifier(suite.notifier),
		services.WithAlertTracker(suite.tracker),
	)
}

func (suite *AlertServiceTestSuite) TearDownTest() {
	suite.budgetRepo.AssertExpectations(suite.T())
	suite.alertRepo.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func (suite *AlertServiceTestSuite) refreshTo(lineID, amount string) {
	suite.budgetRepo.On("RefreshAchievedAmount", mock.Anything, mock.MatchedBy(func(l domain.BudgetLine) bool {
		return l.BudgetLineID == lineID
	}), mock.Anything).Return(dec(amount), nil)
}

func (suite *AlertServiceTestSuite) openAlerts(lineID string, types ...domain.AlertType) {
	alerts := make([]domain.BudgetAlert, 0, len(types))
	for _, t := range types {
		alerts = append(alerts, domain.BudgetAlert{BudgetLineID: lineID, AlertType: t})
	}
	suite.alertRepo.On("ListOpenAlertsForLine", mock.Anything, lineID).Return(alerts, nil)
}

func (suite *AlertServiceTestSuite) TestEvaluateLine_EscalatesWarningToCritical() {
	budget := fiscalBudget()
	line := budget.Lines[1]
	suite.refreshTo("line-show", "95000")
	suite.openAlerts("line-show", domain.AlertWarning75)
	suite.alertRepo.On("CreateAlert", mock.Anything, mock.MatchedBy(func(a domain.BudgetAlert) bool {
		return a.AlertType == domain.AlertCritical90 &&
			a.Severity == domain.SeverityHigh &&
			a.UtilizationPercent.Equal(dec("95")) &&
			a.CurrentSpent.Equal(dec("95000")) &&
			a.CreatedAt.Equal(suite.now)
	})).Return(true, nil)
	suite.notifier.On("NotifyAlert", mock.Anything, mock.Anything).Return(nil)
	suite.tracker.On("Track", mock.Anything, "budget_alert_created", mock.Anything).Return()

	alert, err := suite.service.EvaluateLine(context.Background(), *budget, line)

	suite.Require().NoError(err)
	suite.Require().NotNil(alert)
	suite.Equal(domain.AlertCritical90, alert.AlertType)
	suite.Equal("FY 2024-25", alert.BudgetName)
	suite.tracker.AssertExpectations(suite.T())
}

func (suite *AlertServiceTestSuite) TestEvaluateLine_NoDuplicateWhileTierOpen() {
	budget := fiscalBudget()
	suite.refreshTo("line-show", "95000")
	suite.openAlerts("line-show", domain.AlertWarning75, domain.AlertCritical90)

	alert, err := suite.service.EvaluateLine(context.Background(), *budget, budget.Lines[1])

	suite.NoError(err)
	suite.Nil(alert)
	suite.alertRepo.AssertNotCalled(suite.T(), "CreateAlert", mock.Anything, mock.Anything)
}

func (suite *AlertServiceTestSuite) TestEvaluateLine_ConcurrentInsertSwallowed() {
	budget := fiscalBudget()
	suite.refreshTo("line-show", "101000")
	suite.openAlerts("line-show")
	suite.alertRepo.On("CreateAlert", mock.Anything, mock.Anything).Return(false, nil)

	alert, err := suite.service.EvaluateLine(context.Background(), *budget, budget.Lines[1])

	suite.NoError(err)
	suite.Nil(alert)
	suite.notifier.AssertNotCalled(suite.T(), "NotifyAlert", mock.Anything, mock.Anything)
}

func (suite *AlertServiceTestSuite) TestEvaluateLine_NotifierFailureIsNotFatal() {
	budget := fiscalBudget()
	suite.refreshTo("line-show", "101000")
	suite.openAlerts("line-show")
	suite.alertRepo.On("CreateAlert", mock.Anything, mock.Anything).Return(true, nil)
	suite.notifier.On("NotifyAlert", mock.Anything, mock.Anything).Return(errors.New("slack down"))
	suite.tracker.On("Track", mock.Anything, mock.Anything, mock.Anything).Return()

	alert, err := suite.service.EvaluateLine(context.Background(), *budget, budget.Lines[1])

	suite.NoError(err)
	suite.Require().NotNil(alert)
	suite.Equal(domain.AlertExceeded100, alert.AlertType)
	suite.Equal(domain.SeverityCritical, alert.Severity)
}

func (suite *AlertServiceTestSuite) TestProcessAllBudgets_CollectsFailuresAndContinues() {
	suite.budgetRepo.On("ListBudgets", mock.Anything, portsrepo.BudgetFilter{Statuses: domain.ActiveBudgetStatuses}).
		Return([]domain.Budget{*fiscalBudget()}, nil)
	suite.budgetRepo.On("RefreshAchievedAmount", mock.Anything, mock.MatchedBy(func(l domain.BudgetLine) bool {
		return l.BudgetLineID == "line-prod"
	}), mock.Anything).Return(decimal.Zero, apperrors.ErrConcurrentUpdate)
	suite.refreshTo("line-show", "80000")
	suite.openAlerts("line-show")
	suite.alertRepo.On("CreateAlert", mock.Anything, mock.Anything).Return(true, nil)
	suite.notifier.On("NotifyAlert", mock.Anything, mock.Anything).Return(nil)
	suite.tracker.On("Track", mock.Anything, mock.Anything, mock.Anything).Return()

	result, err := suite.service.ProcessAllBudgets(context.Background())

	suite.Require().NoError(err)
	suite.Equal(1, result.BudgetsProcessed)
	suite.Equal(2, result.LinesProcessed)
	suite.Equal(1, result.AlertsCreated)
	suite.Require().Len(result.Failures, 1)
	suite.Equal("line-prod", result.Failures[0].BudgetLineID)
}

func (suite *AlertServiceTestSuite) TestProcessAllBudgets_RepeatedSweepCreatesNothing() {
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.Anything).Return([]domain.Budget{*fiscalBudget()}, nil)
	suite.refreshTo("line-prod", "10")
	suite.refreshTo("line-show", "92000")
	suite.openAlerts("line-prod")
	suite.openAlerts("line-show", domain.AlertCritical90)

	for i := 0; i < 3; i++ {
		result, err := suite.service.ProcessAllBudgets(context.Background())
		suite.Require().NoError(err)
		suite.Equal(0, result.AlertsCreated)
		suite.Empty(result.Failures)
	}
	suite.alertRepo.AssertNotCalled(suite.T(), "CreateAlert", mock.Anything, mock.Anything)
}

func (suite *AlertServiceTestSuite) TestProcessAllBudgets_ListFailure() {
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	_, err := suite.service.ProcessAllBudgets(context.Background())

	suite.Error(err)
}

func (suite *AlertServiceTestSuite) TestEvaluateAccount_OnlyThatCostCenter() {
	date := day(2024, 6, 15)
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.MatchedBy(func(f portsrepo.BudgetFilter) bool {
		return f.ActiveOn != nil && f.ActiveOn.Equal(date)
	})).Return([]domain.Budget{*fiscalBudget()}, nil)
	suite.refreshTo("line-prod", "100")
	suite.openAlerts("line-prod")

	result, err := suite.service.EvaluateAccount(context.Background(), "cc-prod", date)

	suite.Require().NoError(err)
	suite.Equal(1, result.LinesProcessed)
	suite.Equal(0, result.AlertsCreated)
}

func (suite *AlertServiceTestSuite) TestCheckUnderutilization() {
	closing := domain.Budget{
		BudgetID: "budget-h1",
		Name:     "H1",
		Period:   domain.Period{From: day(2024, 1, 1), To: day(2024, 7, 3)}.Inclusive(),
		Status:   domain.BudgetValidated,
		Lines: []domain.BudgetLine{
			{BudgetLineID: "l-low", AnalyticalAccountID: "cc-a", Type: domain.LineExpense, PlannedAmount: dec("1000")},
			{BudgetLineID: "l-flagged", AnalyticalAccountID: "cc-b", Type: domain.LineExpense, PlannedAmount: dec("1000")},
			{BudgetLineID: "l-busy", AnalyticalAccountID: "cc-c", Type: domain.LineExpense, PlannedAmount: dec("1000")},
		},
	}
	cutoff := suite.now.Add(7 * 24 * time.Hour)
	suite.budgetRepo.On("ListBudgets", mock.Anything, mock.MatchedBy(func(f portsrepo.BudgetFilter) bool {
		return len(f.Statuses) == 1 && f.Statuses[0] == domain.BudgetValidated &&
			f.EndingOnOrBefore != nil && f.EndingOnOrBefore.Equal(cutoff)
	})).Return([]domain.Budget{closing}, nil)
	suite.refreshTo("l-low", "200")
	suite.refreshTo("l-flagged", "300")
	suite.refreshTo("l-busy", "700")
	suite.openAlerts("l-low", domain.AlertWarning75)
	suite.openAlerts("l-flagged", domain.AlertUnderutilized)
	suite.alertRepo.On("CreateAlert", mock.Anything, mock.MatchedBy(func(a domain.BudgetAlert) bool {
		return a.BudgetLineID == "l-low" && a.AlertType == domain.AlertUnderutilized && a.Severity == domain.SeverityLow
	})).Return(true, nil)
	suite.notifier.On("NotifyAlert", mock.Anything, mock.Anything).Return(nil)
	suite.tracker.On("Track", mock.Anything, mock.Anything, mock.Anything).Return()

	created, err := suite.service.CheckUnderutilization(context.Background(), nil)

	suite.Require().NoError(err)
	suite.Require().Len(created, 1)
	suite.Equal("l-low", created[0].BudgetLineID)
	suite.Equal(domain.AlertUnderutilized, created[0].AlertType)
	suite.Equal("H1", created[0].BudgetName)
	suite.True(created[0].UtilizationPercent.Equal(dec("20")))
}

func (suite *AlertServiceTestSuite) TestCheckUnderutilization_InvalidThreshold() {
	bad := dec("150")

	_, err := suite.service.CheckUnderutilization(context.Background(), &bad)

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *AlertServiceTestSuite) TestAcknowledgeAlert() {
	action := "Froze discretionary purchases"
	suite.alertRepo.On("AcknowledgeAlert", mock.Anything, "alert-1", "user-1", &action, suite.now).Return(nil)
	suite.alertRepo.On("FindAlertByID", mock.Anything, "alert-1").Return(&domain.BudgetAlert{
		AlertID:        "alert-1",
		AlertType:      domain.AlertCritical90,
		IsAcknowledged: true,
		ActionTaken:    &action,
	}, nil)
	suite.tracker.On("Track", "user-1", "budget_alert_acknowledged", mock.Anything).Return()

	alert, err := suite.service.AcknowledgeAlert(context.Background(), "alert-1", "user-1", &action)

	suite.Require().NoError(err)
	suite.True(alert.IsAcknowledged)
}

func (suite *AlertServiceTestSuite) TestAcknowledgeAlert_Twice() {
	suite.alertRepo.On("AcknowledgeAlert", mock.Anything, "alert-1", "user-2", (*string)(nil), suite.now).
		Return(apperrors.ErrAlreadyAcknowledged)

	_, err := suite.service.AcknowledgeAlert(context.Background(), "alert-1", "user-2", nil)

	suite.ErrorIs(err, apperrors.ErrAlreadyAcknowledged)
}

func (suite *AlertServiceTestSuite) TestListActiveAlerts_EmptyIsNotNil() {
	budgetID := "budget-fy"
	suite.alertRepo.On("ListAlerts", mock.Anything, mock.MatchedBy(func(f portsrepo.AlertFilter) bool {
		return f.BudgetID != nil && *f.BudgetID == budgetID && f.Acknowledged != nil && !*f.Acknowledged && f.Limit == 25
	})).Return(nil, nil)

	alerts, err := suite.service.ListActiveAlerts(context.Background(), &budgetID, 25)

	suite.Require().NoError(err)
	suite.NotNil(alerts)
	suite.Empty(alerts)
}

func (suite *AlertServiceTestSuite) TestGetAlertStats() {
	stats := &domain.AlertStats{Total: 4, Active: 3, Warning: 1, Critical: 1, Exceeded: 1, Acknowledged: 1}
	suite.alertRepo.On("CountAlerts", mock.Anything).Return(stats, nil)

	got, err := suite.service.GetAlertStats(context.Background())

	suite.Require().NoError(err)
	suite.Equal(stats, got)
}

func TestAlertServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AlertServiceTestSuite))
}
