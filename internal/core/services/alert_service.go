package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/utils/budgeting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// systemActor is the analytics identity for engine-initiated events.
const systemActor = "budget-engine"

// AlertService raises, lists and acknowledges budget alerts.
type AlertService struct {
	BaseService
	budgetRepo portsrepo.BudgetRepositoryFacade
	alertRepo  portsrepo.AlertRepositoryFacade
	notifier   clients.AlertNotifier
	tracker    clients.EventTracker
	threshold  decimal.Decimal
}

// AlertServiceOption is a functional option for configuring the alert service
type AlertServiceOption func(*AlertService)

func WithAlertClock(now func() time.Time) AlertServiceOption {
	return func(s *AlertService) {
		s.Now = now
	}
}

// WithAlertNotifier pushes every created alert to notifier.
func WithAlertNotifier(notifier clients.AlertNotifier) AlertServiceOption {
	return func(s *AlertService) {
		s.notifier = notifier
	}
}

func WithAlertTracker(tracker clients.EventTracker) AlertServiceOption {
	return func(s *AlertService) {
		s.tracker = tracker
	}
}

// WithUnderutilizationThreshold sets the default percent below which lines
// of closing budgets are flagged.
func WithUnderutilizationThreshold(threshold decimal.Decimal) AlertServiceOption {
	return func(s *AlertService) {
		s.threshold = threshold
	}
}

func NewAlertService(budgetRepo portsrepo.BudgetRepositoryFacade, alertRepo portsrepo.AlertRepositoryFacade, options ...AlertServiceOption) *AlertService {
	svc := &AlertService{
		budgetRepo: budgetRepo,
		alertRepo:  alertRepo,
		threshold:  budgeting.DefaultUnderutilizationThreshold,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.AlertSvcFacade = (*AlertService)(nil)

func (s *AlertService) EvaluateLine(ctx context.Context, budget domain.Budget, line domain.BudgetLine) (*domain.BudgetAlert, error) {
	practical, err := s.budgetRepo.RefreshAchievedAmount(ctx, line, budget.Period)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh achieved amount: %w", err)
	}

	open, err := s.alertRepo.ListOpenAlertsForLine(ctx, line.BudgetLineID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open alerts: %w", err)
	}

	decision := budgeting.DecideThresholdAlert(practical, line.PlannedAmount, open)
	if !decision.Create {
		return nil, nil
	}

	alert := domain.BudgetAlert{
		AlertID:            uuid.NewString(),
		BudgetLineID:       line.BudgetLineID,
		BudgetID:           budget.BudgetID,
		BudgetName:         budget.Name,
		AccountName:        line.AccountName,
		AlertType:          decision.AlertType,
		Severity:           decision.Severity,
		CurrentSpent:       practical,
		BudgetAmount:       line.PlannedAmount,
		UtilizationPercent: decision.UtilizationPercent,
		CreatedAt:          s.now(),
	}
	return s.createAlert(ctx, alert)
}

// createAlert stores the alert and announces it. A nil alert means a
// concurrent evaluation already holds the open slot for this tier.
func (s *AlertService) createAlert(ctx context.Context, alert domain.BudgetAlert) (*domain.BudgetAlert, error) {
	created, err := s.alertRepo.CreateAlert(ctx, alert)
	if err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	if !created {
		s.LogDebug(ctx, "Alert already open, skipped",
			slog.String("budget_line_id", alert.BudgetLineID),
			slog.String("alert_type", string(alert.AlertType)))
		return nil, nil
	}

	s.LogInfo(ctx, "Budget alert created",
		slog.String("alert_id", alert.AlertID),
		slog.String("budget_id", alert.BudgetID),
		slog.String("alert_type", string(alert.AlertType)),
		slog.String("utilization", alert.UtilizationPercent.StringFixed(2)))

	if s.notifier != nil {
		if err := s.notifier.NotifyAlert(ctx, alert); err != nil {
			s.LogWarn(ctx, err, "Failed to send alert notification", slog.String("alert_id", alert.AlertID))
		}
	}
	if s.tracker != nil {
		s.tracker.Track(systemActor, "budget_alert_created", map[string]any{
			"alertID":     alert.AlertID,
			"budgetID":    alert.BudgetID,
			"alertType":   string(alert.AlertType),
			"severity":    string(alert.Severity),
			"utilization": alert.UtilizationPercent.InexactFloat64(),
		})
	}
	return &alert, nil
}

// sweep evaluates the selected lines of each budget, collecting failures.
func (s *AlertService) sweep(ctx context.Context, budgets []domain.Budget, include func(domain.BudgetLine) bool) *domain.SweepResult {
	result := &domain.SweepResult{Failures: []domain.LineFailure{}}
	for _, budget := range budgets {
		result.BudgetsProcessed++
		for _, line := range budget.Lines {
			if include != nil && !include(line) {
				continue
			}
			result.LinesProcessed++
			alert, err := s.EvaluateLine(ctx, budget, line)
			if err != nil {
				s.LogWarn(ctx, err, "Failed to evaluate budget line",
					slog.String("budget_id", budget.BudgetID),
					slog.String("budget_line_id", line.BudgetLineID))
				result.Failures = append(result.Failures, domain.LineFailure{
					BudgetID:     budget.BudgetID,
					BudgetLineID: line.BudgetLineID,
					Error:        err.Error(),
				})
				continue
			}
			if alert != nil {
				result.AlertsCreated++
			}
		}
	}
	return result
}

func (s *AlertService) ProcessAllBudgets(ctx context.Context) (*domain.SweepResult, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, portsrepo.BudgetFilter{Statuses: domain.ActiveBudgetStatuses})
	if err != nil {
		s.LogError(ctx, err, "Failed to list active budgets for sweep")
		return nil, fmt.Errorf("failed to list active budgets: %w", err)
	}

	result := s.sweep(ctx, budgets, nil)
	s.LogInfo(ctx, "Alert sweep finished",
		slog.Int("budgets", result.BudgetsProcessed),
		slog.Int("lines", result.LinesProcessed),
		slog.Int("alerts_created", result.AlertsCreated),
		slog.Int("failures", len(result.Failures)))
	return result, nil
}

func (s *AlertService) EvaluateAccount(ctx context.Context, analyticalAccountID string, date time.Time) (*domain.SweepResult, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, portsrepo.BudgetFilter{
		Statuses: domain.ActiveBudgetStatuses,
		ActiveOn: &date,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list budgets for account evaluation",
			slog.String("analytical_account_id", analyticalAccountID))
		return nil, fmt.Errorf("failed to list active budgets: %w", err)
	}

	return s.sweep(ctx, budgets, func(line domain.BudgetLine) bool {
		return line.AnalyticalAccountID == analyticalAccountID
	}), nil
}

func (s *AlertService) CheckUnderutilization(ctx context.Context, thresholdPercent *decimal.Decimal) ([]domain.BudgetAlert, error) {
	threshold := s.threshold
	if thresholdPercent != nil {
		threshold = *thresholdPercent
	}
	if !threshold.IsPositive() || threshold.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: threshold must be in (0, 100]", apperrors.ErrValidation)
	}

	now := s.now()
	cutoff := now.Add(budgeting.UnderutilizationWindow)
	budgets, err := s.budgetRepo.ListBudgets(ctx, portsrepo.BudgetFilter{
		Statuses:         []domain.BudgetStatus{domain.BudgetValidated},
		EndingOnOrBefore: &cutoff,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list closing budgets")
		return nil, fmt.Errorf("failed to list closing budgets: %w", err)
	}

	created := []domain.BudgetAlert{}
	for _, budget := range budgets {
		if !budgeting.EndsWithinWindow(budget.Period, now, budgeting.UnderutilizationWindow) {
			continue
		}
		for _, line := range budget.Lines {
			alert, err := s.evaluateUnderutilization(ctx, budget, line, threshold)
			if err != nil {
				s.LogWarn(ctx, err, "Failed to check line utilization",
					slog.String("budget_id", budget.BudgetID),
					slog.String("budget_line_id", line.BudgetLineID))
				continue
			}
			if alert != nil {
				created = append(created, *alert)
			}
		}
	}
	return created, nil
}

func (s *AlertService) evaluateUnderutilization(ctx context.Context, budget domain.Budget, line domain.BudgetLine, threshold decimal.Decimal) (*domain.BudgetAlert, error) {
	if !line.PlannedAmount.IsPositive() {
		return nil, nil
	}
	practical, err := s.budgetRepo.RefreshAchievedAmount(ctx, line, budget.Period)
	if err != nil {
		return nil, err
	}
	utilization := budgeting.AchievementPercent(practical, line.PlannedAmount)
	if !budgeting.IsUnderutilized(utilization, threshold) {
		return nil, nil
	}

	open, err := s.alertRepo.ListOpenAlertsForLine(ctx, line.BudgetLineID)
	if err != nil {
		return nil, err
	}
	for _, a := range open {
		if a.AlertType == domain.AlertUnderutilized {
			return nil, nil
		}
	}

	return s.createAlert(ctx, domain.BudgetAlert{
		AlertID:            uuid.NewString(),
		BudgetLineID:       line.BudgetLineID,
		BudgetID:           budget.BudgetID,
		BudgetName:         budget.Name,
		AccountName:        line.AccountName,
		AlertType:          domain.AlertUnderutilized,
		Severity:           domain.AlertUnderutilized.Severity(),
		CurrentSpent:       practical,
		BudgetAmount:       line.PlannedAmount,
		UtilizationPercent: utilization,
		CreatedAt:          s.now(),
	})
}

func (s *AlertService) AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string) (*domain.BudgetAlert, error) {
	if err := s.alertRepo.AcknowledgeAlert(ctx, alertID, userID, actionTaken, s.now()); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrAlreadyAcknowledged) {
			s.LogError(ctx, err, "Failed to acknowledge alert", slog.String("alert_id", alertID))
		}
		return nil, err
	}

	alert, err := s.alertRepo.FindAlertByID(ctx, alertID)
	if err != nil {
		s.LogError(ctx, err, "Failed to reload acknowledged alert", slog.String("alert_id", alertID))
		return nil, err
	}

	s.LogInfo(ctx, "Alert acknowledged", slog.String("alert_id", alertID), slog.String("user_id", userID))
	if s.tracker != nil {
		s.tracker.Track(userID, "budget_alert_acknowledged", map[string]any{
			"alertID":   alertID,
			"alertType": string(alert.AlertType),
		})
	}
	return alert, nil
}

func (s *AlertService) ListActiveAlerts(ctx context.Context, budgetID *string, limit int) ([]domain.BudgetAlert, error) {
	open := false
	alerts, err := s.alertRepo.ListAlerts(ctx, portsrepo.AlertFilter{
		BudgetID:     budgetID,
		Acknowledged: &open,
		Limit:        limit,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to list active alerts")
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	if alerts == nil {
		return []domain.BudgetAlert{}, nil
	}
	return alerts, nil
}

func (s *AlertService) GetAlertStats(ctx context.Context) (*domain.AlertStats, error) {
	stats, err := s.alertRepo.CountAlerts(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to count alerts")
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	return stats, nil
}
