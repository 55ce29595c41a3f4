package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/SscSPs/furniture_budget_engine/internal/utils/budgeting"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// dashboardAlertLimit is how many open alerts the dashboard shows.
const dashboardAlertLimit = 10

// BudgetService implements budget lifecycle and aggregation.
type BudgetService struct {
	BaseService
	budgetRepo  portsrepo.BudgetRepositoryFacade
	accountRepo portsrepo.AnalyticalAccountRepository
	txStore     portsrepo.TransactionStore
	alertRepo   portsrepo.AlertReader
	exporter    clients.BudgetExporter
	validate    *validator.Validate
}

// BudgetServiceOption is a functional option for configuring the budget service
type BudgetServiceOption func(*BudgetService)

// WithBudgetClock overrides the clock used for period math.
func WithBudgetClock(now func() time.Time) BudgetServiceOption {
	return func(s *BudgetService) {
		s.Now = now
	}
}

// WithBudgetAlertReader adds the alert source for the dashboard.
func WithBudgetAlertReader(repo portsrepo.AlertReader) BudgetServiceOption {
	return func(s *BudgetService) {
		s.alertRepo = repo
	}
}

// WithBudgetExporter adds the spreadsheet writer.
func WithBudgetExporter(exporter clients.BudgetExporter) BudgetServiceOption {
	return func(s *BudgetService) {
		s.exporter = exporter
	}
}

// NewBudgetService creates a new budget service with the provided options
func NewBudgetService(
	budgetRepo portsrepo.BudgetRepositoryFacade,
	accountRepo portsrepo.AnalyticalAccountRepository,
	txStore portsrepo.TransactionStore,
	options ...BudgetServiceOption,
) *BudgetService {
	svc := &BudgetService{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		txStore:     txStore,
		validate:    validator.New(),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BudgetSvcFacade = (*BudgetService)(nil)

func (s *BudgetService) CreateBudget(ctx context.Context, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}

	period := domain.Period{From: req.DateFrom, To: req.DateTo}
	if !period.IsValid() {
		return nil, apperrors.ErrInvalidPeriod
	}

	type lineKey struct {
		account  string
		lineType domain.BudgetLineType
	}
	seen := make(map[lineKey]struct{}, len(req.Lines))
	accountIDs := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		if l.PlannedAmount.IsNegative() {
			return nil, fmt.Errorf("%w: planned amount for %s cannot be negative", apperrors.ErrValidation, l.AnalyticalAccountID)
		}
		key := lineKey{l.AnalyticalAccountID, l.Type}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s line for analytical account %s appears twice", apperrors.ErrDuplicate, l.Type, l.AnalyticalAccountID)
		}
		seen[key] = struct{}{}
		accountIDs = append(accountIDs, l.AnalyticalAccountID)
	}

	accounts := map[string]domain.AnalyticalAccount{}
	if len(accountIDs) > 0 {
		var err error
		accounts, err = s.accountRepo.FindAnalyticalAccountsByIDs(ctx, accountIDs)
		if err != nil {
			s.LogError(ctx, err, "Failed to load analytical accounts for budget")
			return nil, fmt.Errorf("failed to load analytical accounts: %w", err)
		}
	}

	now := s.now()
	budget := domain.Budget{
		BudgetID: uuid.NewString(),
		Name:     req.Name,
		Period:   period,
		Status:   domain.BudgetDraft,
		Lines:    make([]domain.BudgetLine, 0, len(req.Lines)),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	for i, l := range req.Lines {
		acc, ok := accounts[l.AnalyticalAccountID]
		if !ok {
			return nil, fmt.Errorf("%w: analytical account %s does not exist", apperrors.ErrValidation, l.AnalyticalAccountID)
		}
		budget.Lines = append(budget.Lines, domain.BudgetLine{
			BudgetLineID:        uuid.NewString(),
			BudgetID:            budget.BudgetID,
			AnalyticalAccountID: l.AnalyticalAccountID,
			AccountCode:         acc.Code,
			AccountName:         acc.Name,
			Type:                l.Type,
			PlannedAmount:       l.PlannedAmount,
			AchievedAmount:      decimal.Zero,
			// line order is creation order
			CreatedAt: now.Add(time.Duration(i) * time.Microsecond),
		})
	}

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		s.LogError(ctx, err, "Failed to save budget", slog.String("budget_id", budget.BudgetID))
		return nil, err
	}

	budget.Period = budget.Period.Inclusive()
	s.LogInfo(ctx, "Budget created",
		slog.String("budget_id", budget.BudgetID),
		slog.Int("lines", len(budget.Lines)))
	return &budget, nil
}

func (s *BudgetService) GetBudget(ctx context.Context, budgetID string) (*domain.Budget, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find budget", slog.String("budget_id", budgetID))
		}
		return nil, err
	}
	return budget, nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, params dto.ListBudgetsParams) ([]domain.Budget, error) {
	filter := portsrepo.BudgetFilter{Limit: params.Limit, Offset: params.Offset}
	if params.Status != nil {
		filter.Statuses = []domain.BudgetStatus{*params.Status}
	}
	budgets, err := s.budgetRepo.ListBudgets(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budgets")
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	if budgets == nil {
		return []domain.Budget{}, nil
	}
	return budgets, nil
}

func (s *BudgetService) TransitionBudget(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string) (*domain.Budget, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !budget.Status.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", apperrors.ErrInvalidTransition, budget.Status, status)
	}

	now := s.now()
	if err := s.budgetRepo.UpdateBudgetStatus(ctx, budgetID, status, userID, now); err != nil {
		s.LogError(ctx, err, "Failed to update budget status",
			slog.String("budget_id", budgetID),
			slog.String("status", string(status)))
		return nil, err
	}

	s.LogInfo(ctx, "Budget status changed",
		slog.String("budget_id", budgetID),
		slog.String("from", string(budget.Status)),
		slog.String("to", string(status)))
	budget.Status = status
	budget.LastUpdatedAt = now
	budget.LastUpdatedBy = userID
	return budget, nil
}

func (s *BudgetService) RecomputeBudget(ctx context.Context, budgetID string) (*domain.Budget, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if !budget.Status.IsTracked() {
		s.LogDebug(ctx, "Skipping recompute of untracked budget",
			slog.String("budget_id", budgetID),
			slog.String("status", string(budget.Status)))
		return budget, nil
	}

	for i := range budget.Lines {
		achieved, err := s.budgetRepo.RefreshAchievedAmount(ctx, budget.Lines[i], budget.Period)
		if err != nil {
			s.LogError(ctx, err, "Failed to refresh achieved amount",
				slog.String("budget_id", budgetID),
				slog.String("budget_line_id", budget.Lines[i].BudgetLineID))
			return nil, fmt.Errorf("failed to recompute line %s: %w", budget.Lines[i].BudgetLineID, err)
		}
		budget.Lines[i].AchievedAmount = achieved
	}
	return budget, nil
}

// practicalAmount reads posted totals for a line. Untracked budgets and
// store failures report zero; the failure is logged.
func (s *BudgetService) practicalAmount(ctx context.Context, budget domain.Budget, line domain.BudgetLine) decimal.Decimal {
	if !budget.Status.IsTracked() {
		return decimal.Zero
	}
	total, err := s.txStore.SumPostedLineTotals(ctx, line.AnalyticalAccountID, line.Type.TransactionType(), budget.Period.From, budget.Period.To)
	if err != nil {
		s.LogWarn(ctx, err, "Failed to read posted totals, using zero",
			slog.String("budget_id", budget.BudgetID),
			slog.String("budget_line_id", line.BudgetLineID))
		return decimal.Zero
	}
	return total
}

func (s *BudgetService) lineMetrics(ctx context.Context, budget domain.Budget, now time.Time) []domain.BudgetLineWithMetrics {
	out := make([]domain.BudgetLineWithMetrics, 0, len(budget.Lines))
	for _, line := range budget.Lines {
		m := budgeting.ComputeLineMetrics(line.PlannedAmount, s.practicalAmount(ctx, budget, line), budget.Period, now)
		out = append(out, domain.BudgetLineWithMetrics{
			BudgetLineID:        line.BudgetLineID,
			AnalyticalAccountID: line.AnalyticalAccountID,
			AccountCode:         line.AccountCode,
			AccountName:         line.AccountName,
			Type:                line.Type,
			Metrics:             m,
			AlertStatus:         budgeting.GetAlertStatus(m.AchievementPercent),
		})
	}
	return out
}

func (s *BudgetService) GetBudgetWithMetrics(ctx context.Context, budgetID string) (*domain.Budget, []domain.BudgetLineWithMetrics, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, nil, err
	}
	return budget, s.lineMetrics(ctx, *budget, s.now()), nil
}

func (s *BudgetService) GetDashboardSummary(ctx context.Context) (*domain.DashboardSummary, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, portsrepo.BudgetFilter{Statuses: domain.ActiveBudgetStatuses})
	if err != nil {
		s.LogError(ctx, err, "Failed to list active budgets for dashboard")
		return nil, fmt.Errorf("failed to list active budgets: %w", err)
	}

	summary := &domain.DashboardSummary{
		TotalPlanned:       decimal.Zero,
		TotalPractical:     decimal.Zero,
		CostCenters:        []domain.CostCenterSummary{},
		RecentAlerts:       []domain.BudgetAlert{},
		ActiveBudgetsCount: len(budgets),
	}

	rowIndex := make(map[string]int)
	for _, budget := range budgets {
		for _, line := range budget.Lines {
			practical := s.practicalAmount(ctx, budget, line)
			summary.TotalPlanned = summary.TotalPlanned.Add(line.PlannedAmount)
			summary.TotalPractical = summary.TotalPractical.Add(practical)

			idx, ok := rowIndex[line.AnalyticalAccountID]
			if !ok {
				idx = len(summary.CostCenters)
				rowIndex[line.AnalyticalAccountID] = idx
				summary.CostCenters = append(summary.CostCenters, domain.CostCenterSummary{
					AnalyticalAccountID: line.AnalyticalAccountID,
					Code:                line.AccountCode,
					Name:                line.AccountName,
					Planned:             decimal.Zero,
					Actual:              decimal.Zero,
				})
			}
			row := &summary.CostCenters[idx]
			row.Planned = row.Planned.Add(line.PlannedAmount)
			row.Actual = row.Actual.Add(practical)
		}
	}

	for i := range summary.CostCenters {
		row := &summary.CostCenters[i]
		row.Percent = budgeting.AchievementPercent(row.Actual, row.Planned)
		row.Status = budgeting.GetAlertStatus(row.Percent)
	}
	sort.SliceStable(summary.CostCenters, func(i, j int) bool {
		return summary.CostCenters[i].Percent.GreaterThan(summary.CostCenters[j].Percent)
	})

	summary.TotalRemaining = summary.TotalPlanned.Sub(summary.TotalPractical)
	summary.OverallAchievement = budgeting.AchievementPercent(summary.TotalPractical, summary.TotalPlanned)

	if s.alertRepo != nil {
		open := false
		alerts, err := s.alertRepo.ListAlerts(ctx, portsrepo.AlertFilter{
			Acknowledged: &open,
			NewestFirst:  true,
			Limit:        dashboardAlertLimit,
		})
		if err != nil {
			s.LogWarn(ctx, err, "Failed to load recent alerts for dashboard")
		} else if alerts != nil {
			summary.RecentAlerts = alerts
		}
	}

	return summary, nil
}

func (s *BudgetService) SimulateBudget(ctx context.Context, budgetID string, adjustments []domain.PlannedAdjustment) (*domain.SimulationResult, error) {
	budget, err := s.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(budget.Lines))
	for _, l := range budget.Lines {
		known[l.BudgetLineID] = struct{}{}
	}
	overrides := make(map[string]decimal.Decimal, len(adjustments))
	for _, adj := range adjustments {
		if _, ok := known[adj.BudgetLineID]; !ok {
			return nil, fmt.Errorf("%w: %s is not a line of budget %s", apperrors.ErrBudgetLineNotFound, adj.BudgetLineID, budgetID)
		}
		if adj.PlannedAmount.IsNegative() {
			return nil, fmt.Errorf("%w: planned amount for line %s cannot be negative", apperrors.ErrValidation, adj.BudgetLineID)
		}
		overrides[adj.BudgetLineID] = adj.PlannedAmount
	}

	result := &domain.SimulationResult{
		BudgetID:   budget.BudgetID,
		BudgetName: budget.Name,
		Period:     budget.Period,
		Lines:      make([]domain.SimulatedLine, 0, len(budget.Lines)),
	}
	for _, line := range budget.Lines {
		planned := line.PlannedAmount
		if override, ok := overrides[line.BudgetLineID]; ok {
			planned = override
		}
		spent := s.practicalAmount(ctx, *budget, line)
		achievement := budgeting.AchievementPercent(spent, planned)
		result.Lines = append(result.Lines, domain.SimulatedLine{
			BudgetLineID:         line.BudgetLineID,
			AccountName:          line.AccountName,
			OriginalPlanned:      line.PlannedAmount,
			SimulatedPlanned:     planned,
			CurrentSpent:         spent,
			SimulatedAchievement: achievement,
			SimulatedStatus:      budgeting.GetAlertStatus(achievement),
		})
	}
	return result, nil
}

func (s *BudgetService) CheckExpenseLimits(ctx context.Context, date time.Time, expenses []dto.ExpenseAmount) (*domain.LimitCheckResult, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, portsrepo.BudgetFilter{
		Statuses: domain.ActiveBudgetStatuses,
		ActiveOn: &date,
		Limit:    1,
	})
	if err != nil {
		s.LogError(ctx, err, "Failed to find active budget", slog.Time("date", date))
		return nil, fmt.Errorf("failed to find active budget: %w", err)
	}
	if len(budgets) == 0 {
		return nil, fmt.Errorf("%w: no active budget on %s", apperrors.ErrBudgetNotFound, date.Format("2006-01-02"))
	}
	budget := budgets[0]

	// several document lines may hit the same cost center
	order := make([]string, 0, len(expenses))
	totals := make(map[string]decimal.Decimal, len(expenses))
	for _, e := range expenses {
		if _, ok := totals[e.AnalyticalAccountID]; !ok {
			order = append(order, e.AnalyticalAccountID)
		}
		totals[e.AnalyticalAccountID] = totals[e.AnalyticalAccountID].Add(e.Amount)
	}

	result := &domain.LimitCheckResult{
		BudgetID:        budget.BudgetID,
		MissingAccounts: []string{},
		Breaches:        []domain.LimitBreach{},
	}
	var missing []string
	for _, accountID := range order {
		line := findExpenseLine(budget, accountID)
		if line == nil {
			missing = append(missing, accountID)
			continue
		}
		spent := s.practicalAmount(ctx, budget, *line)
		projected := spent.Add(totals[accountID])
		if projected.GreaterThan(line.PlannedAmount) {
			result.Breaches = append(result.Breaches, domain.LimitBreach{
				AnalyticalAccountID: accountID,
				AccountName:         line.AccountName,
				PlannedAmount:       line.PlannedAmount,
				CurrentSpent:        spent,
				NewExpense:          totals[accountID],
				WouldExceedBy:       projected.Sub(line.PlannedAmount),
			})
		}
	}

	if len(missing) > 0 {
		names, err := s.accountRepo.FindAnalyticalAccountsByIDs(ctx, missing)
		if err != nil {
			s.LogWarn(ctx, err, "Failed to resolve analytical account names")
		}
		for _, id := range missing {
			if acc, ok := names[id]; ok {
				result.MissingAccounts = append(result.MissingAccounts, acc.Name)
			} else {
				result.MissingAccounts = append(result.MissingAccounts, id)
			}
		}
	}

	result.IsValid = len(result.MissingAccounts) == 0 && len(result.Breaches) == 0
	return result, nil
}

func findExpenseLine(budget domain.Budget, accountID string) *domain.BudgetLine {
	for i := range budget.Lines {
		if budget.Lines[i].AnalyticalAccountID == accountID && budget.Lines[i].Type == domain.LineExpense {
			return &budget.Lines[i]
		}
	}
	return nil
}

func (s *BudgetService) ExportBudgetMetrics(ctx context.Context, budgetID string, w io.Writer) error {
	if s.exporter == nil {
		return apperrors.NewAppError(500, "budget export is not configured", nil)
	}
	budget, lines, err := s.GetBudgetWithMetrics(ctx, budgetID)
	if err != nil {
		return err
	}
	if err := s.exporter.WriteBudgetMetrics(w, *budget, lines); err != nil {
		s.LogError(ctx, err, "Failed to export budget metrics", slog.String("budget_id", budgetID))
		return fmt.Errorf("failed to export budget metrics: %w", err)
	}
	return nil
}
