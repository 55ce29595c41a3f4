package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the lifecycle state of a budget.
type BudgetStatus string

const (
	BudgetDraft     BudgetStatus = "DRAFT"
	BudgetConfirmed BudgetStatus = "CONFIRMED"
	BudgetValidated BudgetStatus = "VALIDATED"
	BudgetDone      BudgetStatus = "DONE"
	BudgetCancelled BudgetStatus = "CANCELLED"
)

// IsTracked reports whether budgets in this status take part in metric computation.
func (s BudgetStatus) IsTracked() bool {
	switch s {
	case BudgetConfirmed, BudgetValidated, BudgetDone:
		return true
	}
	return false
}

// IsActive reports whether budgets in this status are swept for alerts and
// included in the dashboard.
func (s BudgetStatus) IsActive() bool {
	return s == BudgetConfirmed || s == BudgetValidated
}

// CanTransitionTo enforces DRAFT → CONFIRMED → VALIDATED → DONE, with
// cancellation allowed from anything that is not already closed.
func (s BudgetStatus) CanTransitionTo(next BudgetStatus) bool {
	switch next {
	case BudgetConfirmed:
		return s == BudgetDraft
	case BudgetValidated:
		return s == BudgetConfirmed
	case BudgetDone:
		return s == BudgetValidated
	case BudgetCancelled:
		return s != BudgetDone && s != BudgetCancelled
	}
	return false
}

// ActiveBudgetStatuses lists statuses included in sweeps and dashboards.
var ActiveBudgetStatuses = []BudgetStatus{BudgetConfirmed, BudgetValidated}

// BudgetLineType says whether a line tracks spend or income.
type BudgetLineType string

const (
	LineExpense BudgetLineType = "EXPENSE"
	LineIncome  BudgetLineType = "INCOME"
)

// TransactionType maps a budget line type onto the side of transactions it sums.
func (t BudgetLineType) TransactionType() TransactionType {
	if t == LineIncome {
		return TransactionSale
	}
	return TransactionPurchase
}

// Budget is a planned amount per cost center over a fixed period.
type Budget struct {
	BudgetID string       `json:"budgetID"`
	Name     string       `json:"name"`
	Period   Period       `json:"period"`
	Status   BudgetStatus `json:"status"`
	Lines    []BudgetLine `json:"lines,omitempty"`
	AuditFields
}

// BudgetLine is the planned amount for one analytical account and type.
// AchievedAmount is a cache of posted transaction totals; the transaction
// store is the source of truth and the cache is recomputed from it.
type BudgetLine struct {
	BudgetLineID        string          `json:"budgetLineID"`
	BudgetID            string          `json:"budgetID"`
	AnalyticalAccountID string          `json:"analyticalAccountID"`
	AccountCode         string          `json:"accountCode,omitempty"`
	AccountName         string          `json:"accountName,omitempty"`
	Type                BudgetLineType  `json:"type"`
	PlannedAmount       decimal.Decimal `json:"plannedAmount"`
	AchievedAmount      decimal.Decimal `json:"achievedAmount"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// AlertStatus is the display status derived from achievement percent.
type AlertStatus string

const (
	StatusOK       AlertStatus = "OK"
	StatusWarning  AlertStatus = "WARNING"
	StatusCritical AlertStatus = "CRITICAL"
	StatusExceeded AlertStatus = "EXCEEDED"
)

// BudgetMetrics are the computed figures for one budget line.
type BudgetMetrics struct {
	PlannedAmount        decimal.Decimal `json:"plannedAmount"`
	PracticalAmount      decimal.Decimal `json:"practicalAmount"`
	TheoreticalAmount    decimal.Decimal `json:"theoreticalAmount"`
	AchievementPercent   decimal.Decimal `json:"achievementPercent"`
	RemainingAmount      decimal.Decimal `json:"remainingAmount"`
	PeriodElapsedPercent decimal.Decimal `json:"periodElapsedPercent"`
	VarianceAmount       decimal.Decimal `json:"varianceAmount"`
	VariancePercent      decimal.Decimal `json:"variancePercent"`
}

// BudgetLineWithMetrics pairs a line with its metrics and status.
type BudgetLineWithMetrics struct {
	BudgetLineID        string         `json:"budgetLineID"`
	AnalyticalAccountID string         `json:"analyticalAccountID"`
	AccountCode         string         `json:"accountCode"`
	AccountName         string         `json:"accountName"`
	Type                BudgetLineType `json:"type"`
	Metrics             BudgetMetrics  `json:"metrics"`
	AlertStatus         AlertStatus    `json:"alertStatus"`
}

// CostCenterSummary is one dashboard row, merged across budgets.
type CostCenterSummary struct {
	AnalyticalAccountID string          `json:"analyticalAccountID"`
	Code                string          `json:"code"`
	Name                string          `json:"name"`
	Planned             decimal.Decimal `json:"planned"`
	Actual              decimal.Decimal `json:"actual"`
	Percent             decimal.Decimal `json:"percent"`
	Status              AlertStatus     `json:"status"`
}

// DashboardSummary rolls up all active budgets.
type DashboardSummary struct {
	TotalPlanned       decimal.Decimal     `json:"totalPlanned"`
	TotalPractical     decimal.Decimal     `json:"totalPractical"`
	TotalRemaining     decimal.Decimal     `json:"totalRemaining"`
	OverallAchievement decimal.Decimal     `json:"overallAchievement"`
	CostCenters        []CostCenterSummary `json:"costCenters"`
	RecentAlerts       []BudgetAlert       `json:"recentAlerts"`
	ActiveBudgetsCount int                 `json:"activeBudgetsCount"`
}

// PlannedAdjustment is a hypothetical planned amount for one line.
type PlannedAdjustment struct {
	BudgetLineID  string          `json:"budgetLineID"`
	PlannedAmount decimal.Decimal `json:"plannedAmount"`
}

// SimulatedLine is the what-if outcome for one line.
type SimulatedLine struct {
	BudgetLineID         string          `json:"budgetLineID"`
	AccountName          string          `json:"accountName"`
	OriginalPlanned      decimal.Decimal `json:"originalPlanned"`
	SimulatedPlanned     decimal.Decimal `json:"simulatedPlanned"`
	CurrentSpent         decimal.Decimal `json:"currentSpent"`
	SimulatedAchievement decimal.Decimal `json:"simulatedAchievement"`
	SimulatedStatus      AlertStatus     `json:"simulatedStatus"`
}

// SimulationResult is returned by a budget what-if run.
type SimulationResult struct {
	BudgetID   string          `json:"budgetID"`
	BudgetName string          `json:"budgetName"`
	Period     Period          `json:"period"`
	Lines      []SimulatedLine `json:"lines"`
}

// LimitBreach describes a line an expense would push past its plan.
type LimitBreach struct {
	AnalyticalAccountID string          `json:"analyticalAccountID"`
	AccountName         string          `json:"accountName"`
	PlannedAmount       decimal.Decimal `json:"plannedAmount"`
	CurrentSpent        decimal.Decimal `json:"currentSpent"`
	NewExpense          decimal.Decimal `json:"newExpense"`
	WouldExceedBy       decimal.Decimal `json:"wouldExceedBy"`
}

// LimitCheckResult reports whether a set of expenses fits the active budget.
type LimitCheckResult struct {
	IsValid         bool          `json:"isValid"`
	BudgetID        string        `json:"budgetID,omitempty"`
	MissingAccounts []string      `json:"missingAccounts"`
	Breaches        []LimitBreach `json:"breaches"`
}
