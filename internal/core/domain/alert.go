package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType identifies the threshold an alert was raised for.
type AlertType string

const (
	AlertWarning75     AlertType = "WARNING_75"
	AlertCritical90    AlertType = "CRITICAL_90"
	AlertExceeded100   AlertType = "EXCEEDED_100"
	AlertUnderutilized AlertType = "UNDERUTILIZED"
)

// Tier orders threshold alerts. UNDERUTILIZED sits outside the ladder.
func (t AlertType) Tier() int {
	switch t {
	case AlertWarning75:
		return 1
	case AlertCritical90:
		return 2
	case AlertExceeded100:
		return 3
	}
	return 0
}

// Severity returns the fixed severity for the alert type.
func (t AlertType) Severity() AlertSeverity {
	switch t {
	case AlertWarning75:
		return SeverityMedium
	case AlertCritical90:
		return SeverityHigh
	case AlertExceeded100:
		return SeverityCritical
	}
	return SeverityLow
}

// ThresholdAlertTypes are the escalation ladder, lowest first.
var ThresholdAlertTypes = []AlertType{AlertWarning75, AlertCritical90, AlertExceeded100}

// AlertSeverity ranks alerts for display.
type AlertSeverity string

const (
	SeverityLow      AlertSeverity = "LOW"
	SeverityMedium   AlertSeverity = "MEDIUM"
	SeverityHigh     AlertSeverity = "HIGH"
	SeverityCritical AlertSeverity = "CRITICAL"
)

// BudgetAlert is an audit record of a threshold crossing. Alerts are never
// deleted; the only mutation is acknowledgement.
type BudgetAlert struct {
	AlertID            string          `json:"alertID"`
	BudgetLineID       string          `json:"budgetLineID"`
	BudgetID           string          `json:"budgetID"`
	BudgetName         string          `json:"budgetName,omitempty"`
	AccountName        string          `json:"accountName,omitempty"`
	AlertType          AlertType       `json:"alertType"`
	Severity           AlertSeverity   `json:"severity"`
	CurrentSpent       decimal.Decimal `json:"currentSpent"`
	BudgetAmount       decimal.Decimal `json:"budgetAmount"`
	UtilizationPercent decimal.Decimal `json:"utilizationPercent"`
	IsAcknowledged     bool            `json:"isAcknowledged"`
	AcknowledgedBy     *string         `json:"acknowledgedBy,omitempty"`
	AcknowledgedAt     *time.Time      `json:"acknowledgedAt,omitempty"`
	ActionTaken        *string         `json:"actionTaken,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

// AlertStats counts alerts by state.
type AlertStats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Warning      int `json:"warning"`
	Critical     int `json:"critical"`
	Exceeded     int `json:"exceeded"`
	Acknowledged int `json:"acknowledged"`
}

// LineFailure records a budget line the sweep could not process.
type LineFailure struct {
	BudgetID     string `json:"budgetID"`
	BudgetLineID string `json:"budgetLineID"`
	Error        string `json:"error"`
}

// SweepResult summarizes an alert sweep.
type SweepResult struct {
	AlertsCreated    int           `json:"alertsCreated"`
	BudgetsProcessed int           `json:"budgetsProcessed"`
	LinesProcessed   int           `json:"linesProcessed"`
	Failures         []LineFailure `json:"failures"`
}
