package dto

import (
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

// AcknowledgeAlertRequest records what was done about an alert.
type AcknowledgeAlertRequest struct {
	ActionTaken *string `json:"actionTaken" binding:"omitempty,max=500"`
}

// ListAlertsParams defines query parameters for listing active alerts.
type ListAlertsParams struct {
	BudgetID *string `form:"budgetID"`
	Limit    int     `form:"limit,default=50" binding:"min=1,max=200"`
}

// UnderutilizationRequest overrides the configured threshold for one run.
type UnderutilizationRequest struct {
	ThresholdPercent *float64 `json:"thresholdPercent" binding:"omitempty,gt=0,lte=100"`
}

// ListAlertsResponse wraps the active alerts.
type ListAlertsResponse struct {
	Alerts []domain.BudgetAlert `json:"alerts"`
}

// UnderutilizationResponse lists the alerts a run created.
type UnderutilizationResponse struct {
	AlertsCreated int                  `json:"alertsCreated"`
	Alerts        []domain.BudgetAlert `json:"alerts"`
}

// EvaluateAccountRequest re-evaluates one cost center after a document is posted.
type EvaluateAccountRequest struct {
	AnalyticalAccountID string    `json:"analyticalAccountID" binding:"required"`
	Date                time.Time `json:"date" binding:"required"`
}
