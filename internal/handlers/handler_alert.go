package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/SscSPs/furniture_budget_engine/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type alertHandler struct {
	alertService portssvc.AlertSvcFacade
}

// RegisterAlertRoutes registers routes related to budget alerts.
func RegisterAlertRoutes(rg *gin.RouterGroup, alertService portssvc.AlertSvcFacade) {
	h := &alertHandler{alertService: alertService}

	alerts := rg.Group("/alerts")
	{
		alerts.GET("", h.listActiveAlerts)
		alerts.GET("/stats", h.getAlertStats)
		alerts.POST("/sweep", h.processAllBudgets)
		alerts.POST("/evaluate", h.evaluateAccount)
		alerts.POST("/underutilization", h.checkUnderutilization)
		alerts.POST("/:alertID/acknowledge", h.acknowledgeAlert)
	}
}

// listActiveAlerts godoc
// @Summary List active alerts
// @Description Unacknowledged alerts, most severe first, then newest
// @Tags alerts
// @Produce  json
// @Param   budgetID query string false "Restrict to one budget"
// @Param   limit query int false "Maximum alerts" default(50)
// @Success 200 {object} dto.ListAlertsResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Security BearerAuth
// @Router /alerts [get]
func (h *alertHandler) listActiveAlerts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListAlertsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, logger, "ListAlerts query", err)
		return
	}

	alerts, err := h.alertService.ListActiveAlerts(c.Request.Context(), params.BudgetID, params.Limit)
	if err != nil {
		respondError(c, logger, err, "Failed to list alerts")
		return
	}
	c.JSON(http.StatusOK, dto.ListAlertsResponse{Alerts: alerts})
}

// getAlertStats godoc
// @Summary Alert counters
// @Tags alerts
// @Produce  json
// @Success 200 {object} domain.AlertStats
// @Security BearerAuth
// @Router /alerts/stats [get]
func (h *alertHandler) getAlertStats(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	stats, err := h.alertService.GetAlertStats(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to load alert stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// acknowledgeAlert godoc
// @Summary Acknowledge an alert
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   alertID path string true "Alert ID"
// @Param   ack body dto.AcknowledgeAlertRequest false "Action taken"
// @Success 200 {object} domain.BudgetAlert
// @Failure 404 {object} map[string]string "Alert not found"
// @Failure 409 {object} map[string]string "Already acknowledged"
// @Security BearerAuth
// @Router /alerts/{alertID}/acknowledge [post]
func (h *alertHandler) acknowledgeAlert(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.AcknowledgeAlertRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		bindFailed(c, logger, "AcknowledgeAlert", err)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	alert, err := h.alertService.AcknowledgeAlert(c.Request.Context(), c.Param("alertID"), userID, req.ActionTaken)
	if err != nil {
		respondError(c, logger, err, "Failed to acknowledge alert")
		return
	}
	c.JSON(http.StatusOK, alert)
}

// processAllBudgets godoc
// @Summary Run the alert sweep
// @Description Evaluates every line of confirmed and validated budgets
// @Tags alerts
// @Produce  json
// @Success 200 {object} domain.SweepResult
// @Security BearerAuth
// @Router /alerts/sweep [post]
func (h *alertHandler) processAllBudgets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	result, err := h.alertService.ProcessAllBudgets(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to run alert sweep")
		return
	}
	logger.Info("Alert sweep finished",
		slog.Int("budgets", result.BudgetsProcessed),
		slog.Int("lines", result.LinesProcessed),
		slog.Int("alerts_created", result.AlertsCreated),
		slog.Int("failures", len(result.Failures)))
	c.JSON(http.StatusOK, result)
}

// evaluateAccount godoc
// @Summary Evaluate one cost center
// @Description Re-evaluates the cost center's lines in budgets active on the given date
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   evaluate body dto.EvaluateAccountRequest true "Cost center and document date"
// @Success 200 {object} domain.SweepResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /alerts/evaluate [post]
func (h *alertHandler) evaluateAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.EvaluateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "EvaluateAccount", err)
		return
	}

	result, err := h.alertService.EvaluateAccount(c.Request.Context(), req.AnalyticalAccountID, req.Date)
	if err != nil {
		respondError(c, logger, err, "Failed to evaluate cost center")
		return
	}
	c.JSON(http.StatusOK, result)
}

// checkUnderutilization godoc
// @Summary Flag underused budget lines
// @Description Raises LOW alerts on validated budgets ending within a week whose achievement is under the threshold
// @Tags alerts
// @Accept  json
// @Produce  json
// @Param   check body dto.UnderutilizationRequest false "Threshold override"
// @Success 200 {object} dto.UnderutilizationResponse
// @Failure 400 {object} map[string]string "Invalid threshold"
// @Security BearerAuth
// @Router /alerts/underutilization [post]
func (h *alertHandler) checkUnderutilization(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UnderutilizationRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		bindFailed(c, logger, "Underutilization", err)
		return
	}

	var threshold *decimal.Decimal
	if req.ThresholdPercent != nil {
		t := decimal.NewFromFloat(*req.ThresholdPercent)
		threshold = &t
	}

	created, err := h.alertService.CheckUnderutilization(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, logger, err, "Failed to check underutilization")
		return
	}
	c.JSON(http.StatusOK, dto.UnderutilizationResponse{AlertsCreated: len(created), Alerts: created})
}
