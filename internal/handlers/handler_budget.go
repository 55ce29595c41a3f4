package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/SscSPs/furniture_budget_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// budgetHandler handles HTTP requests related to budgets.
type budgetHandler struct {
	budgetService portssvc.BudgetSvcFacade
}

// RegisterBudgetRoutes registers routes related to budgets.
func RegisterBudgetRoutes(rg *gin.RouterGroup, budgetService portssvc.BudgetSvcFacade) {
	h := &budgetHandler{budgetService: budgetService}

	budgets := rg.Group("/budgets")
	{
		budgets.GET("", h.listBudgets)
		budgets.POST("", h.createBudget)
		budgets.GET("/dashboard", h.getDashboard)
		budgets.POST("/limits/check", h.checkExpenseLimits)
		budgets.GET("/:budgetID", h.getBudget)
		budgets.POST("/:budgetID/transition", h.transitionBudget)
		budgets.GET("/:budgetID/metrics", h.getBudgetMetrics)
		budgets.GET("/:budgetID/metrics.xlsx", h.exportBudgetMetrics)
		budgets.POST("/:budgetID/simulate", h.simulateBudget)
		budgets.POST("/:budgetID/recompute", h.recomputeBudget)
	}
}

// createBudget godoc
// @Summary Create a budget
// @Description Creates a DRAFT budget with its planned lines
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   budget body dto.CreateBudgetRequest true "Budget details"
// @Success 201 {object} dto.BudgetResponse
// @Failure 400 {object} map[string]string "Invalid input or period"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Duplicate budget line"
// @Failure 500 {object} map[string]string "Failed to create budget"
// @Security BearerAuth
// @Router /budgets [post]
func (h *budgetHandler) createBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "CreateBudget", err)
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create budget")
		return
	}
	c.JSON(http.StatusCreated, dto.ToBudgetResponse(budget))
}

// listBudgets godoc
// @Summary List budgets
// @Tags budgets
// @Produce  json
// @Param   status query string false "Lifecycle status"
// @Param   limit query int false "Page size" default(20)
// @Param   offset query int false "Offset" default(0)
// @Success 200 {array} dto.BudgetResponse
// @Failure 400 {object} map[string]string "Invalid query"
// @Failure 500 {object} map[string]string "Failed to list budgets"
// @Security BearerAuth
// @Router /budgets [get]
func (h *budgetHandler) listBudgets(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var params dto.ListBudgetsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindFailed(c, logger, "ListBudgets query", err)
		return
	}

	budgets, err := h.budgetService.ListBudgets(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to list budgets")
		return
	}
	c.JSON(http.StatusOK, dto.ToListBudgetResponse(budgets))
}

// getBudget godoc
// @Summary Get a budget
// @Tags budgets
// @Produce  json
// @Param   budgetID path string true "Budget ID"
// @Success 200 {object} dto.BudgetResponse
// @Failure 404 {object} map[string]string "Budget not found"
// @Security BearerAuth
// @Router /budgets/{budgetID} [get]
func (h *budgetHandler) getBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	budget, err := h.budgetService.GetBudget(c.Request.Context(), c.Param("budgetID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

// transitionBudget godoc
// @Summary Change budget status
// @Description DRAFT → CONFIRMED → VALIDATED → DONE; anything not closed may be CANCELLED
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   budgetID path string true "Budget ID"
// @Param   transition body dto.TransitionBudgetRequest true "Target status"
// @Success 200 {object} dto.BudgetResponse
// @Failure 404 {object} map[string]string "Budget not found"
// @Failure 409 {object} map[string]string "Transition not allowed"
// @Security BearerAuth
// @Router /budgets/{budgetID}/transition [post]
func (h *budgetHandler) transitionBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransitionBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "TransitionBudget", err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	budget, err := h.budgetService.TransitionBudget(c.Request.Context(), c.Param("budgetID"), req.Status, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to change budget status")
		return
	}
	logger.Info("Budget status changed", slog.String("budget_id", budget.BudgetID), slog.String("status", string(budget.Status)))
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

// getBudgetMetrics godoc
// @Summary Budget metrics
// @Description Planned, practical and theoretical amounts with achievement and variance per line
// @Tags budgets
// @Produce  json
// @Param   budgetID path string true "Budget ID"
// @Success 200 {object} dto.BudgetMetricsResponse
// @Failure 404 {object} map[string]string "Budget not found"
// @Security BearerAuth
// @Router /budgets/{budgetID}/metrics [get]
func (h *budgetHandler) getBudgetMetrics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	budget, lines, err := h.budgetService.GetBudgetWithMetrics(c.Request.Context(), c.Param("budgetID"))
	if err != nil {
		respondError(c, logger, err, "Failed to compute budget metrics")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetMetricsResponse(budget, lines))
}

// exportBudgetMetrics godoc
// @Summary Export budget metrics
// @Tags budgets
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param   budgetID path string true "Budget ID"
// @Success 200 {file} file
// @Failure 404 {object} map[string]string "Budget not found"
// @Security BearerAuth
// @Router /budgets/{budgetID}/metrics.xlsx [get]
func (h *budgetHandler) exportBudgetMetrics(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	budgetID := c.Param("budgetID")

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", `attachment; filename="budget-`+budgetID+`.xlsx"`)
	if err := h.budgetService.ExportBudgetMetrics(c.Request.Context(), budgetID, c.Writer); err != nil {
		if c.Writer.Written() {
			logger.Error("Budget export failed mid-stream", slog.String("error", err.Error()))
			return
		}
		c.Header("Content-Type", "")
		c.Header("Content-Disposition", "")
		respondError(c, logger, err, "Failed to export budget metrics")
		return
	}
	c.Status(http.StatusOK)
}

// simulateBudget godoc
// @Summary What-if simulation
// @Description Recomputes achievement with replaced planned amounts. Nothing is saved.
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   budgetID path string true "Budget ID"
// @Param   simulation body dto.SimulateBudgetRequest true "Planned amount overrides"
// @Success 200 {object} domain.SimulationResult
// @Failure 400 {object} map[string]string "Negative amount"
// @Failure 404 {object} map[string]string "Budget or line not found"
// @Security BearerAuth
// @Router /budgets/{budgetID}/simulate [post]
func (h *budgetHandler) simulateBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SimulateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "SimulateBudget", err)
		return
	}

	result, err := h.budgetService.SimulateBudget(c.Request.Context(), c.Param("budgetID"), req.Adjustments)
	if err != nil {
		respondError(c, logger, err, "Failed to simulate budget")
		return
	}
	c.JSON(http.StatusOK, result)
}

// recomputeBudget godoc
// @Summary Recompute achieved amounts
// @Description Refreshes every line's cached achieved amount from posted documents
// @Tags budgets
// @Produce  json
// @Param   budgetID path string true "Budget ID"
// @Success 200 {object} dto.BudgetResponse
// @Failure 404 {object} map[string]string "Budget not found"
// @Failure 409 {object} map[string]string "Concurrent update"
// @Security BearerAuth
// @Router /budgets/{budgetID}/recompute [post]
func (h *budgetHandler) recomputeBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	budget, err := h.budgetService.RecomputeBudget(c.Request.Context(), c.Param("budgetID"))
	if err != nil {
		respondError(c, logger, err, "Failed to recompute budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

// getDashboard godoc
// @Summary Budget dashboard
// @Description Totals and per cost center figures across confirmed and validated budgets
// @Tags budgets
// @Produce  json
// @Success 200 {object} domain.DashboardSummary
// @Security BearerAuth
// @Router /budgets/dashboard [get]
func (h *budgetHandler) getDashboard(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	summary, err := h.budgetService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to build dashboard")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// checkExpenseLimits godoc
// @Summary Check expenses against the active budget
// @Description Reports cost centers without an expense line and lines the expenses would overrun
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   check body dto.CheckExpenseLimitsRequest true "Document date and per cost center totals"
// @Success 200 {object} domain.LimitCheckResult
// @Failure 404 {object} map[string]string "No active budget on that date"
// @Security BearerAuth
// @Router /budgets/limits/check [post]
func (h *budgetHandler) checkExpenseLimits(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CheckExpenseLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "CheckExpenseLimits", err)
		return
	}

	result, err := h.budgetService.CheckExpenseLimits(c.Request.Context(), req.Date, req.Expenses)
	if err != nil {
		respondError(c, logger, err, "Failed to check expense limits")
		return
	}
	c.JSON(http.StatusOK, result)
}
