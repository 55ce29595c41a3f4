package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/furniture_budget_engine/internal/core/ports/services"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
	"github.com/SscSPs/furniture_budget_engine/internal/middleware"
	"github.com/gin-gonic/gin"
)

type assignmentHandler struct {
	assignmentService portssvc.AssignmentSvcFacade
}

// RegisterAssignmentRoutes registers the rule management and attribution routes.
func RegisterAssignmentRoutes(rg *gin.RouterGroup, assignmentService portssvc.AssignmentSvcFacade) {
	h := &assignmentHandler{assignmentService: assignmentService}

	rules := rg.Group("/assignment-rules")
	{
		rules.GET("", h.listRules)
		rules.POST("", h.createRule)
		rules.GET("/:ruleID", h.getRule)
		rules.PUT("/:ruleID", h.updateRule)
		rules.DELETE("/:ruleID", h.deleteRule)
		rules.POST("/:ruleID/test", h.testRule)
	}

	assignments := rg.Group("/assignments")
	{
		assignments.POST("", h.findAssignment)
		assignments.POST("/batch", h.applyToLines)
		assignments.GET("/conflicts", h.listConflicts)
		assignments.POST("/conflicts/:suggestionID/resolve", h.resolveConflict)
	}
}

// createRule godoc
// @Summary Create an auto-assignment rule
// @Tags assignment-rules
// @Accept  json
// @Produce  json
// @Param   rule body dto.RuleRequest true "Rule details"
// @Success 201 {object} domain.AssignmentRule
// @Failure 400 {object} map[string]string "Invalid rule"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /assignment-rules [post]
func (h *assignmentHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "CreateRule", err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.assignmentService.CreateRule(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to create rule")
		return
	}
	logger.Info("Assignment rule created", slog.String("rule_id", rule.RuleID))
	c.JSON(http.StatusCreated, rule)
}

// listRules godoc
// @Summary List auto-assignment rules
// @Tags assignment-rules
// @Produce  json
// @Success 200 {array} domain.AssignmentRule
// @Security BearerAuth
// @Router /assignment-rules [get]
func (h *assignmentHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	rules, err := h.assignmentService.ListRules(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list rules")
		return
	}
	c.JSON(http.StatusOK, rules)
}

// getRule godoc
// @Summary Get an auto-assignment rule
// @Tags assignment-rules
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Success 200 {object} domain.AssignmentRule
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /assignment-rules/{ruleID} [get]
func (h *assignmentHandler) getRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	rule, err := h.assignmentService.GetRule(c.Request.Context(), c.Param("ruleID"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve rule")
		return
	}
	c.JSON(http.StatusOK, rule)
}

// updateRule godoc
// @Summary Replace an auto-assignment rule
// @Tags assignment-rules
// @Accept  json
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Param   rule body dto.RuleRequest true "Rule details"
// @Success 200 {object} domain.AssignmentRule
// @Failure 400 {object} map[string]string "Invalid rule"
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /assignment-rules/{ruleID} [put]
func (h *assignmentHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "UpdateRule", err)
		return
	}
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.assignmentService.UpdateRule(c.Request.Context(), c.Param("ruleID"), req, userID)
	if err != nil {
		respondError(c, logger, err, "Failed to update rule")
		return
	}
	c.JSON(http.StatusOK, rule)
}

// deleteRule godoc
// @Summary Delete an auto-assignment rule
// @Tags assignment-rules
// @Param   ruleID path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /assignment-rules/{ruleID} [delete]
func (h *assignmentHandler) deleteRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	if err := h.assignmentService.DeleteRule(c.Request.Context(), c.Param("ruleID")); err != nil {
		respondError(c, logger, err, "Failed to delete rule")
		return
	}
	c.Status(http.StatusNoContent)
}

// testRule godoc
// @Summary Preview a rule
// @Description Counts the sample lines this rule would win against the other active rules
// @Tags assignment-rules
// @Accept  json
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Param   sample body dto.TestRuleRequest true "Sample lines"
// @Success 200 {object} dto.TestRuleResponse
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /assignment-rules/{ruleID}/test [post]
func (h *assignmentHandler) testRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TestRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "TestRule", err)
		return
	}

	result, err := h.assignmentService.TestRule(c.Request.Context(), c.Param("ruleID"), dto.ToTransactionLines(req.Lines))
	if err != nil {
		respondError(c, logger, err, "Failed to test rule")
		return
	}
	c.JSON(http.StatusOK, result)
}

// findAssignment godoc
// @Summary Attribute one line to a cost center
// @Description Applies the first matching rule, then falls back to the classifier
// @Tags assignments
// @Accept  json
// @Produce  json
// @Param   line body dto.TransactionLineRequest true "Transaction line"
// @Success 200 {object} domain.AssignmentResult
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /assignments [post]
func (h *assignmentHandler) findAssignment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.TransactionLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "FindAssignment", err)
		return
	}

	result, err := h.assignmentService.FindAssignment(c.Request.Context(), req.ToTransactionLine())
	if err != nil {
		respondError(c, logger, err, "Failed to find assignment")
		return
	}
	c.JSON(http.StatusOK, result)
}

// applyToLines godoc
// @Summary Attribute a batch of lines
// @Tags assignments
// @Accept  json
// @Produce  json
// @Param   batch body dto.BatchAssignmentRequest true "Transaction lines"
// @Success 200 {object} dto.BatchAssignmentResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Security BearerAuth
// @Router /assignments/batch [post]
func (h *assignmentHandler) applyToLines(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.BatchAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindFailed(c, logger, "BatchAssignment", err)
		return
	}

	results, err := h.assignmentService.ApplyToLines(c.Request.Context(), dto.ToTransactionLines(req.Lines))
	if err != nil {
		respondError(c, logger, err, "Failed to assign lines")
		return
	}
	c.JSON(http.StatusOK, dto.BatchAssignmentResponse{Results: results})
}

// listConflicts godoc
// @Summary Pending classifier conflicts
// @Tags assignments
// @Produce  json
// @Success 200 {array} domain.AssignmentSuggestion
// @Security BearerAuth
// @Router /assignments/conflicts [get]
func (h *assignmentHandler) listConflicts(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	suggestions, err := h.assignmentService.ListConflicts(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list conflicts")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}

// resolveConflict godoc
// @Summary Accept a suggestion
// @Description Assigns the line to the suggested cost center and rejects the other pending suggestions for it
// @Tags assignments
// @Produce  json
// @Param   suggestionID path string true "Suggestion ID"
// @Success 200 {object} domain.AssignmentSuggestion
// @Failure 404 {object} map[string]string "Suggestion not found"
// @Failure 409 {object} map[string]string "Already resolved"
// @Security BearerAuth
// @Router /assignments/conflicts/{suggestionID}/resolve [post]
func (h *assignmentHandler) resolveConflict(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	suggestion, err := h.assignmentService.ResolveConflict(c.Request.Context(), c.Param("suggestionID"))
	if err != nil {
		respondError(c, logger, err, "Failed to resolve conflict")
		return
	}
	c.JSON(http.StatusOK, suggestion)
}
