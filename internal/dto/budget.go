package dto

import (
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBudgetLineRequest is one planned amount inside a new budget.
type CreateBudgetLineRequest struct {
	AnalyticalAccountID string                `json:"analyticalAccountID" binding:"required" validate:"required"`
	Type                domain.BudgetLineType `json:"type" binding:"required,oneof=EXPENSE INCOME" validate:"required,oneof=EXPENSE INCOME"`
	PlannedAmount       decimal.Decimal       `json:"plannedAmount" binding:"required" validate:"required"`
}

// CreateBudgetRequest defines the data needed to create a new budget.
// Dates are calendar dates; the period covers the whole of DateTo.
type CreateBudgetRequest struct {
	Name     string                    `json:"name" binding:"required" validate:"required,max=200"`
	DateFrom time.Time                 `json:"dateFrom" binding:"required" validate:"required"`
	DateTo   time.Time                 `json:"dateTo" binding:"required" validate:"required"`
	Lines    []CreateBudgetLineRequest `json:"lines" binding:"dive" validate:"dive"`
}

// TransitionBudgetRequest moves a budget through its lifecycle.
type TransitionBudgetRequest struct {
	Status domain.BudgetStatus `json:"status" binding:"required,oneof=DRAFT CONFIRMED VALIDATED DONE CANCELLED"`
}

// ListBudgetsParams defines query parameters for listing budgets.
type ListBudgetsParams struct {
	Status *domain.BudgetStatus `form:"status" binding:"omitempty,oneof=DRAFT CONFIRMED VALIDATED DONE CANCELLED"`
	Limit  int                  `form:"limit,default=20" binding:"min=1,max=100"`
	Offset int                  `form:"offset,default=0" binding:"min=0"`
}

// SimulateBudgetRequest carries the hypothetical planned amounts.
type SimulateBudgetRequest struct {
	Adjustments []domain.PlannedAdjustment `json:"adjustments" binding:"required,min=1"`
}

// ExpenseAmount is the total a document would add to one cost center.
type ExpenseAmount struct {
	AnalyticalAccountID string          `json:"analyticalAccountID" binding:"required"`
	Amount              decimal.Decimal `json:"amount" binding:"required"`
}

// CheckExpenseLimitsRequest asks whether expenses dated Date fit the active budget.
type CheckExpenseLimitsRequest struct {
	Date     time.Time       `json:"date" binding:"required"`
	Expenses []ExpenseAmount `json:"expenses" binding:"required,min=1,dive"`
}

// BudgetLineResponse defines the data returned for a budget line.
type BudgetLineResponse struct {
	BudgetLineID        string                `json:"budgetLineID"`
	AnalyticalAccountID string                `json:"analyticalAccountID"`
	AccountCode         string                `json:"accountCode"`
	AccountName         string                `json:"accountName"`
	Type                domain.BudgetLineType `json:"type"`
	PlannedAmount       decimal.Decimal       `json:"plannedAmount"`
	AchievedAmount      decimal.Decimal       `json:"achievedAmount"`
}

// BudgetResponse defines the data returned for a budget.
type BudgetResponse struct {
	BudgetID      string               `json:"budgetID"`
	Name          string               `json:"name"`
	DateFrom      time.Time            `json:"dateFrom"`
	DateTo        time.Time            `json:"dateTo"`
	Status        domain.BudgetStatus  `json:"status"`
	Lines         []BudgetLineResponse `json:"lines"`
	CreatedAt     time.Time            `json:"createdAt"`
	CreatedBy     string               `json:"createdBy"`
	LastUpdatedAt time.Time            `json:"lastUpdatedAt"`
	LastUpdatedBy string               `json:"lastUpdatedBy"`
}

// BudgetMetricsResponse is a budget with per-line metrics.
type BudgetMetricsResponse struct {
	BudgetID string                         `json:"budgetID"`
	Name     string                         `json:"name"`
	Status   domain.BudgetStatus            `json:"status"`
	DateFrom time.Time                      `json:"dateFrom"`
	DateTo   time.Time                      `json:"dateTo"`
	Lines    []domain.BudgetLineWithMetrics `json:"lines"`
}

// ToBudgetResponse converts a domain.Budget to BudgetResponse DTO
func ToBudgetResponse(b *domain.Budget) BudgetResponse {
	lines := make([]BudgetLineResponse, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = BudgetLineResponse{
			BudgetLineID:        l.BudgetLineID,
			AnalyticalAccountID: l.AnalyticalAccountID,
			AccountCode:         l.AccountCode,
			AccountName:         l.AccountName,
			Type:                l.Type,
			PlannedAmount:       l.PlannedAmount,
			AchievedAmount:      l.AchievedAmount,
		}
	}
	return BudgetResponse{
		BudgetID:      b.BudgetID,
		Name:          b.Name,
		DateFrom:      b.Period.From,
		DateTo:        b.Period.To,
		Status:        b.Status,
		Lines:         lines,
		CreatedAt:     b.CreatedAt,
		CreatedBy:     b.CreatedBy,
		LastUpdatedAt: b.LastUpdatedAt,
		LastUpdatedBy: b.LastUpdatedBy,
	}
}

// ToListBudgetResponse converts a slice of domain.Budget to BudgetResponse DTOs
func ToListBudgetResponse(budgets []domain.Budget) []BudgetResponse {
	res := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		res[i] = ToBudgetResponse(&budgets[i])
	}
	return res
}

// ToBudgetMetricsResponse combines a budget header with computed lines.
func ToBudgetMetricsResponse(b *domain.Budget, lines []domain.BudgetLineWithMetrics) BudgetMetricsResponse {
	if lines == nil {
		lines = []domain.BudgetLineWithMetrics{}
	}
	return BudgetMetricsResponse{
		BudgetID: b.BudgetID,
		Name:     b.Name,
		Status:   b.Status,
		DateFrom: b.Period.From,
		DateTo:   b.Period.To,
		Lines:    lines,
	}
}
