package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a row of the budgets table. Dates are DATE columns.
type Budget struct {
	BudgetID string    `db:"budget_id"`
	Name     string    `db:"name"`
	DateFrom time.Time `db:"date_from"`
	DateTo   time.Time `db:"date_to"`
	Status   string    `db:"status"`
	AuditFields
}

// BudgetLine is a row of budget_lines joined with its analytical account.
type BudgetLine struct {
	BudgetLineID        string          `db:"budget_line_id"`
	BudgetID            string          `db:"budget_id"`
	AnalyticalAccountID string          `db:"analytical_account_id"`
	AccountCode         string          `db:"code"`
	AccountName         string          `db:"account_name"`
	LineType            string          `db:"line_type"`
	PlannedAmount       decimal.Decimal `db:"planned_amount"`
	AchievedAmount      decimal.Decimal `db:"achieved_amount"`
	CreatedAt           time.Time       `db:"created_at"`
}
