package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// BudgetAlert is a row of budget_alerts joined with its line, budget and account.
type BudgetAlert struct {
	AlertID            string          `db:"alert_id"`
	BudgetLineID       string          `db:"budget_line_id"`
	BudgetID           string          `db:"budget_id"`
	BudgetName         string          `db:"budget_name"`
	AccountName        string          `db:"account_name"`
	AlertType          string          `db:"alert_type"`
	Severity           string          `db:"severity"`
	CurrentSpent       decimal.Decimal `db:"current_spent"`
	BudgetAmount       decimal.Decimal `db:"budget_amount"`
	UtilizationPercent decimal.Decimal `db:"utilization_percent"`
	IsAcknowledged     bool            `db:"is_acknowledged"`
	AcknowledgedBy     sql.NullString  `db:"acknowledged_by"`
	AcknowledgedAt     sql.NullTime    `db:"acknowledged_at"`
	ActionTaken        sql.NullString  `db:"action_taken"`
	CreatedAt          time.Time       `db:"created_at"`
}
