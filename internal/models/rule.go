package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// AssignmentRule is a row of auto_assignment_rules.
type AssignmentRule struct {
	RuleID              string              `db:"rule_id"`
	Name                string              `db:"name"`
	Sequence            int                 `db:"sequence"`
	IsActive            bool                `db:"is_active"`
	ProductID           sql.NullString      `db:"product_id"`
	ProductCategoryID   sql.NullString      `db:"product_category_id"`
	ContactID           sql.NullString      `db:"contact_id"`
	UseAmountFilter     bool                `db:"use_amount_filter"`
	AmountMin           decimal.NullDecimal `db:"amount_min"`
	AmountMax           decimal.NullDecimal `db:"amount_max"`
	UseDateFilter       bool                `db:"use_date_filter"`
	DateFrom            sql.NullTime        `db:"date_from"`
	DateTo              sql.NullTime        `db:"date_to"`
	ApplyOn             string              `db:"apply_on"`
	AnalyticalAccountID string              `db:"analytical_account_id"`
	TimesApplied        int                 `db:"times_applied"`
	LastAppliedAt       sql.NullTime        `db:"last_applied_at"`
	AuditFields
}

// AssignmentSuggestion is a row of assignment_suggestions.
type AssignmentSuggestion struct {
	SuggestionID        string          `db:"suggestion_id"`
	LineID              string          `db:"line_id"`
	LineKind            string          `db:"line_kind"`
	AnalyticalAccountID string          `db:"analytical_account_id"`
	AccountName         string          `db:"account_name"`
	Confidence          decimal.Decimal `db:"confidence"`
	IsConflict          bool            `db:"is_conflict"`
	Status              string          `db:"status"`
	CreatedAt           time.Time       `db:"created_at"`
}
