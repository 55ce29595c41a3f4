package dto

import (
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RuleRequest defines the data for creating or replacing an auto-assignment rule.
type RuleRequest struct {
	Name                string           `json:"name" binding:"required" validate:"required,max=200"`
	Sequence            *int             `json:"sequence" validate:"omitempty,min=0"`
	IsActive            *bool            `json:"isActive"`
	ProductID           *string          `json:"productID"`
	ProductCategoryID   *string          `json:"productCategoryID"`
	ContactID           *string          `json:"contactID"`
	UseAmountFilter     bool             `json:"useAmountFilter"`
	AmountMin           *decimal.Decimal `json:"amountMin"`
	AmountMax           *decimal.Decimal `json:"amountMax"`
	UseDateFilter       bool             `json:"useDateFilter"`
	DateFrom            *time.Time       `json:"dateFrom"`
	DateTo              *time.Time       `json:"dateTo"`
	ApplyOn             *domain.ApplyOn  `json:"applyOn" validate:"omitempty,oneof=PURCHASE SALE BOTH"`
	AnalyticalAccountID string           `json:"analyticalAccountID" binding:"required" validate:"required"`
}

// TransactionLineRequest describes a line awaiting cost-center attribution.
type TransactionLineRequest struct {
	ProductID   string                 `json:"productID" binding:"required"`
	ContactID   string                 `json:"contactID" binding:"required"`
	Amount      decimal.Decimal        `json:"amount" binding:"required"`
	Type        domain.TransactionType `json:"type" binding:"required,oneof=PURCHASE SALE"`
	Date        *time.Time             `json:"date"`
	Description string                 `json:"description"`
	// LineID ties the request to a persisted bill or invoice line so that
	// conflicts can be reviewed and resolved later.
	LineID *string `json:"lineID"`
}

// BatchAssignmentRequest assigns several lines at once.
type BatchAssignmentRequest struct {
	Lines []TransactionLineRequest `json:"lines" binding:"required,min=1,max=500,dive"`
}

// TestRuleRequest previews a rule against sample lines.
type TestRuleRequest struct {
	Lines []TransactionLineRequest `json:"lines" binding:"required,min=1,max=500,dive"`
}

// TestRuleResponse is the outcome of a rule preview.
type TestRuleResponse struct {
	RuleID  string `json:"ruleID"`
	Total   int    `json:"total"`
	Matched int    `json:"matched"`
}

// BatchAssignmentResponse pairs each input line with its result, in order.
type BatchAssignmentResponse struct {
	Results []domain.AssignmentResult `json:"results"`
}

// ToTransactionLine converts a request into the domain line.
func (r TransactionLineRequest) ToTransactionLine() domain.TransactionLine {
	line := domain.TransactionLine{
		ProductID:   r.ProductID,
		ContactID:   r.ContactID,
		Amount:      r.Amount,
		Type:        r.Type,
		Date:        r.Date,
		Description: r.Description,
	}
	if r.LineID != nil && *r.LineID != "" {
		line.Ref = &domain.LineRef{LineID: *r.LineID, Kind: r.Type}
	}
	return line
}

// ToTransactionLines converts a batch of requests.
func ToTransactionLines(reqs []TransactionLineRequest) []domain.TransactionLine {
	lines := make([]domain.TransactionLine, len(reqs))
	for i, r := range reqs {
		lines[i] = r.ToTransactionLine()
	}
	return lines
}
