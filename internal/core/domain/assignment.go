package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the side of the business a transaction line belongs to.
type TransactionType string

const (
	TransactionPurchase TransactionType = "PURCHASE"
	TransactionSale     TransactionType = "SALE"
)

// ApplyOn restricts a rule to purchases, sales or both.
type ApplyOn string

const (
	ApplyOnPurchase ApplyOn = "PURCHASE"
	ApplyOnSale     ApplyOn = "SALE"
	ApplyOnBoth     ApplyOn = "BOTH"
)

// Accepts reports whether a rule with this setting may apply to t.
func (a ApplyOn) Accepts(t TransactionType) bool {
	switch a {
	case ApplyOnBoth:
		return true
	case ApplyOnPurchase:
		return t == TransactionPurchase
	case ApplyOnSale:
		return t == TransactionSale
	}
	return false
}

// AssignmentRule maps matching transaction lines to a cost center.
// Nil filter fields are open. Lower Sequence is evaluated first.
type AssignmentRule struct {
	RuleID              string           `json:"ruleID"`
	Name                string           `json:"name"`
	Sequence            int              `json:"sequence"`
	IsActive            bool             `json:"isActive"`
	ProductID           *string          `json:"productID,omitempty"`
	ProductCategoryID   *string          `json:"productCategoryID,omitempty"`
	ContactID           *string          `json:"contactID,omitempty"`
	UseAmountFilter     bool             `json:"useAmountFilter"`
	AmountMin           *decimal.Decimal `json:"amountMin,omitempty"`
	AmountMax           *decimal.Decimal `json:"amountMax,omitempty"`
	UseDateFilter       bool             `json:"useDateFilter"`
	DateFrom            *time.Time       `json:"dateFrom,omitempty"`
	DateTo              *time.Time       `json:"dateTo,omitempty"`
	ApplyOn             ApplyOn          `json:"applyOn"`
	AnalyticalAccountID string           `json:"analyticalAccountID"`
	TimesApplied        int              `json:"timesApplied"`
	LastAppliedAt       *time.Time       `json:"lastAppliedAt,omitempty"`
	AuditFields
}

// RuleCheck names a rule predicate. Checks run in the declared order.
type RuleCheck string

const (
	CheckApplyOn  RuleCheck = "APPLY_ON"
	CheckProduct  RuleCheck = "PRODUCT"
	CheckCategory RuleCheck = "CATEGORY"
	CheckContact  RuleCheck = "CONTACT"
	CheckAmount   RuleCheck = "AMOUNT"
	CheckDate     RuleCheck = "DATE"
)

// LineRef points at a persisted transaction line.
type LineRef struct {
	LineID string          `json:"lineID"`
	Kind   TransactionType `json:"kind"`
}

// TransactionLine is the matching context for a line being assigned.
type TransactionLine struct {
	ProductID   string          `json:"productID"`
	ContactID   string          `json:"contactID"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
	Date        *time.Time      `json:"date,omitempty"`
	Description string          `json:"description,omitempty"`
	Ref         *LineRef        `json:"ref,omitempty"`
}

// Product is what the engine needs to know about a product.
type Product struct {
	ProductID        string  `json:"productID"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	CategoryID       string  `json:"categoryID"`
	CategoryName     string  `json:"categoryName"`
	ParentCategoryID *string `json:"parentCategoryID,omitempty"`
}

// Contact is a customer or vendor.
type Contact struct {
	ContactID string `json:"contactID"`
	Name      string `json:"name"`
}

// Suggestion is one ranked classifier answer.
type Suggestion struct {
	AccountID   string  `json:"accountId"`
	AccountName string  `json:"accountName"`
	Confidence  float64 `json:"confidence"`
}

// ClassificationRequest is sent to the external classifier.
type ClassificationRequest struct {
	ProductName     string          `json:"productName"`
	ProductCategory string          `json:"productCategory"`
	PartnerName     string          `json:"partnerName"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	TransactionType TransactionType `json:"transactionType"`
}

// AssignmentSource says how an assignment was reached.
type AssignmentSource string

const (
	SourceRule       AssignmentSource = "RULE"
	SourceClassifier AssignmentSource = "CLASSIFIER"
	SourceManual     AssignmentSource = "MANUAL"
)

// AssignmentResult is the engine's decision for one line.
type AssignmentResult struct {
	AnalyticalAccountID *string          `json:"analyticalAccountID"`
	RuleID              *string          `json:"ruleID"`
	RuleName            *string          `json:"ruleName,omitempty"`
	IsAutoAssigned      bool             `json:"isAutoAssigned"`
	IsConflict          bool             `json:"isConflict"`
	Source              AssignmentSource `json:"source"`
	Suggestions         []Suggestion     `json:"suggestions,omitempty"`
}

// SuggestionStatus tracks manual review of classifier suggestions.
type SuggestionStatus string

const (
	SuggestionPending  SuggestionStatus = "PENDING"
	SuggestionAccepted SuggestionStatus = "ACCEPTED"
	SuggestionRejected SuggestionStatus = "REJECTED"
)

// AssignmentSuggestion is a persisted classifier suggestion awaiting review.
type AssignmentSuggestion struct {
	SuggestionID string           `json:"suggestionID"`
	Line         LineRef          `json:"line"`
	AccountID    string           `json:"accountID"`
	AccountName  string           `json:"accountName"`
	Confidence   float64          `json:"confidence"`
	IsConflict   bool             `json:"isConflict"`
	Status       SuggestionStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
}
