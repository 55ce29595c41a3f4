package budgeting

import (
	"sort"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

type ruleCheckFunc func(rule domain.AssignmentRule, line domain.TransactionLine, product domain.Product, at time.Time) bool

// ruleChecks run in this order and stop at the first failure.
var ruleChecks = []struct {
	name domain.RuleCheck
	fn   ruleCheckFunc
}{
	{domain.CheckApplyOn, checkApplyOn},
	{domain.CheckProduct, checkProduct},
	{domain.CheckCategory, checkCategory},
	{domain.CheckContact, checkContact},
	{domain.CheckAmount, checkAmount},
	{domain.CheckDate, checkDate},
}

func checkApplyOn(rule domain.AssignmentRule, line domain.TransactionLine, _ domain.Product, _ time.Time) bool {
	return rule.ApplyOn.Accepts(line.Type)
}

func checkProduct(rule domain.AssignmentRule, line domain.TransactionLine, _ domain.Product, _ time.Time) bool {
	return rule.ProductID == nil || *rule.ProductID == line.ProductID
}

// checkCategory matches the product's category or its immediate parent.
// Deeper ancestors are not considered.
func checkCategory(rule domain.AssignmentRule, _ domain.TransactionLine, product domain.Product, _ time.Time) bool {
	if rule.ProductCategoryID == nil {
		return true
	}
	if *rule.ProductCategoryID == product.CategoryID {
		return true
	}
	return product.ParentCategoryID != nil && *rule.ProductCategoryID == *product.ParentCategoryID
}

func checkContact(rule domain.AssignmentRule, line domain.TransactionLine, _ domain.Product, _ time.Time) bool {
	return rule.ContactID == nil || *rule.ContactID == line.ContactID
}

func checkAmount(rule domain.AssignmentRule, line domain.TransactionLine, _ domain.Product, _ time.Time) bool {
	if !rule.UseAmountFilter {
		return true
	}
	if rule.AmountMin != nil && line.Amount.LessThan(*rule.AmountMin) {
		return false
	}
	if rule.AmountMax != nil && line.Amount.GreaterThan(*rule.AmountMax) {
		return false
	}
	return true
}

// checkDate treats DateTo as covering its whole calendar day.
func checkDate(rule domain.AssignmentRule, _ domain.TransactionLine, _ domain.Product, at time.Time) bool {
	if !rule.UseDateFilter {
		return true
	}
	if rule.DateFrom != nil && at.Before(*rule.DateFrom) {
		return false
	}
	if rule.DateTo != nil && at.After(domain.EndOfDay(*rule.DateTo)) {
		return false
	}
	return true
}

// MatchRule reports whether rule accepts line. When it does not, the first
// failing check is returned.
func MatchRule(rule domain.AssignmentRule, line domain.TransactionLine, product domain.Product, at time.Time) (bool, domain.RuleCheck) {
	for _, c := range ruleChecks {
		if !c.fn(rule, line, product, at) {
			return false, c.name
		}
	}
	return true, ""
}

// SortRules returns active rules ordered by sequence. Rules sharing a
// sequence keep their incoming (creation) order.
func SortRules(rules []domain.AssignmentRule) []domain.AssignmentRule {
	active := make([]domain.AssignmentRule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Sequence < active[j].Sequence
	})
	return active
}

// FirstMatch returns the winning rule for line, or nil.
func FirstMatch(rules []domain.AssignmentRule, line domain.TransactionLine, product domain.Product, at time.Time) *domain.AssignmentRule {
	for _, r := range SortRules(rules) {
		if ok, _ := MatchRule(r, line, product, at); ok {
			winner := r
			return &winner
		}
	}
	return nil
}
