package budgeting

import (
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// UnderutilizationWindow is how close to period end a budget must be before
// underutilized lines are flagged.
const UnderutilizationWindow = 7 * day

// DefaultUnderutilizationThreshold is used when the caller supplies none.
var DefaultUnderutilizationThreshold = decimal.NewFromInt(50)

// AlertDecision is the outcome of the threshold transition rule.
type AlertDecision struct {
	Create             bool
	AlertType          domain.AlertType
	Severity           domain.AlertSeverity
	UtilizationPercent decimal.Decimal
}

// DecideThresholdAlert applies the escalation-only transition rule to the
// alerts currently recorded for the line.
//
//   - EXCEEDED_100 unless an open EXCEEDED_100 exists
//   - CRITICAL_90 unless an open CRITICAL_90 or EXCEEDED_100 exists
//   - WARNING_75 only when no alert of any type is open
func DecideThresholdAlert(practical, planned decimal.Decimal, open []domain.BudgetAlert) AlertDecision {
	if !planned.IsPositive() {
		return AlertDecision{UtilizationPercent: decimal.Zero}
	}
	highestOpen := HighestOpenTier(open)

	utilization := AchievementPercent(practical, planned)
	decision := AlertDecision{UtilizationPercent: utilization}

	var candidate domain.AlertType
	switch {
	case utilization.GreaterThanOrEqual(ExceededThreshold):
		if highestOpen == nil || *highestOpen != domain.AlertExceeded100 {
			candidate = domain.AlertExceeded100
		}
	case utilization.GreaterThanOrEqual(CriticalThreshold):
		if highestOpen == nil || highestOpen.Tier() < domain.AlertCritical90.Tier() {
			candidate = domain.AlertCritical90
		}
	case utilization.GreaterThanOrEqual(WarningThreshold):
		if !anyOpen(open) {
			candidate = domain.AlertWarning75
		}
	}

	if candidate == "" {
		return decision
	}
	decision.Create = true
	decision.AlertType = candidate
	decision.Severity = candidate.Severity()
	return decision
}

// HighestOpenTier picks the highest-tier threshold alert among open alerts.
// UNDERUTILIZED and acknowledged alerts are ignored.
func HighestOpenTier(alerts []domain.BudgetAlert) *domain.AlertType {
	var highest *domain.AlertType
	for i := range alerts {
		a := alerts[i]
		if a.IsAcknowledged || a.AlertType.Tier() == 0 {
			continue
		}
		if highest == nil || a.AlertType.Tier() > highest.Tier() {
			t := a.AlertType
			highest = &t
		}
	}
	return highest
}

func anyOpen(alerts []domain.BudgetAlert) bool {
	for i := range alerts {
		if !alerts[i].IsAcknowledged {
			return true
		}
	}
	return false
}

// EndsWithinWindow reports whether the period ends no later than now+window.
func EndsWithinWindow(period domain.Period, now time.Time, window time.Duration) bool {
	return !period.To.After(now.Add(window))
}

// IsUnderutilized reports whether achievement is below threshold.
func IsUnderutilized(achievementPercent, threshold decimal.Decimal) bool {
	return achievementPercent.LessThan(threshold)
}
