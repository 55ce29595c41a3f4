// Package budgeting holds the pure budget calculations: line metrics, rule
// matching, classifier decision policy and the alert transition rule.
// Nothing in here touches storage or reads the clock.
package budgeting

import (
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// Alert status thresholds, inclusive lower bounds.
var (
	WarningThreshold  = decimal.NewFromInt(75)
	CriticalThreshold = decimal.NewFromInt(90)
	ExceededThreshold = decimal.NewFromInt(100)
)

// ceilDays returns ceil(d / 24h).
func ceilDays(d time.Duration) int64 {
	days := int64(d / day)
	if d%day > 0 {
		days++
	}
	return days
}

// round2 rounds half away from zero, which is half-up for the non-negative
// amounts budgets deal with.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// sameDay reports whether a and b fall on the same calendar day in a's zone.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

// elapsedRatio returns elapsed and total days for now within period. ok is
// false when one of the edge cases applies; full then says whether the
// period counts as fully elapsed. A period starting and ending on the same
// calendar day is degenerate even after Inclusive stretches its end.
func elapsedRatio(period domain.Period, now time.Time) (elapsed, total int64, full, ok bool) {
	total = ceilDays(period.To.Sub(period.From))
	if total <= 0 || sameDay(period.From, period.To) {
		return 0, total, true, false
	}
	if now.Before(period.From) {
		return 0, total, false, false
	}
	if now.After(period.To) {
		return total, total, true, false
	}
	return ceilDays(now.Sub(period.From)), total, false, true
}

// TheoreticalAmount prorates planned by the elapsed share of the period.
func TheoreticalAmount(planned decimal.Decimal, period domain.Period, now time.Time) decimal.Decimal {
	elapsed, total, full, ok := elapsedRatio(period, now)
	if !ok {
		if full {
			return round2(planned)
		}
		return decimal.Zero
	}
	return round2(planned.Mul(decimal.NewFromInt(elapsed)).Div(decimal.NewFromInt(total)))
}

// PeriodElapsedPercent is elapsedDays/totalDays*100, clamped to [0, 100].
func PeriodElapsedPercent(period domain.Period, now time.Time) decimal.Decimal {
	elapsed, total, full, ok := elapsedRatio(period, now)
	if !ok {
		if full {
			return hundred
		}
		return decimal.Zero
	}
	pct := round2(decimal.NewFromInt(elapsed).Mul(hundred).Div(decimal.NewFromInt(total)))
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// AchievementPercent is practical/planned*100, zero when nothing is planned.
// It is not clamped; values above 100 signal overspend.
func AchievementPercent(practical, planned decimal.Decimal) decimal.Decimal {
	if !planned.IsPositive() {
		return decimal.Zero
	}
	return round2(practical.Mul(hundred).Div(planned))
}

// ComputeLineMetrics derives every metric for one budget line.
func ComputeLineMetrics(planned, practical decimal.Decimal, period domain.Period, now time.Time) domain.BudgetMetrics {
	planned = round2(planned)
	practical = round2(practical)
	theoretical := TheoreticalAmount(planned, period, now)
	variance := theoretical.Sub(practical)

	variancePct := decimal.Zero
	if theoretical.IsPositive() {
		variancePct = round2(variance.Mul(hundred).Div(theoretical))
	}

	return domain.BudgetMetrics{
		PlannedAmount:        planned,
		PracticalAmount:      practical,
		TheoreticalAmount:    theoretical,
		AchievementPercent:   AchievementPercent(practical, planned),
		RemainingAmount:      round2(planned.Sub(practical)),
		PeriodElapsedPercent: PeriodElapsedPercent(period, now),
		VarianceAmount:       round2(variance),
		VariancePercent:      variancePct,
	}
}

// GetAlertStatus buckets an achievement percent.
func GetAlertStatus(achievementPercent decimal.Decimal) domain.AlertStatus {
	switch {
	case achievementPercent.GreaterThanOrEqual(ExceededThreshold):
		return domain.StatusExceeded
	case achievementPercent.GreaterThanOrEqual(CriticalThreshold):
		return domain.StatusCritical
	case achievementPercent.GreaterThanOrEqual(WarningThreshold):
		return domain.StatusWarning
	default:
		return domain.StatusOK
	}
}
