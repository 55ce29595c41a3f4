package budgeting

import (
	"sort"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Classifier decision thresholds.
var (
	AutoAcceptConfidence = decimal.RequireFromString("0.85")
	ConflictMargin       = decimal.RequireFromString("0.15")
)

// SuggestionOutcome is the policy's verdict on a suggestion list.
type SuggestionOutcome int

const (
	// OutcomeManual means no usable suggestion; a person assigns the line.
	OutcomeManual SuggestionOutcome = iota
	// OutcomeAccept means the top suggestion is confident enough to apply.
	OutcomeAccept
	// OutcomeConflict means the top two are too close to call.
	OutcomeConflict
	// OutcomeReview means the top suggestion is not confident enough.
	OutcomeReview
)

// SuggestionDecision carries the verdict and the suggestions behind it.
type SuggestionDecision struct {
	Outcome  SuggestionOutcome
	Accepted *domain.Suggestion
	Review   []domain.Suggestion
}

// confidence converts via the shortest float representation so that 0.85
// compares as exactly 0.85.
func confidence(s domain.Suggestion) decimal.Decimal {
	return decimal.NewFromFloat(s.Confidence)
}

// DecideSuggestion applies the classifier policy. Nothing at or below the
// auto-accept threshold is ever assigned automatically.
func DecideSuggestion(suggestions []domain.Suggestion) SuggestionDecision {
	if len(suggestions) == 0 {
		return SuggestionDecision{Outcome: OutcomeManual}
	}

	ranked := make([]domain.Suggestion, len(suggestions))
	copy(ranked, suggestions)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	top := ranked[0]
	if confidence(top).GreaterThan(AutoAcceptConfidence) {
		return SuggestionDecision{Outcome: OutcomeAccept, Accepted: &top}
	}

	if len(ranked) > 1 {
		second := ranked[1]
		if confidence(top).Sub(confidence(second)).Abs().LessThanOrEqual(ConflictMargin) {
			return SuggestionDecision{Outcome: OutcomeConflict, Review: []domain.Suggestion{top, second}}
		}
	}

	return SuggestionDecision{Outcome: OutcomeReview, Review: []domain.Suggestion{top}}
}
