package services

import (
	"context"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/dto"
)

// AssignmentMatcherSvc attributes transaction lines to cost centers
type AssignmentMatcherSvc interface {
	// FindAssignment runs the rules, then the classifier, for one line.
	FindAssignment(ctx context.Context, line domain.TransactionLine) (*domain.AssignmentResult, error)

	// ApplyToLines runs FindAssignment for each line, keeping input order.
	ApplyToLines(ctx context.Context, lines []domain.TransactionLine) ([]domain.AssignmentResult, error)

	// TestRule counts the sample lines the rule would win against the other active rules.
	TestRule(ctx context.Context, ruleID string, lines []domain.TransactionLine) (*dto.TestRuleResponse, error)
}

// AssignmentRuleSvc manages auto-assignment rules
type AssignmentRuleSvc interface {
	CreateRule(ctx context.Context, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error)
	UpdateRule(ctx context.Context, ruleID string, req dto.RuleRequest, userID string) (*domain.AssignmentRule, error)
	DeleteRule(ctx context.Context, ruleID string) error
	GetRule(ctx context.Context, ruleID string) (*domain.AssignmentRule, error)
	ListRules(ctx context.Context) ([]domain.AssignmentRule, error)
}

// AssignmentReviewSvc handles classifier suggestions that need a person
type AssignmentReviewSvc interface {
	ListConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error)

	// ResolveConflict assigns the line to the suggestion's cost center and closes its siblings.
	ResolveConflict(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error)
}

// AssignmentSvcFacade combines all assignment-related service interfaces
type AssignmentSvcFacade interface {
	AssignmentMatcherSvc
	AssignmentRuleSvc
	AssignmentReviewSvc
}
