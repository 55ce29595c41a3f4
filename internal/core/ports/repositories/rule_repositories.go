package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
)

// RuleReader defines read operations for auto-assignment rules.
type RuleReader interface {
	// ListActiveRules returns active rules ordered by sequence, then creation.
	ListActiveRules(ctx context.Context) ([]domain.AssignmentRule, error)

	// ListRules returns every rule ordered by sequence, then creation.
	ListRules(ctx context.Context) ([]domain.AssignmentRule, error)

	FindRuleByID(ctx context.Context, ruleID string) (*domain.AssignmentRule, error)
}

// RuleWriter defines write operations for auto-assignment rules.
type RuleWriter interface {
	SaveRule(ctx context.Context, rule domain.AssignmentRule) error
	UpdateRule(ctx context.Context, rule domain.AssignmentRule) error
	DeleteRule(ctx context.Context, ruleID string) error

	// RecordRuleApplied atomically bumps the usage counter and stamps lastAppliedAt.
	RecordRuleApplied(ctx context.Context, ruleID string, at time.Time) error
}

// RuleRepositoryFacade combines all rule-related repository interfaces
type RuleRepositoryFacade interface {
	RuleReader
	RuleWriter
}
