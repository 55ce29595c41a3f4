package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/SscSPs/furniture_budget_engine/internal/models"
	"github.com/SscSPs/furniture_budget_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxRuleRepository struct {
	BaseRepository
}

func newPgxRuleRepository(pool *pgxpool.Pool) *PgxRuleRepository {
	return &PgxRuleRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.RuleRepositoryFacade = (*PgxRuleRepository)(nil)

const ruleSelectQuery = `
SELECT
	rule_id, name, sequence, is_active, product_id, product_category_id, contact_id,
	use_amount_filter, amount_min, amount_max, use_date_filter, date_from, date_to,
	apply_on, analytical_account_id, times_applied, last_applied_at,
	created_at, created_by, last_updated_at, last_updated_by
FROM auto_assignment_rules
`

// Rules are evaluated in this order; creation time breaks sequence ties.
const ruleOrder = ` ORDER BY sequence, created_at, rule_id;`

func toModelRule(d domain.AssignmentRule) models.AssignmentRule {
	return models.AssignmentRule{
		RuleID:              d.RuleID,
		Name:                d.Name,
		Sequence:            d.Sequence,
		IsActive:            d.IsActive,
		ProductID:           mapping.NullString(d.ProductID),
		ProductCategoryID:   mapping.NullString(d.ProductCategoryID),
		ContactID:           mapping.NullString(d.ContactID),
		UseAmountFilter:     d.UseAmountFilter,
		AmountMin:           mapping.NullDecimal(d.AmountMin),
		AmountMax:           mapping.NullDecimal(d.AmountMax),
		UseDateFilter:       d.UseDateFilter,
		DateFrom:            mapping.NullTime(d.DateFrom),
		DateTo:              mapping.NullTime(d.DateTo),
		ApplyOn:             string(d.ApplyOn),
		AnalyticalAccountID: d.AnalyticalAccountID,
		TimesApplied:        d.TimesApplied,
		LastAppliedAt:       mapping.NullTime(d.LastAppliedAt),
		AuditFields:         mapping.ToModelAuditFields(d.AuditFields),
	}
}

func toDomainRule(m models.AssignmentRule) domain.AssignmentRule {
	return domain.AssignmentRule{
		RuleID:              m.RuleID,
		Name:                m.Name,
		Sequence:            m.Sequence,
		IsActive:            m.IsActive,
		ProductID:           mapping.StringPtr(m.ProductID),
		ProductCategoryID:   mapping.StringPtr(m.ProductCategoryID),
		ContactID:           mapping.StringPtr(m.ContactID),
		UseAmountFilter:     m.UseAmountFilter,
		AmountMin:           mapping.DecimalPtr(m.AmountMin),
		AmountMax:           mapping.DecimalPtr(m.AmountMax),
		UseDateFilter:       m.UseDateFilter,
		DateFrom:            mapping.TimePtr(m.DateFrom),
		DateTo:              mapping.TimePtr(m.DateTo),
		ApplyOn:             domain.ApplyOn(m.ApplyOn),
		AnalyticalAccountID: m.AnalyticalAccountID,
		TimesApplied:        m.TimesApplied,
		LastAppliedAt:       mapping.TimePtr(m.LastAppliedAt),
		AuditFields:         mapping.ToDomainAuditFields(m.AuditFields),
	}
}

func (r *PgxRuleRepository) getRules(ctx context.Context, filterQuery string, args ...any) ([]domain.AssignmentRule, error) {
	rows, err := r.Pool.Query(ctx, ruleSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment rules: %w", err)
	}
	rowModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AssignmentRule])
	if err != nil {
		return nil, fmt.Errorf("failed to collect assignment rule rows: %w", err)
	}
	rules := make([]domain.AssignmentRule, len(rowModels))
	for i, m := range rowModels {
		rules[i] = toDomainRule(m)
	}
	return rules, nil
}

func (r *PgxRuleRepository) ListActiveRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	return r.getRules(ctx, `WHERE is_active`+ruleOrder)
}

func (r *PgxRuleRepository) ListRules(ctx context.Context) ([]domain.AssignmentRule, error) {
	return r.getRules(ctx, ruleOrder)
}

func (r *PgxRuleRepository) FindRuleByID(ctx context.Context, ruleID string) (*domain.AssignmentRule, error) {
	rules, err := r.getRules(ctx, `WHERE rule_id = $1;`, ruleID)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrRuleNotFound, ruleID)
	}
	return &rules[0], nil
}

func (r *PgxRuleRepository) SaveRule(ctx context.Context, rule domain.AssignmentRule) error {
	m := toModelRule(rule)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO auto_assignment_rules (
			rule_id, name, sequence, is_active, product_id, product_category_id, contact_id,
			use_amount_filter, amount_min, amount_max, use_date_filter, date_from, date_to,
			apply_on, analytical_account_id, times_applied, last_applied_at,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::date, $13::date, $14, $15, 0, NULL, $16, $17, $18, $19);
	`,
		m.RuleID, m.Name, m.Sequence, m.IsActive, m.ProductID, m.ProductCategoryID, m.ContactID,
		m.UseAmountFilter, m.AmountMin, m.AmountMax, m.UseDateFilter, m.DateFrom, m.DateTo,
		m.ApplyOn, m.AnalyticalAccountID,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save assignment rule %s: %w", rule.RuleID, mapPgError(err))
	}
	return nil
}

// UpdateRule replaces the editable fields. Usage counters are untouched.
func (r *PgxRuleRepository) UpdateRule(ctx context.Context, rule domain.AssignmentRule) error {
	m := toModelRule(rule)
	tag, err := r.Pool.Exec(ctx, `
		UPDATE auto_assignment_rules
		SET name = $2, sequence = $3, is_active = $4, product_id = $5, product_category_id = $6,
			contact_id = $7, use_amount_filter = $8, amount_min = $9, amount_max = $10,
			use_date_filter = $11, date_from = $12::date, date_to = $13::date, apply_on = $14,
			analytical_account_id = $15, last_updated_at = $16, last_updated_by = $17
		WHERE rule_id = $1;
	`,
		m.RuleID, m.Name, m.Sequence, m.IsActive, m.ProductID, m.ProductCategoryID,
		m.ContactID, m.UseAmountFilter, m.AmountMin, m.AmountMax,
		m.UseDateFilter, m.DateFrom, m.DateTo, m.ApplyOn,
		m.AnalyticalAccountID, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update assignment rule %s: %w", rule.RuleID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrRuleNotFound, rule.RuleID)
	}
	return nil
}

func (r *PgxRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	tag, err := r.Pool.Exec(ctx, `DELETE FROM auto_assignment_rules WHERE rule_id = $1;`, ruleID)
	if err != nil {
		return fmt.Errorf("failed to delete assignment rule %s: %w", ruleID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrRuleNotFound, ruleID)
	}
	return nil
}

func (r *PgxRuleRepository) RecordRuleApplied(ctx context.Context, ruleID string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE auto_assignment_rules
		SET times_applied = times_applied + 1, last_applied_at = $2
		WHERE rule_id = $1;
	`, ruleID, at)
	if err != nil {
		return fmt.Errorf("failed to record usage of rule %s: %w", ruleID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrRuleNotFound, ruleID)
	}
	return nil
}
