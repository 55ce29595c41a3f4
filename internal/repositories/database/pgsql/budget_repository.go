package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/SscSPs/furniture_budget_engine/internal/models"
	"github.com/SscSPs/furniture_budget_engine/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxBudgetRepository struct {
	BaseRepository
}

// newPgxBudgetRepository creates a new repository for budgets and budget lines.
func newPgxBudgetRepository(pool *pgxpool.Pool) *PgxBudgetRepository {
	return &PgxBudgetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BudgetRepositoryFacade = (*PgxBudgetRepository)(nil)

const budgetSelectQuery = `
SELECT
	b.budget_id, b.name, b.date_from, b.date_to, b.status,
	b.created_at, b.created_by, b.last_updated_at, b.last_updated_by
FROM budgets b
`

const budgetLineSelectQuery = `
SELECT
	bl.budget_line_id, bl.budget_id, bl.analytical_account_id, aa.code, aa.name AS account_name,
	bl.line_type, bl.planned_amount, bl.achieved_amount, bl.created_at
FROM budget_lines bl
JOIN analytical_accounts aa ON aa.analytical_account_id = bl.analytical_account_id
`

func toDomainBudget(m models.Budget) domain.Budget {
	return domain.Budget{
		BudgetID:    m.BudgetID,
		Name:        m.Name,
		Period:      domain.Period{From: m.DateFrom, To: m.DateTo}.Inclusive(),
		Status:      domain.BudgetStatus(m.Status),
		AuditFields: mapping.ToDomainAuditFields(m.AuditFields),
	}
}

func toDomainBudgetLine(m models.BudgetLine) domain.BudgetLine {
	return domain.BudgetLine{
		BudgetLineID:        m.BudgetLineID,
		BudgetID:            m.BudgetID,
		AnalyticalAccountID: m.AnalyticalAccountID,
		AccountCode:         m.AccountCode,
		AccountName:         m.AccountName,
		Type:                domain.BudgetLineType(m.LineType),
		PlannedAmount:       m.PlannedAmount,
		AchievedAmount:      m.AchievedAmount,
		CreatedAt:           m.CreatedAt,
	}
}

func (r *PgxBudgetRepository) getBudgets(ctx context.Context, filterQuery string, args ...any) ([]domain.Budget, error) {
	rows, err := r.Pool.Query(ctx, budgetSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	rowModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Budget])
	if err != nil {
		return nil, fmt.Errorf("failed to collect budget rows: %w", err)
	}

	budgets := make([]domain.Budget, len(rowModels))
	ids := make([]string, len(rowModels))
	for i, m := range rowModels {
		budgets[i] = toDomainBudget(m)
		ids[i] = m.BudgetID
	}

	linesByBudget, err := r.linesForBudgets(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].Lines = linesByBudget[budgets[i].BudgetID]
	}
	return budgets, nil
}

// linesForBudgets loads lines in creation order, grouped by budget.
func (r *PgxBudgetRepository) linesForBudgets(ctx context.Context, budgetIDs []string) (map[string][]domain.BudgetLine, error) {
	out := make(map[string][]domain.BudgetLine, len(budgetIDs))
	if len(budgetIDs) == 0 {
		return out, nil
	}
	rows, err := r.Pool.Query(ctx, budgetLineSelectQuery+`
		WHERE bl.budget_id = ANY($1)
		ORDER BY bl.created_at, bl.budget_line_id;`, budgetIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query budget lines: %w", err)
	}
	lineModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.BudgetLine])
	if err != nil {
		return nil, fmt.Errorf("failed to collect budget line rows: %w", err)
	}
	for _, m := range lineModels {
		out[m.BudgetID] = append(out[m.BudgetID], toDomainBudgetLine(m))
	}
	return out, nil
}

func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	budgets, err := r.getBudgets(ctx, `WHERE b.budget_id = $1;`, budgetID)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrBudgetNotFound, budgetID)
	}
	return &budgets[0], nil
}

func (r *PgxBudgetRepository) ListBudgets(ctx context.Context, filter portsrepo.BudgetFilter) ([]domain.Budget, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, "b.status = ANY("+arg(statuses)+")")
	}
	if filter.ActiveOn != nil {
		p := arg(*filter.ActiveOn)
		conds = append(conds, fmt.Sprintf("b.date_from <= %[1]s::date AND b.date_to >= %[1]s::date", p))
	}
	if filter.EndingOnOrBefore != nil {
		conds = append(conds, "b.date_to <= "+arg(*filter.EndingOnOrBefore)+"::date")
	}

	var q strings.Builder
	if len(conds) > 0 {
		q.WriteString("WHERE " + strings.Join(conds, " AND ") + "\n")
	}
	q.WriteString("ORDER BY b.date_from DESC, b.created_at DESC, b.budget_id\n")
	if filter.Limit > 0 {
		q.WriteString("LIMIT " + arg(filter.Limit) + "\n")
	}
	if filter.Offset > 0 {
		q.WriteString("OFFSET " + arg(filter.Offset) + "\n")
	}

	return r.getBudgets(ctx, q.String(), args...)
}

// SaveBudget inserts the budget and its lines in one transaction.
func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO budgets (budget_id, name, date_from, date_to, status, created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3::date, $4::date, $5, $6, $7, $8, $9);
		`,
			budget.BudgetID,
			budget.Name,
			budget.Period.From,
			budget.Period.To,
			budget.Status,
			budget.CreatedAt,
			budget.CreatedBy,
			budget.LastUpdatedAt,
			budget.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert budget %s: %w", budget.BudgetID, mapPgError(err))
		}

		if len(budget.Lines) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for _, line := range budget.Lines {
			batch.Queue(`
				INSERT INTO budget_lines (budget_line_id, budget_id, analytical_account_id, line_type, planned_amount, achieved_amount, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7);
			`,
				line.BudgetLineID,
				budget.BudgetID,
				line.AnalyticalAccountID,
				line.Type,
				line.PlannedAmount,
				line.AchievedAmount,
				line.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert lines for budget %s: %w", budget.BudgetID, mapPgError(err))
		}
		return nil
	})
}

func (r *PgxBudgetRepository) UpdateBudgetStatus(ctx context.Context, budgetID string, status domain.BudgetStatus, userID string, now time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE budgets
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE budget_id = $1;
	`, budgetID, status, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of budget %s: %w", budgetID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrBudgetNotFound, budgetID)
	}
	return nil
}

// RefreshAchievedAmount recomputes the cache from posted documents in a single
// statement. There is no read-then-write window.
func (r *PgxBudgetRepository) RefreshAchievedAmount(ctx context.Context, line domain.BudgetLine, period domain.Period) (decimal.Decimal, error) {
	src, err := sourceFor(line.Type.TransactionType())
	if err != nil {
		return decimal.Zero, err
	}
	query := `
		UPDATE budget_lines bl
		SET achieved_amount = (` + postedTotalsSubquery(src, "bl.analytical_account_id") + `)
		WHERE bl.budget_line_id = $1
		RETURNING bl.achieved_amount;`

	var achieved decimal.Decimal
	err = r.Pool.QueryRow(ctx, query, line.BudgetLineID, period.From, period.To, postedStatuses).Scan(&achieved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, fmt.Errorf("%w: %s", apperrors.ErrBudgetLineNotFound, line.BudgetLineID)
		}
		return decimal.Zero, fmt.Errorf("failed to refresh achieved amount for line %s: %w", line.BudgetLineID, mapPgError(err))
	}
	return achieved, nil
}
