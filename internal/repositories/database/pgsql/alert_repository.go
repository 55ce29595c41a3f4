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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAlertRepository struct {
	BaseRepository
}

func newPgxAlertRepository(pool *pgxpool.Pool) *PgxAlertRepository {
	return &PgxAlertRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AlertRepositoryFacade = (*PgxAlertRepository)(nil)

const alertSelectQuery = `
SELECT
	a.alert_id, a.budget_line_id, bl.budget_id, b.name AS budget_name, aa.name AS account_name,
	a.alert_type, a.severity, a.current_spent, a.budget_amount, a.utilization_percent,
	a.is_acknowledged, a.acknowledged_by, a.acknowledged_at, a.action_taken, a.created_at
FROM budget_alerts a
JOIN budget_lines bl ON bl.budget_line_id = a.budget_line_id
JOIN budgets b ON b.budget_id = bl.budget_id
JOIN analytical_accounts aa ON aa.analytical_account_id = bl.analytical_account_id
`

const severityRank = `CASE a.severity WHEN 'CRITICAL' THEN 4 WHEN 'HIGH' THEN 3 WHEN 'MEDIUM' THEN 2 ELSE 1 END`

func toDomainAlert(m models.BudgetAlert) domain.BudgetAlert {
	a := domain.BudgetAlert{
		AlertID:            m.AlertID,
		BudgetLineID:       m.BudgetLineID,
		BudgetID:           m.BudgetID,
		BudgetName:         m.BudgetName,
		AccountName:        m.AccountName,
		AlertType:          domain.AlertType(m.AlertType),
		Severity:           domain.AlertSeverity(m.Severity),
		CurrentSpent:       m.CurrentSpent,
		BudgetAmount:       m.BudgetAmount,
		UtilizationPercent: m.UtilizationPercent,
		IsAcknowledged:     m.IsAcknowledged,
		CreatedAt:          m.CreatedAt,
	}
	if m.AcknowledgedBy.Valid {
		a.AcknowledgedBy = &m.AcknowledgedBy.String
	}
	if m.AcknowledgedAt.Valid {
		a.AcknowledgedAt = &m.AcknowledgedAt.Time
	}
	if m.ActionTaken.Valid {
		a.ActionTaken = &m.ActionTaken.String
	}
	return a
}

func (r *PgxAlertRepository) getAlerts(ctx context.Context, filterQuery string, args ...any) ([]domain.BudgetAlert, error) {
	rows, err := r.Pool.Query(ctx, alertSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	rowModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.BudgetAlert])
	if err != nil {
		return nil, fmt.Errorf("failed to collect alert rows: %w", err)
	}
	alerts := make([]domain.BudgetAlert, len(rowModels))
	for i, m := range rowModels {
		alerts[i] = toDomainAlert(m)
	}
	return alerts, nil
}

func (r *PgxAlertRepository) FindAlertByID(ctx context.Context, alertID string) (*domain.BudgetAlert, error) {
	alerts, err := r.getAlerts(ctx, `WHERE a.alert_id = $1;`, alertID)
	if err != nil {
		return nil, err
	}
	if len(alerts) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrAlertNotFound, alertID)
	}
	return &alerts[0], nil
}

func (r *PgxAlertRepository) ListOpenAlertsForLine(ctx context.Context, budgetLineID string) ([]domain.BudgetAlert, error) {
	return r.getAlerts(ctx, `WHERE a.budget_line_id = $1 AND NOT a.is_acknowledged ORDER BY a.created_at;`, budgetLineID)
}

func (r *PgxAlertRepository) ListAlerts(ctx context.Context, filter portsrepo.AlertFilter) ([]domain.BudgetAlert, error) {
	var (
		conds []string
		args  []any
	)
	if filter.BudgetID != nil {
		args = append(args, *filter.BudgetID)
		conds = append(conds, fmt.Sprintf("bl.budget_id = $%d", len(args)))
	}
	if filter.Acknowledged != nil {
		args = append(args, *filter.Acknowledged)
		conds = append(conds, fmt.Sprintf("a.is_acknowledged = $%d", len(args)))
	}

	var q strings.Builder
	if len(conds) > 0 {
		q.WriteString("WHERE " + strings.Join(conds, " AND ") + "\n")
	}
	if filter.NewestFirst {
		q.WriteString("ORDER BY a.created_at DESC, a.alert_id\n")
	} else {
		q.WriteString("ORDER BY " + severityRank + " DESC, a.created_at DESC, a.alert_id\n")
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q.WriteString(fmt.Sprintf("LIMIT $%d\n", len(args)))
	}
	return r.getAlerts(ctx, q.String(), args...)
}

// CountAlerts mirrors the dashboard counters: per-type counts are of open alerts.
func (r *PgxAlertRepository) CountAlerts(ctx context.Context) (*domain.AlertStats, error) {
	var s domain.AlertStats
	err := r.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT is_acknowledged AND alert_type = 'WARNING_75'),
			COUNT(*) FILTER (WHERE NOT is_acknowledged AND alert_type = 'CRITICAL_90'),
			COUNT(*) FILTER (WHERE NOT is_acknowledged AND alert_type = 'EXCEEDED_100'),
			COUNT(*) FILTER (WHERE is_acknowledged)
		FROM budget_alerts;
	`).Scan(&s.Total, &s.Warning, &s.Critical, &s.Exceeded, &s.Acknowledged)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}
	s.Active = s.Warning + s.Critical + s.Exceeded
	return &s, nil
}

// CreateAlert relies on the partial unique index over open alerts.
func (r *PgxAlertRepository) CreateAlert(ctx context.Context, alert domain.BudgetAlert) (bool, error) {
	tag, err := r.Pool.Exec(ctx, `
		INSERT INTO budget_alerts (
			alert_id, budget_line_id, alert_type, severity, current_spent, budget_amount,
			utilization_percent, is_acknowledged, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
		ON CONFLICT (budget_line_id, alert_type) WHERE NOT is_acknowledged DO NOTHING;
	`,
		alert.AlertID,
		alert.BudgetLineID,
		alert.AlertType,
		alert.Severity,
		alert.CurrentSpent,
		alert.BudgetAmount,
		alert.UtilizationPercent,
		alert.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert alert for line %s: %w", alert.BudgetLineID, mapPgError(err))
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgxAlertRepository) AcknowledgeAlert(ctx context.Context, alertID string, userID string, actionTaken *string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE budget_alerts
		SET is_acknowledged = TRUE, acknowledged_by = $2, acknowledged_at = $3, action_taken = $4
		WHERE alert_id = $1 AND NOT is_acknowledged;
	`, alertID, userID, at, actionTaken)
	if err != nil {
		return fmt.Errorf("failed to acknowledge alert %s: %w", alertID, mapPgError(err))
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var acknowledged bool
	err = r.Pool.QueryRow(ctx, `SELECT is_acknowledged FROM budget_alerts WHERE alert_id = $1;`, alertID).Scan(&acknowledged)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", apperrors.ErrAlertNotFound, alertID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up alert %s: %w", alertID, err)
	}
	return fmt.Errorf("%w: %s", apperrors.ErrAlreadyAcknowledged, alertID)
}
