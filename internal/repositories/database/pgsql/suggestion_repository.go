package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/SscSPs/furniture_budget_engine/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PgxSuggestionRepository struct {
	BaseRepository
}

func newPgxSuggestionRepository(pool *pgxpool.Pool) *PgxSuggestionRepository {
	return &PgxSuggestionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.SuggestionRepositoryFacade = (*PgxSuggestionRepository)(nil)

const suggestionSelectQuery = `
SELECT suggestion_id, line_id, line_kind, analytical_account_id, account_name, confidence, is_conflict, status, created_at
FROM assignment_suggestions
`

func toDomainSuggestion(m models.AssignmentSuggestion) domain.AssignmentSuggestion {
	confidence, _ := m.Confidence.Float64()
	return domain.AssignmentSuggestion{
		SuggestionID: m.SuggestionID,
		Line:         domain.LineRef{LineID: m.LineID, Kind: domain.TransactionType(m.LineKind)},
		AccountID:    m.AnalyticalAccountID,
		AccountName:  m.AccountName,
		Confidence:   confidence,
		IsConflict:   m.IsConflict,
		Status:       domain.SuggestionStatus(m.Status),
		CreatedAt:    m.CreatedAt,
	}
}

func (r *PgxSuggestionRepository) getSuggestions(ctx context.Context, filterQuery string, args ...any) ([]domain.AssignmentSuggestion, error) {
	rows, err := r.Pool.Query(ctx, suggestionSelectQuery+filterQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment suggestions: %w", err)
	}
	rowModels, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AssignmentSuggestion])
	if err != nil {
		return nil, fmt.Errorf("failed to collect assignment suggestion rows: %w", err)
	}
	out := make([]domain.AssignmentSuggestion, len(rowModels))
	for i, m := range rowModels {
		out[i] = toDomainSuggestion(m)
	}
	return out, nil
}

// SaveSuggestions supersedes pending suggestions for the same lines and
// inserts the new ones.
func (r *PgxSuggestionRepository) SaveSuggestions(ctx context.Context, suggestions []domain.AssignmentSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		seen := make(map[domain.LineRef]bool)
		for _, s := range suggestions {
			if seen[s.Line] {
				continue
			}
			seen[s.Line] = true
			batch.Queue(`
				UPDATE assignment_suggestions SET status = 'REJECTED'
				WHERE line_id = $1 AND line_kind = $2 AND status = 'PENDING';
			`, s.Line.LineID, s.Line.Kind)
		}
		for _, s := range suggestions {
			batch.Queue(`
				INSERT INTO assignment_suggestions (suggestion_id, line_id, line_kind, analytical_account_id, account_name, confidence, is_conflict, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
			`,
				s.SuggestionID,
				s.Line.LineID,
				s.Line.Kind,
				s.AccountID,
				s.AccountName,
				decimal.NewFromFloat(s.Confidence),
				s.IsConflict,
				s.Status,
				s.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to save assignment suggestions: %w", mapPgError(err))
		}
		return nil
	})
}

func (r *PgxSuggestionRepository) ListPendingConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error) {
	return r.getSuggestions(ctx, `WHERE status = 'PENDING' ORDER BY created_at DESC, line_id, confidence DESC;`)
}

func (r *PgxSuggestionRepository) FindSuggestionByID(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error) {
	out, err := r.getSuggestions(ctx, `WHERE suggestion_id = $1;`, suggestionID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSuggestionNotFound, suggestionID)
	}
	return &out[0], nil
}

func (r *PgxSuggestionRepository) ResolveSuggestionInTx(ctx context.Context, tx pgx.Tx, suggestion domain.AssignmentSuggestion) error {
	tag, err := tx.Exec(ctx, `
		UPDATE assignment_suggestions SET status = 'ACCEPTED'
		WHERE suggestion_id = $1 AND status = 'PENDING';
	`, suggestion.SuggestionID)
	if err != nil {
		return fmt.Errorf("failed to accept suggestion %s: %w", suggestion.SuggestionID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: suggestion %s is no longer pending", apperrors.ErrConcurrentUpdate, suggestion.SuggestionID)
	}

	_, err = tx.Exec(ctx, `
		UPDATE assignment_suggestions SET status = 'REJECTED'
		WHERE line_id = $1 AND line_kind = $2 AND status = 'PENDING' AND suggestion_id <> $3;
	`, suggestion.Line.LineID, suggestion.Line.Kind, suggestion.SuggestionID)
	if err != nil {
		return fmt.Errorf("failed to reject sibling suggestions of %s: %w", suggestion.SuggestionID, mapPgError(err))
	}
	return nil
}
