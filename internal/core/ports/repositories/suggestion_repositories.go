package repositories

import (
	"context"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// SuggestionRepositoryFacade stores classifier suggestions awaiting review.
type SuggestionRepositoryFacade interface {
	SaveSuggestions(ctx context.Context, suggestions []domain.AssignmentSuggestion) error

	// ListPendingConflicts returns pending suggestions flagged for review, newest first.
	ListPendingConflicts(ctx context.Context) ([]domain.AssignmentSuggestion, error)

	FindSuggestionByID(ctx context.Context, suggestionID string) (*domain.AssignmentSuggestion, error)

	// ResolveSuggestionInTx accepts one suggestion and rejects its pending siblings.
	ResolveSuggestionInTx(ctx context.Context, tx pgx.Tx, suggestion domain.AssignmentSuggestion) error
}
