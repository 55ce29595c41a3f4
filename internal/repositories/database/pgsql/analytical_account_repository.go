package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxAnalyticalAccountRepository struct {
	BaseRepository
}

func newPgxAnalyticalAccountRepository(pool *pgxpool.Pool) *PgxAnalyticalAccountRepository {
	return &PgxAnalyticalAccountRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.AnalyticalAccountRepository = (*PgxAnalyticalAccountRepository)(nil)

// FindAnalyticalAccountsByIDs retrieves multiple cost centers by their IDs.
func (r *PgxAnalyticalAccountRepository) FindAnalyticalAccountsByIDs(ctx context.Context, ids []string) (map[string]domain.AnalyticalAccount, error) {
	accounts := make(map[string]domain.AnalyticalAccount, len(ids))
	if len(ids) == 0 {
		return accounts, nil
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT analytical_account_id, code, name, is_active
		FROM analytical_accounts
		WHERE analytical_account_id = ANY($1);
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytical accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.AnalyticalAccount
		if err := rows.Scan(&a.AnalyticalAccountID, &a.Code, &a.Name, &a.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan analytical account: %w", err)
		}
		accounts[a.AnalyticalAccountID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate analytical accounts: %w", err)
	}
	return accounts, nil
}
