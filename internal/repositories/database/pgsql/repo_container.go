package pgsql

import (
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	base := BaseRepository{Pool: dbPool}

	return portsrepo.RepositoryProvider{
		AnalyticalAccountRepo: newPgxAnalyticalAccountRepository(dbPool),
		BudgetRepo:            newPgxBudgetRepository(dbPool),
		AlertRepo:             newPgxAlertRepository(dbPool),
		RuleRepo:              newPgxRuleRepository(dbPool),
		SuggestionRepo:        newPgxSuggestionRepository(dbPool),
		TransactionStore:      newPgxTransactionStore(dbPool),
		TxManager:             &base,
	}
}
