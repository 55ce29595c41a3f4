package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// TransactionStore is the engine's view of the transactional documents
// (vendor bills, customer invoices) owned by the CRUD layer.
type TransactionStore interface {
	// SumPostedLineTotals sums line totals attributed to the account whose
	// document is posted (confirmed, paid or partially paid) and dated within [from, to].
	SumPostedLineTotals(ctx context.Context, analyticalAccountID string, txType domain.TransactionType, from, to time.Time) (decimal.Decimal, error)

	FindProduct(ctx context.Context, productID string) (*domain.Product, error)

	FindContact(ctx context.Context, contactID string) (*domain.Contact, error)

	// SetLineAnalyticalAccountInTx attributes a persisted line to a cost center.
	SetLineAnalyticalAccountInTx(ctx context.Context, tx pgx.Tx, ref domain.LineRef, analyticalAccountID string) error
}
