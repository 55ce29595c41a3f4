package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/apperrors"
	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/furniture_budget_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// postedStatuses are the document statuses that count toward actuals.
var postedStatuses = []string{"CONFIRMED", "PAID", "PARTIALLY_PAID"}

type documentSource struct {
	lineTable string
	docTable  string
	docKey    string
	dateCol   string
}

var documentSources = map[domain.TransactionType]documentSource{
	domain.TransactionPurchase: {lineTable: "vendor_bill_lines", docTable: "vendor_bills", docKey: "bill_id", dateCol: "bill_date"},
	domain.TransactionSale:     {lineTable: "customer_invoice_lines", docTable: "customer_invoices", docKey: "invoice_id", dateCol: "invoice_date"},
}

func sourceFor(t domain.TransactionType) (documentSource, error) {
	src, ok := documentSources[t]
	if !ok {
		return documentSource{}, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, t)
	}
	return src, nil
}

// postedTotalsSubquery sums posted line totals for accountExpr.
// Placeholders: $2 date from, $3 date to, $4 posted statuses.
func postedTotalsSubquery(src documentSource, accountExpr string) string {
	return fmt.Sprintf(`
		SELECT COALESCE(SUM(l.total), 0)
		FROM %[1]s l
		JOIN %[2]s d ON d.%[3]s = l.%[3]s
		WHERE l.analytical_account_id = %[5]s
		  AND d.status = ANY($4)
		  AND d.%[4]s BETWEEN $2::date AND $3::date`,
		src.lineTable, src.docTable, src.docKey, src.dateCol, accountExpr)
}

type PgxTransactionStore struct {
	BaseRepository
}

func newPgxTransactionStore(pool *pgxpool.Pool) *PgxTransactionStore {
	return &PgxTransactionStore{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionStore = (*PgxTransactionStore)(nil)

func (r *PgxTransactionStore) SumPostedLineTotals(ctx context.Context, analyticalAccountID string, txType domain.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	src, err := sourceFor(txType)
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	err = r.Pool.QueryRow(ctx, postedTotalsSubquery(src, "$1"), analyticalAccountID, from, to, postedStatuses).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum posted %s lines for account %s: %w", txType, analyticalAccountID, err)
	}
	return total, nil
}

func (r *PgxTransactionStore) FindProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := r.Pool.QueryRow(ctx, `
		SELECT p.product_id, p.name, p.description, c.category_id, c.name, c.parent_id
		FROM products p
		JOIN product_categories c ON c.category_id = p.category_id
		WHERE p.product_id = $1;
	`, productID).Scan(&p.ProductID, &p.Name, &p.Description, &p.CategoryID, &p.CategoryName, &p.ParentCategoryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: product %s", apperrors.ErrNotFound, productID)
		}
		return nil, fmt.Errorf("failed to find product %s: %w", productID, err)
	}
	return &p, nil
}

func (r *PgxTransactionStore) FindContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	var c domain.Contact
	err := r.Pool.QueryRow(ctx, `SELECT contact_id, name FROM contacts WHERE contact_id = $1;`, contactID).
		Scan(&c.ContactID, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: contact %s", apperrors.ErrNotFound, contactID)
		}
		return nil, fmt.Errorf("failed to find contact %s: %w", contactID, err)
	}
	return &c, nil
}

// SetLineAnalyticalAccountInTx records a manual attribution on a bill or invoice line.
func (r *PgxTransactionStore) SetLineAnalyticalAccountInTx(ctx context.Context, tx pgx.Tx, ref domain.LineRef, analyticalAccountID string) error {
	src, err := sourceFor(ref.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET analytical_account_id = $2, is_auto_assigned = FALSE WHERE line_id = $1;`, src.lineTable)
	tag, err := tx.Exec(ctx, query, ref.LineID, analyticalAccountID)
	if err != nil {
		return fmt.Errorf("failed to assign line %s: %w", ref.LineID, mapPgError(err))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s line %s", apperrors.ErrNotFound, ref.Kind, ref.LineID)
	}
	return nil
}
