package mapping

import (
	"database/sql"
	"testing"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditFieldsRoundTrip(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	d := domain.AuditFields{CreatedAt: at, CreatedBy: "u1", LastUpdatedAt: at.Add(time.Hour), LastUpdatedBy: "u2"}

	assert.Equal(t, d, ToDomainAuditFields(ToModelAuditFields(d)))
}

func TestNullablesFromNil(t *testing.T) {
	assert.False(t, NullString(nil).Valid)
	assert.False(t, NullTime(nil).Valid)
	assert.False(t, NullDecimal(nil).Valid)

	assert.Nil(t, StringPtr(sql.NullString{}))
	assert.Nil(t, TimePtr(sql.NullTime{}))
	assert.Nil(t, DecimalPtr(decimal.NullDecimal{}))
}

func TestDecimalPtrDoesNotAliasModel(t *testing.T) {
	n := NullDecimal(ptr(decimal.NewFromInt(500)))
	p := DecimalPtr(n)
	require.NotNil(t, p)

	n.Decimal = decimal.NewFromInt(1)
	assert.True(t, p.Equal(decimal.NewFromInt(500)))
}

func ptr[T any](v T) *T { return &v }
