package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBudgetMetrics(t *testing.T) {
	budget := domain.Budget{
		BudgetID: "b-1",
		Name:     "FY 2024-25",
		Status:   domain.BudgetConfirmed,
		Period: domain.Period{
			From: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	lines := []domain.BudgetLineWithMetrics{{
		AccountCode: "CC-PROD",
		AccountName: "Production",
		Type:        domain.LineExpense,
		Metrics: domain.BudgetMetrics{
			PlannedAmount:      decimal.RequireFromString("100000"),
			PracticalAmount:    decimal.RequireFromString("95000"),
			AchievementPercent: decimal.RequireFromString("95"),
		},
		AlertStatus: domain.StatusCritical,
	}}

	var buf bytes.Buffer
	require.NoError(t, NewXLSXExporter().WriteBudgetMetrics(&buf, budget, lines))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	title, err := f.GetCellValue(metricsSheet, "A1")
	require.NoError(t, err)
	assert.Contains(t, title, "FY 2024-25")

	header, err := f.GetCellValue(metricsSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "Cost Center", header)

	name, err := f.GetCellValue(metricsSheet, "B4")
	require.NoError(t, err)
	assert.Equal(t, "Production", name)

	status, err := f.GetCellValue(metricsSheet, "L4")
	require.NoError(t, err)
	assert.Equal(t, "CRITICAL", status)
}
