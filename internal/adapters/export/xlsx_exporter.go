// Package export renders budget reports.
package export

import (
	"fmt"
	"io"

	"github.com/SscSPs/furniture_budget_engine/internal/core/domain"
	"github.com/SscSPs/furniture_budget_engine/internal/core/ports/clients"
	"github.com/xuri/excelize/v2"
)

const metricsSheet = "Budget Metrics"

var metricsHeader = []string{
	"Code", "Cost Center", "Type", "Planned", "Actual", "Theoretical",
	"Achievement %", "Remaining", "Period Elapsed %", "Variance", "Variance %", "Status",
}

// XLSXExporter writes budget metrics as an Excel workbook.
type XLSXExporter struct{}

func NewXLSXExporter() *XLSXExporter { return &XLSXExporter{} }

var _ clients.BudgetExporter = (*XLSXExporter)(nil)

func (e *XLSXExporter) WriteBudgetMetrics(w io.Writer, budget domain.Budget, lines []domain.BudgetLineWithMetrics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", metricsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}

	title := fmt.Sprintf("%s (%s to %s) - %s", budget.Name,
		budget.Period.From.Format("2006-01-02"), budget.Period.To.Format("2006-01-02"), budget.Status)
	if err := f.SetCellValue(metricsSheet, "A1", title); err != nil {
		return err
	}
	if err := f.SetCellStyle(metricsSheet, "A1", "A1", bold); err != nil {
		return err
	}

	const headerRow = 3
	for i, h := range metricsHeader {
		if err := setCell(f, i+1, headerRow, h); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(metricsHeader))
	if err := f.SetCellStyle(metricsSheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", lastCol, headerRow), bold); err != nil {
		return err
	}

	for i, l := range lines {
		row := headerRow + 1 + i
		m := l.Metrics
		values := []any{
			l.AccountCode, l.AccountName, string(l.Type),
			m.PlannedAmount.InexactFloat64(), m.PracticalAmount.InexactFloat64(), m.TheoreticalAmount.InexactFloat64(),
			m.AchievementPercent.InexactFloat64(), m.RemainingAmount.InexactFloat64(), m.PeriodElapsedPercent.InexactFloat64(),
			m.VarianceAmount.InexactFloat64(), m.VariancePercent.InexactFloat64(), string(l.AlertStatus),
		}
		for col, v := range values {
			if err := setCell(f, col+1, row, v); err != nil {
				return err
			}
		}
		if err := f.SetCellStyle(metricsSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("K%d", row), money); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(metricsSheet, "A", "A", 12); err != nil {
		return err
	}
	if err := f.SetColWidth(metricsSheet, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetColWidth(metricsSheet, "C", lastCol, 16); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(metricsSheet, cell, v)
}
