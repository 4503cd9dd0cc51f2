package finance

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/drxagencia/dashboards/internal/rules"
)

const (
	summarySheet = "Resumo"
	dailySheet   = "Diario"
)

// ExportXLSX renders a summary as a two-sheet workbook: the monthly totals
// and the per-day revenue.
func ExportXLSX(companyName string, summary rules.Summary) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	rows := [][]any{
		{"Empresa", companyName},
		{"Mês", summary.Month.String()},
		{"Faturamento", summary.TotalRevenue.InexactFloat64()},
		{"Lucro estimado", summary.EstimatedProfit.InexactFloat64()},
		{"Pedidos concluídos", summary.CompletedCount},
	}
	for i, row := range rows {
		if err := setRow(f, summarySheet, i+1, row); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, dailySheet, 1, []any{"Dia", "Faturamento"}); err != nil {
		return nil, err
	}
	for i, day := range summary.Daily {
		if err := setRow(f, dailySheet, i+2, []any{day.Day, day.Amount.InexactFloat64()}); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
