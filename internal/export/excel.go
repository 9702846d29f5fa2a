package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// Workbook sheet names.
const (
	SheetResults = "Results"
	SheetSummary = "Summary"
	SheetChart   = "Chart Data"
)

// WriteExcel writes a workbook with Results, Summary and Chart Data sheets.
func WriteExcel(w io.Writer, results []scanner.Result, summary scanner.RunSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(results)+1)
	rows = append(rows, toCells(Columns))
	for i := range results {
		rows = append(rows, excelRow(&results[i]))
	}
	if err := writeSheet(f, SheetResults, rows); err != nil {
		return err
	}

	summaryRows := [][]interface{}{
		toCells(summaryColumns),
		{
			summary.Total,
			summary.PassCount,
			summary.FailCount,
			summary.AverageConnectionTimeMS,
			formatStart(&summary),
			summary.EndedAt.UTC().Format(scanner.TimestampLayout),
			summary.DurationMS,
			FormatHistogram(summary.ExceptionHistogram),
		},
	}
	if err := writeSheet(f, SheetSummary, summaryRows); err != nil {
		return err
	}

	chart := [][]interface{}{
		{"Status", "Count"},
		{string(scanner.StatusPass), summary.PassCount},
		{string(scanner.StatusFail), summary.FailCount},
	}
	if err := writeSheet(f, SheetChart, chart); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet, err)
		}
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// excelRow keeps numeric columns numeric so spreadsheets can sort and chart them.
func excelRow(r *scanner.Result) []interface{} {
	cells := toCells(Row(r))
	cells[0] = r.SequenceNo
	if r.ConnectionTimeMS.Valid {
		cells[4] = r.ConnectionTimeMS.Millis
	}
	return cells
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
