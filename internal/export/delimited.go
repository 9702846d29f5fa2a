package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// WriteCSV writes the results followed by a Summary block and a Chart Data block,
// each separated by a blank line.
func WriteCSV(w io.Writer, results []scanner.Result, summary scanner.RunSummary) error {
	cw := csv.NewWriter(w)
	if err := writeResults(cw, results); err != nil {
		return err
	}

	cw.Flush()
	if _, err := io.WriteString(w, "\nSummary:\n"); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := cw.WriteAll([][]string{summaryColumns, summaryRow(&summary)}); err != nil {
		return fmt.Errorf("failed to write csv summary: %w", err)
	}

	if _, err := io.WriteString(w, "\nChart Data:\n"); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	if err := cw.WriteAll(chartRows(&summary)); err != nil {
		return fmt.Errorf("failed to write csv chart data: %w", err)
	}
	return nil
}

// WriteTSV writes the results as tab-separated values.
func WriteTSV(w io.Writer, results []scanner.Result) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := writeResults(cw, results); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

func writeResults(cw *csv.Writer, results []scanner.Result) error {
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range results {
		if err := cw.Write(Row(&results[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", results[i].SequenceNo, err)
		}
	}
	return nil
}
