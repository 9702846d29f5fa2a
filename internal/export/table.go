package export

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
	"github.com/certwatch-app/cw-certcheck/internal/state"
)

// tableColumns is the condensed column set shown in terminals.
var tableColumns = []string{"#", "URL", "Status", "Time (ms)", "Issuer CN", "Valid To", "Error"}

// WriteTable renders a condensed results table for terminals.
func WriteTable(w io.Writer, results []scanner.Result) error {
	return render(tablewriter.NewTable(w), results)
}

// WriteMarkdown renders the condensed results table as markdown.
func WriteMarkdown(w io.Writer, results []scanner.Result) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	return render(table, results)
}

func render(table *tablewriter.Table, results []scanner.Result) error {
	table.Header(tableColumns)

	rows := make([][]string, 0, len(results))
	for i := range results {
		full := Row(&results[i])
		rows = append(rows, []string{full[0], full[1], full[3], full[4], full[5], full[9], full[10]})
	}

	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// WriteHistory renders a list of runs.
func WriteHistory(w io.Writer, runs []state.Info) error {
	table := tablewriter.NewTable(w)
	table.Header([]string{"Run ID", "Created", "Mode", "Criterion", "Total", "Pass", "Fail"})

	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.CreatedAt.UTC().Format(scanner.TimestampLayout),
			string(r.Mode),
			r.PassCriterion,
			fmt.Sprint(r.Total),
			fmt.Sprint(r.PassCount),
			fmt.Sprint(r.FailCount),
		})
	}

	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
