// Package export renders run results as downloadable documents and terminal tables.
package export

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/certwatch-app/cw-certcheck/internal/scanner"
)

// ErrUnknownFormat is returned by ParseFormat for unsupported names.
var ErrUnknownFormat = errors.New("invalid format")

// Format is an export document type.
type Format string

// Export formats.
const (
	FormatCSV      Format = "csv"
	FormatTXT      Format = "txt"
	FormatExcel    Format = "excel"
	FormatTable    Format = "table"
	FormatMarkdown Format = "markdown"
)

// Columns is the fixed column order of every export.
var Columns = []string{
	"S.No",
	"URL",
	"Normalized URL",
	"Pass/Fail",
	"Connection Time (ms)",
	"Issuer Common Name",
	"Issuer",
	"Subject",
	"Valid From",
	"Valid To",
	"Error",
}

var summaryColumns = []string{
	"Total",
	"Pass",
	"Fail",
	"Average Connection Time (ms)",
	"Start Time",
	"End Time",
	"Execution Time (ms)",
	"Exceptions",
}

var formatInfo = map[Format]struct {
	contentType  string
	filename     string
	downloadable bool
}{
	FormatCSV:      {"text/csv", "results.csv", true},
	FormatTXT:      {"text/plain", "results.txt", true},
	FormatExcel:    {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "results.xlsx", true},
	FormatTable:    {"text/plain; charset=utf-8", "results.table.txt", false},
	FormatMarkdown: {"text/markdown; charset=utf-8", "results.md", false},
}

// ParseFormat returns the Format named s.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := formatInfo[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	return formatInfo[f].contentType
}

// Filename returns the attachment name used for downloads.
func (f Format) Filename() string {
	return formatInfo[f].filename
}

// Downloadable reports whether the format is offered as an HTTP attachment.
func (f Format) Downloadable() bool {
	return formatInfo[f].downloadable
}

// Write renders results and summary to w in format f.
func Write(w io.Writer, f Format, results []scanner.Result, summary scanner.RunSummary) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, results, summary)
	case FormatTXT:
		return WriteTSV(w, results)
	case FormatExcel:
		return WriteExcel(w, results, summary)
	case FormatTable:
		return WriteTable(w, results)
	case FormatMarkdown:
		return WriteMarkdown(w, results)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// Row returns the cells of r in Columns order.
func Row(r *scanner.Result) []string {
	var facts scanner.CertificateFacts
	if r.Certificate != nil {
		facts = *r.Certificate
	}
	return []string{
		strconv.Itoa(r.SequenceNo),
		r.RawURL,
		r.NormalizedURL,
		string(r.Status),
		r.ConnectionTimeMS.String(),
		facts.IssuerCommonName,
		facts.Issuer,
		facts.Subject,
		facts.ValidFrom,
		facts.ValidTo,
		r.Error,
	}
}

func summaryRow(s *scanner.RunSummary) []string {
	return []string{
		strconv.Itoa(s.Total),
		strconv.Itoa(s.PassCount),
		strconv.Itoa(s.FailCount),
		formatFloat(s.AverageConnectionTimeMS),
		formatStart(s),
		s.EndedAt.UTC().Format(scanner.TimestampLayout),
		formatFloat(s.DurationMS),
		FormatHistogram(s.ExceptionHistogram),
	}
}

func chartRows(s *scanner.RunSummary) [][]string {
	return [][]string{
		{"Status", "Count"},
		{string(scanner.StatusPass), strconv.Itoa(s.PassCount)},
		{string(scanner.StatusFail), strconv.Itoa(s.FailCount)},
	}
}

// FormatHistogram renders an exception histogram as "category: n" pairs, most frequent first.
func FormatHistogram(h map[string]int) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if h[keys[i]] != h[keys[j]] {
			return h[keys[i]] > h[keys[j]]
		}
		return keys[i] < keys[j]
	})

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, h[k])
	}
	return strings.Join(parts, "; ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatStart(s *scanner.RunSummary) string {
	return s.StartedAt.UTC().Format(scanner.TimestampLayout)
}
