// Package input turns uploaded files and pasted text into host lists.
package input

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrEmptySheet is returned for a workbook without sheets.
var ErrEmptySheet = errors.New("workbook has no sheets")

// Options controls how tabular files are read.
type Options struct {
	// SkipHeader drops the first row of .xlsx and .csv files.
	SkipHeader bool
}

// FromText splits text into lines, trims each one and drops blanks.
func FromText(text string) []string {
	var hosts []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			hosts = append(hosts, line)
		}
	}
	return hosts
}

// Load reads a host list from r, choosing the format from name's extension:
// .xlsx reads the first column of the first sheet, .csv the first column, and
// anything else is treated as one host per line.
func Load(name string, r io.Reader, opts Options) ([]string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx":
		return loadXLSX(r, opts)
	case ".csv":
		return loadCSV(r, opts)
	default:
		return loadText(r)
	}
}

// LoadFile opens path and passes it to Load.
func LoadFile(path string, opts Options) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open host list: %w", err)
	}
	defer f.Close()

	return Load(path, f, opts)
}

// decoded strips a UTF-8 or UTF-16 byte order mark and decodes to UTF-8.
func decoded(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
}

func loadText(r io.Reader) ([]string, error) {
	var hosts []string
	sc := bufio.NewScanner(decoded(r))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			hosts = append(hosts, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read host list: %w", err)
	}
	return hosts, nil
}

func loadCSV(r io.Reader, opts Options) ([]string, error) {
	cr := csv.NewReader(decoded(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse csv: %w", err)
		}
		rows = append(rows, record)
	}
	return firstColumn(rows, opts), nil
}

func loadXLSX(r io.Reader, opts Options) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptySheet
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return firstColumn(rows, opts), nil
}

func firstColumn(rows [][]string, opts Options) []string {
	if opts.SkipHeader && len(rows) > 0 {
		rows = rows[1:]
	}

	hosts := make([]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if cell := strings.TrimSpace(row[0]); cell != "" {
			hosts = append(hosts, cell)
		}
	}
	return hosts
}
