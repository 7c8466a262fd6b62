package analysis

import (
	"errors"
	"strings"

	"github.com/user/qpcr_analyzer_go/internal/parser"
)

// DefaultHeaderRow is the 0-based row holding column labels in the plate
// reader's export (row 27 as the spreadsheet shows it).
const DefaultHeaderRow = 26

// FindColumnIndexes scans the header cells left to right for the Target,
// Sample and Cq labels. Target and Sample match case-insensitively; Cq
// matches only "Cq", "CQ" or "cq". Each match reassigns its index, so with
// duplicate labels the last one wins.
func FindColumnIndexes(header parser.Row) (ColumnIndexes, error) {
	cols := ColumnIndexes{Target: -1, Sample: -1, Cq: -1}
	for i, cell := range header {
		value := strings.TrimSpace(cell.String())
		lower := strings.ToLower(value)
		if lower == "target" {
			cols.Target = i
		}
		if lower == "sample" {
			cols.Sample = i
		}
		if value == "Cq" || value == "CQ" || value == "cq" {
			cols.Cq = i
		}
	}

	var missing []string
	if cols.Target == -1 {
		missing = append(missing, "Target")
	}
	if cols.Sample == -1 {
		missing = append(missing, "Sample")
	}
	if cols.Cq == -1 {
		missing = append(missing, "Cq")
	}
	if len(missing) > 0 {
		return cols, &ConfigError{Missing: missing}
	}
	return cols, nil
}

// LocateColumns takes the header row at headerRow from table and resolves
// the column indexes. A missing or empty header row is a configuration error.
func LocateColumns(table *parser.Table, headerRow int) (ColumnIndexes, error) {
	header, ok := table.Row(headerRow)
	if !ok || len(header) == 0 {
		return ColumnIndexes{}, &ConfigError{Row: headerRow, Reason: "row not found or empty"}
	}
	cols, err := FindColumnIndexes(header)
	if err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Row = headerRow
		}
		return cols, err
	}
	return cols, nil
}
