package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads one sheet of a workbook into a raw table. An empty sheet
// name selects the first sheet, which is where plate readers write results.
// Cell values are read raw so numbers keep full precision instead of the
// display format.
func ParseXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	if sheet == "" {
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	slog.Debug("Workbook sheet read",
		slog.String("sheet", sheet),
		slog.Int("sheet_count", len(sheets)),
		slog.Int("row_count", len(rows)))

	table, err := workbookTable(f, sheet, rows)
	if err != nil {
		return nil, err
	}
	table.Sheet = sheet
	if len(sheets) > 1 {
		table.ParseErrors = append(table.ParseErrors,
			fmt.Sprintf("workbook has %d sheets, only %q was read", len(sheets), sheet))
	}
	return table, nil
}

// workbookTable classifies cells by the type stored in the workbook. Cells
// saved as strings stay text even when they look numeric, so a Sample
// labelled "01" is not read as the number 1.
func workbookTable(f *excelize.File, sheet string, rows [][]string) (*Table, error) {
	t := &Table{Rows: make([]Row, len(rows)), ParseErrors: make([]string, 0)}
	for i, line := range rows {
		row := make(Row, len(line))
		for j, v := range line {
			if v == "" {
				row[j] = EmptyCell()
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("failed to read cell %s: %w", name, err)
			}
			switch typ {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
				row[j] = TextCell(v)
			default:
				if n, ok := parseNumber(v); ok {
					row[j] = NumberCell(n)
				} else {
					row[j] = TextCell(v)
				}
			}
		}
		t.Rows[i] = row
	}
	return t, nil
}

// ParseXLSXFile opens filepath and parses it with ParseXLSX.
func ParseXLSXFile(filepath string, sheet string) (*Table, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook file: %w", err)
	}
	defer file.Close()

	table, err := ParseXLSX(file, sheet)
	if err != nil {
		return nil, err
	}
	table.Source = filepath
	return table, nil
}
