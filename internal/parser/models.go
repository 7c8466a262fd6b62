package parser

import (
	"math"
	"strconv"
	"strings"
)

// CellKind tags the value held by a Cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindNumber
	KindText
)

func (k CellKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "empty"
	}
}

// Cell is a single spreadsheet value. Exactly one of Number or Text is
// meaningful, selected by Kind. Raw keeps the source text of a number read
// from text input, so "01" and "1" stay distinct labels.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Raw    string
}

// EmptyCell returns the absent/null cell.
func EmptyCell() Cell { return Cell{Kind: KindEmpty} }

// NumberCell wraps a numeric value.
func NumberCell(v float64) Cell { return Cell{Kind: KindNumber, Number: v} }

// TextCell wraps a string value. An empty string is still a text cell;
// use CellFromString to classify raw input.
func TextCell(s string) Cell { return Cell{Kind: KindText, Text: s} }

// CellFromString classifies a raw exported value: "" is empty, anything
// strconv can read as a finite float is a number, the rest is text. Numbers
// keep their trimmed source text in Raw.
func CellFromString(raw string) Cell {
	if raw == "" {
		return EmptyCell()
	}
	if v, ok := parseNumber(raw); ok {
		c := NumberCell(v)
		c.Raw = strings.TrimSpace(raw)
		return c
	}
	return TextCell(raw)
}

func parseNumber(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// IsEmpty reports whether the cell is absent.
func (c Cell) IsEmpty() bool { return c.Kind == KindEmpty }

// String returns the cell's string form. Numbers return their source text
// when known, otherwise the shortest representation that round-trips.
func (c Cell) String() string {
	switch c.Kind {
	case KindNumber:
		if c.Raw != "" {
			return c.Raw
		}
		return strconv.FormatFloat(c.Number, 'g', -1, 64)
	case KindText:
		return c.Text
	default:
		return ""
	}
}

// Row is one ordered line of cells.
type Row []Cell

// Cell returns the cell at index i, or an empty cell when i is out of range.
func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r) {
		return EmptyCell()
	}
	return r[i]
}

// Table holds the raw 2-D contents of one sheet or CSV file.
type Table struct {
	Source      string // file the table was read from, if any
	Sheet       string // sheet name for workbooks
	Rows        []Row
	ParseErrors []string // non-fatal ingestion warnings
}

// NewTable builds a table from rows of raw strings, classifying each cell
// with CellFromString.
func NewTable(raw [][]string) *Table {
	t := &Table{Rows: make([]Row, len(raw)), ParseErrors: make([]string, 0)}
	for i, line := range raw {
		row := make(Row, len(line))
		for j, v := range line {
			row[j] = CellFromString(v)
		}
		t.Rows[i] = row
	}
	return t
}

// Row returns the row at index i and whether it exists.
func (t *Table) Row(i int) (Row, bool) {
	if t == nil || i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	return t.Rows[i], true
}

// Len is the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
