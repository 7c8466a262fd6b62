package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// utf8BOM is stripped from the first field; spreadsheet tools often prepend it.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV reads a CSV export of a plate run into a raw table. Rows may have
// differing field counts; instrument exports put free-form metadata above the
// results block.
func ParseCSV(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV data: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = detectDelimiter(data)

	// encoding/csv drops blank lines; pad them back so row indexes match the
	// line numbers a spreadsheet shows.
	var allRows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV data: %w", err)
		}
		line, _ := reader.FieldPos(0)
		for len(allRows) < line-1 {
			allRows = append(allRows, nil)
		}
		allRows = append(allRows, record)
	}

	return NewTable(allRows), nil
}

// ParseCSVFile opens filepath and parses it with ParseCSV.
func ParseCSVFile(filepath string) (*Table, error) {
	file, err := os.Open(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	table, err := ParseCSV(file)
	if err != nil {
		return nil, err
	}
	table.Source = filepath
	return table, nil
}

// detectDelimiter picks ';' over ',' when the first non-empty line has more
// semicolons. Locales with a comma decimal separator export that way.
func detectDelimiter(data []byte) rune {
	for _, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
			return ';'
		}
		return ','
	}
	return ','
}
