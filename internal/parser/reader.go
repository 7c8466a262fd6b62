package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension is not accepted.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// DefaultAllowedFormats lists the extensions accepted when none are configured.
var DefaultAllowedFormats = []string{".xlsx", ".xls", ".csv"}

// ReadOptions controls ReadFile.
type ReadOptions struct {
	Sheet          string   // workbook sheet; "" = first
	AllowedFormats []string // lowercase extensions with dot; nil = DefaultAllowedFormats
}

// ValidateFile checks that path is set and carries an accepted extension.
func ValidateFile(path string, allowed []string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("no input file given")
	}
	if len(allowed) == 0 {
		allowed = DefaultAllowedFormats
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, a := range allowed {
		if ext == strings.ToLower(a) {
			return nil
		}
	}
	return fmt.Errorf("%w %q: accepted formats are %s", ErrUnsupportedFormat, ext, strings.Join(allowed, ", "))
}

// ReadFile validates path and reads it with the CSV or workbook parser
// according to its extension.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	if err := ValidateFile(path, opts.AllowedFormats); err != nil {
		return nil, err
	}

	var (
		table *Table
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		table, err = ParseCSVFile(path)
	case ".xls":
		table, err = ParseXLSXFile(path, opts.Sheet)
		if err != nil {
			err = fmt.Errorf("%w (legacy .xls workbooks must be saved as .xlsx first)", err)
		}
	default:
		table, err = ParseXLSXFile(path, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("Input table loaded",
		slog.String("file", path),
		slog.String("sheet", table.Sheet),
		slog.Int("rows", table.Len()))
	return table, nil
}
