package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

// Sheet names used by the workbook exports.
const (
	MeansSheet      = "PCR Results"
	NormalizedSheet = "Normalized PCR Results"
	ChartSheet      = "Chart Data"
)

// Workbook is a single sheet export. Rows are written top to bottom starting
// at A1; an empty row leaves a blank line. ColWidths apply to columns A, B, ...
type Workbook struct {
	Sheet     string
	Rows      [][]interface{}
	ColWidths []float64
}

// reading returns the i-th replicate, or "" when it is missing or 0.
func reading(values []float64, i int) interface{} {
	if i >= len(values) || values[i] == 0 {
		return ""
	}
	return values[i]
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

// MeanSheetRows lays out the mean Cq export grouped by Target.
func MeanSheetRows(means analysis.MeanData, generated time.Time) [][]interface{} {
	rows := [][]interface{}{
		{"PCR Analysis Results"},
		{"Analysis date:", analysisDate(generated)},
		{"Grouped by Target"},
		{},
	}
	for _, target := range analysis.SortTargets(means) {
		rows = append(rows,
			[]interface{}{"Target: " + target},
			[]interface{}{"Sample", "Cq 1", "Cq 2", "Mean Cq"})
		samples := means[target]
		for _, sample := range analysis.SortedSamples(samples) {
			sm := samples[sample]
			rows = append(rows, []interface{}{sample, reading(sm.Values, 0), reading(sm.Values, 1), sm.Mean})
		}
		rows = append(rows, []interface{}{})
	}
	return rows
}

// NormalizedSheetRows lays out the normalized export. Targets are ordered
// with referenceGene first.
func NormalizedSheetRows(norm analysis.NormalizedData, referenceGene string, generated time.Time) [][]interface{} {
	rows := [][]interface{}{
		{"Normalized PCR Analysis Results"},
		{"Reference gene:", referenceGene},
		{"Analysis date:", analysisDate(generated)},
		{"Normalization formula: 2^(-ΔCq), ΔCq = Cq_gene - Cq_" + referenceGene},
		{},
	}
	for _, target := range analysis.SortTargetsForNormalization(norm, referenceGene) {
		rows = append(rows,
			[]interface{}{"Target: " + target},
			[]interface{}{"Sample", "Cq 1", "Cq 2", "Mean Cq", "ΔCq", "Normalized value"})
		samples := norm[target]
		for _, sample := range analysis.SortedSamples(samples) {
			e := samples[sample]
			rows = append(rows, []interface{}{
				sample,
				reading(e.Values, 0),
				reading(e.Values, 1),
				e.Mean,
				optional(e.DeltaCq),
				optional(e.NormalizedMean),
			})
		}
		rows = append(rows, []interface{}{})
	}
	return rows
}

// ChartSheetRows lays out the chart data pivot: one row per Target, one
// column per Sample (union over all Targets, sorted), then Mean, Max and Min.
func ChartSheetRows(chart analysis.ChartData, referenceGene string, exclusions []string, generated time.Time) [][]interface{} {
	rows := [][]interface{}{
		{"PCR Chart Data"},
		{"Analysis date:", analysisDate(generated)},
		{"Reference gene:", referenceGene},
		{"Excluded samples:", strings.Join(exclusions, ", ")},
		{},
	}

	union := make(map[string]struct{})
	for _, samples := range chart {
		for sample := range samples {
			union[sample] = struct{}{}
		}
	}
	samples := analysis.SortedSamples(union)

	header := []interface{}{"Target"}
	for _, s := range samples {
		header = append(header, s)
	}
	header = append(header, "Mean", "Max", "Min")
	rows = append(rows, header)

	for _, target := range analysis.SortTargets(chart) {
		row := []interface{}{target}
		for _, s := range samples {
			if v, ok := chart[target][s]; ok {
				row = append(row, v)
			} else {
				row = append(row, "")
			}
		}
		if sum, ok := SummarizeTarget(target, chart[target]); ok {
			row = append(row, sum.Mean, sum.Max, sum.Min)
		} else {
			row = append(row, "", "", "")
		}
		rows = append(rows, row)
	}
	return rows
}

// ChartSheetWidths returns column widths for a chart sheet with n samples.
func ChartSheetWidths(n int) []float64 {
	widths := []float64{20}
	for i := 0; i < n+3; i++ {
		widths = append(widths, 12)
	}
	return widths
}

// MeansWorkbook builds the mean Cq export.
func MeansWorkbook(means analysis.MeanData, generated time.Time) Workbook {
	return Workbook{Sheet: MeansSheet, Rows: MeanSheetRows(means, generated)}
}

// NormalizedWorkbook builds the normalized export.
func NormalizedWorkbook(norm analysis.NormalizedData, referenceGene string, generated time.Time) Workbook {
	return Workbook{Sheet: NormalizedSheet, Rows: NormalizedSheetRows(norm, referenceGene, generated)}
}

// ChartWorkbook builds the chart data export.
func ChartWorkbook(chart analysis.ChartData, referenceGene string, exclusions []string, generated time.Time) Workbook {
	rows := ChartSheetRows(chart, referenceGene, exclusions, generated)
	header := rows[5]
	return Workbook{Sheet: ChartSheet, Rows: rows, ColWidths: ChartSheetWidths(len(header) - 4)}
}

func (wb Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", wb.Sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet %q: %w", wb.Sheet, err)
	}

	for i, row := range wb.Rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			f.Close()
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(wb.Sheet, cell, &values); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	for i, width := range wb.ColWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetColWidth(wb.Sheet, col, col, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}
	return f, nil
}

// Write serializes the workbook as xlsx to w.
func (wb Workbook) Write(w io.Writer) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Save writes the workbook to path.
func (wb Workbook) Save(path string) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	slog.Debug("Workbook saved",
		slog.String("path", path),
		slog.String("sheet", wb.Sheet),
		slog.Int("rows", len(wb.Rows)))
	return nil
}
