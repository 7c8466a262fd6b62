package analysis

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"

	"github.com/user/qpcr_analyzer_go/internal/parser"
)

// ProcessedData is the outcome of one pass over a raw table.
type ProcessedData struct {
	Columns     ColumnIndexes
	Grouped     GroupedReadings
	Means       MeanData
	SkippedRows int // data rows dropped for a missing Target or Sample
}

// CalculateMean applies the replicate policy to one list of readings:
//
//   - no readings: 0
//   - one reading: that reading, even when it is 0
//   - several readings, all 0: 0
//   - several readings, one non-zero: that reading
//   - otherwise: the average of the non-zero readings
//
// Zeros stand for failed or undetermined wells and only drop out once
// there is more than one replicate to compare against.
func CalculateMean(values []float64) float64 {
	switch len(values) {
	case 0:
		return 0
	case 1:
		return values[0]
	}

	nonZero := make([]float64, 0, len(values))
	for _, v := range values {
		if v != 0 {
			nonZero = append(nonZero, v)
		}
	}
	switch len(nonZero) {
	case 0:
		return 0
	case 1:
		return nonZero[0]
	default:
		return stat.Mean(nonZero, nil)
	}
}

// CalculateMeans derives a SampleMean for every (Target, Sample) pair. The
// readings slice is copied so the result does not alias grouped.
func CalculateMeans(grouped GroupedReadings) MeanData {
	result := make(MeanData, len(grouped))
	for target, samples := range grouped {
		result[target] = make(map[string]SampleMean, len(samples))
		for sample, values := range samples {
			kept := append([]float64(nil), values...)
			result[target][sample] = SampleMean{Values: kept, Mean: CalculateMean(kept)}
		}
	}
	return result
}

// ProcessTable locates the header at headerRow, groups the readings below it
// and computes the means. Only a configuration error can fail it.
func ProcessTable(table *parser.Table, headerRow int) (*ProcessedData, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: no table", ErrConfiguration)
	}

	cols, err := LocateColumns(table, headerRow)
	if err != nil {
		return nil, err
	}

	grouped, skipped := GroupReadings(table, headerRow, cols)
	means := CalculateMeans(grouped)

	slog.Info("Table processed",
		slog.Int("header_row", headerRow+1),
		slog.Int("targets", len(means)),
		slog.Int("pairs", means.PairCount()),
		slog.Int("skipped_rows", skipped))

	return &ProcessedData{
		Columns:     cols,
		Grouped:     grouped,
		Means:       means,
		SkippedRows: skipped,
	}, nil
}
