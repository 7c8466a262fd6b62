package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

// ChartSummary holds the per-target statistics shown next to a chart.
type ChartSummary struct {
	Target string
	Count  int
	Max    float64
	Min    float64
	Mean   float64
}

// SummarizeTarget computes the statistics for one Target's chart values.
// ok is false when there are no values.
func SummarizeTarget(target string, samples map[string]float64) (ChartSummary, bool) {
	if len(samples) == 0 {
		return ChartSummary{Target: target}, false
	}
	values := make([]float64, 0, len(samples))
	for _, sample := range analysis.SortedSamples(samples) {
		values = append(values, samples[sample])
	}
	return ChartSummary{
		Target: target,
		Count:  len(values),
		Max:    floats.Max(values),
		Min:    floats.Min(values),
		Mean:   stat.Mean(values, nil),
	}, true
}

// SummarizeChart returns one summary per Target in display order.
func SummarizeChart(chart analysis.ChartData) []ChartSummary {
	out := make([]ChartSummary, 0, len(chart))
	for _, target := range analysis.SortTargets(chart) {
		if s, ok := SummarizeTarget(target, chart[target]); ok {
			out = append(out, s)
		}
	}
	return out
}
