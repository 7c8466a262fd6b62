package report

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

const noValue = "—"

// TextReportInput is what WriteTextReport prints. Normalized may be empty,
// in which case only the mean block is written.
type TextReportInput struct {
	Means         analysis.MeanData
	Normalized    analysis.NormalizedData
	ReferenceGene string
	Decimals      int
}

// WriteTextReport writes the tab separated plain text summary.
func WriteTextReport(w io.Writer, in TextReportInput) error {
	decimals := in.Decimals
	if decimals <= 0 {
		decimals = DefaultDecimalPlaces
	}
	bw := bufio.NewWriter(w)

	fmt.Fprint(bw, "=== MEAN Cq VALUES ===\n\n")
	for _, target := range analysis.SortTargets(in.Means) {
		fmt.Fprintf(bw, "%s\n", target)
		samples := in.Means[target]
		for _, sample := range analysis.SortedSamples(samples) {
			sm := samples[sample]
			fmt.Fprintf(bw, "\t%s\t%s\t%s\t%s\n", sample,
				formatReading(sm.Values, 0, decimals),
				formatReading(sm.Values, 1, decimals),
				FormatCq(sm.Mean, decimals))
		}
		fmt.Fprint(bw, "\n")
	}

	if len(in.Normalized) > 0 {
		fmt.Fprintf(bw, "\n=== NORMALIZED VALUES (reference %s) ===\n\n", in.ReferenceGene)
		for _, target := range analysis.SortTargetsForNormalization(in.Normalized, in.ReferenceGene) {
			fmt.Fprintf(bw, "%s\n", target)
			samples := in.Normalized[target]
			for _, sample := range analysis.SortedSamples(samples) {
				entry := samples[sample]
				mean := FormatCq(entry.Mean, decimals)
				if entry.IsControlGene {
					fmt.Fprintf(bw, "\t%s\t%s\t%s\t%s\n", sample, mean, noValue, noValue)
					continue
				}
				norm, delta := noValue, noValue
				if entry.NormalizedMean != nil {
					norm = strconv.FormatFloat(*entry.NormalizedMean, 'f', 6, 64)
				}
				if entry.DeltaCq != nil {
					delta = strconv.FormatFloat(*entry.DeltaCq, 'f', 4, 64)
				}
				fmt.Fprintf(bw, "\t%s\t%s\t%s\tΔCq=%s\n", sample, mean, norm, delta)
			}
			fmt.Fprint(bw, "\n")
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}
