package analysis

import (
	"log/slog"
	"math"
	"strings"
)

// ResolveReferenceGene finds the Target to normalize against. An exact key
// wins; otherwise the first Target (in sorted order) equal to gene ignoring
// case is used. ok is false when nothing matches.
func ResolveReferenceGene(data MeanData, gene string) (resolved string, ok bool) {
	if _, found := data[gene]; found {
		return gene, true
	}
	for _, target := range data.Targets() {
		if strings.ToLower(target) == strings.ToLower(gene) {
			slog.Debug("Reference gene matched case-insensitively",
				slog.String("requested", gene),
				slog.String("resolved", target))
			return target, true
		}
	}
	return "", false
}

// Normalize computes 2^-ΔCq relative expression for every (Target, Sample)
// pair against referenceGene. If the reference gene cannot be resolved the
// result is empty: callers must treat that as "normalization not possible",
// which is different from a result whose entries are all nil.
func Normalize(data MeanData, referenceGene string) NormalizedData {
	result, _ := normalize(data, referenceGene)
	return result
}

// normalize is Normalize that also returns the Target it resolved
// referenceGene to, "" when normalization was not possible.
func normalize(data MeanData, referenceGene string) (NormalizedData, string) {
	result := make(NormalizedData)
	if len(data) == 0 {
		return result, ""
	}

	control, ok := ResolveReferenceGene(data, referenceGene)
	if !ok {
		slog.Warn("Reference gene not found, normalization skipped",
			slog.String("reference_gene", referenceGene))
		return result, ""
	}
	controlSamples := data[control]

	for target, samples := range data {
		result[target] = make(map[string]NormalizedSampleMean, len(samples))
		for sample, sm := range samples {
			entry := NormalizedSampleMean{SampleMean: cloneSampleMean(sm)}

			if target == control {
				entry.NormalizedMean = float64Ptr(sm.Mean)
				entry.IsControlGene = true
				result[target][sample] = entry
				continue
			}

			ref, found := controlSamples[sample]
			if !found || sm.Mean == 0 || ref.Mean == 0 {
				// a Cq of 0 is a missing well, the ratio is undefined
				result[target][sample] = entry
				continue
			}

			deltaCq := sm.Mean - ref.Mean
			entry.DeltaCq = float64Ptr(deltaCq)
			entry.NormalizedMean = float64Ptr(math.Pow(2, -deltaCq))
			result[target][sample] = entry
		}
	}
	return result, control
}

func cloneSampleMean(sm SampleMean) SampleMean {
	return SampleMean{Values: append([]float64(nil), sm.Values...), Mean: sm.Mean}
}

func float64Ptr(v float64) *float64 { return &v }
