package analysis

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMeans() MeanData {
	return MeanData{
		"36b4": {
			"S1": {Values: []float64{20.1, 20.3}, Mean: 20.2},
			"S2": {Values: []float64{19.0}, Mean: 19.0},
			"S3": {Values: []float64{0, 0}, Mean: 0},
		},
		"GeneX": {
			"S1": {Values: []float64{25.0, 0}, Mean: 25.0},
			"S2": {Values: []float64{18.0, 18.0}, Mean: 18.0},
			"S3": {Values: []float64{24.0}, Mean: 24.0},
			"S4": {Values: []float64{22.0}, Mean: 22.0},
			"S5": {Values: []float64{0}, Mean: 0},
		},
	}
}

func TestNormalizeDeltaCq(t *testing.T) {
	norm := Normalize(sampleMeans(), "36b4")
	require.Len(t, norm, 2)

	s1 := norm["GeneX"]["S1"]
	require.NotNil(t, s1.DeltaCq)
	require.NotNil(t, s1.NormalizedMean)
	assert.InDelta(t, 4.8, *s1.DeltaCq, 1e-9)
	assert.InDelta(t, 0.01794, *s1.NormalizedMean, 1e-5)
	assert.InDelta(t, math.Pow(2, -4.8), *s1.NormalizedMean, 1e-12)
	assert.False(t, s1.IsControlGene)
	assert.Equal(t, []float64{25.0, 0}, s1.Values)
	assert.Equal(t, 25.0, s1.Mean)

	s2 := norm["GeneX"]["S2"]
	require.NotNil(t, s2.DeltaCq)
	assert.InDelta(t, -1.0, *s2.DeltaCq, 1e-12)
	assert.InDelta(t, 2.0, *s2.NormalizedMean, 1e-12)
}

func TestNormalizeControlGene(t *testing.T) {
	norm := Normalize(sampleMeans(), "36b4")

	for sample, entry := range norm["36b4"] {
		assert.True(t, entry.IsControlGene, sample)
		assert.Nil(t, entry.DeltaCq, sample)
		require.NotNil(t, entry.NormalizedMean, sample)
		assert.Equal(t, entry.Mean, *entry.NormalizedMean, sample)
	}
}

func TestNormalizeUndefinedRatios(t *testing.T) {
	norm := Normalize(sampleMeans(), "36b4")

	// reference mean 0, missing reference sample, target mean 0
	for _, sample := range []string{"S3", "S4", "S5"} {
		entry, ok := norm["GeneX"][sample]
		require.True(t, ok, "every input pair must be present: %s", sample)
		assert.Nil(t, entry.NormalizedMean, sample)
		assert.Nil(t, entry.DeltaCq, sample)
		assert.False(t, entry.IsControlGene, sample)
	}
}

func TestNormalizeCaseInsensitiveFallback(t *testing.T) {
	norm := Normalize(sampleMeans(), "36B4")
	require.NotEmpty(t, norm)
	assert.True(t, norm["36b4"]["S1"].IsControlGene)
	require.NotNil(t, norm["GeneX"]["S1"].NormalizedMean)

	resolved, ok := ResolveReferenceGene(sampleMeans(), "36B4")
	assert.True(t, ok)
	assert.Equal(t, "36b4", resolved)
}

func TestNormalizeExactMatchPreferred(t *testing.T) {
	data := MeanData{
		"ACTB": {"S1": {Values: []float64{15}, Mean: 15}},
		"actb": {"S1": {Values: []float64{16}, Mean: 16}},
	}
	resolved, ok := ResolveReferenceGene(data, "actb")
	assert.True(t, ok)
	assert.Equal(t, "actb", resolved)
}

func TestNormalizeUnknownReferenceGene(t *testing.T) {
	norm := Normalize(sampleMeans(), "GAPDH")
	assert.NotNil(t, norm)
	assert.Len(t, norm, 0)

	_, ok := ResolveReferenceGene(sampleMeans(), "GAPDH")
	assert.False(t, ok)

	assert.Len(t, Normalize(MeanData{}, "36b4"), 0)
}

func TestNormalizeIdempotent(t *testing.T) {
	data := sampleMeans()
	first := Normalize(data, "36b4")
	second := Normalize(data, "36b4")
	assert.Equal(t, first, second)
}

func TestNormalizePositiveValues(t *testing.T) {
	norm := Normalize(sampleMeans(), "36b4")
	for target, samples := range norm {
		for sample, entry := range samples {
			if entry.NormalizedMean != nil {
				assert.Greater(t, *entry.NormalizedMean, 0.0, "%s/%s", target, sample)
			}
		}
	}
}

func TestNormalizeIntoResolvesOnce(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	st := &State{Means: sampleMeans()}
	normalizeInto(st, "GENEX", ExclusionList(nil))

	assert.Equal(t, "GENEX", st.ReferenceGene)
	assert.Equal(t, "GeneX", st.ResolvedReference)
	assert.True(t, st.Normalized["GeneX"]["S1"].IsControlGene)
	assert.Equal(t, 1, strings.Count(buf.String(), "Reference gene matched case-insensitively"))

	norm, resolved := normalize(sampleMeans(), "GAPDH")
	assert.Empty(t, norm)
	assert.Empty(t, resolved)
}
