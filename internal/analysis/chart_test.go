package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusionList(t *testing.T) {
	assert.Equal(t, []string{"ntc"}, ExclusionList(nil))
	assert.Equal(t, []string{"water", "blank", "ntc"}, ExclusionList([]string{" Water", "", "BLANK", "water"}))
	assert.Equal(t, []string{"ntc"}, ExclusionList([]string{"NTC"}))
	assert.Equal(t, []string{"mock", "ntc"}, ParseExclusions("mock, ,"))
}

func chartFixture() NormalizedData {
	data := MeanData{
		"36b4": {
			"S1":     {Values: []float64{20}, Mean: 20},
			"S2":     {Values: []float64{20}, Mean: 20},
			"Water":  {Values: []float64{20}, Mean: 20},
			"ntc-1":  {Values: []float64{20}, Mean: 20},
			"Sample": {Values: []float64{20}, Mean: 20},
		},
		"GeneX": {
			"S1":     {Values: []float64{21}, Mean: 21},
			"S2":     {Values: []float64{0}, Mean: 0},
			"Water":  {Values: []float64{22}, Mean: 22},
			"ntc-1":  {Values: []float64{23}, Mean: 23},
			"Sample": {Values: []float64{24}, Mean: 24},
		},
		"GeneY": {
			"S2": {Values: []float64{0}, Mean: 0},
		},
		"NTC control": {
			"S1": {Values: []float64{35}, Mean: 35},
		},
		"myntcgene": {
			"S1": {Values: []float64{30}, Mean: 30},
		},
	}
	return Normalize(data, "36b4")
}

func TestPrepareChartData(t *testing.T) {
	chart := PrepareChartData(chartFixture(), "36b4", []string{"water"})

	assert.NotContains(t, chart, "36b4")
	assert.NotContains(t, chart, "NTC control")
	assert.NotContains(t, chart, "myntcgene")
	assert.NotContains(t, chart, "GeneY", "targets without values are omitted")

	require.Contains(t, chart, "GeneX")
	gx := chart["GeneX"]
	assert.InDelta(t, 0.5, gx["S1"], 1e-12)
	assert.InDelta(t, 0.0625, gx["Sample"], 1e-12)
	assert.NotContains(t, gx, "S2", "null values are dropped")
	assert.NotContains(t, gx, "Water")
	assert.NotContains(t, gx, "ntc-1", "default exclusions always apply")
	assert.Len(t, gx, 2)
}

func TestPrepareChartDataDefaultsUnioned(t *testing.T) {
	chart := PrepareChartData(chartFixture(), "36b4", nil)
	require.Contains(t, chart, "GeneX")
	assert.Contains(t, chart["GeneX"], "Water")
	assert.NotContains(t, chart["GeneX"], "ntc-1")
}

func TestPrepareChartDataValuesUnchanged(t *testing.T) {
	norm := chartFixture()
	chart := PrepareChartData(norm, "36b4", nil)
	for target, samples := range chart {
		for sample, v := range samples {
			require.NotNil(t, norm[target][sample].NormalizedMean)
			assert.Equal(t, *norm[target][sample].NormalizedMean, v)
		}
	}
}

func TestPrepareChartDataEmptyNormalization(t *testing.T) {
	chart := PrepareChartData(NormalizedData{}, "36b4", nil)
	assert.Empty(t, chart)
}
