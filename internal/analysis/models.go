package analysis

// ColumnIndexes are the 0-based positions of the required columns in the
// header row.
type ColumnIndexes struct {
	Target int
	Sample int
	Cq     int
}

// GroupedReadings maps Target -> Sample -> Cq readings in row order.
type GroupedReadings map[string]map[string][]float64

// SampleMean holds every reading for one (Target, Sample) pair, invalid
// readings included as 0, and the mean derived from them.
type SampleMean struct {
	Values []float64 `json:"values"`
	Mean   float64   `json:"mean"`
}

// MeanData maps Target -> Sample -> SampleMean.
type MeanData map[string]map[string]SampleMean

// NormalizedSampleMean extends SampleMean with the relative expression value.
// NormalizedMean is nil when the ratio is undefined; DeltaCq is nil for the
// reference gene and for undefined ratios.
type NormalizedSampleMean struct {
	SampleMean
	NormalizedMean *float64 `json:"normalizedMean"`
	IsControlGene  bool     `json:"isControlGene"`
	DeltaCq        *float64 `json:"deltaCq,omitempty"`
}

// NormalizedData maps Target -> Sample -> NormalizedSampleMean.
type NormalizedData map[string]map[string]NormalizedSampleMean

// ChartData maps Target -> Sample -> normalized value, already filtered for
// plotting.
type ChartData map[string]map[string]float64

// Targets returns the Target keys in sorted order.
func (m MeanData) Targets() []string { return sortedKeys(m) }

// Targets returns the Target keys in sorted order.
func (n NormalizedData) Targets() []string { return sortedKeys(n) }

// Targets returns the Target keys in sorted order.
func (c ChartData) Targets() []string { return sortedKeys(c) }

// PairCount is the number of (Target, Sample) pairs.
func (m MeanData) PairCount() int {
	n := 0
	for _, samples := range m {
		n += len(samples)
	}
	return n
}
