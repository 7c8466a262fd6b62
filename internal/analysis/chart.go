package analysis

import (
	"strings"
)

// DefaultExclusions are sample substrings always left out of charts.
var DefaultExclusions = []string{"ntc"}

// ParseExclusions splits a comma separated list of sample substrings and
// passes it to ExclusionList.
func ParseExclusions(list string) []string {
	return ExclusionList(strings.Split(list, ","))
}

// ExclusionList normalizes user supplied substrings (trimmed, lowercased,
// blanks dropped) and appends DefaultExclusions. User input never replaces
// the defaults.
func ExclusionList(user []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(user)+len(DefaultExclusions))
	add := func(s string) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, s := range user {
		add(s)
	}
	for _, s := range DefaultExclusions {
		add(s)
	}
	return out
}

// IsNTC reports whether a Target is a no-template control.
func IsNTC(target string) bool {
	return strings.Contains(strings.ToUpper(target), "NTC")
}

// PrepareChartData projects normalized data onto what gets plotted: the
// reference gene and NTC targets are dropped, samples matching any exclusion
// substring (case-insensitive) are dropped, as are samples without a value.
// DefaultExclusions always apply on top of exclude. Targets left with no
// samples are omitted.
func PrepareChartData(data NormalizedData, referenceGene string, exclude []string) ChartData {
	exclude = ExclusionList(exclude)
	chart := make(ChartData)
	for target, samples := range data {
		if target == referenceGene || IsNTC(target) {
			continue
		}

		kept := make(map[string]float64)
		for sample, entry := range samples {
			if excluded(sample, exclude) || entry.NormalizedMean == nil {
				continue
			}
			kept[sample] = *entry.NormalizedMean
		}
		if len(kept) > 0 {
			chart[target] = kept
		}
	}
	return chart
}

func excluded(sample string, exclude []string) bool {
	lower := strings.ToLower(sample)
	for _, ex := range exclude {
		if strings.Contains(lower, ex) {
			return true
		}
	}
	return false
}
