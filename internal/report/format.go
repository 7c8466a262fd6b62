package report

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultDecimalPlaces is how many decimals FormatCq prints by default.
const DefaultDecimalPlaces = 10

// FormatCq renders a Cq value the way plate reader users expect it: 0 stays
// "0", NaN becomes empty, everything else is fixed-point with a comma as the
// decimal separator.
func FormatCq(v float64, decimals int) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) {
		return ""
	}
	return strings.Replace(strconv.FormatFloat(v, 'f', decimals, 64), ".", ",", 1)
}

// formatReading formats the i-th replicate, empty when there is none.
func formatReading(values []float64, i, decimals int) string {
	if i >= len(values) {
		return ""
	}
	return FormatCq(values[i], decimals)
}

// OutputFiles holds the file names of every export for one analysis.
type OutputFiles struct {
	Means      string
	Normalized string
	ChartData  string
	Charts     string
	Text       string
	PDF        string
}

// OutputNames builds export file names stamped with the UTC date of generated.
func OutputNames(referenceGene string, generated time.Time) OutputFiles {
	date := generated.UTC().Format("2006-01-02")
	return OutputFiles{
		Means:      "PCR_Analysis_" + date + ".xlsx",
		Normalized: "PCR_Normalized_" + safeName(referenceGene) + "_" + date + ".xlsx",
		ChartData:  "PCR_Chart_Data_" + date + ".xlsx",
		Charts:     "PCR_Charts_" + date + ".zip",
		Text:       "pcr_results_" + date + ".txt",
		PDF:        "PCR_Report_" + date + ".pdf",
	}
}

// safeName replaces path separators and other characters that are awkward
// in file or archive entry names.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 {
			return '_'
		}
		return r
	}, s)
}

func analysisDate(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
