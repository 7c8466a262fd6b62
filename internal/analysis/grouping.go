package analysis

import (
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/user/qpcr_analyzer_go/internal/parser"
)

// undeterminedMarker is what instruments write for wells that never crossed
// the threshold.
const undeterminedMarker = "UNDETERMINED"

var leadingFloat = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

// ParseCq converts a Cq cell to a number. Absent cells, undetermined wells
// and unparseable text all read as 0. A comma decimal separator is accepted,
// and trailing garbage after a leading number is ignored ("25.1*" is 25.1).
func ParseCq(cell parser.Cell) float64 {
	switch cell.Kind {
	case parser.KindNumber:
		return cell.Number
	case parser.KindText:
		return parseCqText(cell.Text)
	default:
		return 0
	}
}

func parseCqText(s string) float64 {
	if s == "" || strings.Contains(strings.ToUpper(s), undeterminedMarker) {
		return 0
	}
	s = strings.Replace(s, ",", ".", 1)
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := leadingFloat.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// GroupReadings walks every row after headerRow and collects Cq readings
// per Target and Sample. Empty rows are ignored; rows without a Target or
// Sample are skipped and counted. Target and Sample keys are trimmed but
// keep their case.
func GroupReadings(table *parser.Table, headerRow int, cols ColumnIndexes) (GroupedReadings, int) {
	grouped := make(GroupedReadings)
	skipped := 0

	for i := headerRow + 1; i < table.Len(); i++ {
		row := table.Rows[i]
		if len(row) == 0 {
			continue
		}

		target, sample := row.Cell(cols.Target), row.Cell(cols.Sample)
		if isBlank(target) || isBlank(sample) {
			skipped++
			slog.Debug("Row skipped: missing Target or Sample", slog.Int("row", i+1))
			continue
		}
		targetKey := strings.TrimSpace(target.String())
		sampleKey := strings.TrimSpace(sample.String())

		samples, ok := grouped[targetKey]
		if !ok {
			samples = make(map[string][]float64)
			grouped[targetKey] = samples
		}
		samples[sampleKey] = append(samples[sampleKey], ParseCq(row.Cell(cols.Cq)))
	}
	return grouped, skipped
}

func isBlank(c parser.Cell) bool {
	return c.IsEmpty() || strings.TrimSpace(c.String()) == ""
}
