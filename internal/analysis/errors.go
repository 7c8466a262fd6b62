package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks input whose shape does not match the configured
	// layout: the header row is missing or lacks a required column. It is
	// distinct from bad cell values, which never fail an analysis.
	ErrConfiguration = errors.New("configuration error")

	// ErrNoAnalysis is returned when re-normalization is requested before any
	// table has been analyzed.
	ErrNoAnalysis = errors.New("no analysis loaded")

	// ErrEmptyReferenceGene is returned for a blank reference gene name.
	ErrEmptyReferenceGene = errors.New("reference gene name is empty")
)

// ConfigError describes why a table could not be analyzed.
type ConfigError struct {
	Row     int      // 0-based header row index
	Reason  string
	Missing []string // required column labels not found
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("header row %d: required columns not found: %s", e.Row+1, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("header row %d: %s", e.Row+1, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) hold for every ConfigError.
func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }
