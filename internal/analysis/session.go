package analysis

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/qpcr_analyzer_go/internal/parser"
)

// DefaultReferenceGene is the housekeeping gene used unless overridden.
const DefaultReferenceGene = "36b4"

// Options configure a Session.
type Options struct {
	HeaderRow     int
	ReferenceGene string
	Exclusions    []string // user sample substrings; defaults are always added
}

// DefaultOptions returns the plate reader defaults.
func DefaultOptions() Options {
	return Options{HeaderRow: DefaultHeaderRow, ReferenceGene: DefaultReferenceGene}
}

// State is an immutable snapshot of one analysis. A Session replaces its
// State as a whole; nothing in a published State is modified afterwards.
type State struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Source    string

	Table       *parser.Table
	Columns     ColumnIndexes
	Grouped     GroupedReadings
	Means       MeanData
	SkippedRows int

	// ReferenceGene is what was requested; ResolvedReference is the Target
	// actually used, "" when normalization was not possible.
	ReferenceGene     string
	ResolvedReference string
	Normalized        NormalizedData
	Exclusions        []string
	Chart             ChartData
}

// NormalizationAvailable reports whether the reference gene was found.
func (s *State) NormalizationAvailable() bool {
	return s != nil && len(s.Normalized) > 0
}

// Session owns the current analysis. Analyze, SetReferenceGene and
// SetExclusions build a complete new State before publishing it, so Current
// never returns a mix of old and new results. A failed call keeps the
// previous State. Mutating calls run one at a time, each from the State it
// read through to the State it publishes.
type Session struct {
	update sync.Mutex // held by Analyze, SetReferenceGene, SetExclusions and Reset
	mu     sync.RWMutex
	opts   Options
	state *State
	now   func() time.Time
}

// NewSession creates a Session with no analysis loaded.
func NewSession(opts Options) *Session {
	if strings.TrimSpace(opts.ReferenceGene) == "" {
		opts.ReferenceGene = DefaultReferenceGene
	}
	return &Session{opts: opts, now: time.Now}
}

// Current returns the published State, or nil before the first analysis.
func (s *Session) Current() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Analyze processes table from scratch and replaces every derived result.
func (s *Session) Analyze(table *parser.Table) (*State, error) {
	s.update.Lock()
	defer s.update.Unlock()
	opts := s.opts

	processed, err := ProcessTable(table, opts.HeaderRow)
	if err != nil {
		return nil, fmt.Errorf("analysis failed: %w", err)
	}

	next := &State{
		ID:          uuid.New(),
		CreatedAt:   s.now(),
		Source:      table.Source,
		Table:       table,
		Columns:     processed.Columns,
		Grouped:     processed.Grouped,
		Means:       processed.Means,
		SkippedRows: processed.SkippedRows,
	}
	normalizeInto(next, opts.ReferenceGene, ExclusionList(opts.Exclusions))

	s.publish(next, func(o *Options) {})
	slog.Info("Analysis published",
		slog.String("analysis_id", next.ID.String()),
		slog.String("source", next.Source),
		slog.String("reference_gene", next.ReferenceGene),
		slog.Bool("normalized", next.NormalizationAvailable()))
	return next, nil
}

// SetReferenceGene re-normalizes the current analysis against gene. The
// chart view is rebuilt from the new normalized data.
func (s *Session) SetReferenceGene(gene string) (*State, error) {
	gene = strings.TrimSpace(gene)
	if gene == "" {
		return nil, ErrEmptyReferenceGene
	}
	s.update.Lock()
	defer s.update.Unlock()
	cur := s.Current()
	if cur == nil {
		return nil, ErrNoAnalysis
	}

	next := cur.derive()
	normalizeInto(next, gene, cur.Exclusions)
	s.publish(next, func(o *Options) { o.ReferenceGene = gene })
	return next, nil
}

// SetExclusions replaces the user sample exclusions and rebuilds the chart
// view. Defaults stay in effect. Before the first analysis the list is only
// stored for the next Analyze and ErrNoAnalysis is returned.
func (s *Session) SetExclusions(user []string) (*State, error) {
	exclusions := ExclusionList(user)
	s.update.Lock()
	defer s.update.Unlock()
	cur := s.Current()
	if cur == nil {
		s.opts.Exclusions = user
		return nil, ErrNoAnalysis
	}

	next := cur.derive()
	next.Normalized = cur.Normalized
	next.ReferenceGene = cur.ReferenceGene
	next.ResolvedReference = cur.ResolvedReference
	next.Exclusions = exclusions
	next.Chart = PrepareChartData(next.Normalized, next.ResolvedReference, exclusions)
	s.publish(next, func(o *Options) { o.Exclusions = user })
	return next, nil
}

// Reset drops the current analysis.
func (s *Session) Reset() {
	s.update.Lock()
	defer s.update.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
}

func (s *Session) publish(next *State, update func(*Options)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.opts)
	s.state = next
}

// derive copies the analysis part of a State; normalized results are left
// for the caller to fill.
func (st *State) derive() *State {
	return &State{
		ID:          st.ID,
		CreatedAt:   st.CreatedAt,
		Source:      st.Source,
		Table:       st.Table,
		Columns:     st.Columns,
		Grouped:     st.Grouped,
		Means:       st.Means,
		SkippedRows: st.SkippedRows,
	}
}

func normalizeInto(st *State, gene string, exclusions []string) {
	st.ReferenceGene = gene
	st.Exclusions = exclusions
	st.Normalized, st.ResolvedReference = normalize(st.Means, gene)
	st.Chart = PrepareChartData(st.Normalized, st.ResolvedReference, exclusions)
}
