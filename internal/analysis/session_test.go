package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/qpcr_analyzer_go/internal/parser"
)

func plateTable() *parser.Table {
	return &parser.Table{Source: "plate.csv", Rows: []parser.Row{
		textRow("Target", "Sample", "Cq"),
		textRow("36b4", "S1", "20"),
		textRow("36b4", "S2", "20"),
		textRow("36b4", "Water", "20"),
		textRow("36B4", "S1", "21"),
		textRow("GeneX", "S1", "21"),
		textRow("GeneX", "S2", "22"),
		textRow("GeneX", "Water", "23"),
		textRow("GeneX", "ntc", "35"),
	}}
}

func newTestSession(opts Options) *Session {
	s := NewSession(opts)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return s
}

func TestSessionAnalyze(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})
	assert.Nil(t, s.Current())

	st, err := s.Analyze(plateTable())
	require.NoError(t, err)
	assert.Same(t, st, s.Current())
	assert.Equal(t, "plate.csv", st.Source)
	assert.Equal(t, DefaultReferenceGene, st.ReferenceGene)
	assert.Equal(t, "36b4", st.ResolvedReference)
	assert.True(t, st.NormalizationAvailable())
	assert.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), st.CreatedAt)

	assert.InDelta(t, 0.5, st.Chart["GeneX"]["S1"], 1e-12)
	assert.InDelta(t, 0.125, st.Chart["GeneX"]["Water"], 1e-12)
	assert.NotContains(t, st.Chart["GeneX"], "ntc")
	assert.Equal(t, []string{"ntc"}, st.Exclusions)
}

func TestSessionAnalyzeFailureKeepsState(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})
	first, err := s.Analyze(plateTable())
	require.NoError(t, err)

	bad := &parser.Table{Rows: []parser.Row{textRow("Well", "Fluor")}}
	st, err := s.Analyze(bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "analysis failed")
	assert.Nil(t, st)
	assert.Same(t, first, s.Current())
}

func TestSessionSetReferenceGene(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})

	_, err := s.SetReferenceGene("GeneX")
	assert.ErrorIs(t, err, ErrNoAnalysis)

	first, err := s.Analyze(plateTable())
	require.NoError(t, err)

	_, err = s.SetReferenceGene("   ")
	assert.ErrorIs(t, err, ErrEmptyReferenceGene)
	assert.Same(t, first, s.Current())

	next, err := s.SetReferenceGene("GeneX")
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID)
	assert.Equal(t, "GeneX", next.ResolvedReference)
	assert.True(t, next.Normalized["GeneX"]["S1"].IsControlGene)
	assert.NotContains(t, next.Chart, "GeneX")
	assert.InDelta(t, 2.0, next.Chart["36b4"]["S1"], 1e-12)

	// the earlier snapshot is untouched
	assert.Equal(t, "36b4", first.ResolvedReference)
	assert.Contains(t, first.Chart, "GeneX")

	missing, err := s.SetReferenceGene("GAPDH")
	require.NoError(t, err)
	assert.False(t, missing.NormalizationAvailable())
	assert.Empty(t, missing.ResolvedReference)
	assert.Empty(t, missing.Chart)
	assert.NotEmpty(t, missing.Means)
}

func TestSessionReferenceGenePersistsAcrossAnalyze(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})
	_, err := s.Analyze(plateTable())
	require.NoError(t, err)
	_, err = s.SetReferenceGene("GeneX")
	require.NoError(t, err)

	st, err := s.Analyze(plateTable())
	require.NoError(t, err)
	assert.Equal(t, "GeneX", st.ReferenceGene)
}

func TestSessionSetReferenceGeneWaitsForAnalyze(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})
	_, err := s.Analyze(plateTable())
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	s.now = func() time.Time {
		close(entered)
		<-release
		return time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC)
	}

	table := plateTable()
	analyzed := make(chan error, 1)
	go func() {
		_, err := s.Analyze(table)
		analyzed <- err
	}()
	<-entered

	switched := make(chan *State, 1)
	go func() {
		st, err := s.SetReferenceGene("GeneX")
		assert.NoError(t, err)
		switched <- st
	}()

	select {
	case <-switched:
		t.Fatal("SetReferenceGene finished while Analyze was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	require.NoError(t, <-analyzed)
	st := <-switched
	require.NotNil(t, st)

	cur := s.Current()
	assert.Same(t, st, cur)
	assert.Same(t, table, cur.Table)
	assert.Equal(t, "GeneX", cur.ReferenceGene)
	assert.Equal(t, "GeneX", cur.ResolvedReference)
	assert.Equal(t, time.Date(2024, 5, 2, 9, 30, 0, 0, time.UTC), cur.CreatedAt)
	assert.Equal(t, "GeneX", s.opts.ReferenceGene)
}

func TestSessionSetExclusions(t *testing.T) {
	s := newTestSession(Options{HeaderRow: 0})

	_, err := s.SetExclusions([]string{"water"})
	assert.ErrorIs(t, err, ErrNoAnalysis)

	st, err := s.Analyze(plateTable())
	require.NoError(t, err)
	assert.NotContains(t, st.Chart["GeneX"], "Water", "stored exclusions apply to the next analysis")

	next, err := s.SetExclusions(nil)
	require.NoError(t, err)
	assert.Contains(t, next.Chart["GeneX"], "Water")
	assert.NotContains(t, next.Chart["GeneX"], "ntc")
	assert.Equal(t, st.Normalized, next.Normalized)
	assert.NotContains(t, st.Chart["GeneX"], "Water")
}

func TestSessionReset(t *testing.T) {
	s := newTestSession(DefaultOptions())
	s.opts.HeaderRow = 0
	_, err := s.Analyze(plateTable())
	require.NoError(t, err)

	s.Reset()
	assert.Nil(t, s.Current())
	_, err = s.SetReferenceGene("36b4")
	assert.ErrorIs(t, err, ErrNoAnalysis)
}

func TestNewSessionDefaultsReferenceGene(t *testing.T) {
	s := NewSession(Options{})
	assert.Equal(t, DefaultReferenceGene, s.opts.ReferenceGene)
	assert.Equal(t, DefaultHeaderRow, DefaultOptions().HeaderRow)
}
