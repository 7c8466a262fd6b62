package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
	"github.com/user/qpcr_analyzer_go/internal/config"
	"github.com/user/qpcr_analyzer_go/internal/parser"
	"github.com/user/qpcr_analyzer_go/internal/report"
)

// Export kinds accepted by --outputs.
const (
	OutputMeans      = "means"
	OutputNormalized = "normalized"
	OutputChartData  = "chart-data"
	OutputCharts     = "charts"
	OutputText       = "text"
	OutputPDF        = "pdf"
)

// AllOutputs lists every export kind in the order they are written.
var AllOutputs = []string{OutputMeans, OutputNormalized, OutputChartData, OutputCharts, OutputText, OutputPDF}

// ParseOutputs turns a comma separated --outputs value into export kinds.
// "all" selects every kind.
func ParseOutputs(list string) ([]string, error) {
	seen := make(map[string]bool)
	var kinds []string
	for _, k := range strings.Split(list, ",") {
		k = strings.ToLower(strings.TrimSpace(k))
		switch {
		case k == "":
			continue
		case k == "all":
			return append([]string(nil), AllOutputs...), nil
		case !isOutputKind(k):
			return nil, fmt.Errorf("unknown output %q (choose from %s or all)", k, strings.Join(AllOutputs, ", "))
		case !seen[k]:
			seen[k] = true
			kinds = append(kinds, k)
		}
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("no outputs selected")
	}
	return kinds, nil
}

func isOutputKind(k string) bool {
	for _, o := range AllOutputs {
		if o == k {
			return true
		}
	}
	return false
}

// App runs the analysis pipeline for the CLI.
type App struct {
	cfg     *config.Config
	session *analysis.Session
	status  io.Writer
	now     func() time.Time
}

// NewApp creates an App with a fresh session configured from cfg. Status
// lines go to status.
func NewApp(cfg *config.Config, status io.Writer) *App {
	return &App{
		cfg: cfg,
		session: analysis.NewSession(analysis.Options{
			HeaderRow:     cfg.Analysis.HeaderRow,
			ReferenceGene: cfg.Analysis.ReferenceGene,
			Exclusions:    cfg.Analysis.ExcludeSamples,
		}),
		status: status,
		now:    time.Now,
	}
}

func (a *App) sendStatus(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	if a.status != nil {
		fmt.Fprintln(a.status, message)
	}
	slog.Debug("Status", slog.String("message", message))
}

// RunResult describes one completed run.
type RunResult struct {
	State *analysis.State
	Files []string
}

// LoadTable validates and reads the input file.
func (a *App) LoadTable(path string) (*parser.Table, error) {
	if err := parser.ValidateFile(path, a.cfg.Analysis.AllowedFormats); err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	a.sendStatus("Reading %s (%s)", filepath.Base(path), humanize.Bytes(uint64(info.Size())))

	table, err := parser.ReadFile(path, parser.ReadOptions{
		Sheet:          a.cfg.Analysis.Sheet,
		AllowedFormats: a.cfg.Analysis.AllowedFormats,
	})
	if err != nil {
		return nil, err
	}
	a.sendStatus("Read %d rows.", table.Len())
	if len(table.ParseErrors) > 0 {
		a.sendStatus("Parsing warnings:")
		for _, e := range table.ParseErrors {
			a.sendStatus("- %s", e)
		}
	}
	return table, nil
}

// Analyze runs the session over table and reports a summary.
func (a *App) Analyze(table *parser.Table) (*analysis.State, error) {
	a.sendStatus("Analyzing (header row %d, reference gene %s)...",
		a.cfg.Analysis.HeaderRow+1, a.cfg.Analysis.ReferenceGene)
	st, err := a.session.Analyze(table)
	if err != nil {
		return nil, err
	}

	a.sendStatus("Columns: Target=%d, Sample=%d, Cq=%d.", st.Columns.Target+1, st.Columns.Sample+1, st.Columns.Cq+1)
	a.sendStatus("Analysis complete. %d targets, %d target/sample pairs.", len(st.Means), st.Means.PairCount())
	if st.SkippedRows > 0 {
		a.sendStatus("Skipped %d rows without Target or Sample.", st.SkippedRows)
	}
	a.reportNormalization(st)
	return st, nil
}

// Renormalize switches the session to another reference gene.
func (a *App) Renormalize(gene string) (*analysis.State, error) {
	st, err := a.session.SetReferenceGene(gene)
	if err != nil {
		return nil, err
	}
	a.reportNormalization(st)
	return st, nil
}

func (a *App) reportNormalization(st *analysis.State) {
	if !st.NormalizationAvailable() {
		a.sendStatus("Reference gene %q not found, normalization skipped.", st.ReferenceGene)
		return
	}
	if st.ResolvedReference != st.ReferenceGene {
		a.sendStatus("Reference gene %q matched target %q.", st.ReferenceGene, st.ResolvedReference)
	}
	a.sendStatus("Normalized against %s; %d targets charted.", st.ResolvedReference, len(st.Chart))
}

// reportReference names the reference gene in exports: the Target it
// resolved to, or the requested name when it was not found.
func reportReference(st *analysis.State) string {
	if st.ResolvedReference != "" {
		return st.ResolvedReference
	}
	return st.ReferenceGene
}

func (a *App) chartOptions() report.ChartOptions {
	c := a.cfg.Charts
	return report.ChartOptions{
		ColorScheme: c.ColorScheme,
		Orientation: c.Orientation,
		ShowValues:  c.ShowValues,
		SortByValue: c.SortByValue,
		Width:       c.Width,
		Height:      c.Height,
	}
}

func (a *App) outputPath(name string) string {
	return filepath.Join(a.cfg.Output.Dir, name)
}

func (a *App) wrote(files *[]string, path string) {
	*files = append(*files, path)
	if info, err := os.Stat(path); err == nil {
		a.sendStatus("Wrote %s (%s)", path, humanize.Bytes(uint64(info.Size())))
		return
	}
	a.sendStatus("Wrote %s", path)
}

// Export writes the selected exports for st into the output directory.
// Exports that need normalized or chart data are skipped with a status line
// when that data is empty.
func (a *App) Export(st *analysis.State, kinds []string) ([]string, error) {
	if err := os.MkdirAll(a.cfg.Output.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	want := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	generated := a.now()
	names := report.OutputNames(reportReference(st), generated)
	var files []string

	if want[OutputMeans] {
		path := a.outputPath(names.Means)
		if err := report.MeansWorkbook(st.Means, generated).Save(path); err != nil {
			return files, err
		}
		a.wrote(&files, path)
	}

	if want[OutputNormalized] {
		if st.NormalizationAvailable() {
			path := a.outputPath(names.Normalized)
			if err := report.NormalizedWorkbook(st.Normalized, st.ResolvedReference, generated).Save(path); err != nil {
				return files, err
			}
			a.wrote(&files, path)
		} else {
			a.sendStatus("Skipping normalized export: no normalized data.")
		}
	}

	if want[OutputChartData] {
		if len(st.Chart) > 0 {
			path := a.outputPath(names.ChartData)
			wb := report.ChartWorkbook(st.Chart, st.ResolvedReference, st.Exclusions, generated)
			if err := wb.Save(path); err != nil {
				return files, err
			}
			a.wrote(&files, path)
		} else {
			a.sendStatus("Skipping chart data export: nothing to chart.")
		}
	}

	var charts []report.ChartImage
	if (want[OutputCharts] || want[OutputPDF]) && len(st.Chart) > 0 {
		a.sendStatus("Generating %d charts...", len(st.Chart))
		var err error
		charts, err = report.CreateBarCharts(st.Chart, a.chartOptions())
		if err != nil {
			return files, err
		}
	}

	if want[OutputCharts] {
		if len(charts) > 0 {
			path := a.outputPath(names.Charts)
			if err := report.SaveChartArchive(path, charts, generated); err != nil {
				return files, err
			}
			a.wrote(&files, path)
		} else {
			a.sendStatus("Skipping chart archive: nothing to chart.")
		}
	}

	if want[OutputText] {
		path := a.outputPath(names.Text)
		if err := a.writeText(path, st); err != nil {
			return files, err
		}
		a.wrote(&files, path)
	}

	if want[OutputPDF] {
		var heatmap []byte
		if len(st.Chart) > 0 {
			img, err := report.CreateExpressionHeatmap(st.Chart, st.ResolvedReference)
			if err != nil {
				a.sendStatus("Error generating heatmap: %v", err)
			} else {
				heatmap = img
			}
		}
		path := a.outputPath(names.PDF)
		err := report.BuildPDFReport(path, report.PDFReportInput{
			Source:        filepath.Base(st.Source),
			ReferenceGene: reportReference(st),
			Generated:     generated,
			Means:         st.Means,
			Normalized:    st.Normalized,
			Chart:         st.Chart,
			Charts:        charts,
			Heatmap:       heatmap,
			Decimals:      a.cfg.Analysis.DecimalPlaces,
		})
		if err != nil {
			return files, err
		}
		a.wrote(&files, path)
	}
	return files, nil
}

func (a *App) writeText(path string, st *analysis.State) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create text report: %w", err)
	}
	err = report.WriteTextReport(f, report.TextReportInput{
		Means:         st.Means,
		Normalized:    st.Normalized,
		ReferenceGene: st.ResolvedReference,
		Decimals:      a.cfg.Analysis.DecimalPlaces,
	})
	if err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Run loads path, analyzes it and writes the selected exports. Each gene in
// extraReferences is then normalized in turn and its normalized workbook
// written as well.
func (a *App) Run(path string, kinds []string, extraReferences []string) (*RunResult, error) {
	table, err := a.LoadTable(path)
	if err != nil {
		return nil, err
	}
	st, err := a.Analyze(table)
	if err != nil {
		return nil, err
	}
	files, err := a.Export(st, kinds)
	if err != nil {
		return nil, err
	}

	for _, gene := range extraReferences {
		if strings.TrimSpace(gene) == "" {
			continue
		}
		a.sendStatus("Re-normalizing against %s...", gene)
		next, err := a.Renormalize(gene)
		if err != nil {
			return nil, err
		}
		more, err := a.Export(next, []string{OutputNormalized})
		if err != nil {
			return nil, err
		}
		files = append(files, more...)
		st = next
	}
	return &RunResult{State: st, Files: files}, nil
}
