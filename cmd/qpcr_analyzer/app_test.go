package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
	"github.com/user/qpcr_analyzer_go/internal/config"
)

const plateCSV = `Target,Sample,Cq
36b4,S1,20
36b4,S2,20
GeneX,S1,21
GeneX,S2,22
GeneX,ntc,35
GeneY,S1,Undetermined
GeneY,S2,24
`

func writePlate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plate.csv")
	require.NoError(t, os.WriteFile(path, []byte(plateCSV), 0644))
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Analysis.HeaderRow = 0
	cfg.Output.Dir = filepath.Join(t.TempDir(), "out")
	cfg.Charts.Width = 300
	cfg.Charts.Height = 200
	return cfg
}

func newTestApp(cfg *config.Config, status io.Writer) *App {
	app := NewApp(cfg, status)
	app.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return app
}

func TestParseOutputs(t *testing.T) {
	kinds, err := ParseOutputs("all")
	require.NoError(t, err)
	assert.Equal(t, AllOutputs, kinds)

	kinds, err = ParseOutputs(" Means, text,means ")
	require.NoError(t, err)
	assert.Equal(t, []string{OutputMeans, OutputText}, kinds)

	_, err = ParseOutputs("means,svg")
	assert.ErrorContains(t, err, `unknown output "svg"`)

	_, err = ParseOutputs(" , ")
	assert.Error(t, err)
}

func TestAppRunWritesAllOutputs(t *testing.T) {
	cfg := testConfig(t)
	var status bytes.Buffer
	app := newTestApp(cfg, &status)

	res, err := app.Run(writePlate(t), AllOutputs, nil)
	require.NoError(t, err)
	require.Len(t, res.Files, 6)

	for _, name := range []string{
		"PCR_Analysis_2024-05-01.xlsx",
		"PCR_Normalized_36b4_2024-05-01.xlsx",
		"PCR_Chart_Data_2024-05-01.xlsx",
		"PCR_Charts_2024-05-01.zip",
		"pcr_results_2024-05-01.txt",
		"PCR_Report_2024-05-01.pdf",
	} {
		assert.FileExists(t, filepath.Join(cfg.Output.Dir, name))
	}

	text, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "pcr_results_2024-05-01.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(text), "=== NORMALIZED VALUES (reference 36b4) ===")
	assert.Contains(t, string(text), "\tS1\t21,0000000000\t0.500000\tΔCq=1.0000\n")

	assert.Contains(t, status.String(), "Read 8 rows.")
	assert.Contains(t, status.String(), "Analysis complete. 3 targets")
	assert.Contains(t, status.String(), "Normalized against 36b4; 2 targets charted.")

	assert.Equal(t, "36b4", res.State.ResolvedReference)
	assert.NotContains(t, res.State.Chart["GeneX"], "ntc")
}

func TestAppRunWithoutReference(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.ReferenceGene = "GAPDH"
	var status bytes.Buffer
	app := newTestApp(cfg, &status)

	res, err := app.Run(writePlate(t), AllOutputs, nil)
	require.NoError(t, err)
	assert.False(t, res.State.NormalizationAvailable())

	// means, text and pdf only
	assert.Len(t, res.Files, 3)
	assert.Contains(t, status.String(), `Reference gene "GAPDH" not found`)
	assert.Contains(t, status.String(), "Skipping normalized export")
	assert.Contains(t, status.String(), "Skipping chart archive")
	assert.NoFileExists(t, filepath.Join(cfg.Output.Dir, "PCR_Chart_Data_2024-05-01.xlsx"))
}

func TestAppRunExtraReference(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp(cfg, nil)

	res, err := app.Run(writePlate(t), []string{OutputNormalized}, []string{"genex", " "})
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "GeneX", res.State.ResolvedReference)

	path := filepath.Join(cfg.Output.Dir, "PCR_Normalized_GeneX_2024-05-01.xlsx")
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, err := f.GetCellValue("Normalized PCR Results", "B2")
	require.NoError(t, err)
	assert.Equal(t, "GeneX", v)
}

func TestAppRunCaseInsensitiveReference(t *testing.T) {
	cfg := testConfig(t)
	cfg.Analysis.ReferenceGene = "36B4"
	app := newTestApp(cfg, nil)

	res, err := app.Run(writePlate(t), []string{OutputNormalized, OutputPDF}, nil)
	require.NoError(t, err)
	assert.Equal(t, "36B4", res.State.ReferenceGene)
	assert.Equal(t, "36b4", reportReference(res.State))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "PCR_Normalized_36b4_2024-05-01.xlsx"))
	assert.FileExists(t, filepath.Join(cfg.Output.Dir, "PCR_Report_2024-05-01.pdf"))

	missing := &analysis.State{ReferenceGene: "GAPDH"}
	assert.Equal(t, "GAPDH", reportReference(missing))
}

func TestAppLoadTableRejectsFormat(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "plate.txt")
	require.NoError(t, os.WriteFile(path, []byte(plateCSV), 0644))

	_, err := newTestApp(cfg, nil).LoadTable(path)
	assert.ErrorContains(t, err, "unsupported file format")
}

func TestAnalyzeCommand(t *testing.T) {
	outDir := t.TempDir()
	input := writePlate(t)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"analyze", input,
		"--config", writeConfig(t),
		"--header-row", "1",
		"--outputs", "means,text",
		"--out", outDir,
	})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Done: 2 files written to "+outDir)
	matches, err := filepath.Glob(filepath.Join(outDir, "pcr_results_*.txt"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestAnalyzeCommandBadOutputs(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"analyze", writePlate(t), "--config", writeConfig(t), "--outputs", "svg"})
	assert.ErrorContains(t, cmd.Execute(), "unknown output")
}

func TestInspectCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"inspect", writePlate(t), "--config", writeConfig(t), "--header-row", "1"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Rows: 8\n")
	assert.Contains(t, out.String(), "Columns: Target=1 Sample=2 Cq=3\n")
	assert.Contains(t, out.String(), "36b4\t2 samples\n")
	assert.Contains(t, out.String(), "GeneX\t3 samples\n")
}

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "qpcr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0644))
	return path
}
