package report

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

// expressionGrid is a Target x Sample grid of log2 relative expression.
// Columns are samples, rows are targets; missing pairs are NaN.
type expressionGrid struct {
	targets []string
	samples []string
	z       [][]float64 // [row][col]
}

func (g *expressionGrid) Dims() (c, r int)   { return len(g.samples), len(g.targets) }
func (g *expressionGrid) Z(c, r int) float64 { return g.z[r][c] }
func (g *expressionGrid) X(c int) float64    { return float64(c) }
func (g *expressionGrid) Y(r int) float64    { return float64(r) }

func newExpressionGrid(chart analysis.ChartData) *expressionGrid {
	union := make(map[string]struct{})
	for _, samples := range chart {
		for s := range samples {
			union[s] = struct{}{}
		}
	}
	g := &expressionGrid{
		targets: analysis.SortTargets(chart),
		samples: analysis.SortedSamples(union),
	}
	g.z = make([][]float64, len(g.targets))
	for r, target := range g.targets {
		g.z[r] = make([]float64, len(g.samples))
		for c, sample := range g.samples {
			val := math.NaN()
			if v, ok := chart[target][sample]; ok && v > 0 {
				val = math.Log2(v)
			}
			g.z[r][c] = val
		}
	}
	return g
}

// bounds returns a range symmetric around 0 covering every finite value.
func (g *expressionGrid) bounds() (min, max float64) {
	limit := 0.0
	for _, row := range g.z {
		for _, v := range row {
			if !math.IsNaN(v) && math.Abs(v) > limit {
				limit = math.Abs(v)
			}
		}
	}
	if limit == 0 {
		limit = 1
	}
	return -limit, limit
}

// CreateExpressionHeatmap draws log2(2^-ΔCq) for every charted Target and
// Sample. Blue is below the reference, red above; gray cells have no value.
func CreateExpressionHeatmap(chart analysis.ChartData, referenceGene string) ([]byte, error) {
	if len(chart) == 0 {
		return nil, fmt.Errorf("no chart data to plot heatmap")
	}
	grid := newExpressionGrid(chart)
	cols, rows := grid.Dims()

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Relative expression, log2 (reference %s)", referenceGene)
	p.X.Label.Text = "Sample"
	p.Y.Label.Text = "Target"

	xTicks := make([]plot.Tick, cols)
	for i, s := range grid.samples {
		xTicks[i] = plot.Tick{Value: float64(i), Label: s}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Min = -0.5
	p.X.Max = float64(cols) - 0.5

	yTicks := make([]plot.Tick, rows)
	for i, t := range grid.targets {
		yTicks[i] = plot.Tick{Value: float64(i), Label: t}
	}
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)
	p.Y.Min = -0.5
	p.Y.Max = float64(rows) - 0.5

	cm := moreland.SmoothBlueRed()
	min, max := grid.bounds()
	cm.SetMin(min)
	cm.SetMax(max)

	hm := plotter.NewHeatMap(grid, cm.Palette(255))
	hm.Min = min
	hm.Max = max
	hm.NaN = color.Gray{Y: 200}
	p.Add(hm)

	slog.Debug("Expression heatmap range",
		slog.Float64("min", min),
		slog.Float64("max", max),
		slog.Int("targets", rows),
		slog.Int("samples", cols))

	height := math.Max(300, float64(rows)*40+150)
	writer, err := p.WriterTo(vg.Points(800), vg.Points(height), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create heatmap writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write heatmap to buffer: %w", err)
	}
	return buf.Bytes(), nil
}
