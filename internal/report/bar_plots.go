package report

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

// Chart orientations.
const (
	Vertical   = "vertical"
	Horizontal = "horizontal"
)

// ColorSchemes are the bar palettes a chart can be drawn with.
var ColorSchemes = map[string][]string{
	"category10": {
		"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
		"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
	},
	"set1": {
		"#e41a1c", "#377eb8", "#4daf4a", "#984ea3", "#ff7f00",
		"#ffff33", "#a65628", "#f781bf", "#999999",
	},
	"set2": {
		"#66c2a5", "#fc8d62", "#8da0cb", "#e78ac3", "#a6d854",
		"#ffd92f", "#e5c494", "#b3b3b3",
	},
	"set3": {
		"#8dd3c7", "#ffffb3", "#bebada", "#fb8072", "#80b1d3",
		"#fdb462", "#b3de69", "#fccde5", "#d9d9d9",
	},
	"tableau10": {
		"#4e79a7", "#f28e2c", "#e15759", "#76b7b2", "#59a14f",
		"#edc949", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
	},
}

// DefaultColorScheme is used when ChartOptions names an unknown scheme.
const DefaultColorScheme = "category10"

// fillAlpha matches the translucent fill of the interactive charts.
const fillAlpha = 0xCC

// ChartOptions control how bar charts are drawn.
type ChartOptions struct {
	ColorScheme string
	Orientation string
	ShowValues  bool
	SortByValue bool
	Width       int // points
	Height      int // points
}

// DefaultChartOptions returns vertical category10 charts at 800x400.
func DefaultChartOptions() ChartOptions {
	return ChartOptions{
		ColorScheme: DefaultColorScheme,
		Orientation: Vertical,
		Width:       800,
		Height:      400,
	}
}

// ChartImage is a rendered PNG chart for one Target.
type ChartImage struct {
	Target string
	PNG    []byte
}

type bar struct {
	sample string
	value  float64
}

// orderBars returns samples by name, or by value descending when byValue is
// set (ties keep name order).
func orderBars(samples map[string]float64, byValue bool) []bar {
	bars := make([]bar, 0, len(samples))
	for _, s := range analysis.SortedSamples(samples) {
		bars = append(bars, bar{sample: s, value: samples[s]})
	}
	if byValue {
		sort.SliceStable(bars, func(i, j int) bool { return bars[i].value > bars[j].value })
	}
	return bars
}

func parseHexColor(hex string, alpha uint8) (color.RGBA, error) {
	if len(hex) != 7 || hex[0] != '#' {
		return color.RGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	// premultiplied, as image/color expects
	scale := func(c uint64) uint8 { return uint8(c * uint64(alpha) / 0xFF) }
	return color.RGBA{
		R: scale(v >> 16 & 0xFF),
		G: scale(v >> 8 & 0xFF),
		B: scale(v & 0xFF),
		A: alpha,
	}, nil
}

func schemeColors(name string) []string {
	if colors, ok := ColorSchemes[name]; ok {
		return colors
	}
	return ColorSchemes[DefaultColorScheme]
}

// CreateBarChart renders the normalized values of one Target as a PNG bar
// chart, one bar per Sample.
func CreateBarChart(target string, samples map[string]float64, opts ChartOptions) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no chart values for target %s", target)
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultChartOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	horizontal := opts.Orientation == Horizontal
	bars := orderBars(samples, opts.SortByValue)
	palette := schemeColors(opts.ColorScheme)

	p := plot.New()
	p.Title.Text = target
	valueLabel := fmt.Sprintf("Normalized value (%s)", target)
	if horizontal {
		p.X.Label.Text = valueLabel
		p.Y.Label.Text = "Sample"
		p.X.Min = 0
	} else {
		p.X.Label.Text = "Sample"
		p.Y.Label.Text = valueLabel
		p.Y.Min = 0
		p.X.Tick.Label.Rotation = math.Pi / 4
	}
	p.Add(plotter.NewGrid())

	extent := float64(opts.Width)
	if horizontal {
		extent = float64(opts.Height)
	}
	barWidth := vg.Points(math.Max(4, extent*0.6/float64(len(bars))))

	labels := make([]string, len(bars))
	points := make(plotter.XYs, len(bars))
	valueText := make([]string, len(bars))
	for i, b := range bars {
		fill, err := parseHexColor(palette[i%len(palette)], fillAlpha)
		if err != nil {
			return nil, err
		}
		border, err := parseHexColor(palette[i%len(palette)], 0xFF)
		if err != nil {
			return nil, err
		}

		bc, err := plotter.NewBarChart(plotter.Values{b.value}, barWidth)
		if err != nil {
			return nil, fmt.Errorf("failed to create bar for %s/%s: %w", target, b.sample, err)
		}
		bc.XMin = float64(i)
		bc.Horizontal = horizontal
		bc.Color = fill
		bc.LineStyle.Color = border
		bc.LineStyle.Width = vg.Points(1.5)
		p.Add(bc)

		labels[i] = b.sample
		valueText[i] = strconv.FormatFloat(b.value, 'f', 4, 64)
		if horizontal {
			points[i] = plotter.XY{X: b.value, Y: float64(i)}
		} else {
			points[i] = plotter.XY{X: float64(i), Y: b.value}
		}
	}

	if horizontal {
		p.NominalY(labels...)
	} else {
		p.NominalX(labels...)
	}

	if opts.ShowValues {
		lbls, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: valueText})
		if err != nil {
			return nil, fmt.Errorf("failed to create value labels for %s: %w", target, err)
		}
		if horizontal {
			lbls.Offset = vg.Point{X: vg.Points(4)}
		} else {
			lbls.Offset = vg.Point{Y: vg.Points(4)}
		}
		p.Add(lbls)
	}

	writer, err := p.WriterTo(vg.Points(float64(opts.Width)), vg.Points(float64(opts.Height)), "png")
	if err != nil {
		return nil, fmt.Errorf("failed to create chart writer: %w", err)
	}
	buf := new(bytes.Buffer)
	if _, err := writer.WriteTo(buf); err != nil {
		return nil, fmt.Errorf("failed to write chart to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

// CreateBarCharts renders one chart per Target in display order.
func CreateBarCharts(chart analysis.ChartData, opts ChartOptions) ([]ChartImage, error) {
	images := make([]ChartImage, 0, len(chart))
	for _, target := range analysis.SortTargets(chart) {
		png, err := CreateBarChart(target, chart[target], opts)
		if err != nil {
			return nil, err
		}
		images = append(images, ChartImage{Target: target, PNG: png})
	}
	return images, nil
}
