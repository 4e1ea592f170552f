package trace

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotConfig holds configuration for chart generation.
type PlotConfig struct {
	Title  string
	Width  vg.Length
	Height vg.Length
}

// DefaultPlotConfig returns the default chart configuration.
func DefaultPlotConfig() *PlotConfig {
	return &PlotConfig{
		Title:  "Pipeline progress",
		Width:  10 * vg.Inch,
		Height: 5 * vg.Inch,
	}
}

type series struct {
	name  string
	color color.Color
	value func(Point) uint64
}

var chartSeries = []series{
	{"retired", color.RGBA{R: 31, G: 119, B: 180, A: 255}, func(p Point) uint64 { return p.Retired }},
	{"hazard stalls", color.RGBA{R: 255, G: 127, B: 14, A: 255}, func(p Point) uint64 { return p.HazardStalls }},
	{"control bubbles", color.RGBA{R: 44, G: 160, B: 44, A: 255}, func(p Point) uint64 { return p.ControlStalls }},
	{"latency stalls", color.RGBA{R: 214, G: 39, B: 40, A: 255}, func(p Point) uint64 { return p.LatencyStalls }},
}

// NewPlot builds a chart of cumulative retirement and stall counts per
// cycle.
func NewPlot(points []Point, config *PlotConfig) (*plot.Plot, error) {
	if config == nil {
		config = DefaultPlotConfig()
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("no cycles recorded")
	}

	p := plot.New()
	p.Title.Text = config.Title
	p.X.Label.Text = "Cycle"
	p.Y.Label.Text = "Cumulative count"

	for _, s := range chartSeries {
		pts := make(plotter.XYs, len(points))
		for i, pt := range points {
			pts[i].X = float64(pt.Cycle)
			pts[i].Y = float64(s.value(pt))
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s series: %w", s.name, err)
		}
		line.Color = s.color
		line.Width = vg.Points(2)

		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	p.Add(plotter.NewGrid())
	p.Legend.Top = true
	p.Legend.Left = true

	return p, nil
}

// WritePlot renders the chart to path. The image format follows the file
// extension.
func WritePlot(points []Point, config *PlotConfig, path string) error {
	if config == nil {
		config = DefaultPlotConfig()
	}

	p, err := NewPlot(points, config)
	if err != nil {
		return err
	}

	if err := p.Save(config.Width, config.Height, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	return nil
}
