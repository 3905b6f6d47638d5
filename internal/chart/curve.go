// Package chart renders training learning curves as standalone HTML pages.
package chart

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lox/straightq/internal/fileutil"
)

// Point is one evaluation taken during training.
type Point struct {
	Episode    int
	WinRate    float64
	Low        float64
	High       float64
	TableCells int
}

// Curve accumulates evaluation points in episode order.
type Curve struct {
	Title  string
	points []Point
}

// NewCurve returns an empty curve.
func NewCurve(title string) *Curve {
	return &Curve{Title: title}
}

// Add appends p. Points must arrive in increasing episode order.
func (c *Curve) Add(p Point) error {
	if n := len(c.points); n > 0 && p.Episode <= c.points[n-1].Episode {
		return fmt.Errorf("point for episode %d is not after episode %d", p.Episode, c.points[n-1].Episode)
	}
	c.points = append(c.points, p)
	return nil
}

// Points returns the recorded points.
func (c *Curve) Points() []Point {
	return c.points
}

// Render writes the HTML page with a win-rate chart and a table-size chart.
func (c *Curve) Render(w io.Writer) error {
	if len(c.points) == 0 {
		return errors.New("no points to plot")
	}

	episodes := make([]string, len(c.points))
	winRate := make([]opts.LineData, len(c.points))
	low := make([]opts.LineData, len(c.points))
	high := make([]opts.LineData, len(c.points))
	cells := make([]opts.LineData, len(c.points))
	for i, p := range c.points {
		episodes[i] = fmt.Sprintf("%d", p.Episode)
		winRate[i] = opts.LineData{Value: p.WinRate}
		low[i] = opts.LineData{Value: p.Low}
		high[i] = opts.LineData{Value: p.High}
		cells[i] = opts.LineData{Value: p.TableCells}
	}

	rate := charts.NewLine()
	rate.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: "greedy win rate with 95% interval",
		}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
		charts.WithYAxisOpts(opts.YAxis{Name: "win rate"}),
	)
	rate.SetXAxis(episodes).
		AddSeries("win rate", winRate).
		AddSeries("95% low", low).
		AddSeries("95% high", high)

	size := charts.NewLine()
	size.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "value table cells"}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: "shine",
		}),
	)
	size.SetXAxis(episodes).AddSeries("cells", cells)

	page := components.NewPage()
	page.AddCharts(rate, size)
	return page.Render(w)
}

// Save renders the curve to path, replacing any previous file atomically.
func (c *Curve) Save(path string) error {
	return fileutil.WriteAtomic(path, 0o644, c.Render)
}
