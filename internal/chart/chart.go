// Package chart renders the PNG charts and maps the bots attach to posts.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// TimeSeries is one labeled line on a time-series chart.
type TimeSeries struct {
	Label  string
	Dates  []time.Time
	Values []float64
}

// linePalette cycles for multi-state line charts.
var linePalette = []color.RGBA{
	{R: 31, G: 119, B: 180, A: 255},
	{R: 255, G: 127, B: 14, A: 255},
	{R: 44, G: 160, B: 44, A: 255},
	{R: 214, G: 39, B: 40, A: 255},
	{R: 148, G: 103, B: 189, A: 255},
}

// Line renders a cumulative time-series line chart and returns nil on a
// successful save to outPath.
func Line(series []TimeSeries, title, yLabel, outPath string) error {
	if len(series) == 0 {
		return fmt.Errorf("no series to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.Y.Min = 0
	p.X.Tick.Marker = plot.TimeTicks{Format: "01/02/06"}
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Add(plotter.NewGrid())

	for i, s := range series {
		pts := make(plotter.XYs, len(s.Dates))
		for j, d := range s.Dates {
			pts[j].X = float64(d.Unix())
			pts[j].Y = s.Values[j]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		line.Color = linePalette[i%len(linePalette)]
		line.Width = vg.Points(1.5)
		p.Add(line)
		if len(series) > 1 {
			p.Legend.Add(s.Label, line)
		}
	}
	p.Legend.Top = true
	p.Legend.Left = true

	if err := ensureDir(outPath); err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 7*vg.Inch, outPath)
}

// Bars renders the new-case curve: one bar per day. Labels are drawn only
// on the 1st, 10th, and 20th to keep the axis readable.
func Bars(dates []time.Time, values []float64, barColor color.Color, title, yLabel, outPath string) error {
	if len(dates) == 0 || len(dates) != len(values) {
		return fmt.Errorf("bad bar data: %d dates, %d values", len(dates), len(values))
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = yLabel

	vals := make(plotter.Values, len(values))
	copy(vals, values)

	bars, err := plotter.NewBarChart(vals, vg.Points(4))
	if err != nil {
		return err
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)

	labels := make([]string, len(dates))
	for i, d := range dates {
		switch d.Day() {
		case 1, 10, 20:
			labels[i] = d.Format("01/02")
		}
	}
	p.NominalX(labels...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := ensureDir(outPath); err != nil {
		return err
	}
	return p.Save(14*vg.Inch, 7*vg.Inch, outPath)
}

func ensureDir(outPath string) error {
	dir := filepath.Dir(outPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0755)
}
