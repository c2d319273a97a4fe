// Package chart renders the dashboard charts as PNG images.
package chart

import (
	"fmt"
	"image/color"
	"io"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/KaramelBytes/profitscope/internal/sales"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = sales.ErrNoData

var (
	profitColor = color.RGBA{R: 220, G: 30, B: 30, A: 255}
	salesColor  = color.RGBA{R: 30, G: 80, B: 220, A: 255}
	maxColor    = color.RGBA{R: 20, G: 150, B: 60, A: 255}
	minColor    = color.RGBA{R: 230, G: 120, B: 0, A: 255}
)

// Options sizes the output image.
type Options struct {
	Width  vg.Length
	Height vg.Length
	Title  string
}

// DefaultOptions returns a 10x5 inch canvas.
func DefaultOptions() Options {
	return Options{Width: 10 * vg.Inch, Height: 5 * vg.Inch}
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 10 * vg.Inch
	}
	if h <= 0 {
		h = 5 * vg.Inch
	}
	return w, h
}

// TimeSeries plots per-date totals of Profit (red) and Sales (blue) for records.
func TimeSeries(w io.Writer, records []sales.Record, opt Options) error {
	if len(records) == 0 {
		return ErrNoData
	}
	groups, err := sales.AggregateMeasures(records, sales.FieldDate, sales.MeasureProfit, sales.MeasureSales)
	if err != nil {
		return err
	}
	title := opt.Title
	if title == "" {
		title = "Total Sales and Profit by Date"
	}
	p := newDatePlot(title, "Total")
	for _, s := range []struct {
		m   sales.Measure
		col color.Color
	}{
		{sales.MeasureProfit, profitColor},
		{sales.MeasureSales, salesColor},
	} {
		line, points, err := plotter.NewLinePoints(toXYs(groups[s.m]))
		if err != nil {
			return fmt.Errorf("build %s line: %w", s.m, err)
		}
		line.Color = s.col
		line.Width = vg.Points(2)
		points.GlyphStyle.Color = s.col
		points.GlyphStyle.Shape = draw.CircleGlyph{}
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(string(s.m), line)
	}
	p.Legend.Top = true
	width, height := opt.size()
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// Comparison draws one panel per measure side by side, each annotated with
// its highest and lowest group.
func Comparison(w io.Writer, groups map[sales.Measure][]sales.Group, opt Options, measures ...sales.Measure) error {
	if len(measures) == 0 {
		measures = []sales.Measure{sales.MeasureProfit, sales.MeasureSales}
	}
	row := make([]*plot.Plot, 0, len(measures))
	for _, m := range measures {
		g := groups[m]
		ext, err := sales.Extrema(g)
		if err != nil {
			return err
		}
		p := newDatePlot(fmt.Sprintf("Total %s by Date", m), string(m))
		line, err := plotter.NewLine(toXYs(g))
		if err != nil {
			return fmt.Errorf("build %s line: %w", m, err)
		}
		line.Color = salesColor
		if m == sales.MeasureProfit {
			line.Color = profitColor
		}
		line.Width = vg.Points(1.5)
		p.Add(line, plotter.NewGrid())
		if err := annotate(p, ext.Max, ext.Marker(ext.MaxIndex), maxColor); err != nil {
			return err
		}
		if ext.MinIndex != ext.MaxIndex {
			if err := annotate(p, ext.Min, ext.Marker(ext.MinIndex), minColor); err != nil {
				return err
			}
		}
		row = append(row, p)
	}

	width, height := opt.size()
	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{Rows: 1, Cols: len(row), PadX: vg.Points(8), PadTop: vg.Points(4), PadBottom: vg.Points(4)}
	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for i, p := range row {
		p.Draw(canvases[0][i])
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func annotate(p *plot.Plot, g sales.Group, label string, c color.Color) error {
	xy := plotter.XYs{{X: dateX(g), Y: g.Sum}}
	marker, err := plotter.NewScatter(xy)
	if err != nil {
		return fmt.Errorf("build %s marker: %w", label, err)
	}
	marker.GlyphStyle.Shape = draw.CircleGlyph{}
	marker.GlyphStyle.Radius = vg.Points(5)
	marker.GlyphStyle.Color = c
	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    xy,
		Labels: []string{fmt.Sprintf("%s: %.2f", label, g.Sum)},
	})
	if err != nil {
		return fmt.Errorf("build %s label: %w", label, err)
	}
	labels.Offset = vg.Point{X: vg.Points(6), Y: vg.Points(4)}
	for i := range labels.TextStyle {
		labels.TextStyle[i].Color = c
	}
	p.Add(marker, labels)
	return nil
}

func newDatePlot(title, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = plot.TimeTicks{Format: sales.DateFormat}
	p.X.Tick.Label.Rotation = 0.5
	p.X.Tick.Label.XAlign = draw.XRight
	return p
}

func toXYs(groups []sales.Group) plotter.XYs {
	xys := make(plotter.XYs, len(groups))
	for i, g := range groups {
		xys[i] = plotter.XY{X: dateX(g), Y: g.Sum}
	}
	return xys
}

// dateX places a group on the time axis as Unix seconds.
func dateX(g sales.Group) float64 {
	if g.Date.IsZero() {
		return 0
	}
	return float64(g.Date.In(time.UTC).Unix())
}
