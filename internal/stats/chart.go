package stats

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ChartFile is the file name of the rendered statistics chart.
const ChartFile = "dataset_stats.png"

// ErrNoCategories is returned when there is nothing to plot.
var ErrNoCategories = errors.New("no categories to plot")

var labelBlue = color.RGBA{R: 0, G: 0, B: 255, A: 255}

// Palette returns n visually distinct colors spaced evenly around the HCL
// hue circle. The result is deterministic, so the same categories are drawn
// in the same colors on every run.
func Palette(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		hue := float64(i) * 360 / float64(n)
		out[i] = colorful.Hcl(hue, 0.5, 0.6).Clamped()
	}
	return out
}

// RenderChart writes a horizontal bar chart of freq to path. The image
// format follows the extension of path (png, svg, pdf, ...).
func RenderChart(path string, freq *Frequencies) error {
	if freq == nil || freq.Len() == 0 {
		return ErrNoCategories
	}
	entries := freq.Entries()

	p := plot.New()
	p.Title.Text = "Dataset statistics"
	p.Title.TextStyle.Color = labelBlue
	p.X.Label.Text = "Number of instances"
	p.X.Label.TextStyle.Color = labelBlue
	p.Y.Label.Text = "Object Categories"
	p.Y.Label.TextStyle.Color = labelBlue
	p.Add(plotter.NewGrid())

	height := vg.Length(len(entries))*vg.Centimeter + 6*vg.Centimeter
	if height < 12*vg.Centimeter {
		height = 12 * vg.Centimeter
	}
	barWidth := vg.Centimeter * 0.6

	colors := Palette(len(entries))
	names := make([]string, len(entries))
	xys := make(plotter.XYs, len(entries))
	labels := make([]string, len(entries))
	maxCount := 0
	for i, e := range entries {
		bar, err := plotter.NewBarChart(plotter.Values{float64(e.Count)}, barWidth)
		if err != nil {
			return fmt.Errorf("failed to build bar for %q: %w", e.Name, err)
		}
		bar.Horizontal = true
		bar.XMin = float64(i)
		bar.Color = colors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)

		names[i] = e.Name
		xys[i] = plotter.XY{X: float64(e.Count), Y: float64(i)}
		labels[i] = fmt.Sprint(e.Count)
		if e.Count > maxCount {
			maxCount = e.Count
		}
	}

	values, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return fmt.Errorf("failed to build value labels: %w", err)
	}
	values.Offset = vg.Point{X: vg.Points(4), Y: -vg.Points(4)}
	for i := range values.TextStyle {
		values.TextStyle[i].Color = labelBlue
	}
	p.Add(values)

	p.NominalY(names...)
	p.X.Min = 0
	// room for the value labels to the right of the longest bar
	p.X.Max = float64(maxCount)*1.15 + 1

	if err := p.Save(24*vg.Centimeter, height, path); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}
	return nil
}
