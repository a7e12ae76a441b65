package exporter

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"salespulse/pkg/contracts/domain"
)

// ChartKind names a renderable chart
type ChartKind string

const (
	ChartSales     ChartKind = "sales"
	ChartDeviation ChartKind = "deviation"
)

// ValidChartKind reports whether kind names a chart
func ValidChartKind(kind string) bool {
	switch ChartKind(kind) {
	case ChartSales, ChartDeviation:
		return true
	}
	return false
}

const (
	DefaultChartWidth  = 10 * vg.Inch
	DefaultChartHeight = 5 * vg.Inch
)

var (
	barWidth = vg.Points(18)

	colorTotal    = color.RGBA{R: 173, G: 216, B: 230, A: 255}
	colorMean     = color.RGBA{R: 0, G: 0, B: 139, A: 255}
	colorPositive = color.RGBA{R: 46, G: 204, B: 113, A: 255}
	colorNegative = color.RGBA{R: 231, G: 76, B: 60, A: 255}
)

// SalesChart plots each location's total next to its per-row mean.
func SalesChart(stats []domain.LocationStats, metric string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s performance by location", metric)
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Location"
	p.Y.Label.Text = "Amount ($)"

	if len(stats) == 0 {
		emptyAxes(p)
		return p, nil
	}

	totals := make(plotter.Values, len(stats))
	means := make(plotter.Values, len(stats))
	labels := make([]string, len(stats))
	for i, s := range stats {
		totals[i] = s.Sum
		means[i] = s.Mean
		labels[i] = s.Location
	}

	totalBars, err := plotter.NewBarChart(totals, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to build total bars: %w", err)
	}
	totalBars.Color = colorTotal
	totalBars.LineStyle.Width = vg.Length(0)
	totalBars.Offset = -barWidth / 2

	meanBars, err := plotter.NewBarChart(means, barWidth)
	if err != nil {
		return nil, fmt.Errorf("failed to build mean bars: %w", err)
	}
	meanBars.Color = colorMean
	meanBars.LineStyle.Width = vg.Length(0)
	meanBars.Offset = barWidth / 2

	p.Add(totalBars, meanBars, plotter.NewGrid())
	p.Legend.Add("Total", totalBars)
	p.Legend.Add("Average sale", meanBars)
	p.Legend.Top = true
	p.NominalX(labels...)
	rotateLabels(p, len(labels))

	if p.Y.Min > 0 {
		p.Y.Min = 0
	}
	return p, nil
}

// DeviationChart plots each location's percent deviation from the average
// total, green above and red below, in ranking order.
func DeviationChart(ranking []domain.RankEntry) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Percent difference from average"
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.X.Label.Text = "Location"
	p.Y.Label.Text = "% difference"

	if len(ranking) == 0 {
		emptyAxes(p)
		return p, nil
	}

	positive := make(plotter.Values, len(ranking))
	negative := make(plotter.Values, len(ranking))
	labels := make([]string, len(ranking))
	points := make(plotter.XYs, len(ranking))
	texts := make([]string, len(ranking))
	maxAbs := 0.0
	for i, entry := range ranking {
		if entry.Deviation > 0 {
			positive[i] = entry.Deviation
		} else {
			negative[i] = entry.Deviation
		}
		labels[i] = entry.Location
		points[i] = plotter.XY{X: float64(i), Y: entry.Deviation}
		texts[i] = FormatPercent(entry.Deviation)
		maxAbs = math.Max(maxAbs, math.Abs(entry.Deviation))
	}

	up, err := plotter.NewBarChart(positive, barWidth*2)
	if err != nil {
		return nil, fmt.Errorf("failed to build positive bars: %w", err)
	}
	up.Color = colorPositive
	up.LineStyle.Width = vg.Length(0)

	down, err := plotter.NewBarChart(negative, barWidth*2)
	if err != nil {
		return nil, fmt.Errorf("failed to build negative bars: %w", err)
	}
	down.Color = colorNegative
	down.LineStyle.Width = vg.Length(0)

	zero := plotter.NewFunction(func(float64) float64 { return 0 })
	zero.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	zero.Color = color.Gray{Y: 96}

	labelsPlot, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to build labels: %w", err)
	}

	p.Add(plotter.NewGrid(), up, down, zero, labelsPlot)
	p.NominalX(labels...)
	rotateLabels(p, len(labels))

	pad := maxAbs * 0.15
	if pad == 0 {
		pad = 1
	}
	p.Y.Min = -maxAbs - pad
	p.Y.Max = maxAbs + pad
	return p, nil
}

// RenderPNG writes p to w as a PNG image of the given size
func RenderPNG(w io.Writer, p *plot.Plot, width, height vg.Length) error {
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}

func rotateLabels(p *plot.Plot, n int) {
	if n <= 6 {
		return
	}
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.YAlign = draw.YCenter
	p.X.Tick.Label.XAlign = draw.XRight
}

func emptyAxes(p *plot.Plot) {
	p.Title.Text += " (no data)"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
}
