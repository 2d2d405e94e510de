package render

import (
	"bytes"
	"fmt"
	"image"
	png "image/png"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
)

// ProfileOptions size one cross-section chart. The zero value picks 800x320.
type ProfileOptions struct {
	Width    int
	Height   int
	LogScale bool
}

func (o ProfileOptions) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 800
	}
	if h <= 0 {
		h = 320
	}
	return w, h
}

// pointStyle returns a style that renders dots joined by a thin line, the
// house look for sweep charts.
func pointStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeWidth: 1,
		StrokeColor: col,
		DotWidth:    4,
		DotColor:    col,
	}
}

// Profile renders a 1D cross-section as a line chart. NaN cells are dropped
// from the series; render failures degrade to a blank image.
func Profile(pr *grid.Profile, opts ProfileOptions) image.Image {
	w, h := opts.size()
	if pr == nil || len(pr.Ticks) == 0 {
		return blank(w, h)
	}
	xs := make([]float64, 0, len(pr.Ticks))
	ys := make([]float64, 0, len(pr.Ticks))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, v := range pr.Values {
		if math.IsNaN(v) {
			continue
		}
		if opts.LogScale {
			if v <= 0 {
				continue
			}
			v = math.Log10(v)
		}
		xs = append(xs, pr.Ticks[i])
		ys = append(ys, v)
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}
	if len(xs) == 0 {
		dataset.Warnf("profile %s at %s=%s: no finite points to draw",
			pr.AxisColumn, pr.FixedColumn, formatTick(pr.FixedValue))
		return blank(w, h)
	}
	st := pointStyle(chart.ColorBlue)
	if len(xs) == 1 {
		// go-chart needs two X values; duplicate the single point.
		xs = append(xs, xs[0]+1)
		ys = append(ys, ys[0])
		st.DotWidth = 6
	}

	yName := pr.ValueColumn
	if opts.LogScale {
		yName = "log10(" + yName + ")"
	}
	nMin, nMax := niceAxisBounds(minY, maxY)
	ch := chart.Chart{
		Title: fmt.Sprintf("%s vs %s at %s = %s",
			pr.ValueColumn, pr.AxisColumn, pr.FixedColumn, formatTick(pr.FixedValue)),
		Background: chart.Style{Padding: chart.Box{Top: 14, Left: 16, Right: 12, Bottom: 28}},
		XAxis: chart.XAxis{
			Name:  pr.AxisColumn,
			Ticks: niceTicks(xs[0], xs[len(xs)-1], 8),
		},
		YAxis: chart.YAxis{
			Name:  yName,
			Range: &chart.ContinuousRange{Min: nMin, Max: nMax},
			Ticks: niceTicks(nMin, nMax, 6),
		},
		Series: []chart.Series{
			chart.ContinuousSeries{Name: pr.ValueColumn, XValues: xs, YValues: ys, Style: st},
		},
	}
	ch.Width = w
	ch.Height = h

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		dataset.Errorf("profile chart render: %v", err)
		return blank(w, h)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		dataset.Errorf("profile chart decode: %v", err)
		return blank(w, h)
	}
	return img
}

// niceAxisBounds expands [min,max] by a small margin and rounds to round
// numbers for readability.
func niceAxisBounds(min, max float64) (float64, float64) {
	if math.IsNaN(min) || math.IsNaN(max) {
		return min, max
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	pad := span * 0.05
	if pad <= 0 {
		pad = 1
	}
	a := min - pad
	b := max + pad
	mag := math.Pow(10, math.Floor(math.Log10(span)))
	if !math.IsInf(mag, 0) && mag > 0 {
		a = math.Floor(a/mag) * mag
		b = math.Ceil(b/mag) * mag
	}
	return a, b
}

// niceTicks generates up to n tick marks between [min, max] using 1/2/2.5/5
// increments scaled by powers of ten.
func niceTicks(min, max float64, n int) []chart.Tick {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(n-1))))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Ceil(span / step)
		if count < 2 {
			count = 2
		}
		score := math.Abs(count - float64(n))
		if score < bestScore {
			bestScore = score
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	ticks := []chart.Tick{}
	for v := start; v <= end+bestStep/2; v += bestStep {
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v)})
		if len(ticks) > n+2 {
			break
		}
	}
	return ticks
}

// formatTick picks a compact label for an axis value, switching to exponent
// notation for the very small magnitudes instrument currents live at.
func formatTick(v float64) string {
	if v == 0 {
		return "0"
	}
	av := math.Abs(v)
	switch {
	case av >= 1000:
		return fmt.Sprintf("%.0f", v)
	case av >= 100:
		return fmt.Sprintf("%.0f", v)
	case av >= 10:
		return fmt.Sprintf("%.1f", v)
	case av >= 0.01:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.2e", v)
	}
}
