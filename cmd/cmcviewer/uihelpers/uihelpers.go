package uihelpers

import (
	"math"
	"strconv"
)

// ComputeChartDimensions applies width/height clamp rules used for profile
// charts. Input: desired raw width (e.g., canvas width). Returns clamped
// width & height.
func ComputeChartDimensions(rawW int) (int, int) {
	w := rawW
	if w < 800 {
		w = 800
	}
	h := int(float32(w) * 0.33)
	if h < 280 {
		h = 280
	}
	if h > 520 {
		h = 520
	}
	return w, h
}

// ComputeHeatmapSize derives the heatmap render size from the window size.
// The heatmap wants to stay roughly square-ish, so height follows width at
// a 0.62 ratio within sane bounds.
func ComputeHeatmapSize(winW, winH float32) (int, int) {
	w := int(winW*0.95) - 12
	if w < 640 {
		w = 640
	}
	h := int(float32(w) * 0.62)
	if maxH := int(winH*0.8) - 12; maxH >= 360 && h > maxH {
		h = maxH
	}
	if h < 360 {
		h = 360
	}
	return w, h
}

// SubsampleIndices picks at most max indices out of n, always including the
// first and last. Used to thin axis labels on dense sweeps.
func SubsampleIndices(n, max int) []int {
	if n <= 0 {
		return nil
	}
	if max < 2 || n <= max {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	step := (n + max - 1) / max
	var out []int
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}

// pow10Floor returns 10^floor(log10(x)) safeguarding tiny values.
func pow10Floor(x float64) float64 {
	if x <= 0 {
		return 1
	}
	e := float64(int64(math.Floor(math.Log10(x))))
	return math.Pow(10, e)
}

// round6 rounds to 6 decimal places to stabilize test comparisons / labels.
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }

// BuildNumericTicks generates up to n tick marks spanning [min,max] using the
// 1,2,2.5,5 pattern. Returns raw numeric positions (label formatting left to
// the caller).
func BuildNumericTicks(min, max float64, n int) []float64 {
	if n < 2 || math.IsNaN(min) || math.IsNaN(max) {
		return nil
	}
	if max <= min {
		max = min + 1
	}
	span := max - min
	mag := pow10Floor(span / float64(n-1))
	candidates := []float64{1, 2, 2.5, 5, 10}
	bestStep := mag
	bestScore := math.MaxFloat64
	for _, c := range candidates {
		step := c * mag
		count := math.Ceil(span/step) + 1
		if count < 2 {
			count = 2
		}
		diff := math.Abs(count - float64(n))
		if diff < bestScore {
			bestScore = diff
			bestStep = step
		}
	}
	start := math.Floor(min/bestStep) * bestStep
	end := math.Ceil(max/bestStep) * bestStep
	var out []float64
	for v := start; v <= end+bestStep*0.5; v += bestStep {
		out = append(out, round6(v))
	}
	if len(out) < 2 {
		out = []float64{min, max}
	}
	return out
}

// FormatNumericTick provides a compact label, falling back to exponent form
// for the sub-milli magnitudes sweep currents live at.
func FormatNumericTick(v float64) string {
	av := math.Abs(v)
	switch {
	case v == 0:
		return "0"
	case av >= 100:
		return strconv.FormatInt(int64(math.Round(v)), 10)
	case av >= 10:
		return strconv.FormatFloat(v, 'f', 1, 64)
	case av >= 1:
		return strconv.FormatFloat(v, 'f', 2, 64)
	case av >= 0.01:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case av >= 0.0001:
		return strconv.FormatFloat(v, 'f', 5, 64)
	default:
		return strconv.FormatFloat(v, 'e', 2, 64)
	}
}
