package render

import (
	"math"
	"testing"

	"github.com/futafi/ColorMapChan/src/grid"
)

func TestProfileRenders(t *testing.T) {
	pr := &grid.Profile{
		AxisColumn:  "VG1",
		ValueColumn: "ID",
		FixedColumn: "VG2",
		FixedValue:  0,
		Ticks:       []float64{0, 1, 2},
		Values:      []float64{1, math.NaN(), 5},
	}
	img := Profile(pr, ProfileOptions{Width: 300, Height: 200})
	if img == nil {
		t.Fatalf("Profile returned nil")
	}
	b := img.Bounds()
	if b.Dx() != 300 || b.Dy() != 200 {
		t.Fatalf("image is %dx%d, want 300x200", b.Dx(), b.Dy())
	}
}

func TestProfileAllNaNFallsBackToBlank(t *testing.T) {
	pr := &grid.Profile{
		AxisColumn:  "VG1",
		ValueColumn: "ID",
		FixedColumn: "VG2",
		Ticks:       []float64{0, 1},
		Values:      []float64{math.NaN(), math.NaN()},
	}
	img := Profile(pr, ProfileOptions{Width: 120, Height: 90})
	if img == nil {
		t.Fatalf("renderer must never return nil")
	}
	if img.Bounds().Dx() != 120 || img.Bounds().Dy() != 90 {
		t.Fatalf("blank fallback has wrong size: %v", img.Bounds())
	}
}

func TestProfileLogScaleDropsNonPositive(t *testing.T) {
	pr := &grid.Profile{
		AxisColumn:  "VG1",
		ValueColumn: "ID",
		FixedColumn: "VG2",
		Ticks:       []float64{0, 1},
		Values:      []float64{-1, 0},
	}
	// every point is non-positive, so log scale leaves nothing: blank fallback
	img := Profile(pr, ProfileOptions{Width: 80, Height: 60, LogScale: true})
	if img == nil || img.Bounds().Dx() != 80 {
		t.Fatalf("expected 80-wide blank fallback, got %v", img)
	}
}

func TestNiceTicksSpanOrder(t *testing.T) {
	ticks := niceTicks(0, 10, 6)
	if len(ticks) < 2 {
		t.Fatalf("too few ticks: %v", ticks)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Fatalf("ticks not increasing: %v", ticks)
		}
	}
	if ticks[0].Value > 0 || ticks[len(ticks)-1].Value < 10 {
		t.Fatalf("ticks do not cover [0,10]: %v", ticks)
	}
}

func TestFormatTickSmallMagnitudes(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1500, "1500"},
		{12.34, "12.3"},
		{0.5, "0.50"},
		{2.5e-6, "2.50e-06"},
	}
	for _, c := range cases {
		if got := formatTick(c.in); got != c.want {
			t.Fatalf("formatTick(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
