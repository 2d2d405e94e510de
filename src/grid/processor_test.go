package grid

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/futafi/ColorMapChan/src/dataset"
)

func buildFrame(t *testing.T, names []string, rows ...[]float64) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewFrame("test.csv", dataset.FormatCSV, names)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for _, r := range rows {
		if err := f.AppendRow(r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return f
}

// sweepProcessor loads the three-point gate sweep used throughout:
// (VG1=0,VG2=0,ID=1), (VG1=0,VG2=1,ID=3), (VG1=1,VG2=0,ID=5).
func sweepProcessor(t *testing.T) *Processor {
	t.Helper()
	p := NewProcessor()
	p.SetFrame(buildFrame(t, []string{"VG1", "VG2", "ID"},
		[]float64{0, 0, 1},
		[]float64{0, 1, 3},
		[]float64{1, 0, 5},
	))
	if err := p.SetAxes("VG1", "VG2", "ID"); err != nil {
		t.Fatalf("SetAxes: %v", err)
	}
	return p
}

func cellEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func TestBuildGridSweepExample(t *testing.T) {
	p := sweepProcessor(t)
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	if len(g.XTicks) != 2 || g.XTicks[0] != 0 || g.XTicks[1] != 1 {
		t.Fatalf("XTicks = %v", g.XTicks)
	}
	if len(g.YTicks) != 2 || g.YTicks[0] != 0 || g.YTicks[1] != 1 {
		t.Fatalf("YTicks = %v", g.YTicks)
	}
	if g.Cells[0][0] != 1 || g.Cells[0][1] != 3 || g.Cells[1][0] != 5 {
		t.Fatalf("cells wrong: %v", g.Cells)
	}
	if !math.IsNaN(g.Cells[1][1]) {
		t.Fatalf("empty cell not NaN: %v", g.Cells[1][1])
	}
	if g.FilteredRows != 3 || g.TotalRows != 3 {
		t.Fatalf("row counts wrong: %d/%d", g.FilteredRows, g.TotalRows)
	}
}

func TestBuildGridServedFromCache(t *testing.T) {
	p := sweepProcessor(t)
	g1, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	g2, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if g1 != g2 {
		t.Fatalf("second build did not come from cache")
	}
	if p.CacheLen() != 1 {
		t.Fatalf("cache holds %d grids, want 1", p.CacheLen())
	}
}

func TestCacheKeyTracksFilterChanges(t *testing.T) {
	p := sweepProcessor(t)
	g1, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	p.Filters().AddValue(dataset.ValueFilter{Column: "ID", Value: 1})
	g2, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("filtered build: %v", err)
	}
	if g1 == g2 {
		t.Fatalf("filter change did not invalidate the key")
	}
	if g2.FilteredRows != 1 {
		t.Fatalf("filtered rows = %d, want 1", g2.FilteredRows)
	}

	// Returning to the previous filter state hits the old entry again.
	if err := p.Filters().RemoveAt(0); err != nil {
		t.Fatalf("RemoveAt: %v", err)
	}
	g3, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if g3 != g1 {
		t.Fatalf("restored state missed the cache")
	}
}

func TestSetFrameClearsCache(t *testing.T) {
	p := sweepProcessor(t)
	if _, err := p.BuildGrid(); err != nil {
		t.Fatalf("build: %v", err)
	}
	p.SetFrame(buildFrame(t, []string{"VG1", "VG2", "ID"},
		[]float64{0, 0, 2},
	))
	if p.CacheLen() != 0 {
		t.Fatalf("cache survived a reload: %d entries", p.CacheLen())
	}
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if g.Cells[0][0] != 2 {
		t.Fatalf("stale data after reload: %v", g.Cells)
	}
}

func TestAxisFilterRejectedBeforeBuild(t *testing.T) {
	p := sweepProcessor(t)
	p.Filters().AddValue(dataset.ValueFilter{Column: "VG1", Value: 0})
	_, err := p.BuildGrid()
	if err == nil || !strings.Contains(err.Error(), "conflicts") {
		t.Fatalf("axis filter not rejected: %v", err)
	}
	// Filtering the response column is fine.
	p.Filters().Clear()
	p.Filters().AddValue(dataset.ValueFilter{Column: "ID", Value: 5})
	if _, err := p.BuildGrid(); err != nil {
		t.Fatalf("response filter rejected: %v", err)
	}
}

func TestTransposedSwapsEverything(t *testing.T) {
	p := sweepProcessor(t)
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tr := g.Transposed()
	if tr.XColumn != g.YColumn || tr.YColumn != g.XColumn {
		t.Fatalf("columns not swapped: %s/%s", tr.XColumn, tr.YColumn)
	}
	for i := range g.XTicks {
		for j := range g.YTicks {
			if !cellEqual(tr.Cells[j][i], g.Cells[i][j]) {
				t.Fatalf("cell (%d,%d) not transposed", i, j)
			}
		}
	}
	back := tr.Transposed()
	for i := range g.XTicks {
		for j := range g.YTicks {
			if !cellEqual(back.Cells[i][j], g.Cells[i][j]) {
				t.Fatalf("double transpose changed cell (%d,%d)", i, j)
			}
		}
	}
}

func TestSwapAxesMatchesTransposed(t *testing.T) {
	p := sweepProcessor(t)
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	p.SwapAxes()
	swapped, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("swapped build: %v", err)
	}
	want := g.Transposed()
	if len(swapped.XTicks) != len(want.XTicks) || len(swapped.YTicks) != len(want.YTicks) {
		t.Fatalf("tick shapes differ")
	}
	for i := range want.XTicks {
		for j := range want.YTicks {
			if !cellEqual(swapped.Cells[i][j], want.Cells[i][j]) {
				t.Fatalf("cell (%d,%d): %v vs %v", i, j, swapped.Cells[i][j], want.Cells[i][j])
			}
		}
	}
}

func TestProfilesAtSweepExample(t *testing.T) {
	p := sweepProcessor(t)
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	// Cross-section at VG2=0, varying VG1: {0:1, 1:5}
	prof, err := g.ProfileAlongX(0)
	if err != nil {
		t.Fatalf("ProfileAlongX: %v", err)
	}
	if prof.AxisColumn != "VG1" || prof.FixedColumn != "VG2" || prof.FixedValue != 0 {
		t.Fatalf("profile meta wrong: %+v", prof)
	}
	if prof.Values[0] != 1 || prof.Values[1] != 5 {
		t.Fatalf("profile values = %v, want [1 5]", prof.Values)
	}

	// Cross-section at VG1=0, varying VG2: {0:1, 1:3}
	prof, err = g.ProfileAlongY(0)
	if err != nil {
		t.Fatalf("ProfileAlongY: %v", err)
	}
	if prof.Values[0] != 1 || prof.Values[1] != 3 {
		t.Fatalf("profile values = %v, want [1 3]", prof.Values)
	}
}

func TestProfileSnapsToNearestTick(t *testing.T) {
	p := sweepProcessor(t)
	g, _ := p.BuildGrid()
	prof, err := g.ProfileAlongX(0.2)
	if err != nil {
		t.Fatalf("ProfileAlongX: %v", err)
	}
	if prof.FixedValue != 0 {
		t.Fatalf("snapped to %v, want 0", prof.FixedValue)
	}
	prof, _ = g.ProfileAlongX(0.8)
	if prof.FixedValue != 1 {
		t.Fatalf("snapped to %v, want 1", prof.FixedValue)
	}
}

func TestAggregateModes(t *testing.T) {
	p := NewProcessor()
	p.SetFrame(buildFrame(t, []string{"x", "y", "v"},
		[]float64{0, 0, 1},
		[]float64{0, 0, 3},
	))
	if err := p.SetAxes("x", "y", "v"); err != nil {
		t.Fatalf("SetAxes: %v", err)
	}
	cases := []struct {
		mode Aggregate
		want float64
	}{
		{AggMean, 2},
		{AggMin, 1},
		{AggMax, 3},
		{AggCount, 2},
	}
	for _, c := range cases {
		p.SetAggregate(c.mode)
		g, err := p.BuildGrid()
		if err != nil {
			t.Fatalf("%s: %v", c.mode, err)
		}
		if g.Cells[0][0] != c.want {
			t.Fatalf("%s: cell = %v, want %v", c.mode, g.Cells[0][0], c.want)
		}
	}
	if p.CacheLen() != len(cases) {
		t.Fatalf("cache holds %d grids, want %d", p.CacheLen(), len(cases))
	}
}

func TestNaNValuesExcludedFromAggregates(t *testing.T) {
	p := NewProcessor()
	p.SetFrame(buildFrame(t, []string{"x", "y", "v"},
		[]float64{0, 0, math.NaN()},
		[]float64{0, 0, 4},
		[]float64{1, 0, math.NaN()},
	))
	if err := p.SetAxes("x", "y", "v"); err != nil {
		t.Fatalf("SetAxes: %v", err)
	}
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if g.Cells[0][0] != 4 {
		t.Fatalf("NaN polluted the mean: %v", g.Cells[0][0])
	}
	if !math.IsNaN(g.Cells[1][0]) {
		t.Fatalf("all-NaN cell not NaN: %v", g.Cells[1][0])
	}
}

func TestAxisNaNRowsSkipped(t *testing.T) {
	p := NewProcessor()
	p.SetFrame(buildFrame(t, []string{"x", "y", "v"},
		[]float64{0, 0, 1},
		[]float64{math.NaN(), 0, 7},
	))
	if err := p.SetAxes("x", "y", "v"); err != nil {
		t.Fatalf("SetAxes: %v", err)
	}
	g, err := p.BuildGrid()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(g.XTicks) != 1 {
		t.Fatalf("NaN axis value created a tick: %v", g.XTicks)
	}
}

func TestBuildGridValidation(t *testing.T) {
	p := NewProcessor()
	if _, err := p.BuildGrid(); err == nil || !strings.Contains(err.Error(), "no file loaded") {
		t.Fatalf("missing frame not reported: %v", err)
	}
	p.SetFrame(buildFrame(t, []string{"a", "b"}, []float64{1, 2}))
	if _, err := p.BuildGrid(); err == nil || !strings.Contains(err.Error(), "axes not set") {
		t.Fatalf("unset axes not reported: %v", err)
	}
	if err := p.SetAxes("a", "a", "b"); err == nil {
		t.Fatalf("identical axes accepted")
	}
	if err := p.SetAxes("a", "zzz", "b"); !errors.Is(err, dataset.ErrNoSuchColumn) {
		t.Fatalf("unknown column accepted: %v", err)
	}
}

func TestNoMatchingRowsIsAnError(t *testing.T) {
	p := sweepProcessor(t)
	p.Filters().AddValue(dataset.ValueFilter{Column: "ID", Value: 99})
	_, err := p.BuildGrid()
	if err == nil || !strings.Contains(err.Error(), "no rows match") {
		t.Fatalf("empty result not reported: %v", err)
	}
}

func TestValueRangeAndPositiveMin(t *testing.T) {
	g := &Grid{
		ValueColumn: "v",
		XTicks:      []float64{0, 1},
		YTicks:      []float64{0},
		Cells:       [][]float64{{-2}, {5}},
	}
	lo, hi, err := g.ValueRange()
	if err != nil || lo != -2 || hi != 5 {
		t.Fatalf("ValueRange = %v %v %v", lo, hi, err)
	}
	pm, ok := g.PositiveMin()
	if !ok || pm != 5 {
		t.Fatalf("PositiveMin = %v %v", pm, ok)
	}
	empty := &Grid{ValueColumn: "v", Cells: [][]float64{{math.NaN()}}}
	if _, _, err := empty.ValueRange(); err == nil {
		t.Fatalf("all-NaN grid has a range")
	}
	if _, ok := empty.PositiveMin(); ok {
		t.Fatalf("all-NaN grid has a positive min")
	}
}

func TestSummaryFormatting(t *testing.T) {
	g := &Grid{FilteredRows: 12345, TotalRows: 70000}
	if got := g.Summary(); got != "12,345/70,000 rows (17.6%)" {
		t.Fatalf("Summary = %q", got)
	}
	g = &Grid{FilteredRows: 1, TotalRows: 3}
	if got := g.Summary(); got != "1/3 rows (33.3%)" {
		t.Fatalf("Summary = %q", got)
	}
}

func TestGroupThousands(t *testing.T) {
	cases := map[int]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		1234567: "1,234,567",
	}
	for n, want := range cases {
		if got := groupThousands(n); got != want {
			t.Fatalf("groupThousands(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestParseAggregate(t *testing.T) {
	if m, err := ParseAggregate("Mean"); err != nil || m != AggMean {
		t.Fatalf("mean: %v %v", m, err)
	}
	if m, err := ParseAggregate(""); err != nil || m != AggMean {
		t.Fatalf("default: %v %v", m, err)
	}
	if _, err := ParseAggregate("median"); err == nil {
		t.Fatalf("unknown aggregate accepted")
	}
}
