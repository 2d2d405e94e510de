package main

import (
	"math"
	"strings"
	"testing"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
)

func statusGrid() *grid.Grid {
	g := &grid.Grid{
		XColumn: "VG1", YColumn: "VG2", ValueColumn: "ID",
		XTicks: []float64{0, 1},
		YTicks: []float64{0, 1},
		Cells: [][]float64{
			{1e-9, 2e-9},
			{3e-9, 4e-9},
		},
		FilteredRows: 12345,
		TotalRows:    70000,
	}
	return g
}

func TestStatusLineParts(t *testing.T) {
	line := statusLine("/data/sweep.csv", dataset.FormatCSV, statusGrid())
	for _, want := range []string{"/data/sweep.csv", string(dataset.FormatCSV), "12,345/70,000 rows (17.6%)", "ID∈["} {
		if !strings.Contains(line, want) {
			t.Fatalf("status line %q missing %q", line, want)
		}
	}
	if parts := strings.Split(line, " • "); len(parts) != 4 {
		t.Fatalf("want 4 segments, got %d in %q", len(parts), line)
	}
}

func TestStatusLineNilGrid(t *testing.T) {
	if got := statusLine("x", dataset.FormatCSV, nil); got != "no data loaded" {
		t.Fatalf("nil grid: got %q", got)
	}
}

func TestStatusLineSkipsRangeWhenAllNaN(t *testing.T) {
	g := statusGrid()
	for i := range g.Cells {
		for j := range g.Cells[i] {
			g.Cells[i][j] = math.NaN()
		}
	}
	line := statusLine("x", dataset.FormatCSV, g)
	if strings.Contains(line, "ID∈") {
		t.Fatalf("all-NaN grid should omit the value range, got %q", line)
	}
}

func TestTruncatePath(t *testing.T) {
	if got := truncatePath("/short/path.csv", 60); got != "/short/path.csv" {
		t.Fatalf("short path changed: %q", got)
	}
	long := "/very/long/directory/structure/that/keeps/going/and/going/sweep_measurement.csv"
	got := truncatePath(long, 40)
	if len(got) > 44 {
		t.Fatalf("truncated path too long: %d chars in %q", len(got), got)
	}
	if !strings.HasSuffix(got, "sweep_measurement.csv") {
		t.Fatalf("base name lost: %q", got)
	}
}

func TestHintTextFollowsFilters(t *testing.T) {
	state := &uiState{filters: dataset.NewFilterSet()}
	if got := hintText(state); !strings.Contains(got, "drag to zoom") {
		t.Fatalf("empty filters: got %q", got)
	}
	if err := state.filters.AddValue(dataset.ValueFilter{Column: "VG3", Value: 0.5}); err != nil {
		t.Fatalf("add filter: %v", err)
	}
	if got := hintText(state); !strings.Contains(got, "VG3") {
		t.Fatalf("active filters: got %q", got)
	}
}

func TestParseEntryFloat(t *testing.T) {
	if v, err := parseEntryFloat("value", " 1.5e-9 "); err != nil || v != 1.5e-9 {
		t.Fatalf("got %v, %v", v, err)
	}
	if _, err := parseEntryFloat("min", "abc"); err == nil {
		t.Fatalf("expected error for non-numeric entry")
	} else if !strings.Contains(err.Error(), "min") {
		t.Fatalf("error should name the field: %v", err)
	}
}

func TestCurrentWindowFallsBackToFullExtent(t *testing.T) {
	s := &uiState{baseGrid: statusGrid()}
	xmin, xmax, ymin, ymax := s.currentWindow()
	if xmin != 0 || xmax != 1 || ymin != 0 || ymax != 1 {
		t.Fatalf("full extent: got [%v %v]x[%v %v]", xmin, xmax, ymin, ymax)
	}
	s.windowed = true
	s.winXMin, s.winXMax, s.winYMin, s.winYMax = 0.25, 0.75, 0.1, 0.9
	xmin, xmax, ymin, ymax = s.currentWindow()
	if xmin != 0.25 || xmax != 0.75 || ymin != 0.1 || ymax != 0.9 {
		t.Fatalf("window: got [%v %v]x[%v %v]", xmin, xmax, ymin, ymax)
	}
}
