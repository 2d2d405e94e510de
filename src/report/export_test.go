package report

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
)

func sweepFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.NewFrame("sweep.csv", dataset.FormatCSV, []string{"VG1", "VG2", "ID"})
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	for _, r := range [][]float64{{0, 0, 1}, {0, 1, 3}, {1, 0, 5}} {
		if err := f.AppendRow(r); err != nil {
			t.Fatalf("AppendRow: %v", err)
		}
	}
	return f
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	recs, err := csv.NewReader(strings.NewReader(string(b))).ReadAll()
	if err != nil {
		t.Fatalf("parse %s: %v", path, err)
	}
	return recs
}

func TestExportRegionCSVRoundTrip(t *testing.T) {
	f := sweepFrame(t)
	path := filepath.Join(t.TempDir(), "rows.csv")
	n, err := ExportRegionCSV(f, nil, nil, path)
	if err != nil {
		t.Fatalf("ExportRegionCSV: %v", err)
	}
	if n != 3 {
		t.Fatalf("wrote %d rows, want 3", n)
	}
	recs := readCSV(t, path)
	if len(recs) != 4 {
		t.Fatalf("file has %d records, want header + 3 rows", len(recs))
	}
	if strings.Join(recs[0], ",") != "VG1,VG2,ID" {
		t.Fatalf("header = %v", recs[0])
	}
	if strings.Join(recs[3], ",") != "1,0,5" {
		t.Fatalf("last row = %v, want 1,0,5", recs[3])
	}
}

func TestExportRegionCSVClipsToRegion(t *testing.T) {
	f := sweepFrame(t)
	path := filepath.Join(t.TempDir(), "rows.csv")
	region := &Region{XColumn: "VG1", XMin: 0, XMax: 0, YColumn: "VG2", YMin: 0, YMax: 1}
	n, err := ExportRegionCSV(f, nil, region, path)
	if err != nil {
		t.Fatalf("ExportRegionCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("wrote %d rows, want the 2 with VG1=0", n)
	}
}

func TestExportRegionCSVComposesFilters(t *testing.T) {
	f := sweepFrame(t)
	fs := dataset.NewFilterSet()
	if err := fs.AddValue(dataset.ValueFilter{Column: "VG2", Value: 0}); err != nil {
		t.Fatalf("AddValue: %v", err)
	}
	path := filepath.Join(t.TempDir(), "rows.csv")
	n, err := ExportRegionCSV(f, fs, nil, path)
	if err != nil {
		t.Fatalf("ExportRegionCSV: %v", err)
	}
	if n != 2 {
		t.Fatalf("wrote %d rows, want 2", n)
	}
	if fs.Len() != 1 {
		t.Fatalf("export must not mutate the caller's filter set")
	}
}

func TestExportRegionCSVEmptySelection(t *testing.T) {
	f := sweepFrame(t)
	region := &Region{XColumn: "VG1", XMin: 99, XMax: 100}
	if _, err := ExportRegionCSV(f, nil, region, filepath.Join(t.TempDir(), "rows.csv")); err == nil {
		t.Fatalf("expected error for empty selection")
	}
}

func TestExportGridCSVMatrixForm(t *testing.T) {
	g := &grid.Grid{
		XColumn: "VG1", YColumn: "VG2", ValueColumn: "ID", Mode: grid.AggMean,
		XTicks: []float64{0, 1},
		YTicks: []float64{0, 1},
		Cells:  [][]float64{{1, 3}, {5, math.NaN()}},
	}
	path := filepath.Join(t.TempDir(), "grid.csv")
	if err := ExportGridCSV(g, path); err != nil {
		t.Fatalf("ExportGridCSV: %v", err)
	}
	recs := readCSV(t, path)
	if len(recs) != 3 {
		t.Fatalf("file has %d records, want header + 2", len(recs))
	}
	if recs[0][1] != "0" || recs[0][2] != "1" {
		t.Fatalf("X tick header wrong: %v", recs[0])
	}
	// row for VG2=1: Y tick, cell(x=0,y=1)=3, cell(x=1,y=1)=NaN -> empty
	if recs[2][0] != "1" || recs[2][1] != "3" || recs[2][2] != "" {
		t.Fatalf("VG2=1 row wrong: %v", recs[2])
	}
}
