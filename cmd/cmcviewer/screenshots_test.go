package main

import (
	"image"
	_ "image/png" // register PNG decoder
	"os"
	"path/filepath"
	"testing"

	"github.com/futafi/ColorMapChan/src/render"
)

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return img
}

func TestRunScreenshotsModeWritesFullSet(t *testing.T) {
	outDir := t.TempDir()
	if err := RunScreenshotsMode(outDir); err != nil {
		t.Fatalf("screenshots: %v", err)
	}
	var want []string
	for _, name := range render.Colormaps() {
		want = append(want, "heatmap_"+name+".png")
	}
	want = append(want, "heatmap_log.png", "heatmap_filtered.png", "profile_x.png")
	for _, name := range want {
		path := filepath.Join(outDir, name)
		img := decodePNG(t, path)
		b := img.Bounds()
		if b.Dx() < 100 || b.Dy() < 100 {
			t.Fatalf("%s is implausibly small: %dx%d", name, b.Dx(), b.Dy())
		}
	}
	// heatmaps share one size
	first := decodePNG(t, filepath.Join(outDir, want[0])).Bounds()
	for _, name := range want[:len(want)-1] {
		b := decodePNG(t, filepath.Join(outDir, name)).Bounds()
		if b != first {
			t.Fatalf("%s size %v differs from %v", name, b, first)
		}
	}
}

func TestSyntheticSweepShape(t *testing.T) {
	frame, err := syntheticSweep()
	if err != nil {
		t.Fatalf("synthetic sweep: %v", err)
	}
	cols := frame.Columns()
	if len(cols) != 4 || cols[0] != "VG1" || cols[3] != "ID" {
		t.Fatalf("columns: %v", cols)
	}
	if frame.NumRows() != 2*41*41 {
		t.Fatalf("rows: got %d want %d", frame.NumRows(), 2*41*41)
	}
	lo, hi, err := frame.Range("ID")
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if lo < 0 || hi <= lo {
		t.Fatalf("ID range [%g, %g] not plausible", lo, hi)
	}
}
