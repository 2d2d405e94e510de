package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
	"github.com/futafi/ColorMapChan/src/render"
	"github.com/futafi/ColorMapChan/src/report"
)

// RunScreenshotsMode renders the documentation screenshot set from a
// synthetic gate sweep and writes the PNGs under outDir. It runs headlessly
// without creating a UI window.
func RunScreenshotsMode(outDir string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create out dir: %w", err)
	}
	frame, err := syntheticSweep()
	if err != nil {
		return err
	}
	proc := grid.NewProcessor()
	proc.SetFrame(frame)
	if err := proc.SetAxes("VG1", "VG2", "ID"); err != nil {
		return err
	}
	filters := dataset.NewFilterSet()
	if err := filters.AddValue(dataset.ValueFilter{Column: "VG3", Value: 0}); err != nil {
		return err
	}
	proc.SetFilters(filters)
	g, err := proc.BuildGrid()
	if err != nil {
		return err
	}

	opts := render.Options{Width: 900, Height: 560}
	for _, name := range render.Colormaps() {
		opts.Colormap = name
		img := render.Heatmap(g, opts)
		if err := report.ExportPNG(img, filepath.Join(outDir, "heatmap_"+name+".png")); err != nil {
			return err
		}
	}

	opts.Colormap = render.DefaultColormap
	opts.LogScale = true
	logImg := render.DrawHint(render.Heatmap(g, opts), "log10 of "+g.ValueColumn)
	if err := report.ExportPNG(logImg, filepath.Join(outDir, "heatmap_log.png")); err != nil {
		return err
	}
	opts.LogScale = false

	// the second gate plane, to show filtering in action
	half := dataset.NewFilterSet()
	if err := half.AddValue(dataset.ValueFilter{Column: "VG3", Value: 0.5}); err != nil {
		return err
	}
	proc.SetFilters(half)
	fg, err := proc.BuildGrid()
	if err != nil {
		return err
	}
	fImg := render.DrawHint(render.Heatmap(fg, opts), "filters: "+half.Summary())
	if err := report.ExportPNG(fImg, filepath.Join(outDir, "heatmap_filtered.png")); err != nil {
		return err
	}

	pr, err := g.ProfileAlongX(0)
	if err != nil {
		return err
	}
	pImg := render.Profile(pr, render.ProfileOptions{Width: 800, Height: 300})
	if err := report.ExportPNG(pImg, filepath.Join(outDir, "profile_x.png")); err != nil {
		return err
	}

	dataset.Infof("screenshots written to %s", outDir)
	return nil
}

// syntheticSweep builds a two-plane gate sweep with a Coulomb-blockade-ish
// response so the screenshots carry recognizable structure.
func syntheticSweep() (*dataset.Frame, error) {
	frame, err := dataset.NewFrame("synthetic", dataset.FormatCSV, []string{"VG1", "VG2", "VG3", "ID"})
	if err != nil {
		return nil, err
	}
	const n = 41
	for _, vg3 := range []float64{0, 0.5} {
		for i := 0; i < n; i++ {
			vg1 := -1 + 2*float64(i)/float64(n-1)
			for j := 0; j < n; j++ {
				vg2 := -1 + 2*float64(j)/float64(n-1)
				peak := math.Exp(-8 * (vg1*vg1 + vg2*vg2))
				ripple := 0.5 * (1 + math.Sin(9*vg1)*math.Sin(9*vg2))
				id := 1e-9 * (peak + 0.1*ripple) * (1 + vg3)
				if err := frame.AppendRow([]float64{vg1, vg2, vg3, id}); err != nil {
					return nil, err
				}
			}
		}
	}
	frame.SetMeta("source", "synthetic sweep for screenshots")
	return frame, nil
}
