// Package report writes the shareable artifacts: raw-row and grid CSV
// exports, heatmap PNGs, and the one-page PDF summary.
package report

import (
	"fmt"
	"image"
	png "image/png"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
)

// Region bounds a rectangular export in data coordinates. Nil means the
// whole filtered dataset.
type Region struct {
	XColumn, YColumn       string
	XMin, XMax, YMin, YMax float64
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportRegionCSV streams the raw rows passing the active filters, further
// clipped to region when non-nil, into a delimited file with the frame's
// original columns. Returns how many data rows were written.
func ExportRegionCSV(f *dataset.Frame, filters *dataset.FilterSet, region *Region, path string) (int, error) {
	defer dataset.TimeTrack(time.Now(), "region export")
	if f == nil {
		return 0, fmt.Errorf("no file loaded. open a measurement file first")
	}
	if filters == nil {
		filters = dataset.NewFilterSet()
	}
	// The display-axis restriction does not apply here: region bounds are
	// range filters on the axis columns by construction.
	active := filters.Clone()
	if region != nil {
		if region.XColumn != "" {
			if err := active.AddRange(dataset.RangeFilter{Column: region.XColumn, Min: region.XMin, Max: region.XMax}); err != nil {
				return 0, err
			}
		}
		if region.YColumn != "" {
			if err := active.AddRange(dataset.RangeFilter{Column: region.YColumn, Min: region.YMin, Max: region.YMax}); err != nil {
				return 0, err
			}
		}
	}
	idx, err := active.Apply(f)
	if err != nil {
		return 0, err
	}
	if len(idx) == 0 {
		return 0, fmt.Errorf("no rows inside the selection (0/%d). relax filters or widen the region", f.NumRows())
	}

	names := f.Columns()
	cols := make([][]float64, len(names))
	for i, n := range names {
		c, err := f.Column(n)
		if err != nil {
			return 0, err
		}
		cols[i] = c
	}
	w, err := dataset.NewExportWriter(path, 0, names)
	if err != nil {
		return 0, err
	}
	rec := make([]string, len(names))
	for _, r := range idx {
		for i := range names {
			rec[i] = formatCell(cols[i][r])
		}
		w.Write(append([]string(nil), rec...))
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	dataset.Infof("exported %d rows to %s", len(idx), path)
	return len(idx), nil
}

// ExportGridCSV writes the grid in matrix form: the first row carries the X
// ticks, the first column the Y ticks, and NaN cells are left empty.
func ExportGridCSV(g *grid.Grid, path string) error {
	if g == nil {
		return fmt.Errorf("no grid built yet. choose axes and build the heatmap first")
	}
	header := make([]string, 0, len(g.XTicks)+1)
	header = append(header, g.YColumn+"\\"+g.XColumn)
	for _, x := range g.XTicks {
		header = append(header, formatCell(x))
	}
	w, err := dataset.NewExportWriter(path, 0, header)
	if err != nil {
		return err
	}
	for j, y := range g.YTicks {
		rec := make([]string, 0, len(g.XTicks)+1)
		rec = append(rec, formatCell(y))
		for i := range g.XTicks {
			rec = append(rec, formatCell(g.Cells[i][j]))
		}
		w.Write(rec)
	}
	if err := w.Close(); err != nil {
		return err
	}
	dataset.Infof("exported %dx%d grid to %s", len(g.XTicks), len(g.YTicks), path)
	return nil
}

// ExportPNG writes img as a PNG file.
func ExportPNG(img image.Image, path string) error {
	if img == nil {
		return fmt.Errorf("nothing rendered yet, no image to export")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w. check the directory exists and is writable", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
