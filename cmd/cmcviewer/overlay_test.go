package main

import (
	"math"
	"testing"

	"github.com/futafi/ColorMapChan/src/grid"
	"github.com/futafi/ColorMapChan/src/render"
)

func TestComputeContainRectExactFit(t *testing.T) {
	x, y, w, h, s := computeContainRect(900, 560, 900, 560)
	if x != 0 || y != 0 || w != 900 || h != 560 || s != 1 {
		t.Fatalf("exact fit: got x=%v y=%v w=%v h=%v s=%v", x, y, w, h, s)
	}
}

func TestComputeContainRectLetterbox(t *testing.T) {
	// wider view than image aspect: image is centered horizontally
	x, y, w, h, s := computeContainRect(100, 100, 300, 100)
	if s != 1 || w != 100 || h != 100 {
		t.Fatalf("scale: got w=%v h=%v s=%v", w, h, s)
	}
	if x != 100 || y != 0 {
		t.Fatalf("centering: got x=%v y=%v", x, y)
	}
	// taller view: centered vertically and scaled down by width
	x, y, w, h, s = computeContainRect(200, 100, 100, 200)
	if s != 0.5 || w != 100 || h != 50 {
		t.Fatalf("scale down: got w=%v h=%v s=%v", w, h, s)
	}
	if x != 0 || y != 75 {
		t.Fatalf("centering: got x=%v y=%v", x, y)
	}
}

func TestComputeContainRectDegenerate(t *testing.T) {
	_, _, w, h, _ := computeContainRect(0, 100, 300, 100)
	if w != 0 || h != 0 {
		t.Fatalf("zero image should yield empty rect, got w=%v h=%v", w, h)
	}
}

func TestPlotAreaCutsGuttersAndColorBar(t *testing.T) {
	x0, y0, x1, y1 := plotArea(900, 560)
	if x0 != heatLeftGutter || x1 != 900-heatRightGutter {
		t.Fatalf("x bounds: got [%v, %v]", x0, x1)
	}
	wantY1 := float32(560) - float32(render.ColorBarHeight) - heatBottomGutter
	if y0 != heatTopGutter || y1 != wantY1 {
		t.Fatalf("y bounds: got [%v, %v] want [%v, %v]", y0, y1, heatTopGutter, wantY1)
	}
	// a tiny image degrades to the full image instead of inverting
	x0, y0, x1, y1 = plotArea(40, 40)
	if x0 != 0 || y0 != 0 || x1 != 40 || y1 != 40 {
		t.Fatalf("tiny image: got [%v %v %v %v]", x0, y0, x1, y1)
	}
}

func mappingGrid() *grid.Grid {
	g := &grid.Grid{
		XColumn: "VG1", YColumn: "VG2", ValueColumn: "ID",
		XTicks: []float64{0, 1, 2, 3},
		YTicks: []float64{-1, 0, 1},
	}
	g.Cells = make([][]float64, len(g.XTicks))
	for i := range g.Cells {
		g.Cells[i] = make([]float64, len(g.YTicks))
		for j := range g.Cells[i] {
			g.Cells[i][j] = float64(10*i + j)
		}
	}
	return g
}

func TestCellAtMapsQuadrants(t *testing.T) {
	g := mappingGrid()
	const imgW, imgH = 900, 560
	x0, y0, x1, y1 := plotArea(imgW, imgH)

	// just inside the top-left corner: first column, last row (plot Y is up)
	i, j, ok := cellAt(g, x0+1, y0+1, imgW, imgH)
	if !ok || i != 0 || j != len(g.YTicks)-1 {
		t.Fatalf("top-left: got i=%d j=%d ok=%v", i, j, ok)
	}
	// just inside the bottom-right corner: last column, first row
	i, j, ok = cellAt(g, x1-1, y1-1, imgW, imgH)
	if !ok || i != len(g.XTicks)-1 || j != 0 {
		t.Fatalf("bottom-right: got i=%d j=%d ok=%v", i, j, ok)
	}
	// dead center lands in a middle cell
	i, j, ok = cellAt(g, (x0+x1)/2, (y0+y1)/2, imgW, imgH)
	if !ok || i != 2 || j != 1 {
		t.Fatalf("center: got i=%d j=%d ok=%v", i, j, ok)
	}
}

func TestCellAtOutsidePlotArea(t *testing.T) {
	g := mappingGrid()
	if _, _, ok := cellAt(g, 5, 5, 900, 560); ok {
		t.Fatalf("position in the axis gutter must not map to a cell")
	}
	if _, _, ok := cellAt(g, 450, 550, 900, 560); ok {
		t.Fatalf("position in the color bar must not map to a cell")
	}
	if _, _, ok := cellAt(nil, 450, 200, 900, 560); ok {
		t.Fatalf("nil grid must not map")
	}
}

func TestCellAtEdgesClamp(t *testing.T) {
	g := mappingGrid()
	x0, y0, x1, y1 := plotArea(900, 560)
	i, j, ok := cellAt(g, x1, y1, 900, 560)
	if !ok || i != len(g.XTicks)-1 || j != 0 {
		t.Fatalf("exact far corner: got i=%d j=%d ok=%v", i, j, ok)
	}
	i, j, ok = cellAt(g, x0, y0, 900, 560)
	if !ok || i != 0 || j != len(g.YTicks)-1 {
		t.Fatalf("exact near corner: got i=%d j=%d ok=%v", i, j, ok)
	}
}

func TestCellAtColumnBoundaries(t *testing.T) {
	g := mappingGrid()
	const imgW, imgH = 900, 560
	x0, y0, x1, _ := plotArea(imgW, imgH)
	colW := (x1 - x0) / float32(len(g.XTicks))
	for want := 0; want < len(g.XTicks); want++ {
		px := x0 + colW*float32(want) + colW/2
		i, _, ok := cellAt(g, px, y0+1, imgW, imgH)
		if !ok || i != want {
			t.Fatalf("column center %d: got i=%d ok=%v", want, i, ok)
		}
	}
}

func TestMappingGridCellsFinite(t *testing.T) {
	g := mappingGrid()
	for i := range g.Cells {
		for j := range g.Cells[i] {
			if math.IsNaN(g.Cells[i][j]) {
				t.Fatalf("fixture cell %d,%d is NaN", i, j)
			}
		}
	}
}
