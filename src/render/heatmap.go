package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	png "image/png"
	"math"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
)

// nanCell is the fill color for grid cells no row landed in.
var nanCell = color.Gray{Y: 200}

// maxTickLabels caps axis labeling so dense sweeps stay readable.
const maxTickLabels = 12

// ColorBarHeight is the pixel height of the scale strip composited below
// the heatmap. The viewer's overlay needs it to map cursor positions back
// onto cells.
const ColorBarHeight = 56

// Options control one heatmap render. The zero value draws the full grid
// with the default colormap on a linear scale.
type Options struct {
	Colormap string
	LogScale bool

	// Width and Height are output pixels; 0 picks 900x560.
	Width  int
	Height int

	// Windowed restricts the drawn ticks to [XMin,XMax]x[YMin,YMax] (zoom).
	Windowed               bool
	XMin, XMax, YMin, YMax float64

	// VFixed overrides the color range instead of using the grid's own.
	VFixed     bool
	VMin, VMax float64
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 900
	}
	if h <= 0 {
		h = 560
	}
	return w, h
}

// gridXYZ adapts a grid.Grid to gonum's plotter.GridXYZ in index space, so
// unevenly swept axes still draw as uniform cells.
type gridXYZ struct {
	g *grid.Grid
}

func (a gridXYZ) Dims() (int, int)   { return len(a.g.XTicks), len(a.g.YTicks) }
func (a gridXYZ) Z(c, r int) float64 { return a.g.Cells[c][r] }
func (a gridXYZ) X(c int) float64    { return float64(c) }
func (a gridXYZ) Y(r int) float64    { return float64(r) }

var _ plotter.GridXYZ = gridXYZ{}

// LogGrid returns a copy of g with cells mapped to log10. Non-positive cells
// have no logarithm and become NaN.
func LogGrid(g *grid.Grid) *grid.Grid {
	out := &grid.Grid{
		XColumn:      g.XColumn,
		YColumn:      g.YColumn,
		ValueColumn:  "log10(" + g.ValueColumn + ")",
		Mode:         g.Mode,
		XTicks:       append([]float64(nil), g.XTicks...),
		YTicks:       append([]float64(nil), g.YTicks...),
		FilteredRows: g.FilteredRows,
		TotalRows:    g.TotalRows,
		Key:          g.Key + "|log",
	}
	out.Cells = make([][]float64, len(g.Cells))
	for i, col := range g.Cells {
		out.Cells[i] = make([]float64, len(col))
		for j, v := range col {
			if v > 0 && !math.IsInf(v, 0) {
				out.Cells[i][j] = math.Log10(v)
			} else {
				out.Cells[i][j] = math.NaN()
			}
		}
	}
	return out
}

// Windowed returns the sub-grid whose ticks fall inside the given bounds.
// An empty window yields nil.
func Windowed(g *grid.Grid, xmin, xmax, ymin, ymax float64) *grid.Grid {
	keepX := tickIndicesWithin(g.XTicks, xmin, xmax)
	keepY := tickIndicesWithin(g.YTicks, ymin, ymax)
	if len(keepX) == 0 || len(keepY) == 0 {
		return nil
	}
	out := &grid.Grid{
		XColumn:      g.XColumn,
		YColumn:      g.YColumn,
		ValueColumn:  g.ValueColumn,
		Mode:         g.Mode,
		FilteredRows: g.FilteredRows,
		TotalRows:    g.TotalRows,
		Key:          g.Key + "|win",
	}
	out.XTicks = make([]float64, len(keepX))
	out.YTicks = make([]float64, len(keepY))
	for i, xi := range keepX {
		out.XTicks[i] = g.XTicks[xi]
	}
	for j, yj := range keepY {
		out.YTicks[j] = g.YTicks[yj]
	}
	out.Cells = make([][]float64, len(keepX))
	for i, xi := range keepX {
		out.Cells[i] = make([]float64, len(keepY))
		for j, yj := range keepY {
			out.Cells[i][j] = g.Cells[xi][yj]
		}
	}
	return out
}

func tickIndicesWithin(ticks []float64, lo, hi float64) []int {
	var out []int
	for i, t := range ticks {
		if t >= lo && t <= hi {
			out = append(out, i)
		}
	}
	return out
}

// Heatmap renders g as a color-mapped image with a horizontal color bar
// composited below. Draw failures degrade to a blank image, never nil.
func Heatmap(g *grid.Grid, opts Options) image.Image {
	w, h := opts.size()
	if g == nil || len(g.XTicks) == 0 || len(g.YTicks) == 0 {
		return blank(w, h)
	}
	drawn := g
	if opts.Windowed {
		drawn = Windowed(g, opts.XMin, opts.XMax, opts.YMin, opts.YMax)
		if drawn == nil {
			dataset.Warnf("heatmap: view window excludes every tick, drawing full grid")
			drawn = g
		}
	}
	if opts.LogScale {
		drawn = LogGrid(drawn)
	}

	vmin, vmax, err := drawn.ValueRange()
	if err != nil {
		dataset.Warnf("heatmap: %v", err)
		return blank(w, h)
	}
	if opts.VFixed {
		vmin, vmax = opts.VMin, opts.VMax
		if opts.LogScale {
			if opts.VMin > 0 {
				vmin = math.Log10(opts.VMin)
			}
			if opts.VMax > 0 {
				vmax = math.Log10(opts.VMax)
			}
		}
	}
	if vmax <= vmin {
		vmax = vmin + 1
	}

	cm, err := Colormap(opts.Colormap)
	if err != nil {
		dataset.Errorf("heatmap: %v", err)
		return blank(w, h)
	}
	cm.SetMin(vmin)
	cm.SetMax(vmax)

	p := plot.New()
	p.X.Label.Text = drawn.XColumn
	p.Y.Label.Text = drawn.YColumn
	p.Title.Text = drawn.ValueColumn + " (" + string(drawn.Mode) + ")"
	p.X.Tick.Marker = plot.ConstantTicks(indexTicks(drawn.XTicks))
	p.Y.Tick.Marker = plot.ConstantTicks(indexTicks(drawn.YTicks))
	p.X.Min, p.X.Max = -0.5, float64(len(drawn.XTicks))-0.5
	p.Y.Min, p.Y.Max = -0.5, float64(len(drawn.YTicks))-0.5

	hm := plotter.NewHeatMap(gridXYZ{g: drawn}, cm.Palette(256))
	hm.Min = vmin
	hm.Max = vmax
	hm.NaN = nanCell
	hm.Underflow = nanCell
	hm.Overflow = nanCell
	p.Add(hm)

	cbH := ColorBarHeight
	body, err := renderPNG(p, w, h-cbH)
	if err != nil {
		dataset.Errorf("heatmap render: %v", err)
		return blank(w, h)
	}
	bar, err := renderColorBar(cm, w, cbH, opts.LogScale)
	if err != nil {
		dataset.Errorf("color bar render: %v", err)
		return body
	}
	// The vector canvas renders at its own DPI, so scale both strips into the
	// requested pixel box when compositing.
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	xdraw.ApproxBiLinear.Scale(out, image.Rect(0, 0, w, h-cbH), body, body.Bounds(), xdraw.Src, nil)
	xdraw.ApproxBiLinear.Scale(out, image.Rect(0, h-cbH, w, h), bar, bar.Bounds(), xdraw.Src, nil)
	return out
}

// indexTicks labels index positions with the real axis values, subsampled so
// at most maxTickLabels carry text.
func indexTicks(values []float64) []plot.Tick {
	step := 1
	if len(values) > maxTickLabels {
		step = (len(values) + maxTickLabels - 1) / maxTickLabels
	}
	ticks := make([]plot.Tick, 0, len(values))
	for i, v := range values {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 || i == len(values)-1 {
			t.Label = formatTick(v)
		}
		ticks = append(ticks, t)
	}
	return ticks
}

// renderColorBar draws the value scale as a horizontal strip. Log-scale bars
// label whole decades ("1e-6") instead of raw exponents.
func renderColorBar(cm palette.ColorMap, w, h int, logScale bool) (image.Image, error) {
	p := plot.New()
	p.Add(&plotter.ColorBar{ColorMap: cm})
	p.HideY()
	p.X.Padding = 0
	if logScale {
		p.X.Tick.Marker = plot.ConstantTicks(decadeTicks(cm.Min(), cm.Max()))
	}
	return renderPNG(p, w, h)
}

// decadeTicks labels the whole powers of ten inside a log10-space range.
func decadeTicks(lo, hi float64) []plot.Tick {
	var ticks []plot.Tick
	for d := math.Ceil(lo); d <= math.Floor(hi)+1e-9; d++ {
		ticks = append(ticks, plot.Tick{Value: d, Label: fmt.Sprintf("1e%.0f", d)})
	}
	if len(ticks) == 0 {
		ticks = []plot.Tick{
			{Value: lo, Label: fmt.Sprintf("1e%.1f", lo)},
			{Value: hi, Label: fmt.Sprintf("1e%.1f", hi)},
		}
	}
	return ticks
}

func renderPNG(p *plot.Plot, w, h int) (image.Image, error) {
	wt, err := p.WriterTo(vg.Points(float64(w)), vg.Points(float64(h)), "png")
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, err
	}
	return png.Decode(&buf)
}

func blank(w, h int) image.Image {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	bg := color.RGBA{R: 18, G: 18, B: 18, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, bg)
		}
	}
	return img
}
