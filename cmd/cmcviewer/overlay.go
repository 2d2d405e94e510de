package main

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/futafi/ColorMapChan/cmd/cmcviewer/uihelpers"
	"github.com/futafi/ColorMapChan/src/grid"
	"github.com/futafi/ColorMapChan/src/render"
)

// Approximate gutters of the rendered heatmap image, in image pixels, used
// to map cursor positions onto grid cells. They track the gonum plot layout
// for the label/tick sizes we render with.
const (
	heatLeftGutter   = float32(62)
	heatRightGutter  = float32(16)
	heatTopGutter    = float32(34)
	heatBottomGutter = float32(40)
)

// computeContainRect returns where an imgW x imgH image lands inside a
// viewW x viewH box under ImageFillContain, plus the applied scale.
func computeContainRect(imgW, imgH, viewW, viewH float32) (drawX, drawY, drawW, drawH, scale float32) {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return 0, 0, 0, 0, 1
	}
	sx := viewW / imgW
	sy := viewH / imgH
	scale = sx
	if sy < sx {
		scale = sy
	}
	drawW = imgW * scale
	drawH = imgH * scale
	drawX = (viewW - drawW) / 2
	drawY = (viewH - drawH) / 2
	return drawX, drawY, drawW, drawH, scale
}

// plotArea returns the cell-grid rectangle inside the heatmap image, in
// image pixels: axes gutters and the color bar strip are cut off.
func plotArea(imgW, imgH float32) (x0, y0, x1, y1 float32) {
	x0 = heatLeftGutter
	x1 = imgW - heatRightGutter
	y0 = heatTopGutter
	y1 = imgH - float32(render.ColorBarHeight) - heatBottomGutter
	if x1 <= x0 {
		x0, x1 = 0, imgW
	}
	if y1 <= y0 {
		y0, y1 = 0, imgH
	}
	return x0, y0, x1, y1
}

// cellAt maps a position inside the plot area (image pixels) to grid cell
// indices. The image Y axis points down while the plot Y axis points up, so
// the row index flips.
func cellAt(g *grid.Grid, px, py, imgW, imgH float32) (int, int, bool) {
	if g == nil || len(g.XTicks) == 0 || len(g.YTicks) == 0 {
		return 0, 0, false
	}
	x0, y0, x1, y1 := plotArea(imgW, imgH)
	if px < x0 || px > x1 || py < y0 || py > y1 {
		return 0, 0, false
	}
	relX := float64((px - x0) / (x1 - x0))
	relY := float64((py - y0) / (y1 - y0))
	i := int(relX * float64(len(g.XTicks)))
	if i >= len(g.XTicks) {
		i = len(g.XTicks) - 1
	}
	j := len(g.YTicks) - 1 - int(relY*float64(len(g.YTicks)))
	if j < 0 {
		j = 0
	}
	if j >= len(g.YTicks) {
		j = len(g.YTicks) - 1
	}
	return i, j, true
}

// heatmapOverlay sits on top of the heatmap canvas: crosshair readout on
// hover, rubber-band zoom on primary drag, pan on secondary drag, profile
// window on double tap.
type heatmapOverlay struct {
	widget.BaseWidget
	state    *uiState
	mouse    fyne.Position
	hovering bool

	dragBtn   desktop.MouseButton
	dragStart fyne.Position
	dragCur   fyne.Position
	dragging  bool
}

func newHeatmapOverlay(state *uiState) *heatmapOverlay {
	o := &heatmapOverlay{state: state}
	o.ExtendBaseWidget(o)
	return o
}

// imageCell translates an overlay position into a cell of the displayed
// grid, accounting for contain-fit letterboxing.
func (o *heatmapOverlay) imageCell(pos fyne.Position) (int, int, bool) {
	st := o.state
	if st == nil || st.heatCanvas == nil || st.heatCanvas.Image == nil || st.viewGrid == nil {
		return 0, 0, false
	}
	b := st.heatCanvas.Image.Bounds()
	imgW, imgH := float32(b.Dx()), float32(b.Dy())
	size := o.Size()
	drawX, drawY, drawW, drawH, scale := computeContainRect(imgW, imgH, size.Width, size.Height)
	if pos.X < drawX || pos.X > drawX+drawW || pos.Y < drawY || pos.Y > drawY+drawH || scale <= 0 {
		return 0, 0, false
	}
	px := (pos.X - drawX) / scale
	py := (pos.Y - drawY) / scale
	return cellAt(st.viewGrid, px, py, imgW, imgH)
}

func (o *heatmapOverlay) readoutLines() []string {
	g := o.state.viewGrid
	i, j, ok := o.imageCell(o.mouse)
	if !ok {
		return nil
	}
	val := g.Cells[i][j]
	valueText := "no data"
	if !math.IsNaN(val) {
		valueText = uihelpers.FormatNumericTick(val)
	}
	return []string{
		fmt.Sprintf("%s = %s", g.XColumn, uihelpers.FormatNumericTick(g.XTicks[i])),
		fmt.Sprintf("%s = %s", g.YColumn, uihelpers.FormatNumericTick(g.YTicks[j])),
		fmt.Sprintf("%s = %s", g.ValueColumn, valueText),
	}
}

func (o *heatmapOverlay) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{})
	lineV := canvas.NewLine(color.RGBA{R: 200, G: 200, B: 200, A: 220})
	lineV.StrokeWidth = 1
	lineH := canvas.NewLine(color.RGBA{R: 200, G: 200, B: 200, A: 220})
	lineH.StrokeWidth = 1
	sel := canvas.NewRectangle(color.RGBA{R: 120, G: 170, B: 255, A: 60})
	sel.StrokeColor = color.RGBA{R: 120, G: 170, B: 255, A: 200}
	sel.StrokeWidth = 1
	label := widget.NewRichText()
	label.Wrapping = fyne.TextWrapOff
	labelBG := canvas.NewRectangle(color.RGBA{A: 170})
	objs := []fyne.CanvasObject{bg, lineV, lineH, sel, labelBG, label}
	return &overlayRenderer{o: o, bg: bg, lineV: lineV, lineH: lineH, sel: sel, labelBG: labelBG, label: label, objs: objs}
}

type overlayRenderer struct {
	o       *heatmapOverlay
	bg      *canvas.Rectangle
	lineV   *canvas.Line
	lineH   *canvas.Line
	sel     *canvas.Rectangle
	labelBG *canvas.Rectangle
	label   *widget.RichText
	objs    []fyne.CanvasObject
}

func (r *overlayRenderer) Destroy() {}

func hide(obj fyne.CanvasObject) { obj.Move(fyne.NewPos(-1000, -1000)) }

func (r *overlayRenderer) Layout(size fyne.Size) {
	if r.bg != nil {
		r.bg.Resize(size)
		r.bg.Move(fyne.NewPos(0, 0))
	}

	// selection rectangle while a primary drag is live
	if r.o.dragging && r.o.dragBtn == desktop.MouseButtonPrimary {
		x0, y0 := r.o.dragStart.X, r.o.dragStart.Y
		x1, y1 := r.o.dragCur.X, r.o.dragCur.Y
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		r.sel.Move(fyne.NewPos(x0, y0))
		r.sel.Resize(fyne.NewSize(x1-x0, y1-y0))
	} else {
		r.sel.Resize(fyne.NewSize(0, 0))
		hide(r.sel)
	}

	if !r.o.hovering || r.o.dragging {
		r.lineV.Position1 = fyne.NewPos(-10, -10)
		r.lineV.Position2 = fyne.NewPos(-10, -10)
		r.lineH.Position1 = fyne.NewPos(-10, -10)
		r.lineH.Position2 = fyne.NewPos(-10, -10)
		r.labelBG.Resize(fyne.NewSize(0, 0))
		hide(r.labelBG)
		hide(r.label)
		return
	}

	x, y := r.o.mouse.X, r.o.mouse.Y
	lines := r.o.readoutLines()
	if lines == nil {
		r.lineV.Position1 = fyne.NewPos(-10, -10)
		r.lineV.Position2 = fyne.NewPos(-10, -10)
		r.lineH.Position1 = fyne.NewPos(-10, -10)
		r.lineH.Position2 = fyne.NewPos(-10, -10)
		r.label.Segments = nil
		r.label.Refresh()
		r.labelBG.Resize(fyne.NewSize(0, 0))
		hide(r.labelBG)
		hide(r.label)
		return
	}
	r.lineV.Position1 = fyne.NewPos(x, 0)
	r.lineV.Position2 = fyne.NewPos(x, size.Height)
	r.lineH.Position1 = fyne.NewPos(0, y)
	r.lineH.Position2 = fyne.NewPos(size.Width, y)

	r.label.Segments = []widget.RichTextSegment{&widget.TextSegment{Text: strings.Join(lines, "\n")}}
	r.label.Refresh()
	pad := float32(6)
	ts := r.label.MinSize()
	bgW := ts.Width + 2*pad
	bgH := ts.Height + 2*pad
	tx, ty := x+10, y+10
	if tx+bgW > size.Width {
		tx = size.Width - bgW
	}
	if ty+bgH > size.Height {
		ty = size.Height - bgH
	}
	r.labelBG.Resize(fyne.NewSize(bgW, bgH))
	r.labelBG.Move(fyne.NewPos(tx, ty))
	r.label.Move(fyne.NewPos(tx+pad, ty+pad))
}

func (r *overlayRenderer) MinSize() fyne.Size           { return fyne.NewSize(10, 10) }
func (r *overlayRenderer) Objects() []fyne.CanvasObject { return r.objs }
func (r *overlayRenderer) Refresh() {
	r.Layout(r.o.Size())
	r.lineV.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.lineH.StrokeColor = theme.Color(theme.ColorNameDisabled)
	r.lineV.Refresh()
	r.lineH.Refresh()
	r.sel.Refresh()
	if r.labelBG != nil {
		r.labelBG.Refresh()
	}
	r.label.Refresh()
}

func (o *heatmapOverlay) MouseMoved(ev *desktop.MouseEvent) {
	o.hovering = true
	o.mouse = ev.Position
	o.Refresh()
}
func (o *heatmapOverlay) MouseIn(ev *desktop.MouseEvent) { o.hovering = true; o.Refresh() }
func (o *heatmapOverlay) MouseOut()                      { o.hovering = false; o.Refresh() }

// MouseDown records which button a following drag belongs to.
func (o *heatmapOverlay) MouseDown(ev *desktop.MouseEvent) { o.dragBtn = ev.Button }
func (o *heatmapOverlay) MouseUp(ev *desktop.MouseEvent)   {}

func (o *heatmapOverlay) Dragged(ev *fyne.DragEvent) {
	if !o.dragging {
		o.dragging = true
		o.dragStart = ev.Position
		if o.dragBtn == 0 {
			o.dragBtn = desktop.MouseButtonPrimary
		}
	}
	o.dragCur = ev.Position
	if o.dragBtn == desktop.MouseButtonSecondary {
		size := o.Size()
		if size.Width > 0 && size.Height > 0 {
			o.state.panByFraction(-float64(ev.Dragged.DX/size.Width), float64(ev.Dragged.DY/size.Height))
		}
	}
	o.Refresh()
}

func (o *heatmapOverlay) DragEnd() {
	wasZoom := o.dragBtn == desktop.MouseButtonPrimary
	start, end := o.dragStart, o.dragCur
	o.dragging = false
	o.dragBtn = 0
	o.Refresh()
	if !wasZoom {
		return
	}
	i0, j0, ok0 := o.imageCell(start)
	i1, j1, ok1 := o.imageCell(end)
	if !ok0 || !ok1 || (i0 == i1 && j0 == j1) {
		return
	}
	g := o.state.viewGrid
	if i1 < i0 {
		i0, i1 = i1, i0
	}
	if j1 < j0 {
		j0, j1 = j1, j0
	}
	o.state.applyWindow(g.XTicks[i0], g.XTicks[i1], g.YTicks[j0], g.YTicks[j1])
}

func (o *heatmapOverlay) DoubleTapped(ev *fyne.PointEvent) {
	if i, j, ok := o.imageCell(ev.Position); ok {
		o.state.openProfiles(i, j)
	}
}

var (
	_ desktop.Hoverable   = (*heatmapOverlay)(nil)
	_ desktop.Mouseable   = (*heatmapOverlay)(nil)
	_ fyne.Draggable      = (*heatmapOverlay)(nil)
	_ fyne.DoubleTappable = (*heatmapOverlay)(nil)
)
