// Command cmcviewer is the interactive desktop viewer for multi-dimensional
// electrical sweep data: pick two sweep columns as axes, pin the rest with
// filters, and explore the response column as a color map.
//
// Design notes:
//   - All view state lives in uiState; widgets are created with nil
//     callbacks and wired after the canvases exist, so preference loading
//     cannot fire half-built handlers.
//   - Heatmaps and profiles are rendered off-screen to image.Image and shown
//     through canvas.Image, with a custom overlay widget on top for the
//     crosshair readout, rubber-band zoom, pan and profile taps.
//   - File loading runs in a goroutine; every UI mutation from background
//     work goes through fyne.Do.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	png "image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	fyne "fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/joho/godotenv"

	"github.com/futafi/ColorMapChan/cmd/cmcviewer/uihelpers"
	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
	"github.com/futafi/ColorMapChan/src/loader"
	"github.com/futafi/ColorMapChan/src/render"
	"github.com/futafi/ColorMapChan/src/report"
)

// uniqueDropdownLimit caps how many distinct values a column may have before
// the filter value dropdown falls back to a plain entry.
const uniqueDropdownLimit = 60

type uiState struct {
	app      fyne.App
	window   fyne.Window
	filePath string

	frame    *dataset.Frame
	proc     *grid.Processor
	filters  *dataset.FilterSet
	baseGrid *grid.Grid
	viewGrid *grid.Grid

	// axis columns currently selected, kept for reverting a bad change
	xCol, yCol, vCol string

	// view modes
	colormap  string
	logScale  bool
	aggregate grid.Aggregate
	showHints bool

	// zoom window over the base grid, in data coordinates
	windowed                           bool
	winXMin, winXMax, winYMin, winYMax float64

	// widgets
	heatCanvas  *canvas.Image
	overlay     *heatmapOverlay
	statusLabel *widget.Label
	fileLabel   *widget.Label
	progress    *widget.Label

	xSelect, ySelect, vSelect *widget.Select
	colormapSelect, aggSelect *widget.Select

	filterColumn *widget.Select
	filterValue  *widget.SelectEntry
	filterMin    *widget.Entry
	filterMax    *widget.Entry
	filterRows   *fyne.Container

	profileWin  fyne.Window
	profXCanvas *canvas.Image
	profYCanvas *canvas.Image
	lastProfile image.Image

	loading bool
}

// dark theme wrapper
type darkTheme struct{}

func (d *darkTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	return theme.DefaultTheme().Color(name, theme.VariantDark)
}
func (d *darkTheme) Font(style fyne.TextStyle) fyne.Resource { return theme.DefaultTheme().Font(style) }
func (d *darkTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}
func (d *darkTheme) Size(name fyne.ThemeSizeName) float32 { return theme.DefaultTheme().Size(name) }

func main() {
	_ = godotenv.Load()
	envLog := os.Getenv("CMC_LOGLEVEL")
	envMap := os.Getenv("CMC_COLORMAP")
	if envChunk, err := strconv.Atoi(os.Getenv("CMC_CHUNK_SIZE")); err == nil && envChunk > 0 {
		dataset.SetChunkSize(envChunk)
	}
	if envLog == "" {
		envLog = "info"
	}
	if envMap == "" {
		envMap = render.DefaultColormap
	}

	var fileFlag, screenshotsDir, loglevel string
	flag.StringVar(&fileFlag, "file", "", "measurement file to open at startup")
	flag.StringVar(&screenshotsDir, "screenshots", "", "render the documentation screenshot set into this directory and exit")
	flag.StringVar(&loglevel, "loglevel", envLog, "log level: debug, info, warn, error")
	flag.Parse()
	dataset.SetLogLevel(loglevel)

	if screenshotsDir != "" {
		if err := RunScreenshotsMode(screenshotsDir); err != nil {
			fmt.Fprintln(os.Stderr, "screenshots:", err)
			os.Exit(1)
		}
		return
	}

	a := app.NewWithID("com.futafi.colormapchan")
	a.Settings().SetTheme(&darkTheme{})
	w := a.NewWindow("ColorMapChan")
	winW := a.Preferences().IntWithFallback("winW", 1200)
	winH := a.Preferences().IntWithFallback("winH", 800)
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	state := &uiState{
		app:       a,
		window:    w,
		filePath:  fileFlag,
		proc:      grid.NewProcessor(),
		filters:   dataset.NewFilterSet(),
		colormap:  envMap,
		aggregate: grid.AggMean,
	}
	// load simple view prefs before widgets exist so initial selections match
	state.colormap = a.Preferences().StringWithFallback("colormap", state.colormap)
	if _, err := render.Colormap(state.colormap); err != nil {
		state.colormap = render.DefaultColormap
	}
	state.logScale = a.Preferences().BoolWithFallback("logScale", false)
	state.showHints = a.Preferences().BoolWithFallback("showHints", true)
	if agg, err := grid.ParseAggregate(a.Preferences().StringWithFallback("aggregate", string(state.aggregate))); err == nil {
		state.aggregate = agg
	}
	state.proc.SetAggregate(state.aggregate)
	if state.filePath == "" {
		state.filePath = a.Preferences().StringWithFallback("lastFile", "")
	}

	// labels
	state.fileLabel = widget.NewLabel(truncatePath(state.filePath, 60))
	state.statusLabel = widget.NewLabel("no data loaded")
	state.progress = widget.NewLabel("")

	// axis selects, callbacks wired after the canvas exists
	state.xSelect = widget.NewSelect([]string{}, nil)
	state.ySelect = widget.NewSelect([]string{}, nil)
	state.vSelect = widget.NewSelect([]string{}, nil)

	state.colormapSelect = widget.NewSelect(render.Colormaps(), nil)
	state.colormapSelect.Selected = state.colormap
	state.aggSelect = widget.NewSelect(grid.Aggregates(), nil)
	state.aggSelect.Selected = string(state.aggregate)

	logChk := widget.NewCheck("Log scale", nil)
	logChk.SetChecked(state.logScale)
	hintsChk := widget.NewCheck("Hints", nil)
	hintsChk.SetChecked(state.showHints)

	swapBtn := widget.NewButton("Swap axes", nil)
	resetBtn := widget.NewButton("Reset view", nil)

	// heatmap canvas and overlay
	state.heatCanvas = canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 100, 60)))
	state.heatCanvas.FillMode = canvas.ImageFillContain
	state.heatCanvas.SetMinSize(fyne.NewSize(640, 420))
	state.overlay = newHeatmapOverlay(state)

	// layout
	topBar := container.NewVBox(
		container.NewHBox(
			widget.NewButton("Open…", func() { openFileDialog(state) }),
			widget.NewLabel("File:"), state.fileLabel,
			state.progress,
		),
		container.NewHBox(
			widget.NewLabel("X:"), state.xSelect,
			widget.NewLabel("Y:"), state.ySelect,
			widget.NewLabel("Value:"), state.vSelect,
			swapBtn, resetBtn,
		),
		container.NewHBox(
			widget.NewLabel("Colormap:"), state.colormapSelect,
			widget.NewLabel("Aggregate:"), state.aggSelect,
			logChk, hintsChk,
		),
	)
	content := container.NewBorder(
		topBar,
		state.statusLabel,
		buildFilterPanel(state),
		nil,
		container.NewStack(state.heatCanvas, state.overlay),
	)
	w.SetContent(content)

	// redraw on window resize so the heatmap uses the available space
	if w.Canvas() != nil {
		prevW := int(w.Canvas().Size().Width)
		prevH := int(w.Canvas().Size().Height)
		done := make(chan struct{})
		w.SetOnClosed(func() {
			savePrefs(state)
			close(done)
		})
		go func() {
			t := time.NewTicker(300 * time.Millisecond)
			defer t.Stop()
			for {
				select {
				case <-done:
					return
				case <-t.C:
					c := w.Canvas()
					if c == nil {
						continue
					}
					sz := c.Size()
					curW, curH := int(sz.Width), int(sz.Height)
					if curW != prevW || curH != prevH {
						prevW, prevH = curW, curH
						fyne.Do(func() { redraw(state) })
					}
				}
			}
		}()
	}

	// wire the callbacks now that canvases exist
	state.xSelect.OnChanged = func(v string) { setAxis(state, &state.xCol, v, state.xSelect) }
	state.ySelect.OnChanged = func(v string) { setAxis(state, &state.yCol, v, state.ySelect) }
	state.vSelect.OnChanged = func(v string) { setAxis(state, &state.vCol, v, state.vSelect) }
	state.colormapSelect.OnChanged = func(v string) {
		state.colormap = v
		savePrefs(state)
		redraw(state)
	}
	state.aggSelect.OnChanged = func(v string) {
		agg, err := grid.ParseAggregate(v)
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		state.aggregate = agg
		state.proc.SetAggregate(agg)
		savePrefs(state)
		rebuildGrid(state, true)
	}
	logChk.OnChanged = func(b bool) { state.logScale = b; savePrefs(state); redraw(state) }
	hintsChk.OnChanged = func(b bool) { state.showHints = b; savePrefs(state); redraw(state) }
	swapBtn.OnTapped = func() { swapAxes(state) }
	resetBtn.OnTapped = func() { state.resetView() }

	// arrow keys pan by 10%, Esc resets the view
	if w.Canvas() != nil {
		w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
			switch ev.Name {
			case fyne.KeyLeft:
				state.panByFraction(-0.1, 0)
			case fyne.KeyRight:
				state.panByFraction(0.1, 0)
			case fyne.KeyUp:
				state.panByFraction(0, 0.1)
			case fyne.KeyDown:
				state.panByFraction(0, -0.1)
			case fyne.KeyEscape:
				state.resetView()
			}
		})
	}

	buildMenus(state)
	if state.filePath != "" {
		loadFile(state)
	}

	w.ShowAndRun()
}

// menus and dialogs
func buildMenus(state *uiState) {
	if state == nil || state.window == nil || state.app == nil {
		return
	}
	var items []*fyne.MenuItem
	for _, f := range recentFiles(state) {
		f := f
		items = append(items, fyne.NewMenuItem(truncatePath(f, 60), func() {
			state.filePath = f
			state.fileLabel.SetText(truncatePath(f, 60))
			savePrefs(state)
			loadFile(state)
		}))
	}
	clearRecent := fyne.NewMenuItem("Clear Recent", func() { clearRecentFiles(state); buildMenus(state) })
	recentMenu := fyne.NewMenu("Open Recent", append(items, clearRecent)...)
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open…", func() { openFileDialog(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Region as CSV…", func() { exportRegionCSV(state) }),
		fyne.NewMenuItem("Export Heatmap as PNG…", func() { exportHeatmapPNG(state) }),
		fyne.NewMenuItem("Export PDF Report…", func() { exportPDFReport(state) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { state.window.Close() }),
	)
	state.window.SetMainMenu(fyne.NewMainMenu(fileMenu, recentMenu))

	canv := state.window.Canvas()
	if canv != nil {
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { openFileDialog(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { openFileDialog(state) })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierSuper}, func(fyne.Shortcut) { state.window.Close() })
		canv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyW, Modifier: fyne.KeyModifierControl}, func(fyne.Shortcut) { state.window.Close() })
	}
}

func openFileDialog(state *uiState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		state.filePath = rc.URI().Path()
		state.fileLabel.SetText(truncatePath(state.filePath, 60))
		state.app.Preferences().SetString("lastDir", filepath.Dir(state.filePath))
		addRecentFile(state, state.filePath)
		savePrefs(state)
		buildMenus(state)
		loadFile(state)
	}, state.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt"}))
	if dir := state.app.Preferences().StringWithFallback("lastDir", ""); dir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			d.SetLocation(lister)
		}
	}
	d.Show()
}

// loadFile parses the current file in the background and installs the frame
// on the UI goroutine when done.
func loadFile(state *uiState) {
	if state.filePath == "" || state.loading {
		return
	}
	state.loading = true
	state.progress.SetText("loading…")
	path := state.filePath
	go func() {
		frame, err := loader.Open(context.Background(), path, loader.Options{
			Progress: func(rows int) {
				fyne.Do(func() { state.progress.SetText(fmt.Sprintf("loading… %d rows", rows)) })
			},
		})
		fyne.Do(func() {
			state.loading = false
			state.progress.SetText("")
			if err != nil {
				dialog.ShowError(err, state.window)
				state.statusLabel.SetText("load failed")
				return
			}
			applyFrame(state, frame)
		})
	}()
}

// applyFrame swaps in a freshly loaded frame: filters and the zoom window
// are dropped since columns may have changed, axes default to the first two
// sweep columns against the last column.
func applyFrame(state *uiState, frame *dataset.Frame) {
	state.frame = frame
	state.proc.SetFrame(frame)
	state.filters = dataset.NewFilterSet()
	state.proc.SetFilters(state.filters)
	state.windowed = false
	state.baseGrid = nil
	state.viewGrid = nil

	cols := frame.Columns()
	state.xCol, state.yCol, state.vCol = "", "", ""
	if len(cols) >= 2 {
		state.xCol = cols[0]
		state.yCol = cols[1]
		state.vCol = cols[len(cols)-1]
	}
	state.xSelect.Options = cols
	state.ySelect.Options = cols
	state.vSelect.Options = cols
	state.xSelect.Selected = state.xCol
	state.ySelect.Selected = state.yCol
	state.vSelect.Selected = state.vCol
	state.xSelect.Refresh()
	state.ySelect.Refresh()
	state.vSelect.Refresh()

	state.filterColumn.Options = cols
	state.filterColumn.Selected = ""
	state.filterColumn.Refresh()
	state.filterValue.SetOptions(nil)
	refreshFilterRows(state)

	if state.xCol == "" || state.vCol == "" {
		dialog.ShowInformation("Open", "File needs at least two numeric columns.", state.window)
		return
	}
	if err := state.proc.SetAxes(state.xCol, state.yCol, state.vCol); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	rebuildGrid(state, true)
}

// setAxis handles a change of one of the three axis selects, reverting the
// widget when the processor refuses the combination.
func setAxis(state *uiState, field *string, v string, sel *widget.Select) {
	if state.frame == nil || v == *field {
		return
	}
	prev := *field
	*field = v
	if err := state.proc.SetAxes(state.xCol, state.yCol, state.vCol); err != nil {
		*field = prev
		sel.Selected = prev
		sel.Refresh()
		dialog.ShowError(err, state.window)
		return
	}
	rebuildGrid(state, true)
}

func swapAxes(state *uiState) {
	if state.frame == nil {
		return
	}
	state.proc.SwapAxes()
	state.xCol, state.yCol = state.yCol, state.xCol
	state.xSelect.Selected = state.xCol
	state.ySelect.Selected = state.yCol
	state.xSelect.Refresh()
	state.ySelect.Refresh()
	rebuildGrid(state, true)
}

// rebuildGrid asks the processor for the grid under the current axes,
// filters and aggregate. resetWindow drops the zoom, which any change of
// the underlying grid shape requires.
func rebuildGrid(state *uiState, resetWindow bool) {
	if state.frame == nil {
		return
	}
	g, err := state.proc.BuildGrid()
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.baseGrid = g
	if resetWindow {
		state.windowed = false
	}
	redraw(state)
}

// redraw renders the heatmap for the current view settings. It never
// rebuilds the grid.
func redraw(state *uiState) {
	g := state.baseGrid
	if g == nil {
		state.statusLabel.SetText("no data loaded")
		return
	}
	view := g
	if state.windowed {
		if wg := render.Windowed(g, state.winXMin, state.winXMax, state.winYMin, state.winYMax); wg != nil {
			view = wg
		} else {
			state.windowed = false
		}
	}
	state.viewGrid = view

	var w, h int
	if c := state.window.Canvas(); c != nil {
		w, h = uihelpers.ComputeHeatmapSize(c.Size().Width, c.Size().Height)
	} else {
		w, h = 900, 560
	}
	img := render.Heatmap(g, render.Options{
		Colormap: state.colormap,
		LogScale: state.logScale,
		Width:    w,
		Height:   h,
		Windowed: state.windowed,
		XMin:     state.winXMin,
		XMax:     state.winXMax,
		YMin:     state.winYMin,
		YMax:     state.winYMax,
	})
	if state.showHints {
		img = render.DrawHint(img, hintText(state))
	}
	state.heatCanvas.Image = img
	state.heatCanvas.SetMinSize(fyne.NewSize(float32(w)*0.6, float32(h)*0.6))
	state.heatCanvas.Refresh()
	state.overlay.Refresh()
	state.statusLabel.SetText(statusLine(state.filePath, state.frame.Format(), view))
}

func hintText(state *uiState) string {
	if state.filters != nil && !state.filters.Empty() {
		return "filters: " + state.filters.Summary()
	}
	return "drag to zoom, right-drag to pan, double-tap for profiles"
}

// statusLine builds the bottom bar text:
// path • format • 12,345/70,000 rows (17.6%) • ID∈[min, max].
func statusLine(path string, format dataset.Format, g *grid.Grid) string {
	if g == nil {
		return "no data loaded"
	}
	parts := []string{truncatePath(path, 40), string(format), g.Summary()}
	if lo, hi, err := g.ValueRange(); err == nil {
		parts = append(parts, fmt.Sprintf("%s∈[%s, %s]",
			g.ValueColumn, uihelpers.FormatNumericTick(lo), uihelpers.FormatNumericTick(hi)))
	}
	return strings.Join(parts, " • ")
}

// view window operations, called from the overlay and key handlers

func (s *uiState) applyWindow(xmin, xmax, ymin, ymax float64) {
	if xmax < xmin {
		xmin, xmax = xmax, xmin
	}
	if ymax < ymin {
		ymin, ymax = ymax, ymin
	}
	s.windowed = true
	s.winXMin, s.winXMax, s.winYMin, s.winYMax = xmin, xmax, ymin, ymax
	redraw(s)
}

func (s *uiState) resetView() {
	if !s.windowed {
		return
	}
	s.windowed = false
	redraw(s)
}

// currentWindow returns the active window bounds, falling back to the full
// tick extents when no zoom is applied.
func (s *uiState) currentWindow() (xmin, xmax, ymin, ymax float64) {
	g := s.baseGrid
	if s.windowed {
		return s.winXMin, s.winXMax, s.winYMin, s.winYMax
	}
	return g.XTicks[0], g.XTicks[len(g.XTicks)-1], g.YTicks[0], g.YTicks[len(g.YTicks)-1]
}

// panByFraction shifts the window by the given fractions of its span,
// clamped so it never leaves the full grid extent.
func (s *uiState) panByFraction(fx, fy float64) {
	g := s.baseGrid
	if g == nil || len(g.XTicks) == 0 || len(g.YTicks) == 0 {
		return
	}
	xmin, xmax, ymin, ymax := s.currentWindow()
	dx := (xmax - xmin) * fx
	dy := (ymax - ymin) * fy
	fullXMin, fullXMax := g.XTicks[0], g.XTicks[len(g.XTicks)-1]
	fullYMin, fullYMax := g.YTicks[0], g.YTicks[len(g.YTicks)-1]
	if dx > 0 && xmax+dx > fullXMax {
		dx = fullXMax - xmax
	}
	if dx < 0 && xmin+dx < fullXMin {
		dx = fullXMin - xmin
	}
	if dy > 0 && ymax+dy > fullYMax {
		dy = fullYMax - ymax
	}
	if dy < 0 && ymin+dy < fullYMin {
		dy = fullYMin - ymin
	}
	if dx == 0 && dy == 0 {
		return
	}
	s.applyWindow(xmin+dx, xmax+dx, ymin+dy, ymax+dy)
}

// openProfiles shows (or updates) the profile window with the X and Y
// cross-sections through the given cell of the displayed grid.
func (s *uiState) openProfiles(i, j int) {
	g := s.viewGrid
	if g == nil || i < 0 || i >= len(g.XTicks) || j < 0 || j >= len(g.YTicks) {
		return
	}
	x, y := g.XTicks[i], g.YTicks[j]
	px, err := g.ProfileAlongX(y)
	if err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	py, err := g.ProfileAlongY(x)
	if err != nil {
		dialog.ShowError(err, s.window)
		return
	}
	popts := render.ProfileOptions{Width: 800, Height: 300, LogScale: s.logScale}
	imgX := render.Profile(px, popts)
	imgY := render.Profile(py, popts)
	s.lastProfile = imgX

	title := fmt.Sprintf("Profiles at %s=%s, %s=%s",
		g.XColumn, uihelpers.FormatNumericTick(x), g.YColumn, uihelpers.FormatNumericTick(y))
	if s.profileWin == nil {
		s.profXCanvas = canvas.NewImageFromImage(imgX)
		s.profXCanvas.FillMode = canvas.ImageFillContain
		s.profXCanvas.SetMinSize(fyne.NewSize(800, 300))
		s.profYCanvas = canvas.NewImageFromImage(imgY)
		s.profYCanvas.FillMode = canvas.ImageFillContain
		s.profYCanvas.SetMinSize(fyne.NewSize(800, 300))
		s.profileWin = s.app.NewWindow(title)
		s.profileWin.SetContent(container.NewVBox(s.profXCanvas, widget.NewSeparator(), s.profYCanvas))
		s.profileWin.SetOnClosed(func() {
			s.profileWin = nil
			s.profXCanvas = nil
			s.profYCanvas = nil
		})
		s.profileWin.Show()
		return
	}
	s.profileWin.SetTitle(title)
	s.profXCanvas.Image = imgX
	s.profXCanvas.Refresh()
	s.profYCanvas.Image = imgY
	s.profYCanvas.Refresh()
	s.profileWin.RequestFocus()
}

// filter panel

func buildFilterPanel(state *uiState) fyne.CanvasObject {
	state.filterColumn = widget.NewSelect([]string{}, func(col string) {
		// offer the distinct values as a dropdown when the column is small
		if state.frame == nil || col == "" {
			return
		}
		uniques, err := state.frame.UniqueValues(col, uniqueDropdownLimit)
		if err != nil {
			state.filterValue.SetOptions(nil)
			return
		}
		opts := make([]string, len(uniques))
		for i, v := range uniques {
			opts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		state.filterValue.SetOptions(opts)
	})
	state.filterColumn.PlaceHolder = "column"
	state.filterValue = widget.NewSelectEntry(nil)
	state.filterValue.SetPlaceHolder("value")
	state.filterMin = widget.NewEntry()
	state.filterMin.SetPlaceHolder("min")
	state.filterMax = widget.NewEntry()
	state.filterMax.SetPlaceHolder("max")
	state.filterRows = container.NewVBox()

	addValue := widget.NewButton("Add", func() { addValueFilter(state) })
	addRange := widget.NewButton("Add range", func() { addRangeFilter(state) })

	panel := container.NewVBox(
		widget.NewLabelWithStyle("Filters", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		state.filterColumn,
		container.NewBorder(nil, nil, nil, addValue, state.filterValue),
		container.NewBorder(nil, nil, nil, addRange, container.NewGridWithColumns(2, state.filterMin, state.filterMax)),
		widget.NewSeparator(),
		state.filterRows,
	)
	scroll := container.NewVScroll(panel)
	scroll.SetMinSize(fyne.NewSize(240, 300))
	return scroll
}

func parseEntryFloat(label, raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not numeric", label, raw)
	}
	return v, nil
}

func addValueFilter(state *uiState) {
	if state.frame == nil {
		return
	}
	col := state.filterColumn.Selected
	if col == "" {
		dialog.ShowInformation("Filter", "Pick a column first.", state.window)
		return
	}
	v, err := parseEntryFloat("value", state.filterValue.Text)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	applyFilter(state, func(fs *dataset.FilterSet) error {
		return fs.AddValue(dataset.ValueFilter{Column: col, Value: v})
	})
}

func addRangeFilter(state *uiState) {
	if state.frame == nil {
		return
	}
	col := state.filterColumn.Selected
	if col == "" {
		dialog.ShowInformation("Filter", "Pick a column first.", state.window)
		return
	}
	lo, err := parseEntryFloat("min", state.filterMin.Text)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	hi, err := parseEntryFloat("max", state.filterMax.Text)
	if err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	applyFilter(state, func(fs *dataset.FilterSet) error {
		return fs.AddRange(dataset.RangeFilter{Column: col, Min: lo, Max: hi})
	})
}

// applyFilter tries a mutation of the filter set against the processor and
// keeps it only when the grid still builds; axis conflicts and empty
// selections surface as dialogs and revert.
func applyFilter(state *uiState, mutate func(*dataset.FilterSet) error) {
	trial := state.filters.Clone()
	if err := mutate(trial); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	state.proc.SetFilters(trial)
	g, err := state.proc.BuildGrid()
	if err != nil {
		state.proc.SetFilters(state.filters)
		dialog.ShowError(err, state.window)
		return
	}
	state.filters = trial
	state.baseGrid = g
	state.windowed = false
	refreshFilterRows(state)
	redraw(state)
}

func removeFilterAt(state *uiState, i int) {
	applyFilter(state, func(fs *dataset.FilterSet) error { return fs.RemoveAt(i) })
}

func refreshFilterRows(state *uiState) {
	state.filterRows.Objects = nil
	for i, desc := range state.filters.Describe() {
		i := i
		row := container.NewBorder(nil, nil, nil,
			widget.NewButton("✕", func() { removeFilterAt(state, i) }),
			widget.NewLabel(desc),
		)
		state.filterRows.Add(row)
	}
	state.filterRows.Refresh()
}

// exports

// savePathDialog shows a file-save dialog and hands the chosen path to fn.
// The dialog's writer is only used to reserve the name; the exporters in
// src/report write by path.
func savePathDialog(state *uiState, defaultName string, fn func(path string)) {
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		path := wc.URI().Path()
		wc.Close()
		fn(path)
	}, state.window)
	fs.SetFileName(defaultName)
	fs.Show()
}

func exportRegionCSV(state *uiState) {
	if state.frame == nil {
		dialog.ShowInformation("Export", "No data to export.", state.window)
		return
	}
	var region *report.Region
	if state.windowed && state.baseGrid != nil {
		region = &report.Region{
			XColumn: state.baseGrid.XColumn, YColumn: state.baseGrid.YColumn,
			XMin: state.winXMin, XMax: state.winXMax,
			YMin: state.winYMin, YMax: state.winYMax,
		}
	}
	savePathDialog(state, "region.csv", func(path string) {
		n, err := report.ExportRegionCSV(state.frame, state.filters, region, path)
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		dialog.ShowInformation("Export", fmt.Sprintf("Wrote %d rows to %s.", n, filepath.Base(path)), state.window)
	})
}

func exportHeatmapPNG(state *uiState) {
	if state.heatCanvas == nil || state.heatCanvas.Image == nil || state.baseGrid == nil {
		dialog.ShowInformation("Export", "No heatmap to export.", state.window)
		return
	}
	img := state.heatCanvas.Image
	fs := dialog.NewFileSave(func(wc fyne.URIWriteCloser, err error) {
		if err != nil || wc == nil {
			return
		}
		defer wc.Close()
		_ = png.Encode(wc, img)
	}, state.window)
	fs.SetFileName("heatmap.png")
	fs.Show()
}

func exportPDFReport(state *uiState) {
	if state.frame == nil || state.baseGrid == nil || state.heatCanvas == nil || state.heatCanvas.Image == nil {
		dialog.ShowInformation("Export", "No heatmap to report.", state.window)
		return
	}
	g := state.viewGrid
	if g == nil {
		g = state.baseGrid
	}
	vmin, vmax, _ := g.ValueRange()
	rep := report.Report{
		SourcePath:    state.filePath,
		Format:        string(state.frame.Format()),
		TotalRows:     g.TotalRows,
		FilteredRows:  g.FilteredRows,
		FilterSummary: state.filters.Summary(),
		XColumn:       g.XColumn,
		YColumn:       g.YColumn,
		ValueColumn:   g.ValueColumn,
		Aggregate:     string(g.Mode),
		ValueMin:      vmin,
		ValueMax:      vmax,
		Heatmap:       state.heatCanvas.Image,
		Profile:       state.lastProfile,
	}
	savePathDialog(state, "report.pdf", func(path string) {
		if err := report.WriteReportPDF(path, rep); err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		dialog.ShowInformation("Export", "Wrote "+filepath.Base(path)+".", state.window)
	})
}

// recent files helpers
func recentFiles(state *uiState) []string {
	prefs := state.app.Preferences()
	raw := prefs.StringWithFallback("recentFiles", "")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "\n")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func addRecentFile(state *uiState, path string) {
	prefs := state.app.Preferences()
	list := recentFiles(state)
	filtered := []string{path}
	for _, f := range list {
		if f != path && len(filtered) < 10 {
			filtered = append(filtered, f)
		}
	}
	prefs.SetString("recentFiles", strings.Join(filtered, "\n"))
}

func clearRecentFiles(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	state.app.Preferences().SetString("recentFiles", "")
}

// prefs
func savePrefs(state *uiState) {
	if state == nil || state.app == nil {
		return
	}
	prefs := state.app.Preferences()
	prefs.SetString("lastFile", state.filePath)
	prefs.SetString("colormap", state.colormap)
	prefs.SetBool("logScale", state.logScale)
	prefs.SetString("aggregate", string(state.aggregate))
	prefs.SetBool("showHints", state.showHints)
	if state.window != nil && state.window.Canvas() != nil {
		sz := state.window.Canvas().Size()
		if sz.Width > 0 && sz.Height > 0 {
			prefs.SetInt("winW", int(sz.Width))
			prefs.SetInt("winH", int(sz.Height))
		}
	}
}

// utils
func truncatePath(p string, n int) string {
	if len(p) <= n {
		return p
	}
	base := filepath.Base(p)
	if len(base)+4 >= n {
		return "..." + base
	}
	dir := filepath.Dir(p)
	left := n - len(base) - 4
	if left <= 0 {
		return "..." + base
	}
	if len(dir) > left {
		dir = dir[:left]
	}
	return dir + "/..." + base
}
