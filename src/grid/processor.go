package grid

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// Processor owns the axis selection, the active filters and the grid cache
// for one loaded frame. It is safe to drive from the UI goroutine while a
// background load swaps the frame.
type Processor struct {
	mu      sync.Mutex
	frame   *dataset.Frame
	filters *dataset.FilterSet
	xCol    string
	yCol    string
	vCol    string
	mode    Aggregate
	cache   *gridCache
}

func NewProcessor() *Processor {
	return &Processor{
		filters: dataset.NewFilterSet(),
		mode:    AggMean,
		cache:   newGridCache(),
	}
}

// SetFrame installs a newly loaded frame, drops the axis selection that no
// longer resolves, and empties the cache.
func (p *Processor) SetFrame(f *dataset.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frame = f
	if f != nil {
		if p.xCol != "" && !f.HasColumn(p.xCol) {
			p.xCol = ""
		}
		if p.yCol != "" && !f.HasColumn(p.yCol) {
			p.yCol = ""
		}
		if p.vCol != "" && !f.HasColumn(p.vCol) {
			p.vCol = ""
		}
	}
	p.cache.clear()
}

func (p *Processor) Frame() *dataset.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// SetAxes selects the two axis columns and the response column. X and Y must
// differ and all three must exist in the loaded frame.
func (p *Processor) SetAxes(x, y, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if x == "" || y == "" || value == "" {
		return fmt.Errorf("axes not set: choose X, Y and value columns")
	}
	if x == y {
		return fmt.Errorf("X and Y axes are both %q. choose two different sweep columns", x)
	}
	if p.frame != nil {
		for _, c := range []string{x, y, value} {
			if !p.frame.HasColumn(c) {
				return fmt.Errorf("column %q: %w. check the loaded file's columns", c, dataset.ErrNoSuchColumn)
			}
		}
	}
	p.xCol, p.yCol, p.vCol = x, y, value
	return nil
}

// Axes returns the current X, Y and value column names.
func (p *Processor) Axes() (string, string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.xCol, p.yCol, p.vCol
}

// SwapAxes exchanges the X and Y columns.
func (p *Processor) SwapAxes() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.xCol, p.yCol = p.yCol, p.xCol
}

func (p *Processor) SetAggregate(m Aggregate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.mode = m
}

func (p *Processor) Aggregate() Aggregate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

// SetFilters replaces the active filter set. nil installs an empty set.
func (p *Processor) SetFilters(s *dataset.FilterSet) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s == nil {
		s = dataset.NewFilterSet()
	}
	p.filters = s
}

// Filters returns the live filter set. Callers may mutate it; the next
// BuildGrid keys on the mutated state.
func (p *Processor) Filters() *dataset.FilterSet {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filters
}

// Invalidate empties the grid cache.
func (p *Processor) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.clear()
}

// CacheLen reports how many grids are memoized.
func (p *Processor) CacheLen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cache.len()
}

func (p *Processor) keyLocked() string {
	return fmt.Sprintf("v%d|x:%s|y:%s|val:%s|agg:%s|f:%s",
		p.frame.Version(), p.xCol, p.yCol, p.vCol, p.mode, p.filters.Key())
}

// BuildGrid aggregates the filtered rows into a grid, serving repeat calls
// with unchanged inputs from the cache. Filters on a current axis column are
// rejected before any aggregation work.
func (p *Processor) BuildGrid() (*Grid, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frame == nil {
		return nil, fmt.Errorf("no file loaded. open a measurement file first")
	}
	if p.xCol == "" || p.yCol == "" || p.vCol == "" {
		return nil, fmt.Errorf("axes not set: choose X, Y and value columns")
	}
	if p.xCol == p.yCol {
		return nil, fmt.Errorf("X and Y axes are both %q. choose two different sweep columns", p.xCol)
	}
	for _, c := range []string{p.xCol, p.yCol, p.vCol} {
		if !p.frame.HasColumn(c) {
			return nil, fmt.Errorf("column %q: %w. check the loaded file's columns", c, dataset.ErrNoSuchColumn)
		}
	}
	for _, c := range p.filters.Columns() {
		if c == p.xCol || c == p.yCol {
			return nil, fmt.Errorf("filter on %q conflicts with the current display axes. remove the filter or choose different axes", c)
		}
	}

	key := p.keyLocked()
	if g := p.cache.get(key); g != nil {
		dataset.Debugf("grid cache hit: %s", key)
		return g, nil
	}
	defer dataset.TimeTrack(time.Now(), "grid build")

	idx, err := p.filters.Apply(p.frame)
	if err != nil {
		return nil, err
	}
	if len(idx) == 0 {
		return nil, fmt.Errorf("no rows match the current filters (0/%d). relax or clear filters",
			p.frame.NumRows())
	}

	xcol, err := p.frame.Column(p.xCol)
	if err != nil {
		return nil, err
	}
	ycol, err := p.frame.Column(p.yCol)
	if err != nil {
		return nil, err
	}
	vcol, err := p.frame.Column(p.vCol)
	if err != nil {
		return nil, err
	}

	// Ticks are the sorted unique axis values among surviving rows. Rows
	// with NaN in either axis cell cannot be placed and are skipped.
	xSeen := map[float64]struct{}{}
	ySeen := map[float64]struct{}{}
	for _, r := range idx {
		if math.IsNaN(xcol[r]) || math.IsNaN(ycol[r]) {
			continue
		}
		xSeen[xcol[r]] = struct{}{}
		ySeen[ycol[r]] = struct{}{}
	}
	if len(xSeen) == 0 || len(ySeen) == 0 {
		return nil, fmt.Errorf("no usable axis values in %q/%q after filtering. check the axis columns", p.xCol, p.yCol)
	}
	xTicks := sortedKeys(xSeen)
	yTicks := sortedKeys(ySeen)
	xIndex := indexOf(xTicks)
	yIndex := indexOf(yTicks)

	nx, ny := len(xTicks), len(yTicks)
	sums := make([][]float64, nx)
	mins := make([][]float64, nx)
	maxs := make([][]float64, nx)
	counts := make([][]int, nx)
	for i := 0; i < nx; i++ {
		sums[i] = make([]float64, ny)
		mins[i] = make([]float64, ny)
		maxs[i] = make([]float64, ny)
		counts[i] = make([]int, ny)
	}

	for _, r := range idx {
		xv, yv, vv := xcol[r], ycol[r], vcol[r]
		if math.IsNaN(xv) || math.IsNaN(yv) || math.IsNaN(vv) {
			continue
		}
		i, j := xIndex[xv], yIndex[yv]
		if counts[i][j] == 0 {
			mins[i][j], maxs[i][j] = vv, vv
		} else {
			if vv < mins[i][j] {
				mins[i][j] = vv
			}
			if vv > maxs[i][j] {
				maxs[i][j] = vv
			}
		}
		sums[i][j] += vv
		counts[i][j]++
	}

	cells := make([][]float64, nx)
	for i := 0; i < nx; i++ {
		cells[i] = make([]float64, ny)
		for j := 0; j < ny; j++ {
			n := counts[i][j]
			if n == 0 {
				cells[i][j] = math.NaN()
				continue
			}
			switch p.mode {
			case AggMin:
				cells[i][j] = mins[i][j]
			case AggMax:
				cells[i][j] = maxs[i][j]
			case AggCount:
				cells[i][j] = float64(n)
			default:
				cells[i][j] = sums[i][j] / float64(n)
			}
		}
	}

	g := &Grid{
		XColumn:      p.xCol,
		YColumn:      p.yCol,
		ValueColumn:  p.vCol,
		Mode:         p.mode,
		XTicks:       xTicks,
		YTicks:       yTicks,
		Cells:        cells,
		FilteredRows: len(idx),
		TotalRows:    p.frame.NumRows(),
		Key:          key,
	}
	p.cache.put(key, g)
	dataset.Debugf("grid built: %dx%d cells, %s", nx, ny, g.Summary())
	return g, nil
}

func sortedKeys(m map[float64]struct{}) []float64 {
	out := make([]float64, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func indexOf(ticks []float64) map[float64]int {
	m := make(map[float64]int, len(ticks))
	for i, v := range ticks {
		m[v] = i
	}
	return m
}

// gridCache memoizes built grids by composite key. Guarded by Processor.mu.
type gridCache struct {
	entries map[string]*Grid
}

func newGridCache() *gridCache { return &gridCache{entries: map[string]*Grid{}} }

func (c *gridCache) get(key string) *Grid { return c.entries[key] }

func (c *gridCache) put(key string, g *Grid) { c.entries[key] = g }

func (c *gridCache) clear() { c.entries = map[string]*Grid{} }

func (c *gridCache) len() int { return len(c.entries) }
