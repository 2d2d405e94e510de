package grid

import (
	"fmt"
	"math"
	"strings"
)

// Aggregate selects how multiple rows landing in one grid cell combine.
type Aggregate string

const (
	AggMean  Aggregate = "mean"
	AggMin   Aggregate = "min"
	AggMax   Aggregate = "max"
	AggCount Aggregate = "count"
)

// Aggregates lists the selectable modes in display order.
func Aggregates() []string {
	return []string{string(AggMean), string(AggMin), string(AggMax), string(AggCount)}
}

// ParseAggregate maps a user-supplied name to an Aggregate.
func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean", "avg":
		return AggMean, nil
	case "min":
		return AggMin, nil
	case "max":
		return AggMax, nil
	case "count":
		return AggCount, nil
	}
	return "", fmt.Errorf("unknown aggregate %q: valid values are mean, min, max, count", s)
}

// Grid is a dense 2D aggregation of a response column over two axis columns.
// Cells[i][j] holds the aggregate for XTicks[i] × YTicks[j]; cells no row
// landed in are NaN.
type Grid struct {
	XColumn     string
	YColumn     string
	ValueColumn string
	Mode        Aggregate

	XTicks []float64
	YTicks []float64
	Cells  [][]float64

	FilteredRows int
	TotalRows    int
	Key          string
}

// ValueRange returns the finite min and max across cells.
func (g *Grid) ValueRange() (float64, float64, error) {
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
	for _, col := range g.Cells {
		for _, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
			n++
		}
	}
	if n == 0 {
		return 0, 0, fmt.Errorf("grid of %s has no finite cells", g.ValueColumn)
	}
	return lo, hi, nil
}

// PositiveMin returns the smallest cell value above zero, for log-scale
// clamping.
func (g *Grid) PositiveMin() (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, col := range g.Cells {
		for _, v := range col {
			if v > 0 && !math.IsInf(v, 0) && v < best {
				best = v
				found = true
			}
		}
	}
	return best, found
}

// Transposed returns a copy with the axes swapped: Cells'[j][i] = Cells[i][j].
func (g *Grid) Transposed() *Grid {
	t := &Grid{
		XColumn:      g.YColumn,
		YColumn:      g.XColumn,
		ValueColumn:  g.ValueColumn,
		Mode:         g.Mode,
		XTicks:       append([]float64(nil), g.YTicks...),
		YTicks:       append([]float64(nil), g.XTicks...),
		FilteredRows: g.FilteredRows,
		TotalRows:    g.TotalRows,
		Key:          g.Key + "|T",
	}
	t.Cells = make([][]float64, len(g.YTicks))
	for j := range t.Cells {
		t.Cells[j] = make([]float64, len(g.XTicks))
		for i := range g.XTicks {
			t.Cells[j][i] = g.Cells[i][j]
		}
	}
	return t
}

// Summary renders the status line fragment "12,345/70,000 rows (17.6%)".
func (g *Grid) Summary() string {
	pct := 0.0
	if g.TotalRows > 0 {
		pct = float64(g.FilteredRows) / float64(g.TotalRows) * 100
	}
	return fmt.Sprintf("%s/%s rows (%.1f%%)", groupThousands(g.FilteredRows), groupThousands(g.TotalRows), pct)
}

func groupThousands(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// Profile is a 1D cross-section of a grid at a fixed tick on the other axis.
type Profile struct {
	AxisColumn  string
	ValueColumn string
	FixedColumn string
	FixedValue  float64
	Ticks       []float64
	Values      []float64
}

// nearestIndex returns the index of the sorted tick closest to v.
func nearestIndex(ticks []float64, v float64) int {
	best, bestDist := 0, math.Inf(1)
	for i, t := range ticks {
		d := math.Abs(t - v)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// ProfileAlongX slices the grid at the Y tick nearest to y, varying X.
func (g *Grid) ProfileAlongX(y float64) (*Profile, error) {
	if len(g.YTicks) == 0 || len(g.XTicks) == 0 {
		return nil, fmt.Errorf("grid is empty, nothing to slice")
	}
	j := nearestIndex(g.YTicks, y)
	vals := make([]float64, len(g.XTicks))
	for i := range g.XTicks {
		vals[i] = g.Cells[i][j]
	}
	return &Profile{
		AxisColumn:  g.XColumn,
		ValueColumn: g.ValueColumn,
		FixedColumn: g.YColumn,
		FixedValue:  g.YTicks[j],
		Ticks:       append([]float64(nil), g.XTicks...),
		Values:      vals,
	}, nil
}

// ProfileAlongY slices the grid at the X tick nearest to x, varying Y.
func (g *Grid) ProfileAlongY(x float64) (*Profile, error) {
	if len(g.YTicks) == 0 || len(g.XTicks) == 0 {
		return nil, fmt.Errorf("grid is empty, nothing to slice")
	}
	i := nearestIndex(g.XTicks, x)
	vals := make([]float64, len(g.YTicks))
	for j := range g.YTicks {
		vals[j] = g.Cells[i][j]
	}
	return &Profile{
		AxisColumn:  g.YColumn,
		ValueColumn: g.ValueColumn,
		FixedColumn: g.XColumn,
		FixedValue:  g.XTicks[i],
		Ticks:       append([]float64(nil), g.YTicks...),
		Values:      vals,
	}, nil
}
