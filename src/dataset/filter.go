package dataset

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Value filters match |v-target| <= atol + rtol*|target|. Configure at
// startup, before any filter runs.
var (
	closeRtol = 1e-5
	closeAtol = 1e-8
)

// SetCloseTolerances adjusts the relative and absolute tolerances used by
// value filters. Negative inputs leave the current value unchanged.
func SetCloseTolerances(rtol, atol float64) {
	if rtol >= 0 {
		closeRtol = rtol
	}
	if atol >= 0 {
		closeAtol = atol
	}
}

// Close reports whether a equals b within the configured tolerances. NaN
// never compares close to anything.
func Close(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Abs(a-b) <= closeAtol+closeRtol*math.Abs(b)
}

func trimFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// ValueFilter keeps rows whose cell equals Value within tolerance.
type ValueFilter struct {
	Column string
	Value  float64
}

func (f ValueFilter) Match(v float64) bool { return Close(v, f.Value) }

func (f ValueFilter) String() string {
	return fmt.Sprintf("%s = %s", f.Column, trimFloat(f.Value))
}

// RangeFilter keeps rows whose cell lies in [Min, Max], inclusive.
type RangeFilter struct {
	Column   string
	Min, Max float64
}

func (f RangeFilter) Match(v float64) bool {
	return !math.IsNaN(v) && v >= f.Min && v <= f.Max
}

func (f RangeFilter) String() string {
	return fmt.Sprintf("%s in [%s, %s]", f.Column, trimFloat(f.Min), trimFloat(f.Max))
}

// FilterSet is an ordered AND-composition of value and range filters. A row
// survives only when every filter matches its cell in that filter's column.
type FilterSet struct {
	entries []filterEntry
}

type filterEntry struct {
	value *ValueFilter
	rng   *RangeFilter
}

func (e filterEntry) column() string {
	if e.value != nil {
		return e.value.Column
	}
	return e.rng.Column
}

func (e filterEntry) match(v float64) bool {
	if e.value != nil {
		return e.value.Match(v)
	}
	return e.rng.Match(v)
}

func (e filterEntry) String() string {
	if e.value != nil {
		return e.value.String()
	}
	return e.rng.String()
}

func NewFilterSet() *FilterSet { return &FilterSet{} }

// AddValue appends an exact-value filter.
func (s *FilterSet) AddValue(f ValueFilter) error {
	if f.Column == "" {
		return fmt.Errorf("value filter: empty column name")
	}
	s.entries = append(s.entries, filterEntry{value: &f})
	return nil
}

// AddRange appends a range filter. Min must not exceed Max.
func (s *FilterSet) AddRange(f RangeFilter) error {
	if f.Column == "" {
		return fmt.Errorf("range filter: empty column name")
	}
	if f.Min > f.Max {
		return fmt.Errorf("range filter on %q: min %s exceeds max %s. swap the bounds",
			f.Column, trimFloat(f.Min), trimFloat(f.Max))
	}
	s.entries = append(s.entries, filterEntry{rng: &f})
	return nil
}

func (s *FilterSet) Len() int    { return len(s.entries) }
func (s *FilterSet) Empty() bool { return len(s.entries) == 0 }

// Clear drops every filter.
func (s *FilterSet) Clear() { s.entries = nil }

// RemoveAt drops the i-th filter in insertion order.
func (s *FilterSet) RemoveAt(i int) error {
	if i < 0 || i >= len(s.entries) {
		return fmt.Errorf("filter index %d out of range (have %d)", i, len(s.entries))
	}
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
	return nil
}

// RemoveColumn drops every filter on the column, returning how many were
// removed.
func (s *FilterSet) RemoveColumn(col string) int {
	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		if e.column() == col {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// Columns returns the distinct filtered column names, sorted.
func (s *FilterSet) Columns() []string {
	seen := map[string]struct{}{}
	for _, e := range s.entries {
		seen[e.column()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Describe returns one human-readable line per filter, in insertion order.
func (s *FilterSet) Describe() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.String()
	}
	return out
}

// Summary is the comma-joined filter description, or "no filters".
func (s *FilterSet) Summary() string {
	if len(s.entries) == 0 {
		return "no filters"
	}
	return strings.Join(s.Describe(), ", ")
}

// Clone returns an independent copy.
func (s *FilterSet) Clone() *FilterSet {
	c := &FilterSet{entries: make([]filterEntry, len(s.entries))}
	for i, e := range s.entries {
		if e.value != nil {
			v := *e.value
			c.entries[i] = filterEntry{value: &v}
		} else {
			r := *e.rng
			c.entries[i] = filterEntry{rng: &r}
		}
	}
	return c
}

// Key returns a canonical form for cache keys: one token per filter, sorted,
// floats in shortest round-trip notation. Insertion order does not matter.
func (s *FilterSet) Key() string {
	parts := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if e.value != nil {
			parts = append(parts, "v:"+e.value.Column+"="+trimFloat(e.value.Value))
		} else {
			parts = append(parts, "r:"+e.rng.Column+"="+trimFloat(e.rng.Min)+".."+trimFloat(e.rng.Max))
		}
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Validate checks that every filtered column exists in the frame.
func (s *FilterSet) Validate(f *Frame) error {
	for _, e := range s.entries {
		if !f.HasColumn(e.column()) {
			return fmt.Errorf("filter %q: %w. check the loaded file's columns", e.String(), ErrNoSuchColumn)
		}
	}
	return nil
}

// Apply returns the indices of rows matching every filter, in row order. NaN
// cells never match.
func (s *FilterSet) Apply(f *Frame) ([]int, error) {
	if err := s.Validate(f); err != nil {
		return nil, err
	}
	cols := make([][]float64, len(s.entries))
	for i, e := range s.entries {
		c, err := f.Column(e.column())
		if err != nil {
			return nil, err
		}
		cols[i] = c
	}
	idx := make([]int, 0, f.NumRows())
	for r := 0; r < f.NumRows(); r++ {
		keep := true
		for i, e := range s.entries {
			if !e.match(cols[i][r]) {
				keep = false
				break
			}
		}
		if keep {
			idx = append(idx, r)
		}
	}
	return idx, nil
}
