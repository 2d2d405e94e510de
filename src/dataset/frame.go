package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync/atomic"
)

// Format identifies the on-disk layout a Frame was parsed from.
type Format string

const (
	FormatCSV       Format = "csv"
	FormatB1500Text Format = "b1500-text"
	FormatB1500CSV  Format = "b1500-csv"
)

var (
	ErrNoSuchColumn = errors.New("no such column")
	ErrEmptyFrame   = errors.New("no data rows")
	ErrNoFinite     = errors.New("no finite values")
)

// chunkSize is the row count loaders process between progress callbacks.
var chunkSize = 1000

// SetChunkSize configures the loader chunk size. Values < 1 are ignored.
func SetChunkSize(n int) {
	if n > 0 {
		chunkSize = n
	}
}

func ChunkSize() int { return chunkSize }

var frameVersions uint64

// Frame is a loaded measurement table: equally long float64 columns keyed by
// name, plus the header metadata the instrument wrote above the data section.
// A Frame is append-only while a loader builds it and read-only afterwards.
type Frame struct {
	path     string
	format   Format
	version  uint64
	names    []string
	index    map[string]int
	cols     [][]float64
	rows     int
	meta     map[string]string
	metaKeys []string
	warnings int
}

// NewFrame allocates an empty frame for the given columns. Names must be
// non-empty and unique.
func NewFrame(path string, format Format, names []string) (*Frame, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("file %s: no columns found. check that a header line is present", path)
	}
	idx := make(map[string]int, len(names))
	cols := make([][]float64, len(names))
	for i, n := range names {
		if n == "" {
			return nil, fmt.Errorf("file %s: column %d has an empty name", path, i+1)
		}
		if _, dup := idx[n]; dup {
			return nil, fmt.Errorf("file %s: duplicate column %q", path, n)
		}
		idx[n] = i
		cols[i] = make([]float64, 0, 256)
	}
	return &Frame{
		path:    path,
		format:  format,
		version: atomic.AddUint64(&frameVersions, 1),
		names:   append([]string(nil), names...),
		index:   idx,
		cols:    cols,
		meta:    make(map[string]string),
	}, nil
}

// AppendRow adds one row. len(cells) must equal the column count.
func (f *Frame) AppendRow(cells []float64) error {
	if len(cells) != len(f.cols) {
		return fmt.Errorf("row has %d cells, want %d", len(cells), len(f.cols))
	}
	for i, v := range cells {
		f.cols[i] = append(f.cols[i], v)
	}
	f.rows++
	return nil
}

// SetMeta records a header key/value pair. Later writes win; first-seen order
// is kept for listing.
func (f *Frame) SetMeta(key, value string) {
	if _, seen := f.meta[key]; !seen {
		f.metaKeys = append(f.metaKeys, key)
	}
	f.meta[key] = value
}

// Meta returns the header value for key.
func (f *Frame) Meta(key string) (string, bool) {
	v, ok := f.meta[key]
	return v, ok
}

// MetaKeys returns header keys in file order.
func (f *Frame) MetaKeys() []string { return append([]string(nil), f.metaKeys...) }

// RecordWarning counts a tolerated parse anomaly and logs it at debug level.
func (f *Frame) RecordWarning(format string, args ...interface{}) {
	f.warnings++
	Debugf(f.path+": "+format, args...)
}

// Warnings returns how many parse anomalies were tolerated during load.
func (f *Frame) Warnings() int { return f.warnings }

func (f *Frame) Path() string    { return f.path }
func (f *Frame) Format() Format  { return f.format }
func (f *Frame) Version() uint64 { return f.version }
func (f *Frame) NumRows() int    { return f.rows }
func (f *Frame) NumColumns() int { return len(f.names) }

// Columns returns the column names in file order.
func (f *Frame) Columns() []string { return append([]string(nil), f.names...) }

func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the backing slice for name. Callers must not modify it.
func (f *Frame) Column(name string) ([]float64, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("column %q: %w", name, ErrNoSuchColumn)
	}
	return f.cols[i], nil
}

// Range returns the finite min and max of a column. All-NaN columns yield
// ErrNoFinite.
func (f *Frame) Range(name string) (float64, float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return 0, 0, err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	n := 0
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
	if n == 0 {
		return 0, 0, fmt.Errorf("column %q: %w", name, ErrNoFinite)
	}
	return lo, hi, nil
}

// UniqueValues returns the sorted distinct finite values of a column. When
// limit is > 0 and the distinct count exceeds it, an error is returned
// instead of the full list.
func (f *Frame) UniqueValues(name string, limit int) ([]float64, error) {
	col, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[float64]struct{})
	for _, v := range col {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		seen[v] = struct{}{}
	}
	if limit > 0 && len(seen) > limit {
		return nil, fmt.Errorf("column %q has %d distinct values (limit %d)", name, len(seen), limit)
	}
	vals := make([]float64, 0, len(seen))
	for v := range seen {
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	return vals, nil
}
