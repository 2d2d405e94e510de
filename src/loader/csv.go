package loader

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// sniffDelimiter picks the candidate separator occurring most often in the
// header line. Ties and absence fall back to comma.
func sniffDelimiter(header string) rune {
	type cand struct {
		r rune
		n int
	}
	counts := []cand{
		{',', strings.Count(header, ",")},
		{'\t', strings.Count(header, "\t")},
		{';', strings.Count(header, ";")},
	}
	best := counts[0]
	for _, c := range counts[1:] {
		if c.n > best.n {
			best = c
		}
	}
	if best.n == 0 {
		return ','
	}
	return best.r
}

// loadCSV reads a standard delimited file: header line first, one row per
// line, quoting per encoding/csv.
func loadCSV(ctx context.Context, path string, opts Options) (*dataset.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w. check the path and permissions", path, err)
	}
	defer f.Close()

	br := bufio.NewReaderSize(f, 256*1024)
	delim := opts.Delimiter
	if delim == 0 {
		head, perr := br.Peek(64 * 1024)
		if perr != nil && !errors.Is(perr, io.EOF) && !errors.Is(perr, bufio.ErrBufferFull) {
			return nil, fmt.Errorf("read %s: %w", path, perr)
		}
		line := string(head)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		delim = sniffDelimiter(line)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("file %s: %w. check that the file contains a header and rows", path, dataset.ErrEmptyFrame)
		}
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("col%d", i+1)
		}
		names[i] = name
	}
	frame, err := dataset.NewFrame(path, dataset.FormatCSV, names)
	if err != nil {
		return nil, err
	}

	prog := newProgressTicker(opts)
	cells := make([]float64, len(names))
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w. check that the file is %q-delimited text", path, err, string(delim))
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		row := frame.NumRows() + 1
		if len(rec) != len(names) {
			frame.RecordWarning("row %d has %d cells, want %d", row, len(rec), len(names))
		}
		for i := range cells {
			if i < len(rec) {
				cells[i] = parseCell(frame, row, names[i], rec[i])
			} else {
				cells[i] = math.NaN()
			}
		}
		if err := frame.AppendRow(cells); err != nil {
			return nil, err
		}
		if err := prog.tick(ctx); err != nil {
			return nil, fmt.Errorf("load %s interrupted: %w", path, err)
		}
	}
	prog.finish()
	return frame, nil
}
