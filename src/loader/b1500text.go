package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// Header prefixes carrying instrument metadata in the text export format.
var b1500MetaPrefixes = []string{"TestParameter", "MetaData", "AnalysisSetup"}

// loadB1500Text reads the instrument text export: metadata lines up to a
// DataName row naming the columns, then DataValue rows carrying the cells.
// Blank cells mean a zero reading in this format.
func loadB1500Text(ctx context.Context, path string, opts Options) (*dataset.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w. check the path and permissions", path, err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 256*1024)

	var meta [][2]string
	var names []string
	for {
		line, err := readLine(br, path)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if strings.HasPrefix(line, "DataName") {
			for _, c := range strings.Split(line, ",")[1:] {
				names = append(names, strings.TrimSpace(c))
			}
			break
		}
		for _, prefix := range b1500MetaPrefixes {
			if strings.HasPrefix(line, prefix) {
				if k, v, ok := strings.Cut(line, ","); ok {
					meta = append(meta, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
				}
				break
			}
		}
	}
	if names == nil {
		return nil, fmt.Errorf("file %s: no DataName row found. check that this is an instrument text export", path)
	}
	frame, err := dataset.NewFrame(path, dataset.FormatB1500Text, names)
	if err != nil {
		return nil, err
	}
	for _, kv := range meta {
		frame.SetMeta(kv[0], kv[1])
	}

	prog := newProgressTicker(opts)
	cells := make([]float64, len(names))
	for {
		line, err := readLine(br, path)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if !strings.HasPrefix(line, "DataValue") {
			continue
		}
		raw := strings.Split(line, ",")[1:]
		row := frame.NumRows() + 1
		if len(raw) != len(names) {
			frame.RecordWarning("row %d has %d cells, want %d", row, len(raw), len(names))
		}
		for i := range cells {
			if i >= len(raw) || strings.TrimSpace(raw[i]) == "" {
				cells[i] = 0 // blank cell means a zero reading
				continue
			}
			cells[i] = parseCell(frame, row, names[i], raw[i])
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
