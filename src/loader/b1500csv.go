package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// dataMarker separates the key/value header from the data section in the
// single-file instrument CSV format.
const dataMarker = "AutoAnalysis.Marker.Data.StartCondition"

// loadB1500CSV reads the single-file instrument CSV: key,value header lines
// up to the data marker, then the first multi-cell line names the columns
// and the remaining comma-separated lines carry the cells. Blank cells are
// missing readings (NaN).
func loadB1500CSV(ctx context.Context, path string, opts Options) (*dataset.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w. check the path and permissions", path, err)
	}
	defer f.Close()
	br := bufio.NewReaderSize(f, 256*1024)

	var meta [][2]string
	var names []string
	seenMarker := false
	for {
		line, err := readLine(br, path)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !seenMarker {
			if strings.HasPrefix(trimmed, dataMarker) {
				seenMarker = true
				continue
			}
			if k, v, ok := strings.Cut(trimmed, ","); ok {
				meta = append(meta, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
			}
			continue
		}
		cells := strings.Split(trimmed, ",")
		if len(cells) > 1 {
			names = make([]string, len(cells))
			for i, c := range cells {
				names[i] = strings.TrimSpace(c)
			}
			break
		}
	}
	if !seenMarker {
		return nil, fmt.Errorf("file %s: marker %q not found. check that this is a single-file instrument CSV", path, dataMarker)
	}
	if names == nil {
		return nil, fmt.Errorf("file %s: no column row after the data marker", path)
	}
	frame, err := dataset.NewFrame(path, dataset.FormatB1500CSV, names)
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
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || !strings.Contains(trimmed, ",") {
			continue
		}
		raw := strings.Split(trimmed, ",")
		row := frame.NumRows() + 1
		if len(raw) != len(names) {
			frame.RecordWarning("row %d has %d cells, want %d", row, len(raw), len(names))
		}
		for i := range cells {
			if i >= len(raw) {
				cells[i] = math.NaN()
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
