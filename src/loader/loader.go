package loader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// maxDetectLines is how far DetectFormat scans before assuming standard CSV.
const maxDetectLines = 20

// MaxLineBytes caps a single physical line. Longer lines mean the file is not
// a delimited text export (most likely a binary dropped on the app).
const MaxLineBytes = 1 << 20

// readLine accumulates one line, tolerating bufio.ErrBufferFull from the
// sliced reads. The returned line has its trailing CR/LF stripped. io.EOF is
// returned once the input is exhausted.
func readLine(r *bufio.Reader, path string) (string, error) {
	var line []byte
	for {
		part, rerr := r.ReadSlice('\n')
		if len(part) > 0 {
			if len(line)+len(part) > MaxLineBytes {
				return "", fmt.Errorf("line too large: over %d bytes in %s. the file does not look like a delimited text export", MaxLineBytes, path)
			}
			line = append(line, part...)
		}
		if rerr == nil {
			break // finished one line with newline
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue // keep accumulating
		}
		if errors.Is(rerr, io.EOF) {
			if len(line) == 0 {
				return "", io.EOF
			}
			break // final line without newline
		}
		return "", fmt.Errorf("read %s: %w", path, rerr)
	}
	return strings.TrimRight(string(line), "\r\n"), nil
}

// DetectFormat scans the first lines of a file for instrument markers and
// falls back to standard delimited text.
func DetectFormat(path string) (dataset.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w. check the path and permissions", path, err)
	}
	defer f.Close()
	r := bufio.NewReaderSize(f, 64*1024)
	for i := 0; i < maxDetectLines; i++ {
		line, err := readLine(r, path)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if strings.HasPrefix(line, "DataName") {
			return dataset.FormatB1500Text, nil
		}
		if strings.Contains(line, "AutoAnalysis.Marker.Data.StartCondition") {
			return dataset.FormatB1500CSV, nil
		}
	}
	return dataset.FormatCSV, nil
}

// Options control how a file is read.
type Options struct {
	// Delimiter forces the standard-CSV delimiter; 0 sniffs among comma,
	// tab and semicolon. Instrument formats are always comma separated.
	Delimiter rune
	// ChunkSize overrides dataset.ChunkSize() for progress callbacks.
	ChunkSize int
	// Progress, when set, is called after each chunk with the total number
	// of rows parsed so far, and once more for a trailing partial chunk.
	Progress func(rows int)
}

func (o Options) chunk() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return dataset.ChunkSize()
}

// Open detects the file format and loads the whole file into a Frame.
// Cancellation is honored between chunks.
func Open(ctx context.Context, path string, opts Options) (*dataset.Frame, error) {
	defer dataset.TimeTrack(time.Now(), "load "+filepath.Base(path))
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	dataset.Infof("loading %s as %s", path, format)
	var frame *dataset.Frame
	switch format {
	case dataset.FormatB1500Text:
		frame, err = loadB1500Text(ctx, path, opts)
	case dataset.FormatB1500CSV:
		frame, err = loadB1500CSV(ctx, path, opts)
	default:
		frame, err = loadCSV(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}
	if frame.NumRows() == 0 {
		return nil, fmt.Errorf("file %s: %w. check that the file contains measurement rows", path, dataset.ErrEmptyFrame)
	}
	dataset.Infof("loaded %s: %d rows, %d columns, %d warnings",
		path, frame.NumRows(), frame.NumColumns(), frame.Warnings())
	return frame, nil
}

// progressTicker fires Options.Progress on chunk boundaries and surfaces
// context cancellation between chunks.
type progressTicker struct {
	opts  Options
	chunk int
	rows  int
}

func newProgressTicker(opts Options) *progressTicker {
	return &progressTicker{opts: opts, chunk: opts.chunk()}
}

func (p *progressTicker) tick(ctx context.Context) error {
	p.rows++
	if p.rows%p.chunk != 0 {
		return nil
	}
	if p.opts.Progress != nil {
		p.opts.Progress(p.rows)
	}
	return ctx.Err()
}

func (p *progressTicker) finish() {
	if p.opts.Progress != nil && p.rows%p.chunk != 0 {
		p.opts.Progress(p.rows)
	}
}

// parseCell converts one raw cell. Blank cells become NaN silently; anything
// else that fails to parse becomes NaN with a recorded warning.
func parseCell(frame *dataset.Frame, row int, col, raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		frame.RecordWarning("row %d, column %s: %q is not numeric", row, col, s)
		return math.NaN()
	}
	return v
}
