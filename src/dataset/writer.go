package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"sync"
)

// ExportWriter streams delimited rows to a file through a single writer
// goroutine with a buffered channel, so callers can enqueue rows without
// blocking on disk.
type ExportWriter struct {
	path string
	ch   chan []string
	wg   sync.WaitGroup
	f    *os.File
	w    *csv.Writer

	mu   sync.Mutex
	err  error
	rows int
}

// NewExportWriter creates path, writes the header when non-nil, and starts
// the writer goroutine. delim 0 means comma.
func NewExportWriter(path string, delim rune, header []string) (*ExportWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create export file: %w. check the directory exists and is writable", err)
	}
	w := csv.NewWriter(f)
	if delim != 0 {
		w.Comma = delim
	}
	e := &ExportWriter{path: path, ch: make(chan []string, 128), f: f, w: w}
	if header != nil {
		if err := w.Write(header); err != nil {
			f.Close()
			return nil, fmt.Errorf("write export header: %w", err)
		}
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for rec := range e.ch {
			if rec == nil {
				continue
			}
			if err := e.w.Write(rec); err != nil {
				e.setErr(err)
				continue
			}
			e.mu.Lock()
			e.rows++
			e.mu.Unlock()
		}
	}()
	Debugf("export writer started: %s", path)
	return e, nil
}

func (e *ExportWriter) setErr(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

// Write enqueues one data row. Blocks when the buffer is full.
func (e *ExportWriter) Write(rec []string) { e.ch <- rec }

// Rows returns how many data rows have been written so far.
func (e *ExportWriter) Rows() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows
}

// Close drains the queue, flushes and closes the file, and returns the first
// error seen anywhere in the pipeline.
func (e *ExportWriter) Close() error {
	close(e.ch)
	e.wg.Wait()
	e.w.Flush()
	e.mu.Lock()
	err := e.err
	rows := e.rows
	e.mu.Unlock()
	if err == nil {
		err = e.w.Error()
	}
	if cerr := e.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("export to %s: %w", e.path, err)
	}
	Debugf("export writer closed: %s (%d rows)", e.path, rows)
	return nil
}
