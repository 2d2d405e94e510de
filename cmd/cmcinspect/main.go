package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/loader"
)

// cmcinspect prints what a measurement file contains without opening the
// viewer: detected format, dimensions, instrument metadata and per-column
// value ranges.
func main() {
	var file string
	var loglevel string
	var showMeta bool
	flag.StringVar(&file, "file", "", "Path to a measurement file")
	flag.StringVar(&loglevel, "loglevel", "warn", "Log level (debug|info|warn|error)")
	flag.BoolVar(&showMeta, "meta", true, "Print instrument header metadata")
	flag.Parse()
	dataset.SetLogLevel(loglevel)

	if file == "" {
		fmt.Fprintln(os.Stderr, "error: pass -file with a measurement file path")
		os.Exit(1)
	}
	frame, err := loader.Open(context.Background(), file, loader.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("File:    %s\n", frame.Path())
	fmt.Printf("Format:  %s\n", frame.Format())
	fmt.Printf("Rows:    %d\n", frame.NumRows())
	fmt.Printf("Columns: %d\n", frame.NumColumns())
	if frame.Warnings() > 0 {
		fmt.Printf("Parse warnings: %d\n", frame.Warnings())
	}
	if showMeta {
		for _, k := range frame.MetaKeys() {
			v, _ := frame.Meta(k)
			fmt.Printf("Meta %s: %s\n", k, v)
		}
	}
	for _, name := range frame.Columns() {
		lo, hi, err := frame.Range(name)
		if err != nil {
			fmt.Printf("  %-16s (no finite values)\n", name)
			continue
		}
		fmt.Printf("  %-16s %g .. %g\n", name, lo, hi)
	}
}
