// ColorMapChan batch entrypoint (cmcbatch).
//
// Headless counterpart of the viewer: load a measurement file, apply filters,
// build the heatmap grid, and write any combination of export artifacts
// (raw-row CSV, grid CSV, heatmap PNG, PDF report, profile PNGs) without a
// display. The same pipeline packages drive the GUI, so a grid produced here
// is bit-identical to what the viewer shows.
//
// Design notes:
// - Defaults come from a .env file (CMC_LOGLEVEL, CMC_COLORMAP,
//   CMC_CHUNK_SIZE) via godotenv; explicit flags always win.
// - Filters repeat: -filter COL=V for exact values, -range COL:MIN:MAX for
//   intervals. Both compose by AND, matching the viewer's filter panel.
// - Exit code 1 with a readable message on any failure; the grid summary
//   line ("12,345/70,000 rows (17.6%)") is printed on success.
// - Dependency direction: main -> loader for parsing, grid for aggregation,
//   render/report for artifacts only.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/futafi/ColorMapChan/src/dataset"
	"github.com/futafi/ColorMapChan/src/grid"
	"github.com/futafi/ColorMapChan/src/loader"
	"github.com/futafi/ColorMapChan/src/render"
	"github.com/futafi/ColorMapChan/src/report"
)

// multiFlag collects repeatable flag values.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ", ") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

type batchConfig struct {
	file             string
	xCol, yCol, vCol string
	valueFilters     []string
	rangeFilters     []string
	agg              string
	colormap         string
	logScale         bool
	outRows          string
	outGrid          string
	outPNG           string
	outPDF           string
	profileX         string // Y tick value as text; empty = off
	profileY         string // X tick value as text; empty = off
	chunkSize        int
}

// parseValueFilter parses "COL=V".
func parseValueFilter(spec string) (dataset.ValueFilter, error) {
	col, raw, ok := strings.Cut(spec, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return dataset.ValueFilter{}, fmt.Errorf("bad -filter %q: want COL=VALUE", spec)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return dataset.ValueFilter{}, fmt.Errorf("bad -filter %q: %q is not numeric", spec, raw)
	}
	return dataset.ValueFilter{Column: strings.TrimSpace(col), Value: v}, nil
}

// parseRangeFilter parses "COL:MIN:MAX".
func parseRangeFilter(spec string) (dataset.RangeFilter, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 || strings.TrimSpace(parts[0]) == "" {
		return dataset.RangeFilter{}, fmt.Errorf("bad -range %q: want COL:MIN:MAX", spec)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return dataset.RangeFilter{}, fmt.Errorf("bad -range %q: %q is not numeric", spec, parts[1])
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return dataset.RangeFilter{}, fmt.Errorf("bad -range %q: %q is not numeric", spec, parts[2])
	}
	return dataset.RangeFilter{Column: strings.TrimSpace(parts[0]), Min: lo, Max: hi}, nil
}

func buildFilterSet(values, ranges []string) (*dataset.FilterSet, error) {
	fs := dataset.NewFilterSet()
	for _, spec := range values {
		f, err := parseValueFilter(spec)
		if err != nil {
			return nil, err
		}
		if err := fs.AddValue(f); err != nil {
			return nil, err
		}
	}
	for _, spec := range ranges {
		f, err := parseRangeFilter(spec)
		if err != nil {
			return nil, err
		}
		if err := fs.AddRange(f); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func profileAt(g *grid.Grid, raw string, alongX bool) (*grid.Profile, error) {
	tick, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return nil, fmt.Errorf("bad profile tick %q: not numeric", raw)
	}
	if alongX {
		return g.ProfileAlongX(tick)
	}
	return g.ProfileAlongY(tick)
}

// run executes one batch pipeline pass. Split from main for the integration
// tests.
func run(cfg batchConfig) error {
	if cfg.file == "" {
		return fmt.Errorf("no input: pass -file with a measurement file path")
	}
	if cfg.chunkSize > 0 {
		dataset.SetChunkSize(cfg.chunkSize)
	}

	frame, err := loader.Open(context.Background(), cfg.file, loader.Options{
		Progress: func(rows int) { dataset.Debugf("parsed %d rows", rows) },
	})
	if err != nil {
		return err
	}

	filters, err := buildFilterSet(cfg.valueFilters, cfg.rangeFilters)
	if err != nil {
		return err
	}
	mode, err := grid.ParseAggregate(cfg.agg)
	if err != nil {
		return err
	}

	proc := grid.NewProcessor()
	proc.SetFrame(frame)
	proc.SetFilters(filters)
	proc.SetAggregate(mode)
	if err := proc.SetAxes(cfg.xCol, cfg.yCol, cfg.vCol); err != nil {
		return err
	}

	if cfg.outRows != "" {
		n, err := report.ExportRegionCSV(frame, filters, nil, cfg.outRows)
		if err != nil {
			return err
		}
		fmt.Printf("rows: %s (%d rows)\n", cfg.outRows, n)
	}

	g, err := proc.BuildGrid()
	if err != nil {
		return err
	}

	if cfg.outGrid != "" {
		if err := report.ExportGridCSV(g, cfg.outGrid); err != nil {
			return err
		}
		fmt.Printf("grid: %s\n", cfg.outGrid)
	}

	var heat, profX, profY image.Image
	if cfg.outPNG != "" || cfg.outPDF != "" {
		heat = render.Heatmap(g, render.Options{Colormap: cfg.colormap, LogScale: cfg.logScale})
	}
	if cfg.profileX != "" {
		pr, err := profileAt(g, cfg.profileX, true)
		if err != nil {
			return err
		}
		profX = render.Profile(pr, render.ProfileOptions{LogScale: cfg.logScale})
	}
	if cfg.profileY != "" {
		pr, err := profileAt(g, cfg.profileY, false)
		if err != nil {
			return err
		}
		profY = render.Profile(pr, render.ProfileOptions{LogScale: cfg.logScale})
	}

	if cfg.outPNG != "" {
		annotated := render.DrawHint(heat, filters.Summary())
		if err := report.ExportPNG(annotated, cfg.outPNG); err != nil {
			return err
		}
		fmt.Printf("png: %s\n", cfg.outPNG)
		base := strings.TrimSuffix(cfg.outPNG, ".png")
		if profX != nil {
			path := base + "_profile_x.png"
			if err := report.ExportPNG(profX, path); err != nil {
				return err
			}
			fmt.Printf("png: %s\n", path)
		}
		if profY != nil {
			path := base + "_profile_y.png"
			if err := report.ExportPNG(profY, path); err != nil {
				return err
			}
			fmt.Printf("png: %s\n", path)
		}
	}

	if cfg.outPDF != "" {
		vmin, vmax, err := g.ValueRange()
		if err != nil {
			return err
		}
		profile := profX
		if profile == nil {
			profile = profY
		}
		err = report.WriteReportPDF(cfg.outPDF, report.Report{
			SourcePath:    frame.Path(),
			Format:        string(frame.Format()),
			TotalRows:     g.TotalRows,
			FilteredRows:  g.FilteredRows,
			FilterSummary: filters.Summary(),
			XColumn:       g.XColumn,
			YColumn:       g.YColumn,
			ValueColumn:   g.ValueColumn,
			Aggregate:     string(g.Mode),
			ValueMin:      vmin,
			ValueMax:      vmax,
			Heatmap:       heat,
			Profile:       profile,
		})
		if err != nil {
			return err
		}
		fmt.Printf("pdf: %s\n", cfg.outPDF)
	}

	fmt.Printf("%s as %s: %s\n", frame.Path(), frame.Format(), g.Summary())
	return nil
}

func main() {
	// .env defaults first, flags override.
	_ = godotenv.Load()
	envLog := os.Getenv("CMC_LOGLEVEL")
	envMap := os.Getenv("CMC_COLORMAP")
	envChunk, _ := strconv.Atoi(os.Getenv("CMC_CHUNK_SIZE"))

	var cfg batchConfig
	var valueSpecs, rangeSpecs multiFlag
	var loglevel string
	flag.StringVar(&cfg.file, "file", "", "Path to a measurement file (csv or instrument export)")
	flag.StringVar(&cfg.xCol, "x", "", "X axis column")
	flag.StringVar(&cfg.yCol, "y", "", "Y axis column")
	flag.StringVar(&cfg.vCol, "value", "", "Response (value) column")
	flag.Var(&valueSpecs, "filter", "Exact-value filter COL=V (repeatable)")
	flag.Var(&rangeSpecs, "range", "Range filter COL:MIN:MAX (repeatable)")
	flag.StringVar(&cfg.agg, "agg", "mean", "Cell aggregate: mean, min, max or count")
	flag.StringVar(&cfg.colormap, "colormap", envMap, "Heatmap colormap name")
	flag.BoolVar(&cfg.logScale, "logscale", false, "Color the heatmap on a log10 scale")
	flag.StringVar(&cfg.outRows, "out-rows", "", "Write filtered raw rows to this CSV")
	flag.StringVar(&cfg.outGrid, "out-grid", "", "Write the grid matrix to this CSV")
	flag.StringVar(&cfg.outPNG, "png", "", "Write the heatmap to this PNG (profiles get _profile_x/_profile_y suffixes)")
	flag.StringVar(&cfg.outPDF, "pdf", "", "Write a one-page PDF report to this path")
	flag.StringVar(&cfg.profileX, "profile-x", "", "Render the profile along X at this Y tick")
	flag.StringVar(&cfg.profileY, "profile-y", "", "Render the profile along Y at this X tick")
	flag.IntVar(&cfg.chunkSize, "chunk-size", envChunk, "Rows per load chunk (0 = default)")
	flag.StringVar(&loglevel, "loglevel", envLog, "Log level: debug, info, warn, error")
	flag.Parse()

	cfg.valueFilters = valueSpecs
	cfg.rangeFilters = rangeSpecs
	if loglevel != "" {
		dataset.SetLogLevel(loglevel)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
