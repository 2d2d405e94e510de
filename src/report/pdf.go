package report

import (
	"bytes"
	"fmt"
	"image"
	png "image/png"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/futafi/ColorMapChan/src/dataset"
)

// Report carries everything the one-page PDF summary shows.
type Report struct {
	SourcePath    string
	Format        string
	TotalRows     int
	FilteredRows  int
	FilterSummary string

	XColumn, YColumn, ValueColumn string
	Aggregate                     string
	ValueMin, ValueMax            float64

	Heatmap image.Image
	Profile image.Image // optional
}

// WriteReportPDF lays out a landscape A4 page: title, metadata table, the
// heatmap, and the optional profile chart, with a generated-at footer.
func WriteReportPDF(path string, r Report) error {
	defer dataset.TimeTrack(time.Now(), "pdf report")
	if r.Heatmap == nil {
		return fmt.Errorf("no heatmap rendered yet, nothing to report")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("ColorMapChan report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Measurement heatmap report", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	rows := [][2]string{
		{"File", r.SourcePath},
		{"Format", r.Format},
		{"Rows", fmt.Sprintf("%d of %d after filters", r.FilteredRows, r.TotalRows)},
		{"Filters", r.FilterSummary},
		{"X axis", r.XColumn},
		{"Y axis", r.YColumn},
		{"Value", fmt.Sprintf("%s (%s)", r.ValueColumn, r.Aggregate)},
		{"Value range", fmt.Sprintf("%g .. %g", r.ValueMin, r.ValueMax)},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(32, 6, row[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, row[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if err := embedPNG(pdf, "heatmap", r.Heatmap, 150); err != nil {
		return err
	}
	if r.Profile != nil {
		pdf.SetXY(170, 60)
		if err := embedPNG(pdf, "profile", r.Profile, 110); err != nil {
			return err
		}
	}

	pdf.SetY(-15)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(0, 8, "generated "+time.Now().Format("2006-01-02 15:04:05"), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write %s: %w. check the directory exists and is writable", path, err)
	}
	dataset.Infof("wrote report %s", path)
	return nil
}

// embedPNG registers an in-memory image with the PDF and draws it at the
// current position, widthMM wide with the aspect ratio kept.
func embedPNG(pdf *gofpdf.Fpdf, name string, img image.Image, widthMM float64) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("encode %s image: %w", name, err)
	}
	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, &buf)
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), widthMM, 0, true, opts, 0, "")
	if pdf.Err() {
		return fmt.Errorf("embed %s image: %v", name, pdf.Error())
	}
	return nil
}
