package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	thumbMaxPixelsW = 240
	thumbMaxPixelsH = 180
	textRowHeight   = 7.0
	imageRowHeight  = 24.0
)

// SummaryLine is a label/value pair printed above the table.
type SummaryLine struct {
	Label string
	Value string
}

// Report is a titled table with an optional summary block and per-row images.
type Report struct {
	Title    string
	Subtitle string
	Summary  []SummaryLine
	Data     Dataset
	// ImageHeader names the column that receives Images[i] instead of text.
	ImageHeader string
	// Images holds raw image bytes per row index; nil entries render the row's text value.
	Images [][]byte
	// Widths optionally fixes column widths in millimetres, keyed by header.
	Widths map[string]float64
}

// PDFExporter renders datasets into tabular PDFs.
type PDFExporter struct {
	Orientation string
}

// NewPDFExporter constructs a portrait PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{Orientation: "P"}
}

// RenderReport lays out the report, repeating the table header on each page.
// Images that cannot be decoded fall back to the row's text value.
func (e *PDFExporter) RenderReport(report Report) ([]byte, error) {
	data := report.Data
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	orientation := e.Orientation
	if orientation == "" {
		orientation = "P"
	}
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.SetAutoPageBreak(false, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	widths := columnWidths(data.Headers, report.Widths, pageW-left-right)

	if report.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(strings.ToUpper(report.Title)), "", 1, "C", false, 0, "")
	}
	if report.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(report.Subtitle), "", 1, "C", false, 0, "")
	}
	if len(report.Summary) > 0 {
		pdf.Ln(2)
		for _, line := range report.Summary {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(45, 5, tr(line.Label), "", 0, "", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			pdf.MultiCell(0, 5, tr(line.Value), "", "", false)
		}
	}
	pdf.Ln(4)

	drawHeader := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], 8, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 8)
	}
	drawHeader()

	for idx, row := range data.Rows {
		imageName, imageOK := registerRowImage(pdf, report, idx)
		height := textRowHeight
		if imageOK {
			height = imageRowHeight
		}
		if pdf.GetY()+height > pageH-bottom {
			pdf.AddPage()
			drawHeader()
		}

		y := pdf.GetY()
		x := left
		for i, header := range data.Headers {
			if header == report.ImageHeader && imageOK {
				pdf.Rect(x, y, widths[i], height, "D")
				pdf.ImageOptions(imageName, x+1, y+1, 0, height-2, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
			} else {
				pdf.SetXY(x, y)
				pdf.CellFormat(widths[i], height, fitText(pdf, tr(row[header]), widths[i]-2), "1", 0, "", false, 0, "")
			}
			x += widths[i]
		}
		pdf.SetXY(left, y+height)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func registerRowImage(pdf *gofpdf.Fpdf, report Report, idx int) (string, bool) {
	if report.ImageHeader == "" || idx >= len(report.Images) || len(report.Images[idx]) == 0 {
		return "", false
	}
	thumb, err := Thumbnail(report.Images[idx], thumbMaxPixelsW, thumbMaxPixelsH)
	if err != nil {
		return "", false
	}
	name := fmt.Sprintf("row-%d", idx)
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(thumb))
	if pdf.Err() {
		pdf.ClearError()
		return "", false
	}
	return name, true
}

func columnWidths(headers []string, fixed map[string]float64, total float64) []float64 {
	widths := make([]float64, len(headers))
	remaining := total
	flexible := 0
	for i, header := range headers {
		if w, ok := fixed[header]; ok && w > 0 {
			widths[i] = w
			remaining -= w
			continue
		}
		flexible++
	}
	if flexible == 0 {
		return widths
	}
	share := remaining / float64(flexible)
	if share < 10 {
		share = 10
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = share
		}
	}
	return widths
}

// fitText truncates s with an ellipsis so that it fits in width millimetres.
func fitText(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
