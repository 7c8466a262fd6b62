package report

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/user/qpcr_analyzer_go/internal/analysis"
)

const (
	inchToMm               = 25.4
	pdfPageWidthLandscape  = 11 * inchToMm // Letter landscape
	pdfPageHeightLandscape = 8.5 * inchToMm
	pdfMargin              = 0.5 * inchToMm
	pdfContentWidth        = pdfPageWidthLandscape - (2 * pdfMargin)
)

// PDFReportInput is everything the PDF report shows.
type PDFReportInput struct {
	Source        string
	ReferenceGene string
	Generated     time.Time
	Means         analysis.MeanData
	Normalized    analysis.NormalizedData
	Chart         analysis.ChartData
	Charts        []ChartImage
	Heatmap       []byte
	Decimals      int
}

// pdfStyler holds reusable styling and state for PDF generation
type pdfStyler struct {
	pdf         *gofpdf.Fpdf
	tr          func(string) string
	styles      map[string]func()
	lineHeight  float64
	currentY    float64 // tracks Y for flowing content
	pageHeight  float64
	contentTopY float64
}

func newPDFStyler(pdf *gofpdf.Fpdf) *pdfStyler {
	s := &pdfStyler{
		pdf:         pdf,
		tr:          pdf.UnicodeTranslatorFromDescriptor(""),
		styles:      make(map[string]func()),
		lineHeight:  6,
		pageHeight:  pdfPageHeightLandscape - pdfMargin,
		contentTopY: pdfMargin,
	}
	s.currentY = s.contentTopY
	s.defineStyles()
	return s
}

func (s *pdfStyler) defineStyles() {
	s.styles["h1"] = func() {
		s.pdf.SetFont("Arial", "B", 16)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h2"] = func() {
		s.pdf.SetFont("Arial", "B", 14)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["h3"] = func() {
		s.pdf.SetFont("Arial", "B", 11)
		s.pdf.SetTextColor(40, 40, 40)
	}
	s.styles["normal"] = func() {
		s.pdf.SetFont("Arial", "", 10)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableHeader"] = func() {
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetFillColor(200, 200, 200)
		s.pdf.SetTextColor(0, 0, 0)
	}
	s.styles["tableCell"] = func() {
		s.pdf.SetFont("Arial", "", 9)
		s.pdf.SetTextColor(50, 50, 50)
	}
	s.styles["tableCellMissing"] = func() { // undetermined or undefined values
		s.pdf.SetFont("Arial", "B", 9)
		s.pdf.SetTextColor(200, 0, 0)
	}
	s.styles["tableCellControl"] = func() {
		s.pdf.SetFont("Arial", "I", 9)
		s.pdf.SetTextColor(0, 70, 140)
	}
}

func (s *pdfStyler) applyStyle(styleName string) {
	if fn, ok := s.styles[styleName]; ok {
		fn()
	} else {
		s.styles["normal"]()
	}
}

func (s *pdfStyler) checkAddPage(neededHeight float64) {
	if s.currentY+neededHeight > s.pageHeight {
		s.newPage()
	}
}

func (s *pdfStyler) newPage() {
	s.pdf.AddPage()
	s.currentY = s.contentTopY
}

func (s *pdfStyler) writeParagraph(text string, styleName string, align string) {
	s.applyStyle(styleName)
	lines := s.pdf.SplitLines([]byte(s.tr(text)), pdfContentWidth)
	s.checkAddPage(float64(len(lines)) * s.lineHeight)

	s.pdf.SetXY(pdfMargin, s.currentY)
	s.pdf.MultiCell(pdfContentWidth, s.lineHeight, s.tr(text), "", align, false)
	s.currentY = s.pdf.GetY() + 1
}

func (s *pdfStyler) addSpacer(height float64) {
	s.checkAddPage(height)
	s.currentY += height
}

func (s *pdfStyler) addImage(imageBytes []byte, imageName string, width float64, height float64, caption string) {
	s.pdf.RegisterImageReader(imageName, "PNG", bytes.NewReader(imageBytes))

	if width > pdfContentWidth {
		ratio := pdfContentWidth / width
		width = pdfContentWidth
		height *= ratio
	}
	captionHeight := 0.0
	if caption != "" {
		captionHeight = s.lineHeight + 1
	}
	s.checkAddPage(height + captionHeight)

	x := pdfMargin + (pdfContentWidth-width)/2
	s.pdf.Image(imageName, x, s.currentY, width, height, false, "PNG", 0, "")
	s.currentY += height

	if caption != "" {
		s.addSpacer(1)
		s.writeParagraph(caption, "normal", "C")
	}
	s.addSpacer(2)
}

// tableCell is one rendered cell with its style.
type tableCell struct {
	text  string
	style string
}

// writeTable draws a header row and data rows, repeating the header after
// a page break.
func (s *pdfStyler) writeTable(headers []string, widthsRel []float64, rows [][]tableCell) {
	widths := make([]float64, len(widthsRel))
	for i, rel := range widthsRel {
		widths[i] = rel * pdfContentWidth
	}

	header := func() {
		sX := pdfMargin
		s.applyStyle("tableHeader")
		for i, h := range headers {
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(h), "1", 0, "C", true, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}

	s.checkAddPage(2 * s.lineHeight)
	header()
	for _, row := range rows {
		if s.currentY+s.lineHeight > s.pageHeight {
			s.newPage()
			header()
		}
		sX := pdfMargin
		for i, cell := range row {
			s.applyStyle(cell.style)
			s.pdf.SetXY(sX, s.currentY)
			s.pdf.CellFormat(widths[i], s.lineHeight, s.tr(cell.text), "1", 0, "C", false, 0, "")
			sX += widths[i]
		}
		s.currentY += s.lineHeight
	}
}

func cqCell(v float64, decimals int) tableCell {
	if v == 0 {
		return tableCell{text: FormatCq(v, decimals), style: "tableCellMissing"}
	}
	return tableCell{text: FormatCq(v, decimals), style: "tableCell"}
}

func readingCell(values []float64, i, decimals int) tableCell {
	if i >= len(values) {
		return tableCell{style: "tableCell"}
	}
	return cqCell(values[i], decimals)
}

func (s *pdfStyler) writeMeansSection(means analysis.MeanData, decimals int) {
	s.writeParagraph("Mean Cq Values", "h2", "L")
	if len(means) == 0 {
		s.writeParagraph("No Cq values found.", "normal", "L")
		return
	}
	headers := []string{"Sample", "Cq 1", "Cq 2", "Mean Cq"}
	widths := []float64{0.34, 0.22, 0.22, 0.22}
	for _, target := range analysis.SortTargets(means) {
		s.writeParagraph("Target: "+target, "h3", "L")
		samples := means[target]
		rows := make([][]tableCell, 0, len(samples))
		for _, sample := range analysis.SortedSamples(samples) {
			sm := samples[sample]
			rows = append(rows, []tableCell{
				{text: sample, style: "tableCell"},
				readingCell(sm.Values, 0, decimals),
				readingCell(sm.Values, 1, decimals),
				cqCell(sm.Mean, decimals),
			})
		}
		s.writeTable(headers, widths, rows)
		s.addSpacer(4)
	}
}

func (s *pdfStyler) writeNormalizedSection(norm analysis.NormalizedData, referenceGene string, decimals int) {
	s.writeParagraph(fmt.Sprintf("Normalized Values (reference %s)", referenceGene), "h2", "L")
	if len(norm) == 0 {
		s.writeParagraph(fmt.Sprintf("Reference gene %q was not found, normalization not possible.", referenceGene), "normal", "L")
		return
	}
	s.writeParagraph("Normalized value = 2^(-dCq), dCq = Cq(gene) - Cq("+referenceGene+")", "normal", "L")

	headers := []string{"Sample", "Mean Cq", "dCq", "Normalized value"}
	widths := []float64{0.34, 0.22, 0.22, 0.22}
	for _, target := range analysis.SortTargetsForNormalization(norm, referenceGene) {
		s.writeParagraph("Target: "+target, "h3", "L")
		samples := norm[target]
		rows := make([][]tableCell, 0, len(samples))
		for _, sample := range analysis.SortedSamples(samples) {
			e := samples[sample]
			row := []tableCell{{text: sample, style: "tableCell"}, cqCell(e.Mean, decimals)}
			switch {
			case e.IsControlGene:
				row = append(row,
					tableCell{text: noValue, style: "tableCellControl"},
					tableCell{text: "reference", style: "tableCellControl"})
			case e.NormalizedMean == nil:
				row = append(row,
					tableCell{text: noValue, style: "tableCellMissing"},
					tableCell{text: noValue, style: "tableCellMissing"})
			default:
				row = append(row,
					tableCell{text: strconv.FormatFloat(*e.DeltaCq, 'f', 4, 64), style: "tableCell"},
					tableCell{text: strconv.FormatFloat(*e.NormalizedMean, 'f', 6, 64), style: "tableCell"})
			}
			rows = append(rows, row)
		}
		s.writeTable(headers, widths, rows)
		s.addSpacer(4)
	}
}

func (s *pdfStyler) writeChartSection(in PDFReportInput) {
	s.writeParagraph("Graphical Analysis", "h1", "C")
	s.addSpacer(5)

	summaries := SummarizeChart(in.Chart)
	if len(summaries) == 0 {
		s.writeParagraph("No chart data: every sample was excluded or normalization was not possible.", "normal", "L")
		return
	}

	s.writeParagraph("Chart Summary", "h2", "L")
	rows := make([][]tableCell, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, []tableCell{
			{text: sum.Target, style: "tableCell"},
			{text: strconv.Itoa(sum.Count), style: "tableCell"},
			{text: strconv.FormatFloat(sum.Max, 'f', 4, 64), style: "tableCell"},
			{text: strconv.FormatFloat(sum.Min, 'f', 4, 64), style: "tableCell"},
			{text: strconv.FormatFloat(sum.Mean, 'f', 4, 64), style: "tableCell"},
		})
	}
	s.writeTable([]string{"Target", "Samples", "Max", "Min", "Mean"},
		[]float64{0.32, 0.17, 0.17, 0.17, 0.17}, rows)
	s.addSpacer(5)

	if len(in.Heatmap) > 0 {
		s.newPage()
		s.writeParagraph("Expression Heatmap", "h2", "L")
		w := pdfContentWidth * 0.9
		s.addImage(in.Heatmap, "heatmap_expression", w, w*0.5, "log2 relative expression per Target and Sample")
	}

	imgWidth := pdfContentWidth * 0.8
	imgHeight := imgWidth * (400.0 / 800.0)
	for i, img := range in.Charts {
		if len(img.PNG) == 0 {
			s.writeParagraph(fmt.Sprintf("Chart for %s not available.", img.Target), "normal", "L")
			continue
		}
		if i%2 == 0 {
			s.newPage()
		}
		s.addImage(img.PNG, fmt.Sprintf("chart_%d", i), imgWidth, imgHeight, "Normalized expression: "+img.Target)
	}
}

func buildPDF(in PDFReportInput) *gofpdf.Fpdf {
	decimals := in.Decimals
	if decimals <= 0 {
		decimals = DefaultDecimalPlaces
	}

	pdf := gofpdf.New("L", "mm", "Letter", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("qPCR Analysis Report", true)
	pdf.AddPage()

	styler := newPDFStyler(pdf)
	styler.writeParagraph("qPCR Analysis Report", "h1", "C")
	styler.addSpacer(5)
	if in.Source != "" {
		styler.writeParagraph("Source: "+in.Source, "normal", "L")
	}
	styler.writeParagraph("Reference gene: "+in.ReferenceGene, "normal", "L")
	styler.writeParagraph("Analysis date: "+analysisDate(in.Generated), "normal", "L")
	styler.addSpacer(5)

	styler.writeMeansSection(in.Means, decimals)
	styler.newPage()
	styler.writeNormalizedSection(in.Normalized, in.ReferenceGene, decimals)
	styler.newPage()
	styler.writeChartSection(in)
	return pdf
}

// WritePDFReport renders the report to w.
func WritePDFReport(w io.Writer, in PDFReportInput) error {
	pdf := buildPDF(in)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render PDF report: %w", err)
	}
	return nil
}

// BuildPDFReport creates the PDF report at path.
func BuildPDFReport(path string, in PDFReportInput) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create PDF report %s: %w", path, err)
	}
	if err := WritePDFReport(f, in); err != nil {
		f.Close()
		return err
	}
	slog.Debug("PDF report written", slog.String("path", path), slog.Int("charts", len(in.Charts)))
	return f.Close()
}
