package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

const (
	pageWidth   = 190.0
	lineHeight  = 7.0
	headingSize = 14.0
)

// RenderPDF writes the printable report as an A4 PDF
func RenderPDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Plagiarism Analysis Report", true)
	pdf.SetCreator("plagscan-dashboard", true)
	pdf.SetCreationDate(doc.GeneratedAt)
	pdf.SetModificationDate(doc.GeneratedAt)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(pageWidth-50, 10, "Plagiarism Analysis Report", "", 0, "L", false, 0, "")
	setBadgeColors(pdf, doc.BadgeVariant)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(50, 10, doc.BandLabel, "", 1, "C", true, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(pageWidth, 6, "Generated on "+doc.GeneratedAt.Format("2006-01-02")+" at "+doc.GeneratedAt.Format("15:04:05"), "B", 1, "L", false, 0, "")
	pdf.Ln(4)

	heading(pdf, "Document Statistics")
	row(pdf, "Total Word Count", thousands(doc.WordCount))
	row(pdf, "AI-Generated Content", doc.AIProbability+"%")
	row(pdf, "Plagiarized Content", doc.OverallPercent+"%")
	row(pdf, "Verdict", doc.AIVerdict)
	pdf.Ln(4)

	heading(pdf, "Similarity Metrics")
	if len(doc.Metrics) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(pageWidth, lineHeight, "No matching sources.", "", 1, "L", false, 0, "")
	} else {
		widths := []float64{90, 25, 25, 25, 25}
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range []string{"Source", "Semantic", "N-gram", "Fuzzy", "Overall"} {
			pdf.CellFormat(widths[i], lineHeight, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		for _, m := range doc.Metrics {
			name := m.Title
			if name == "" {
				name = "Source " + m.ReferenceID
			}
			cells := []string{truncate(tr(name), 48), m.Semantic + "%", m.Ngram + "%", m.Fuzzy + "%", m.Overall + "%"}
			for i, c := range cells {
				pdf.CellFormat(widths[i], lineHeight, c, "", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}
	pdf.Ln(4)

	heading(pdf, "Matching Sources")
	for _, card := range doc.Sources {
		title := card.Title
		if title == "" {
			title = "Source " + card.ReferenceID
		}
		pdf.SetFont("Helvetica", "B", 10)
		if card.Destructive {
			pdf.SetTextColor(220, 38, 38)
		}
		pdf.MultiCell(pageWidth, lineHeight, tr(title)+"  ["+card.Badge+"]", "", "L", false)
		pdf.SetTextColor(0, 0, 0)

		pdf.SetFont("Helvetica", "", 9)
		if card.Author != "" {
			pdf.MultiCell(pageWidth, 5, tr(card.Author), "", "L", false)
		}
		if card.Link != "" {
			pdf.SetTextColor(37, 99, 235)
			pdf.CellFormat(pageWidth, 5, truncate(card.Link, 100), "", 1, "L", false, 0, card.Link)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.CellFormat(pageWidth, 5, "Match: "+card.Score+"%", "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}

	if doc.Title != "" {
		pdf.Ln(2)
		heading(pdf, "Document Preview")
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(pageWidth, lineHeight, tr(doc.Title), "", "L", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to render pdf report: %w", err)
	}
	return nil
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", headingSize)
	pdf.CellFormat(pageWidth, 9, text, "", 1, "L", false, 0, "")
}

func row(pdf *fpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(pageWidth-40, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Courier", "", 10)
	pdf.CellFormat(40, lineHeight, value, "", 1, "R", false, 0, "")
}

func setBadgeColors(pdf *fpdf.Fpdf, variant string) {
	switch variant {
	case VariantDestructive:
		pdf.SetFillColor(220, 38, 38)
		pdf.SetTextColor(255, 255, 255)
	case VariantSecondary:
		pdf.SetFillColor(229, 231, 235)
		pdf.SetTextColor(17, 17, 17)
	default:
		pdf.SetFillColor(22, 163, 74)
		pdf.SetTextColor(255, 255, 255)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
