package export

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
)

func PDF(doc Document) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Billing "+doc.BillingID)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, tr("Provider: "+doc.ProviderName))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Period: %s - %s",
		doc.PeriodStart.Format("02.01.2006 15:04"), doc.PeriodEnd.Format("02.01.2006 15:04")))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Created: "+doc.CreatedAt.Format("02.01.2006 15:04"))
	pdf.Ln(11)

	widths := []float64{35, 65, 20, 40, 30}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Room", "Slot", "Min", "Details", "Amount"} {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, l := range doc.Lines {
		pdf.CellFormat(widths[0], 7, tr(l.Room), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(l.Slot), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", l.DurationMinutes), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(l.Description), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 7, money(l.Amount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[4], 8, money(doc.Total), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
