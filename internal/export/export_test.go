package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Leganyst/studio-booking/internal/apperror"
)

func sampleDocument() Document {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return Document{
		BillingID:    "b-1",
		ProviderName: "Anna",
		PeriodStart:  start,
		PeriodEnd:    start.AddDate(0, 1, 0),
		CreatedAt:    start.AddDate(0, 1, 1),
		Total:        65,
		Lines: []Line{
			{BookingID: "k-1", Room: "Studio A", Slot: "Mon, 03.03.2025, 09:00–10:30", DurationMinutes: 90, Description: "0-60 fixed", Amount: 65},
		},
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(" XLSX "); err != nil || f != FormatXLSX {
		t.Fatalf("xlsx: %v %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatPDF {
		t.Fatalf("empty must default to pdf: %v %v", f, err)
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, apperror.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}

func TestPDF(t *testing.T) {
	out, err := PDF(sampleDocument())
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a pdf")
	}
}

func TestXLSX(t *testing.T) {
	out, err := XLSX(sampleDocument())
	if err != nil {
		t.Fatalf("xlsx: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	v, err := f.GetCellValue(sheet, "A8")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if v != "k-1" {
		t.Fatalf("first line booking id = %q", v)
	}
}

func TestDocument_FileName(t *testing.T) {
	if got := sampleDocument().FileName(FormatXLSX); got != "billing_b-1_20250301.xlsx" {
		t.Fatalf("file name = %q", got)
	}
}
