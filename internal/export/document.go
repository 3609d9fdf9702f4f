// Package export собирает счёт в PDF или XLSX.
package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/Leganyst/studio-booking/internal/apperror"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPDF, "":
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", apperror.InvalidRange("export format must be pdf or xlsx, got %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Document — всё, что нужно для выгрузки счёта.
type Document struct {
	BillingID    string
	ProviderName string
	PeriodStart  time.Time
	PeriodEnd    time.Time
	CreatedAt    time.Time
	Total        float64
	Lines        []Line
}

type Line struct {
	BookingID       string
	Room            string
	Slot            string // уже отформатированный интервал
	DurationMinutes int
	Description     string
	Amount          float64
}

func (d Document) FileName(f Format) string {
	return fmt.Sprintf("billing_%s_%s.%s", d.BillingID, d.PeriodStart.Format("20060102"), f)
}

func Render(f Format, doc Document) ([]byte, error) {
	switch f {
	case FormatXLSX:
		return XLSX(doc)
	default:
		return PDF(doc)
	}
}

func money(v float64) string { return fmt.Sprintf("%.2f", v) }
