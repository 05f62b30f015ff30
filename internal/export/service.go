// Package export produces XLSX workbooks from booking drafts, one journal
// row per draft, for handoff to the reviewing accountant.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/booking-drafts/internal/entity"
)

// Service turns drafts into XLSX bytes.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// DraftsXLSX returns an XLSX workbook (as bytes) with one journal row per
// draft. From/to bound the draft dates (date-only, inclusive); nil means
// unbounded on that side.
func (s *Service) DraftsXLSX(drafts []*entity.BookingDraft, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromDate, toDate *time.Time
	if from != nil {
		f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		fromDate = &f
	}
	if to != nil {
		t := time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 0, time.UTC)
		toDate = &t
	}

	f := excelize.NewFile()
	const sheet = "Buchungen"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Datum",
		"Beschreibung",
		"Soll",
		"Haben",
		"Kategorie",
		"Betrag",
		"MwSt-Satz",
		"MwSt-Betrag",
		"Währung",
		"Status",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	written := 0
	for _, d := range drafts {
		if d == nil {
			continue
		}
		if fromDate != nil && d.Date.Before(*fromDate) {
			continue
		}
		if toDate != nil && d.Date.After(*toDate) {
			continue
		}

		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !d.Date.IsZero() {
			write(1, d.Date.Format("2006-01-02"))
		} else {
			write(1, "")
		}
		write(2, truncate(d.Description, 140))
		write(3, d.DebitAccount)
		write(4, d.CreditAccount)
		write(5, d.Category)
		write(6, d.Amount.StringFixed(2))
		write(7, d.VATRate.String())
		if d.VATAmount != nil {
			write(8, d.VATAmount.StringFixed(2))
		} else {
			write(8, "")
		}
		write(9, d.Currency)
		write(10, string(d.PaymentStatus))

		row++
		written++
	}

	_ = f.SetColWidth(sheet, "A", "A", 12)
	_ = f.SetColWidth(sheet, "B", "B", 48)
	_ = f.SetColWidth(sheet, "C", "E", 14)
	_ = f.SetColWidth(sheet, "F", "H", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", written,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
