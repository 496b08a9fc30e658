// Package export renders amortization schedules as downloadable files.
package export

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
)

// ErrUnsupportedFormat is returned by Render for unknown formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Summary is the header information printed above the schedule.
type Summary struct {
	Terms         loans.Terms
	LoanType      string
	Currency      string
	Installment   float64
	TotalInterest float64
	TotalPayment  float64
	GeneratedAt   time.Time
}

// NewSummary derives the summary figures from a computed schedule.
func NewSummary(terms loans.Terms, loanType, currency string, schedule loans.Schedule) Summary {
	return Summary{
		Terms:         terms,
		LoanType:      loanType,
		Currency:      currency,
		Installment:   schedule.Installment(),
		TotalInterest: schedule.TotalInterestPaid,
		TotalPayment:  schedule.TotalPrincipalPaid() + schedule.TotalInterestPaid,
		GeneratedAt:   time.Now().UTC(),
	}
}

// Formats lists the supported export formats.
func Formats() []string {
	return []string{constants.OutputFormatCSV, constants.ExportFormatXLSX, constants.ExportFormatPDF}
}

// Render builds the export document for format.
func Render(format string, summary Summary, schedule loans.Schedule) ([]byte, error) {
	switch format {
	case constants.OutputFormatCSV:
		return CSV(schedule)
	case constants.ExportFormatXLSX:
		return XLSX(summary, schedule)
	case constants.ExportFormatPDF:
		return PDF(summary, schedule)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case constants.OutputFormatCSV:
		return "text/csv; charset=utf-8"
	case constants.ExportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case constants.ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// FileName returns the attachment name for an export generated at t.
func FileName(format string, t time.Time) string {
	return fmt.Sprintf("emi-schedule-%s.%s", t.Format("20060102-150405"), format)
}

// CSV renders the schedule table only.
func CSV(schedule loans.Schedule) ([]byte, error) {
	var buf bytes.Buffer
	if err := output.CsvFormat(&buf, schedule); err != nil {
		return nil, fmt.Errorf("writing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
