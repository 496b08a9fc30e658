package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/format"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"github.com/jung-kurt/gofpdf"
)

// Core PDF fonts only cover cp1252, which has no rupee sign.
var pdfSymbols = map[string]string{
	"₹": "Rs.",
}

// PDF renders a printable statement: a summary block followed by the
// schedule table, repeating the header row on each page.
func PDF(summary Summary, schedule loans.Schedule) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	symbol := summary.Currency
	if alt, ok := pdfSymbols[symbol]; ok {
		symbol = alt
	}
	money := func(v float64) string {
		return tr(format.Currency(symbol, v))
	}

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 18)
	pdf.SetTextColor(33, 37, 41)
	pdf.CellFormat(0, 10, "Loan EMI Schedule", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(108, 117, 125)
	pdf.CellFormat(0, 6, "Generated "+summary.GeneratedAt.Format(time.RFC1123), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetTextColor(33, 37, 41)
	lines := [][2]string{
		{"Loan Type", tr(summary.LoanType)},
		{"Principal", money(summary.Terms.Principal)},
		{"Annual Rate", fmt.Sprintf("%.2f%%", summary.Terms.AnnualRatePercent)},
		{"Tenure", fmt.Sprintf("%d months", summary.Terms.TenureMonths)},
		{"Extra Monthly Payment", money(summary.Terms.ExtraMonthlyPayment)},
		{"Balloon Payment (yearly)", money(summary.Terms.BalloonPaymentPerYear)},
		{"Monthly EMI", money(summary.Installment)},
		{"Total Interest Paid", money(summary.TotalInterest)},
		{"Total Payment", money(summary.TotalPayment)},
	}
	for _, l := range lines {
		pdf.SetFont("Arial", "", 11)
		pdf.CellFormat(70, 7, l[0], "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 7, l[1], "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	headings := output.Headings(schedule)
	dated := output.HasDates(schedule)
	widths := []float64{18, 36, 36, 36, 54}
	if dated {
		widths = []float64{16, 22, 34, 34, 34, 40}
	}

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(248, 249, 250)
		for i, h := range headings {
			pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range schedule.Rows {
		if pdf.GetY()+6 > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		cells := []string{strconv.Itoa(r.Month)}
		if dated {
			cells = append(cells, r.Date)
		}
		cells = append(cells,
			format.NumericCurrency(r.Installment),
			format.NumericCurrency(r.PrincipalPaid),
			format.NumericCurrency(r.InterestPaid),
			format.NumericCurrency(r.RemainingBalance),
		)
		for i, c := range cells {
			align := "R"
			if i == 0 || (dated && i == 1) {
				align = "C"
			}
			pdf.CellFormat(widths[i], 6, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generating PDF: %w", err)
	}
	return buf.Bytes(), nil
}
