package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
	"github.com/iwvelando/emi-calculator/pkg/output"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "summary"
	scheduleSheet = "schedule"
)

// XLSX renders a workbook with a summary sheet and a schedule sheet.
func XLSX(summary Summary, schedule loans.Schedule) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, fmt.Errorf("naming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(scheduleSheet); err != nil {
		return nil, fmt.Errorf("creating schedule sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, []interface{}{"Loan EMI Schedule"}); err != nil {
		return nil, err
	}
	summaryRows := [][]interface{}{
		{"Loan Type", summary.LoanType},
		{"Currency", summary.Currency},
		{"Principal", summary.Terms.Principal},
		{"Annual Rate (%)", summary.Terms.AnnualRatePercent},
		{"Tenure (months)", summary.Terms.TenureMonths},
		{"Extra Monthly Payment", summary.Terms.ExtraMonthlyPayment},
		{"Balloon Payment (yearly)", summary.Terms.BalloonPaymentPerYear},
		{"Monthly EMI", mathutil.Round(summary.Installment)},
		{"Total Interest Paid", mathutil.Round(summary.TotalInterest)},
		{"Total Payment", mathutil.Round(summary.TotalPayment)},
		{"Months", len(schedule.Rows)},
		{"Generated", summary.GeneratedAt.Format(time.RFC3339)},
	}
	for i, values := range summaryRows {
		if err := writeRow(f, summarySheet, i+3, values); err != nil {
			return nil, err
		}
	}

	headings := output.Headings(schedule)
	header := make([]interface{}, len(headings))
	for i, heading := range headings {
		header[i] = heading
	}
	if err := writeRow(f, scheduleSheet, 1, header); err != nil {
		return nil, err
	}

	dated := output.HasDates(schedule)
	for i, r := range schedule.Rows {
		values := []interface{}{r.Month}
		if dated {
			values = append(values, r.Date)
		}
		values = append(values,
			mathutil.Round(r.Installment),
			mathutil.Round(r.PrincipalPaid),
			mathutil.Round(r.InterestPaid),
			mathutil.Round(r.RemainingBalance),
		)
		if err := writeRow(f, scheduleSheet, i+2, values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("writing XLSX: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRow writes values into sheet starting at column A of the given row.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("writing %s row %d: %w", sheet, row, err)
	}
	return nil
}
