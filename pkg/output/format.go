// Package output provides utilities for formatting and displaying schedules.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/iwvelando/emi-calculator/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Columns are the schedule table headings, in order.
var Columns = []string{"Month", "EMI", "Principal Paid", "Interest Paid", "Balance"}

// HasDates reports whether the schedule rows carry payment dates.
func HasDates(schedule loans.Schedule) bool {
	return len(schedule.Rows) > 0 && schedule.Rows[0].Date != ""
}

// Headings returns the column headings for schedule, adding a Date column for
// dated schedules.
func Headings(schedule loans.Schedule) []string {
	if !HasDates(schedule) {
		return append([]string(nil), Columns...)
	}
	return append([]string{Columns[0], "Date"}, Columns[1:]...)
}

// PrettyFormat writes a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, schedule loans.Schedule, symbol string) {
	p := message.NewPrinter(language.English)
	dated := HasDates(schedule)

	_, _ = p.Fprintf(w, "Monthly EMI: %s%.2f\n", symbol, schedule.Installment())
	_, _ = p.Fprintf(w, "Total Interest Paid: %s%.2f\n", symbol, schedule.TotalInterestPaid)
	_, _ = fmt.Fprintf(w, "Months: %d\n\n", len(schedule.Rows))

	if dated {
		_, _ = fmt.Fprintf(w, "Month | Date    | EMI | Principal Paid | Interest Paid | Balance\n")
		_, _ = fmt.Fprintf(w, "_____ | _______ | ___ | ______________ | _____________ | _______\n")
	} else {
		_, _ = fmt.Fprintf(w, "Month | EMI | Principal Paid | Interest Paid | Balance\n")
		_, _ = fmt.Fprintf(w, "_____ | ___ | ______________ | _____________ | _______\n")
	}
	for _, row := range schedule.Rows {
		if dated {
			_, _ = p.Fprintf(w, "%d | %s | %.2f | %.2f | %.2f | %.2f\n",
				row.Month, row.Date, row.Installment, row.PrincipalPaid, row.InterestPaid, row.RemainingBalance)
			continue
		}
		_, _ = p.Fprintf(w, "%d | %.2f | %.2f | %.2f | %.2f\n",
			row.Month, row.Installment, row.PrincipalPaid, row.InterestPaid, row.RemainingBalance)
	}
}

// CsvFormat writes the schedule in comma-separated value format.
func CsvFormat(w io.Writer, schedule loans.Schedule) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headings(schedule)); err != nil {
		return err
	}

	dated := HasDates(schedule)
	for _, row := range schedule.Rows {
		record := []string{strconv.Itoa(row.Month)}
		if dated {
			record = append(record, row.Date)
		}
		record = append(record,
			money(row.Installment),
			money(row.PrincipalPaid),
			money(row.InterestPaid),
			money(row.RemainingBalance),
		)
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
