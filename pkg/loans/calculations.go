// Package loans provides the installment and amortization calculations.
package loans

import (
	"math"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/datetime"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
)

// Terms holds the parameters of one calculation run.
type Terms struct {
	Principal             float64
	AnnualRatePercent     float64
	TenureMonths          int
	ExtraMonthlyPayment   float64
	BalloonPaymentPerYear float64
	// StartMonth optionally dates the first payment (YYYY-MM). Rows carry no
	// date when it is empty.
	StartMonth string
}

// ScheduleRow holds the values for a given month.
type ScheduleRow struct {
	Month            int
	Date             string
	Installment      float64
	PrincipalPaid    float64
	InterestPaid     float64
	RemainingBalance float64
}

// Schedule is the month-ordered amortization of a loan.
type Schedule struct {
	Rows              []ScheduleRow
	TotalInterestPaid float64
}

// MonthlyRate converts an annual percentage rate to a monthly decimal rate.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / (constants.PercentageMultiplier * constants.MonthsPerYear)
}

// InterestFor calculates the interest accrued on balance over one month.
func InterestFor(balance, annualRatePercent float64) float64 {
	return balance * MonthlyRate(annualRatePercent)
}

// ComputeInstallment calculates the equal monthly installment that amortizes
// principal over tenureMonths at the given annual rate.
func ComputeInstallment(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if err := validateCore(principal, annualRatePercent, tenureMonths); err != nil {
		return 0, err
	}
	return installment(principal, annualRatePercent, tenureMonths), nil
}

func installment(principal, annualRatePercent float64, tenureMonths int) float64 {
	if annualRatePercent == 0 {
		// Flat amortization; the closed form divides by zero here.
		return principal / float64(tenureMonths)
	}

	r := MonthlyRate(annualRatePercent)
	power := math.Pow(1.00+r, float64(tenureMonths))
	return principal * r * power / (power - 1.00)
}

// BuildAmortizationSchedule walks the loan month by month. Extra payments are
// applied every month and the balloon payment every twelfth month. The
// balance is floored at zero and the schedule stops at the first month it
// reaches zero, so len(Rows) <= TenureMonths.
func BuildAmortizationSchedule(terms Terms) (Schedule, error) {
	if err := terms.Validate(); err != nil {
		return Schedule{}, err
	}

	emi := installment(terms.Principal, terms.AnnualRatePercent, terms.TenureMonths)
	rate := MonthlyRate(terms.AnnualRatePercent)

	schedule := Schedule{Rows: make([]ScheduleRow, 0, terms.TenureMonths)}
	balance := terms.Principal
	for month := 1; month <= terms.TenureMonths; month++ {
		interest := balance * rate
		principalPaid := emi - interest + terms.ExtraMonthlyPayment
		balance -= principalPaid
		if month%constants.BalloonFrequency == 0 {
			balance -= terms.BalloonPaymentPerYear
		}
		if balance < 0 {
			balance = 0
		}
		schedule.TotalInterestPaid += interest

		row := ScheduleRow{
			Month:            month,
			Installment:      emi,
			PrincipalPaid:    principalPaid,
			InterestPaid:     interest,
			RemainingBalance: balance,
		}
		if terms.StartMonth != "" {
			date, err := datetime.OffsetDate(terms.StartMonth, datetime.DateTimeLayout, month-1)
			if err != nil {
				return Schedule{}, err
			}
			row.Date = date
		}
		schedule.Rows = append(schedule.Rows, row)

		if balance == 0 {
			break
		}
	}

	return schedule, nil
}

// Validate checks every field of the terms.
func (t Terms) Validate() error {
	if err := validateCore(t.Principal, t.AnnualRatePercent, t.TenureMonths); err != nil {
		return err
	}
	if !mathutil.IsFinite(t.ExtraMonthlyPayment) || t.ExtraMonthlyPayment < 0 {
		return invalid("extraMonthlyPayment", t.ExtraMonthlyPayment, "must be zero or greater")
	}
	if !mathutil.IsFinite(t.BalloonPaymentPerYear) || t.BalloonPaymentPerYear < 0 {
		return invalid("balloonPaymentPerYear", t.BalloonPaymentPerYear, "must be zero or greater")
	}
	if t.StartMonth != "" {
		if _, err := datetime.ParseMonth(t.StartMonth); err != nil {
			return &InvalidInputError{Field: "startMonth", Reason: "expected YYYY-MM, got " + t.StartMonth}
		}
	}
	return nil
}

func validateCore(principal, annualRatePercent float64, tenureMonths int) error {
	if !mathutil.IsFinite(principal) || principal <= 0 {
		return invalid("principal", principal, "must be greater than zero")
	}
	if !mathutil.IsFinite(annualRatePercent) || annualRatePercent < 0 {
		return invalid("annualRatePercent", annualRatePercent, "must be zero or greater")
	}
	if tenureMonths <= 0 {
		return invalid("tenureMonths", float64(tenureMonths), "must be greater than zero")
	}
	return nil
}

// TotalPrincipalPaid sums the principal portion of every row.
func (s Schedule) TotalPrincipalPaid() float64 {
	total := 0.0
	for _, row := range s.Rows {
		total += row.PrincipalPaid
	}
	return total
}

// FinalBalance returns the balance after the last row, or 0 for an empty schedule.
func (s Schedule) FinalBalance() float64 {
	if len(s.Rows) == 0 {
		return 0
	}
	return s.Rows[len(s.Rows)-1].RemainingBalance
}

// Installment returns the installment shared by every row.
func (s Schedule) Installment() float64 {
	if len(s.Rows) == 0 {
		return 0
	}
	return s.Rows[0].Installment
}

// BalanceSeries returns month numbers and remaining balances for charting.
func (s Schedule) BalanceSeries() ([]int, []float64) {
	months := make([]int, len(s.Rows))
	balances := make([]float64, len(s.Rows))
	for i, row := range s.Rows {
		months[i] = row.Month
		balances[i] = row.RemainingBalance
	}
	return months, balances
}
