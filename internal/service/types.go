package service

import (
	"github.com/iwvelando/emi-calculator/pkg/format"
	"github.com/iwvelando/emi-calculator/pkg/loans"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
)

// CalculateRequest carries the loan form inputs. A nil AnnualRatePercent
// means "use the loan type preset".
type CalculateRequest struct {
	LoanType              string   `json:"loanType,omitempty"`
	Principal             float64  `json:"principal"`
	AnnualRatePercent     *float64 `json:"annualRatePercent,omitempty"`
	TenureMonths          int      `json:"tenureMonths"`
	ExtraMonthlyPayment   float64  `json:"extraMonthlyPayment"`
	BalloonPaymentPerYear float64  `json:"balloonPaymentPerYear"`
	StartMonth            string   `json:"startMonth,omitempty"`
	Currency              string   `json:"currency,omitempty"`
	Language              string   `json:"language,omitempty"`
}

// Terms converts the request to calculation terms.
func (r CalculateRequest) Terms() loans.Terms {
	return loans.Terms{
		Principal:             r.Principal,
		AnnualRatePercent:     r.rate(),
		TenureMonths:          r.TenureMonths,
		ExtraMonthlyPayment:   r.ExtraMonthlyPayment,
		BalloonPaymentPerYear: r.BalloonPaymentPerYear,
		StartMonth:            r.StartMonth,
	}
}

func (r CalculateRequest) rate() float64 {
	if r.AnnualRatePercent == nil {
		return 0
	}
	return *r.AnnualRatePercent
}

// Rate returns a pointer to v for CalculateRequest.AnnualRatePercent.
func Rate(v float64) *float64 {
	return &v
}

// Row is one schedule row rounded to currency precision.
type Row struct {
	Month            int             `json:"month"`
	Date             string          `json:"date,omitempty"`
	Installment      decimal.Decimal `json:"installment"`
	PrincipalPaid    decimal.Decimal `json:"principalPaid"`
	InterestPaid     decimal.Decimal `json:"interestPaid"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Series is the month vs remaining balance line.
type Series struct {
	Months   []int             `json:"months"`
	Balances []decimal.Decimal `json:"balances"`
}

// Breakdown splits the nominal repayment into principal and interest for the
// pie chart. Interest here is installment × tenure − principal and ignores
// extra and balloon payments; TotalInterest on the result is what the
// schedule actually accrued.
type Breakdown struct {
	Principal      decimal.Decimal `json:"principal"`
	Interest       decimal.Decimal `json:"interest"`
	PrincipalShare decimal.Decimal `json:"principalShare"`
	InterestShare  decimal.Decimal `json:"interestShare"`
}

// Formatted holds display strings with the selected currency symbol.
type Formatted struct {
	Installment   string `json:"installment"`
	TotalInterest string `json:"totalInterest"`
	TotalPayment  string `json:"totalPayment"`
	Principal     string `json:"principal"`
}

// CalculateResult is everything the UI renders for one calculation.
type CalculateResult struct {
	LoanType      string          `json:"loanType"`
	Currency      string          `json:"currency"`
	Language      string          `json:"language"`
	Installment   decimal.Decimal `json:"installment"`
	TotalInterest decimal.Decimal `json:"totalInterest"`
	TotalPayment  decimal.Decimal `json:"totalPayment"`
	Months        int             `json:"months"`
	Rows          []Row           `json:"rows"`
	BalanceSeries Series          `json:"balanceSeries"`
	Breakdown     Breakdown       `json:"breakdown"`
	Formatted     Formatted       `json:"formatted"`

	Terms    loans.Terms    `json:"-"`
	Schedule loans.Schedule `json:"-"`
}

func newResult(req CalculateRequest, terms loans.Terms, schedule loans.Schedule) *CalculateResult {
	installment := schedule.Installment()
	totalPayment := schedule.TotalPrincipalPaid() + schedule.TotalInterestPaid

	rows := make([]Row, len(schedule.Rows))
	for i, r := range schedule.Rows {
		rows[i] = Row{
			Month:            r.Month,
			Date:             r.Date,
			Installment:      format.Amount(r.Installment),
			PrincipalPaid:    format.Amount(r.PrincipalPaid),
			InterestPaid:     format.Amount(r.InterestPaid),
			RemainingBalance: format.Amount(r.RemainingBalance),
		}
	}
	months, balances := schedule.BalanceSeries()

	nominalTotal := installment * float64(terms.TenureMonths)
	nominalInterest := nominalTotal - terms.Principal

	return &CalculateResult{
		LoanType:      req.LoanType,
		Currency:      req.Currency,
		Language:      req.Language,
		Installment:   format.Amount(installment),
		TotalInterest: format.Amount(schedule.TotalInterestPaid),
		TotalPayment:  format.Amount(totalPayment),
		Months:        len(schedule.Rows),
		Rows:          rows,
		BalanceSeries: Series{Months: months, Balances: amounts(balances)},
		Breakdown: Breakdown{
			Principal:      format.Amount(terms.Principal),
			Interest:       format.Amount(nominalInterest),
			PrincipalShare: format.Amount(mathutil.CalculatePercentage(terms.Principal, nominalTotal)),
			InterestShare:  format.Amount(mathutil.CalculatePercentage(nominalInterest, nominalTotal)),
		},
		Formatted: Formatted{
			Installment:   format.Currency(req.Currency, installment),
			TotalInterest: format.Currency(req.Currency, schedule.TotalInterestPaid),
			TotalPayment:  format.Currency(req.Currency, totalPayment),
			Principal:     format.Currency(req.Currency, terms.Principal),
		},
		Terms:    terms,
		Schedule: schedule,
	}
}
