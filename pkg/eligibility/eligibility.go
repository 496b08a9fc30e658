// Package eligibility implements the loan eligibility rule chain.
package eligibility

import (
	"errors"
	"fmt"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/iwvelando/emi-calculator/pkg/mathutil"
)

// Reasons returned by Check. The first failing rule wins.
const (
	ReasonNotEmployed    = "must be employed"
	ReasonIncomeTooLow   = "income must exceed expenses"
	ReasonCreditScoreLow = "credit score must exceed 650"
	ReasonEligible       = "eligible"
)

var messages = map[string]string{
	ReasonNotEmployed:    "Applicant must be employed to be eligible for a loan.",
	ReasonIncomeTooLow:   "Income must be greater than expenses to qualify for a loan.",
	ReasonCreditScoreLow: "Credit score must be greater than 650 to qualify for a loan.",
	ReasonEligible:       "Congratulations! You are eligible for the loan.",
}

// ErrInvalidInput is matched by every InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid eligibility input")

// InvalidInputError reports an applicant field outside its accepted range.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidInput) true.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Input describes the applicant.
type Input struct {
	IsEmployed      bool    `json:"isEmployed"`
	MonthlyIncome   float64 `json:"monthlyIncome"`
	MonthlyExpenses float64 `json:"monthlyExpenses"`
	CreditScore     int     `json:"creditScore"`
}

// Result is the outcome of the rule chain.
type Result struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason"`
}

// Message returns the sentence shown to the applicant for this result.
func (r Result) Message() string {
	if msg, ok := messages[r.Reason]; ok {
		return msg
	}
	return r.Reason
}

// Validate checks the ranges the input form is expected to enforce.
func (in Input) Validate() error {
	if !mathutil.IsFinite(in.MonthlyIncome) {
		return &InvalidInputError{Field: "monthlyIncome", Reason: "must be a finite number"}
	}
	if in.MonthlyIncome < 0 {
		return &InvalidInputError{Field: "monthlyIncome", Reason: "cannot be negative"}
	}
	if !mathutil.IsFinite(in.MonthlyExpenses) {
		return &InvalidInputError{Field: "monthlyExpenses", Reason: "must be a finite number"}
	}
	if in.MonthlyExpenses < 0 {
		return &InvalidInputError{Field: "monthlyExpenses", Reason: "cannot be negative"}
	}
	if in.CreditScore < constants.MinCreditScore || in.CreditScore > constants.MaxCreditScore {
		return &InvalidInputError{
			Field:  "creditScore",
			Reason: fmt.Sprintf("must be between %d and %d", constants.MinCreditScore, constants.MaxCreditScore),
		}
	}
	return nil
}

// Check runs the rules in priority order: employment, income over expenses,
// then credit score.
func Check(in Input) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}

	switch {
	case !in.IsEmployed:
		return Result{Eligible: false, Reason: ReasonNotEmployed}, nil
	case in.MonthlyIncome <= in.MonthlyExpenses:
		return Result{Eligible: false, Reason: ReasonIncomeTooLow}, nil
	case in.CreditScore < constants.EligibleCreditScore:
		return Result{Eligible: false, Reason: ReasonCreditScoreLow}, nil
	default:
		return Result{Eligible: true, Reason: ReasonEligible}, nil
	}
}
