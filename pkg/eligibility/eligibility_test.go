package eligibility

import (
	"errors"
	"math"
	"testing"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		input    Input
		eligible bool
		reason   string
	}{
		{
			name:     "Unemployed with strong finances",
			input:    Input{IsEmployed: false, MonthlyIncome: 100000, MonthlyExpenses: 30000, CreditScore: 800},
			eligible: false,
			reason:   ReasonNotEmployed,
		},
		{
			name:     "Unemployed with weak finances",
			input:    Input{IsEmployed: false, MonthlyIncome: 0, MonthlyExpenses: 60000, CreditScore: 300},
			eligible: false,
			reason:   ReasonNotEmployed,
		},
		{
			name:     "Expenses exceed income",
			input:    Input{IsEmployed: true, MonthlyIncome: 50000, MonthlyExpenses: 60000, CreditScore: 700},
			eligible: false,
			reason:   ReasonIncomeTooLow,
		},
		{
			name:     "Income equals expenses",
			input:    Input{IsEmployed: true, MonthlyIncome: 40000, MonthlyExpenses: 40000, CreditScore: 800},
			eligible: false,
			reason:   ReasonIncomeTooLow,
		},
		{
			name:     "Income rule outranks credit score",
			input:    Input{IsEmployed: true, MonthlyIncome: 10000, MonthlyExpenses: 20000, CreditScore: 400},
			eligible: false,
			reason:   ReasonIncomeTooLow,
		},
		{
			name:     "Credit score too low",
			input:    Input{IsEmployed: true, MonthlyIncome: 100000, MonthlyExpenses: 30000, CreditScore: 649},
			eligible: false,
			reason:   ReasonCreditScoreLow,
		},
		{
			name:     "Credit score at threshold",
			input:    Input{IsEmployed: true, MonthlyIncome: 100000, MonthlyExpenses: 30000, CreditScore: 650},
			eligible: true,
			reason:   ReasonEligible,
		},
		{
			name:     "Eligible applicant",
			input:    Input{IsEmployed: true, MonthlyIncome: 100000, MonthlyExpenses: 30000, CreditScore: 700},
			eligible: true,
			reason:   ReasonEligible,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Check(tt.input)
			if err != nil {
				t.Fatalf("Check() error = %v", err)
			}
			if result.Eligible != tt.eligible {
				t.Errorf("Check() eligible = %v, expected %v", result.Eligible, tt.eligible)
			}
			if result.Reason != tt.reason {
				t.Errorf("Check() reason = %q, expected %q", result.Reason, tt.reason)
			}
		})
	}
}

func TestCheckInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		field string
	}{
		{"Credit score below range", Input{IsEmployed: true, MonthlyIncome: 1, CreditScore: 299}, "creditScore"},
		{"Credit score above range", Input{IsEmployed: true, MonthlyIncome: 1, CreditScore: 901}, "creditScore"},
		{"Negative income", Input{IsEmployed: true, MonthlyIncome: -1, CreditScore: 700}, "monthlyIncome"},
		{"Negative expenses", Input{IsEmployed: true, MonthlyIncome: 1, MonthlyExpenses: -1, CreditScore: 700}, "monthlyExpenses"},
		{"NaN income", Input{IsEmployed: true, MonthlyIncome: math.NaN(), MonthlyExpenses: 30000, CreditScore: 700}, "monthlyIncome"},
		{"Infinite income", Input{IsEmployed: true, MonthlyIncome: math.Inf(1), MonthlyExpenses: 30000, CreditScore: 700}, "monthlyIncome"},
		{"NaN expenses", Input{IsEmployed: true, MonthlyIncome: 50000, MonthlyExpenses: math.NaN(), CreditScore: 700}, "monthlyExpenses"},
		{"Infinite expenses", Input{IsEmployed: true, MonthlyIncome: 50000, MonthlyExpenses: math.Inf(-1), CreditScore: 700}, "monthlyExpenses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(tt.input)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var inputErr *InvalidInputError
			if !errors.As(err, &inputErr) || inputErr.Field != tt.field {
				t.Errorf("expected invalid field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestResultMessage(t *testing.T) {
	tests := []struct {
		reason   string
		expected string
	}{
		{ReasonNotEmployed, "Applicant must be employed to be eligible for a loan."},
		{ReasonIncomeTooLow, "Income must be greater than expenses to qualify for a loan."},
		{ReasonCreditScoreLow, "Credit score must be greater than 650 to qualify for a loan."},
		{ReasonEligible, "Congratulations! You are eligible for the loan."},
		{"something else", "something else"},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			if got := (Result{Reason: tt.reason}).Message(); got != tt.expected {
				t.Errorf("Message() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
