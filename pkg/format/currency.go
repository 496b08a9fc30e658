// Package format renders amounts for display. Symbols are cosmetic: no
// currency conversion takes place.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/emi-calculator/pkg/constants"
	"github.com/shopspring/decimal"
)

// DefaultSymbol is used when no currency symbol has been selected.
const DefaultSymbol = "PKR"

// Currency returns a currency string with the given symbol prefix and thousands
// separators (e.g., "-$1,234.56" or "PKR5,939.79").
func Currency(symbol string, amount float64) string {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-" + symbol + formatted
	}
	return symbol + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	return sign + formatted
}

// Amount rounds a float to currency precision as a decimal, suitable for JSON
// responses and exports.
func Amount(amount float64) decimal.Decimal {
	return decimal.NewFromFloat(amount).Round(constants.CurrencyDecimalPlaces)
}

func formatPositiveCurrency(value float64) string {
	formatted := Amount(value).StringFixed(constants.CurrencyDecimalPlaces)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	return fmt.Sprintf("%s.%s", intPart, decPart)
}
