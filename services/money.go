package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ConvertCents converts a stored minor-unit amount into the display currency
// and rounds it to 2 decimal places. The rounding happens exactly once, here,
// so document totals can sum the returned values without drift.
func ConvertCents(cents int64, rate float64) decimal.Decimal {
	d := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100))
	if rate != 1 {
		d = d.Div(decimal.NewFromFloat(rate))
	}
	return d.Round(2)
}

// FormatMoney renders an already-rounded amount with its currency symbol,
// always showing 2 decimal places.
func FormatMoney(symbol string, amount decimal.Decimal) string {
	return symbol + amount.StringFixed(2)
}

// roundTo rounds a raw metric for display. Like ConvertCents this is the
// single rounding point for the value; aggregates sum the rounded results.
func roundTo(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}

// currencyWordNames maps currency codes to the plural unit names used in the
// SAY line of the proforma layout.
var currencyWordNames = map[string]struct {
	unit string
	cent string
}{
	"USD": {unit: "US DOLLARS", cent: "CENTS"},
	"CNY": {unit: "CHINESE YUAN", cent: "FEN"},
}

// AmountInWords spells a display amount out in English for the SAY row,
// e.g. "SAY TOTAL US DOLLARS TWO THOUSAND FIVE HUNDRED AND CENTS TEN ONLY.".
func AmountInWords(currencyCode string, amount decimal.Decimal) string {
	names, ok := currencyWordNames[currencyCode]
	if !ok {
		names.unit = currencyCode
		names.cent = "CENTS"
	}

	units := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(units)).Mul(decimal.NewFromInt(100)).Round(0).IntPart()

	unitWords := "ZERO"
	if units > 0 {
		unitWords = strings.ToUpper(numberToWords(units))
	}

	say := "SAY TOTAL " + names.unit + " " + unitWords
	if cents > 0 {
		say += " AND " + names.cent + " " + strings.ToUpper(numberToWords(cents))
	}
	return say + " ONLY."
}

// numberToWords converts a non-negative integer to English words using
// thousand/million/billion grouping.
func numberToWords(n int64) string {
	if n == 0 {
		return "Zero"
	}

	groups := []struct {
		value int64
		name  string
	}{
		{1_000_000_000, "Billion"},
		{1_000_000, "Million"},
		{1_000, "Thousand"},
	}

	var parts []string
	for _, g := range groups {
		if n >= g.value {
			parts = append(parts, convertUnderThousand(n/g.value)+" "+g.name)
			n %= g.value
		}
	}
	if n > 0 {
		parts = append(parts, convertUnderThousand(n))
	}
	return strings.Join(parts, " ")
}

func convertUnderThousand(n int64) string {
	if n >= 100 {
		result := ones[n/100] + " Hundred"
		if n%100 != 0 {
			result += " " + convertUnderHundred(n%100)
		}
		return result
	}
	return convertUnderHundred(n)
}

func convertUnderHundred(n int64) string {
	if n < 20 {
		return ones[n]
	}
	result := tens[n/10]
	if n%10 != 0 {
		result += " " + ones[n%10]
	}
	return result
}

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}
