// Package currency converts INR-denominated cart prices for display.
// Conversion never touches stored prices.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	INR = "INR"
	CNY = "CNY"

	// Base is the currency every backend price is denominated in.
	Base = INR
)

var symbols = map[string]string{
	INR: "₹",
	CNY: "¥",
}

// RateTable maps a currency code to its multiplier relative to Base.
type RateTable map[string]decimal.Decimal

// Rate returns the multiplier for code. Missing or zero rates mean identity.
func (t RateTable) Rate(code string) decimal.Decimal {
	if r, ok := t[strings.ToUpper(code)]; ok && r.IsPositive() {
		return r
	}
	return decimal.NewFromInt(1)
}

// Convert applies the rate for target and rounds to two decimal places.
func Convert(amount decimal.Decimal, target string, table RateTable) decimal.Decimal {
	return amount.Mul(table.Rate(target)).Round(2)
}

// Format renders an amount with exactly two decimals.
func Format(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// ForLanguage picks the display currency for a UI language.
func ForLanguage(language string) string {
	if language == "zh-TW" {
		return CNY
	}
	return INR
}

func Symbol(code string) string {
	if s, ok := symbols[strings.ToUpper(code)]; ok {
		return s
	}
	return strings.ToUpper(code)
}
