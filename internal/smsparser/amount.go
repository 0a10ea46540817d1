package smsparser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// amountPattern matches "Rs"/"INR", optional dots, commas or spaces, then a
// grouped number with an optional two digit fraction. The number must start
// with a digit, so a separator alone is never an amount.
var amountPattern = regexp.MustCompile(`(?i)(?:Rs|INR)[\s.,]*(\d[\d,]*(?:\.\d{2})?)`)

// ExtractAmount returns the first currency-prefixed amount in body.
// The first match is preferred because balances usually trail the amount.
func ExtractAmount(body string) (decimal.Decimal, bool) {
	m := amountPattern.FindStringSubmatch(body)
	if m == nil {
		return decimal.Zero, false
	}

	raw := strings.ReplaceAll(m[1], ",", "")
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return amount, true
}
