package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatAmount formats a money amount for display, like "₹1,234.50".
// Uses comma as thousands separator and always two decimals.
func FormatAmount(amount decimal.Decimal, symbol string) string {
	rounded := amount.Round(2)
	neg := rounded.IsNegative()
	if neg {
		rounded = rounded.Neg()
	}

	fixed := rounded.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	// Pre-allocate: digits + separators + sign + symbol + fraction
	b.Grow(len(intPart) + len(intPart)/3 + len(symbol) + 4)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)

	// Insert separators from the left.
	rem := len(intPart) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(intPart[:rem])
	for i := rem; i < len(intPart); i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}

	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
