// Package format renders amounts for console output.
package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/sales-forecast/pkg/constants"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
// Non-finite amounts are returned as "n/a".
func Currency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "n/a"
	}
	formatted := formatPositive(math.Abs(amount), 2)
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// Count returns a whole-number string with thousands separators (e.g., "1,235").
func Count(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return "n/a"
	}
	sign := ""
	if value < 0 {
		sign = "-"
	}
	return sign + formatPositive(math.Abs(value), 0)
}

// Percent renders a ratio as a percentage with one decimal (0.95 -> "95.0%").
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*constants.PercentageMultiplier)
}

func formatPositive(value float64, decimals int) string {
	formatted := fmt.Sprintf("%.*f", decimals, value)
	intPart, decPart, hasDecimals := strings.Cut(formatted, ".")

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

	if !hasDecimals {
		return intPart
	}
	return intPart + "." + decPart
}
