// Package format renders aggregated numbers for display. The locale and
// currency are fixed (en-PH, Philippine peso) so rendered strings stay
// deterministic across hosts.
package format

import (
	"fmt"
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const pesoSign = "₱"

var printer = message.NewPrinter(language.MustParse("en-PH"))

// Currency renders a full peso amount with thousands separators and two
// decimal places, e.g. ₱1,234,567.89.
func Currency(v float64) string {
	return pesoSign + printer.Sprintf("%.2f", v)
}

// CurrencyCompact renders a peso amount in compact notation: ₱950.00 below a
// thousand, then ₱1.2K, ₱3.4M, ₱5.6B.
func CurrencyCompact(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return fmt.Sprintf("%s%.1fB", pesoSign, v/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s%.1fM", pesoSign, v/1e6)
	case abs >= 1e3:
		return fmt.Sprintf("%s%.1fK", pesoSign, v/1e3)
	}
	return Currency(v)
}

// Percent1 renders a ratio as a percentage with one decimal, e.g. 0.257 →
// "25.7%".
func Percent1(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// Integer renders a count with thousands separators.
func Integer(v int) string {
	return printer.Sprintf("%d", v)
}
