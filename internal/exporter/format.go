package exporter

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency formats v with a dollar sign, thousands separators and two
// decimals: 1234.5 becomes "$1,234.50".
func FormatCurrency(v float64) string {
	if math.Signbit(v) && v != 0 {
		return "-$" + FormatNumber(-v)
	}
	return "$" + FormatNumber(v)
}

// FormatNumber formats v with thousands separators and two decimals
func FormatNumber(v float64) string {
	return printer.Sprintf("%.2f", v)
}

// FormatPercent formats a signed percentage with one decimal
func FormatPercent(v float64) string {
	return printer.Sprintf("%+.1f%%", v)
}

// formatFloat formats a float64 for machine-readable output
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
