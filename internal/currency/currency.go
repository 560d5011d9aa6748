// =============================================================================
// Purchase Order Form Engine - Currency Utility
// =============================================================================
//
// Parsing and formatting of monetary strings as they appear in the form.
// Input is tolerant of "$", thousands separators, whitespace and empty values.
//
// TWO OUTPUT STYLES:
//   Format / FormatAmount : "$1,250.00"  (totals block of the export)
//   FormatNumeric         : "1250.00"    (line-item rate/amount cells)
//
// =============================================================================

package currency

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// clean removes currency symbols, grouping commas and whitespace.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '$' || r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseStrict parses a monetary string and reports whether it was numeric.
func ParseStrict(s string) (float64, bool) {
	c := clean(s)
	if c == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(c, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Parse returns the numeric value of s. Empty or malformed input is 0.
func Parse(s string) float64 {
	f, _ := ParseStrict(s)
	return f
}

// FormatAmount renders f with one dollar sign, grouping and two decimals.
func FormatAmount(f float64) string {
	return "$" + printer.Sprintf("%.2f", f)
}

// Format normalizes a monetary string for display.
//
// RETURNS:
//   - "" for empty input
//   - "$1,234.50" style output for numeric input
//   - the trimmed input unchanged when it is not a number
func Format(s string) string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return ""
	}
	f, ok := ParseStrict(trimmed)
	if !ok {
		return trimmed
	}
	return FormatAmount(f)
}

// FormatNumeric renders a bare two-decimal number without symbol or
// grouping. Empty or malformed input yields "".
func FormatNumeric(s string) string {
	f, ok := ParseStrict(s)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// FixDoubleSymbol collapses repeated dollar signs ("$$12.00" -> "$12.00").
func FixDoubleSymbol(s string) string {
	for strings.Contains(s, "$$") {
		s = strings.ReplaceAll(s, "$$", "$")
	}
	return s
}
