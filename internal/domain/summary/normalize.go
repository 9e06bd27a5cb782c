package summary

import (
	"strconv"
	"strings"
)

// Normalization never raises: the upstream text is untrusted free-form
// content, so an unparseable or empty value degrades to the default.

// Currency strips one leading currency symbol and all thousands
// separators, then parses the remainder as a decimal. Default 0.0.
func Currency(s string) float64 {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"$", "€", "£", "¥"} {
		if strings.HasPrefix(s, sym) {
			s = strings.TrimSpace(strings.TrimPrefix(s, sym))
			break
		}
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	return v
}

// Count strips thousands separators and parses a non-negative integer.
// Default 0.
func Count(s string) uint64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// CurrencyString normalizes a currency value back to its canonical
// decimal string form, matching the string-decimal storage convention.
func CurrencyString(s string) string {
	return strconv.FormatFloat(Currency(s), 'f', -1, 64)
}
