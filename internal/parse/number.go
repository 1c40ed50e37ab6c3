// Package parse turns TOConline reconciliation PDFs into section-tagged
// transaction rows and balance figures.
package parse

import (
	"strconv"
	"strings"
)

// Number parses a Portuguese-formatted decimal string ("1.000,29") into a
// signed float. Negative amounts are marked by a leading minus or by full
// parenthesization ("(12,30)"). The second return is false when the input has
// no parseable digits; bad input is never an error.
func Number(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	negative := strings.HasPrefix(text, "-") || strings.HasPrefix(text, "(")

	var cleaned strings.Builder
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			cleaned.WriteRune(r)
		}
	}
	s := cleaned.String()
	if s == "" {
		return 0, false
	}

	// "." is a thousands separator, "," the decimal mark.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")

	val, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative && val > 0 {
		val = -val
	}
	return val, true
}
