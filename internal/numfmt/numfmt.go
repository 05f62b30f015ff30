// Package numfmt converts locale-formatted numeric text into exact decimals.
package numfmt

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var reNumericToken = regexp.MustCompile(`-?\d+(?:[.,]\d+)*`)

// ParseAmount parses a numeric token that may use either `1.234,50` or
// `1,234.50` conventions, plus the Swiss `1'234.50` grouping. If the string
// contains a comma, all dots are treated as thousands separators and the last
// comma as the decimal mark; otherwise the token parses directly.
//
// A non-numeric residual yields zero, not an error: callers treat absence and
// zero identically, so a zero amount is never evidence of a failed parse.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	// grouping apostrophes and spaces carry no information
	s = strings.NewReplacer("'", "", "’", "", " ", "", " ", "").Replace(s)

	tok := reNumericToken.FindString(s)
	if tok == "" {
		return decimal.Zero
	}

	if strings.Contains(tok, ",") {
		tok = strings.ReplaceAll(tok, ".", "")
		if i := strings.LastIndex(tok, ","); i >= 0 {
			tok = strings.ReplaceAll(tok[:i], ",", "") + "." + tok[i+1:]
		}
	}

	d, err := decimal.NewFromString(tok)
	if err != nil {
		return decimal.Zero
	}
	return d
}
