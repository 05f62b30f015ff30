package numfmt

import (
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.50", "1234.5"},
		{"1234,50", "1234.5"},
		{"1.234,50", "1234.5"},
		// a comma anywhere makes dots thousands separators and the last
		// comma the decimal mark, even for English-looking input
		{"1,234.50", "1.2345"},
		{"1'234.50", "1234.5"},
		{"1’234.50", "1234.5"},
		{"12.345.678,99", "12345678.99"},
		{"CHF 250.00", "250"},
		{"250.00 EUR", "250"},
		{"0,00", "0"},
		{"42", "42"},
		{"", "0"},
		{"keine Zahl", "0"},
		{"-15,25", "-15.25"},
	}
	for _, c := range cases {
		got := ParseAmount(c.in)
		if got.String() != c.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}
}

// Normalizing the canonical form of its own output must return the same value.
func TestParseAmountIdempotent(t *testing.T) {
	inputs := []string{"1.234,56", "1'234.56", "987,1", "0", "1,234,567.89"}
	for _, in := range inputs {
		once := ParseAmount(in)
		twice := ParseAmount(once.String())
		if !once.Equal(twice) {
			t.Errorf("ParseAmount not idempotent for %q: %s vs %s", in, once, twice)
		}
	}
}
