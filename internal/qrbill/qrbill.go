// Package qrbill interprets decoded barcode payloads against the Swiss
// QR-bill fixed-field layout.
package qrbill

import (
	"strings"

	"github.com/shopspring/decimal"
)

// leadingToken opens every Swiss payment-slip payload ("Swiss Payments Code").
const leadingToken = "SPC"

// Fixed record positions in the payload, 0-indexed. The header block and the
// creditor/ultimate-creditor address blocks occupy records 0-17.
const (
	recAmount   = 18
	recCurrency = 19
)

// Slip carries the fields the pipeline consumes from a payment slip.
// Amount is nil when the slip leaves it open: for this format absence is
// meaningful (the payer chooses the amount), so it is never defaulted to zero.
type Slip struct {
	Amount   *decimal.Decimal
	Currency string
}

// Parse verifies the payload against the payment-slip layout. Payloads that
// do not start with the leading token are "not applicable", not an error:
// many barcodes encode unrelated data.
func Parse(payload string) (*Slip, bool) {
	payload = strings.TrimPrefix(payload, "\uFEFF")
	lines := strings.Split(strings.ReplaceAll(payload, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != leadingToken {
		return nil, false
	}

	slip := &Slip{}
	if len(lines) > recAmount {
		raw := strings.TrimSpace(lines[recAmount])
		if raw != "" {
			if amt, err := decimal.NewFromString(raw); err == nil {
				slip.Amount = &amt
			}
		}
	}
	if len(lines) > recCurrency {
		slip.Currency = strings.TrimSpace(lines[recCurrency])
	}
	return slip, true
}
