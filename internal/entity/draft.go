package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joseph-ayodele/booking-drafts/constants"
)

// BookingDraft is a proposed double-entry ledger record awaiting human
// confirmation. The pipeline creates one per document and mutates it at most
// twice afterwards: once by the payment-slip override (amount/currency only)
// and once by the vendor-memory overlay (any field).
type BookingDraft struct {
	ID            uuid.UUID               `json:"id"`
	Date          time.Time               `json:"date"`
	Description   string                  `json:"description"`
	DebitAccount  string                  `json:"debit_account"`
	CreditAccount string                  `json:"credit_account"`
	Category      string                  `json:"category"`
	Amount        decimal.Decimal         `json:"amount"`
	VATRate       decimal.Decimal         `json:"vat_rate"`
	VATAmount     *decimal.Decimal        `json:"vat_amount,omitempty"`
	Currency      string                  `json:"currency"`
	PaymentStatus constants.PaymentStatus `json:"payment_status"`
}

// DraftPatch is a partial BookingDraft. Nil fields leave the target untouched.
// Vendor-memory rules carry one of these; its set fields always win over
// fresh extraction, because user corrections are ground truth.
type DraftPatch struct {
	Description   *string                  `json:"description,omitempty"`
	DebitAccount  *string                  `json:"debit_account,omitempty"`
	CreditAccount *string                  `json:"credit_account,omitempty"`
	Category      *string                  `json:"category,omitempty"`
	Amount        *decimal.Decimal         `json:"amount,omitempty"`
	VATRate       *decimal.Decimal         `json:"vat_rate,omitempty"`
	VATAmount     *decimal.Decimal         `json:"vat_amount,omitempty"`
	Currency      *string                  `json:"currency,omitempty"`
	PaymentStatus *constants.PaymentStatus `json:"payment_status,omitempty"`
}

// Apply overlays the patch onto the draft, field by field.
func (p DraftPatch) Apply(d *BookingDraft) {
	if d == nil {
		return
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.DebitAccount != nil {
		d.DebitAccount = *p.DebitAccount
	}
	if p.CreditAccount != nil {
		d.CreditAccount = *p.CreditAccount
	}
	if p.Category != nil {
		d.Category = *p.Category
	}
	if p.Amount != nil {
		d.Amount = *p.Amount
	}
	if p.VATRate != nil {
		d.VATRate = *p.VATRate
	}
	if p.VATAmount != nil {
		v := *p.VATAmount
		d.VATAmount = &v
	}
	if p.Currency != nil {
		d.Currency = *p.Currency
	}
	if p.PaymentStatus != nil {
		d.PaymentStatus = *p.PaymentStatus
	}
}

// IsZero reports whether the patch carries no fields at all.
func (p DraftPatch) IsZero() bool {
	return p.Description == nil && p.DebitAccount == nil && p.CreditAccount == nil &&
		p.Category == nil && p.Amount == nil && p.VATRate == nil &&
		p.VATAmount == nil && p.Currency == nil && p.PaymentStatus == nil
}
