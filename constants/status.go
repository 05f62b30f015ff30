package constants

// PaymentStatus is the canonical settlement state of a booking draft.
type PaymentStatus string

// Stable values (store these exact strings).
const (
	PaymentOpen PaymentStatus = "OPEN" // no settlement evidence found
	PaymentPaid PaymentStatus = "PAID" // settlement phrase or zero outstanding balance detected
)
