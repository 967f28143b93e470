package models

import "time"

// Settlement records a real-world payment between two group members.
// Settlements are immutable; a mistaken settlement is corrected by recording
// the reverse payment.
type Settlement struct {
	// ID is the K-sortable identifier of the settlement ("stl_..." TypeID).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// PayerID is the member who paid (debtor settling up).
	PayerID string

	// PayeeID is the member who received the payment (creditor being paid).
	PayeeID string

	// AmountCents is the payment amount. Always positive.
	AmountCents int64

	// Date is the calendar date of the payment (UTC midnight).
	Date time.Time

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64

	// IdempotencyKey is the optional caller-supplied key used to dedupe retries.
	IdempotencyKey string

	// RequestHash fingerprints the request that created the entry.
	RequestHash string
}
