package models

// Ledger is a consistent snapshot of one group's roster and entries.
// Stores build it from a single read transaction, so it never contains an
// expense without all of its splits.
type Ledger struct {
	GroupID     string
	Members     []Member
	Expenses    []*Expense
	Settlements []*Settlement
}

// MemberBalance is the derived position of one member.
type MemberBalance struct {
	MemberID string

	// NetCents is positive when the member is owed money and negative when
	// the member owes money.
	NetCents int64

	// PaidCents is the sum of expense totals the member paid.
	PaidCents int64

	// OwedCents is the sum of split amounts the member owes.
	OwedCents int64

	// SettledOutCents is the sum of settlements the member paid.
	SettledOutCents int64

	// SettledInCents is the sum of settlements the member received.
	SettledInCents int64
}

// Transfer is one proposed payment in a settlement plan.
// A plan is advisory until the caller records it as a Settlement.
type Transfer struct {
	FromMemberID string
	ToMemberID   string
	AmountCents  int64
}
