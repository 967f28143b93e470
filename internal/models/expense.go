package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for expense and settlement dates.
const DateLayout = "2006-01-02"

// SplitMode selects how an expense total is divided among participants.
type SplitMode string

const (
	SplitEqual      SplitMode = "equal"
	SplitCustom     SplitMode = "custom"
	SplitPercentage SplitMode = "percentage"
)

// ParseSplitMode validates a split mode string.
func ParseSplitMode(s string) (SplitMode, error) {
	switch m := SplitMode(s); m {
	case SplitEqual, SplitCustom, SplitPercentage:
		return m, nil
	}
	return "", fmt.Errorf("unknown split mode %q", s)
}

// Category classifies an expense.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryTravel        Category = "Travel"
	CategoryEntertainment Category = "Entertainment"
	CategoryShopping      Category = "Shopping"
	CategoryBills         Category = "Bills"
	CategoryOther         Category = "Other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryFood, CategoryTravel, CategoryEntertainment,
	CategoryShopping, CategoryBills, CategoryOther,
}

// ParseCategory validates a category name. An empty name maps to CategoryOther.
func ParseCategory(s string) (Category, error) {
	if s == "" {
		return CategoryOther, nil
	}
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Expense is an immutable ledger entry: one member paid a total on behalf of
// the participants listed in Splits.
type Expense struct {
	// ID is the K-sortable identifier of the expense ("exp_..." TypeID).
	ID string

	// GroupID is the group whose ledger this expense belongs to.
	GroupID string

	// PayerID is the member who paid the full total.
	PayerID string

	// TotalCents is the expense total. Negative only for refunds.
	TotalCents int64

	// Description is a short free-form label (e.g., "Groceries").
	Description string

	// Category classifies the expense.
	Category Category

	// Date is the calendar date of the expense (UTC midnight).
	Date time.Time

	// SplitMode records how Splits were derived.
	SplitMode SplitMode

	// Splits are the per-participant shares. They always sum to TotalCents.
	Splits []Split

	// CreatedAt is the Unix timestamp when the entry was appended.
	CreatedAt int64

	// IdempotencyKey is the optional caller-supplied key used to dedupe retries.
	IdempotencyKey string

	// RequestHash fingerprints the request that created the entry.
	RequestHash string
}

// SplitTotal returns the sum of all split amounts.
func (e *Expense) SplitTotal() int64 {
	var sum int64
	for _, s := range e.Splits {
		sum += s.AmountCents
	}
	return sum
}

// HasParticipant reports whether memberID paid for or owes a share of the expense.
func (e *Expense) HasParticipant(memberID string) bool {
	if e.PayerID == memberID {
		return true
	}
	for _, s := range e.Splits {
		if s.MemberID == memberID {
			return true
		}
	}
	return false
}

// Split is one participant's share of an expense.
type Split struct {
	// ID is the identifier of the split ("spl_..." TypeID).
	ID string

	// ExpenseID is the parent expense.
	ExpenseID string

	// MemberID is the participant who owes this share.
	MemberID string

	// AmountCents is the owed amount.
	AmountCents int64
}

// ExpenseFilter narrows an expense listing. Zero values mean "no filter".
type ExpenseFilter struct {
	// ParticipantID matches expenses the member paid for or has a split in.
	ParticipantID string

	Category Category

	// StartDate and EndDate bound the expense date, inclusive.
	StartDate time.Time
	EndDate   time.Time
}

// Match reports whether e passes the filter.
func (f ExpenseFilter) Match(e *Expense) bool {
	if f.ParticipantID != "" && !e.HasParticipant(f.ParticipantID) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if !f.StartDate.IsZero() && e.Date.Before(f.StartDate) {
		return false
	}
	if !f.EndDate.IsZero() && e.Date.After(f.EndDate) {
		return false
	}
	return true
}
