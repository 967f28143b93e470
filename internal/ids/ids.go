// Package ids generates identifiers for ledger entries and roster records.
//
// Ledger entries use TypeIDs ("exp_01h2xcejqtf2nbrexx3vqjhp41"): the prefix
// names the entry kind and the UUIDv7 suffix makes IDs K-sortable, so
// ordering by ID follows append order. Groups and members use plain UUIDs.
package ids

import (
	"fmt"

	"github.com/google/uuid"
	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entry kind encoded in a TypeID.
type Prefix string

const (
	PrefixExpense    Prefix = "exp"
	PrefixSplit      Prefix = "spl"
	PrefixSettlement Prefix = "stl"
)

// New generates a TypeID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) string {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("ids: invalid prefix %q: %v", prefix, err))
	}
	return tid.String()
}

// NewExpense returns a fresh expense ID.
func NewExpense() string { return New(PrefixExpense) }

// NewSplit returns a fresh split ID.
func NewSplit() string { return New(PrefixSplit) }

// NewSettlement returns a fresh settlement ID.
func NewSettlement() string { return New(PrefixSettlement) }

// NewGroup returns a fresh group ID.
func NewGroup() string { return uuid.New().String() }

// NewMember returns a fresh member ID.
func NewMember() string { return uuid.New().String() }

// HasPrefix reports whether s parses as a TypeID with the given prefix.
func HasPrefix(s string, prefix Prefix) bool {
	tid, err := typeid.Parse(s)
	if err != nil {
		return false
	}
	return tid.Prefix() == string(prefix)
}
