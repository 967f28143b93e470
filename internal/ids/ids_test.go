package ids

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewPrefixes(t *testing.T) {
	tests := []struct {
		name   string
		gen    func() string
		prefix Prefix
	}{
		{"expense", NewExpense, PrefixExpense},
		{"split", NewSplit, PrefixSplit},
		{"settlement", NewSettlement, PrefixSettlement},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := tt.gen()
			if !strings.HasPrefix(id, string(tt.prefix)+"_") {
				t.Errorf("id %q missing prefix %q", id, tt.prefix)
			}
			if !HasPrefix(id, tt.prefix) {
				t.Errorf("HasPrefix(%q, %q) = false", id, tt.prefix)
			}
		})
	}
}

func TestHasPrefixRejectsOtherKinds(t *testing.T) {
	if HasPrefix(NewExpense(), PrefixSettlement) {
		t.Error("expense id accepted as settlement id")
	}
	if HasPrefix("not-a-typeid", PrefixExpense) {
		t.Error("garbage accepted")
	}
}

func TestRosterIDsAreUUIDs(t *testing.T) {
	for _, id := range []string{NewGroup(), NewMember()} {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("%q is not a UUID: %v", id, err)
		}
	}
}
