package models

// DefaultMaxMembers is the member cap applied when none is configured.
const DefaultMaxMembers = 4

// Member is a participant in a group.
// Members are created when they join a group and are immutable afterwards.
type Member struct {
	// ID is the stable identifier of the member within the group.
	ID string

	// DisplayName is the human-readable name shown in balances and plans.
	DisplayName string

	// JoinedAt is the Unix timestamp when the member joined the group.
	JoinedAt int64
}

// Group is a bounded set of members that share a ledger.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// Members is the roster, ordered by join time.
	Members []Member

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasMember reports whether memberID is on the roster.
func (g *Group) HasMember(memberID string) bool {
	for _, m := range g.Members {
		if m.ID == memberID {
			return true
		}
	}
	return false
}

// MemberIDs returns the roster IDs in roster order.
func (g *Group) MemberIDs() []string {
	ids := make([]string, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// DisplayName returns the display name for memberID, or the ID itself when
// the member is not on the roster.
func (g *Group) DisplayName(memberID string) string {
	for _, m := range g.Members {
		if m.ID == memberID {
			if m.DisplayName == "" {
				return m.ID
			}
			return m.DisplayName
		}
	}
	return memberID
}
