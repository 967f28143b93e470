package ledger

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func TestCreateGroup(t *testing.T) {
	h := newHarness(t, memory.New(), Options{MaxMembers: 3})
	ctx := context.Background()

	tests := []struct {
		name    string
		group   string
		members []MemberInput
		want    error
	}{
		{"missing name", " ", nil, ledgererr.ErrMissingField},
		{"too many members", "Flat", []MemberInput{
			{DisplayName: "a"}, {DisplayName: "b"}, {DisplayName: "c"}, {DisplayName: "d"},
		}, ledgererr.ErrGroupFull},
		{"duplicate member", "Flat", []MemberInput{
			{ID: "alice", DisplayName: "Alice"}, {ID: "alice", DisplayName: "Alice again"},
		}, ledgererr.ErrMemberExists},
		{"missing display name", "Flat", []MemberInput{{ID: "alice"}}, ledgererr.ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.CreateGroup(ctx, tt.group, tt.members)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	g, err := h.svc.CreateGroup(ctx, "  Flat  ", []MemberInput{{DisplayName: "Alice"}, {ID: "bob", DisplayName: "Bob"}})
	require.NoError(t, err)
	assert.Equal(t, "Flat", g.Name)
	require.Len(t, g.Members, 2)
	assert.NotEmpty(t, g.Members[0].ID, "id generated when empty")
	assert.Equal(t, "bob", g.Members[1].ID)

	got, err := h.svc.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.MemberIDs(), got.MemberIDs())

	groups, err := h.svc.ListGroups(ctx)
	require.NoError(t, err)
	assert.Len(t, groups, 1)

	_, err = h.svc.GetGroup(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestAddMember(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		g := h.group(t, "A", "B", "C")

		updated, err := h.svc.AddMember(ctx, g.ID, MemberInput{ID: "D", DisplayName: "Dana"})
		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B", "C", "D"}, updated.MemberIDs())

		_, err = h.svc.AddMember(ctx, g.ID, MemberInput{ID: "E", DisplayName: "Eve"})
		assert.ErrorIs(t, err, ledgererr.ErrGroupFull)

		_, err = h.svc.AddMember(ctx, g.ID, MemberInput{ID: "A", DisplayName: "Again"})
		assert.ErrorIs(t, err, ledgererr.ErrMemberExists)

		_, err = h.svc.AddMember(ctx, "missing", MemberInput{ID: "X", DisplayName: "X"})
		assert.ErrorIs(t, err, ledgererr.ErrNotFound)
	})
}

func TestAddMember_ConcurrentCap(t *testing.T) {
	forEachBackend(t, func(t *testing.T, h *harness) {
		ctx := context.Background()
		g := h.group(t, "A")

		var added, full atomic.Int32
		var eg errgroup.Group
		for i := 0; i < 10; i++ {
			eg.Go(func() error {
				_, err := h.svc.AddMember(ctx, g.ID, MemberInput{
					ID:          fmt.Sprintf("m%d", i),
					DisplayName: fmt.Sprintf("Member %d", i),
				})
				switch {
				case err == nil:
					added.Add(1)
				case ledgererr.IsRetryable(err):
					return err
				default:
					assert.ErrorIs(t, err, ledgererr.ErrGroupFull)
					full.Add(1)
				}
				return nil
			})
		}
		require.NoError(t, eg.Wait())

		assert.Equal(t, int32(3), added.Load())
		assert.Equal(t, int32(7), full.Load())

		got, err := h.svc.GetGroup(ctx, g.ID)
		require.NoError(t, err)
		assert.Len(t, got.Members, 4)
	})
}
