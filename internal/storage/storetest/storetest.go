// Package storetest holds the behavior every storage.Store must share.
// Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/ids"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Run exercises a Store created by open. open is called once per subtest.
func Run(t *testing.T, open func(t *testing.T) storage.Store) {
	t.Run("GroupRoundTrip", func(t *testing.T) { testGroupRoundTrip(t, open(t)) })
	t.Run("AddMember", func(t *testing.T) { testAddMember(t, open(t)) })
	t.Run("UnknownGroup", func(t *testing.T) { testUnknownGroup(t, open(t)) })
	t.Run("AppendAndSnapshot", func(t *testing.T) { testAppendAndSnapshot(t, open(t)) })
	t.Run("IdempotencyKeys", func(t *testing.T) { testIdempotencyKeys(t, open(t)) })
	t.Run("ListExpensesFilters", func(t *testing.T) { testListExpensesFilters(t, open(t)) })
	t.Run("ListSettlementsOrder", func(t *testing.T) { testListSettlementsOrder(t, open(t)) })
	t.Run("SnapshotIsolation", func(t *testing.T) { testSnapshotIsolation(t, open(t)) })
}

func day(s string) time.Time {
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewGroup creates a group with the given member ids.
func NewGroup(t *testing.T, s storage.Store, memberIDs ...string) *models.Group {
	t.Helper()
	g := &models.Group{ID: ids.NewGroup(), Name: "Roommates", CreatedAt: time.Now().Unix()}
	for _, id := range memberIDs {
		g.Members = append(g.Members, models.Member{ID: id, DisplayName: "name-" + id, JoinedAt: g.CreatedAt})
	}
	require.NoError(t, s.CreateGroup(context.Background(), g))
	return g
}

// NewExpense builds an expense paid by payer with the given split amounts.
func NewExpense(groupID, payer string, date string, shares map[string]int64, order ...string) *models.Expense {
	e := &models.Expense{
		ID:          ids.NewExpense(),
		GroupID:     groupID,
		PayerID:     payer,
		Description: "Groceries",
		Category:    models.CategoryFood,
		Date:        day(date),
		SplitMode:   models.SplitCustom,
		CreatedAt:   time.Now().Unix(),
	}
	for _, m := range order {
		e.Splits = append(e.Splits, models.Split{ID: ids.NewSplit(), ExpenseID: e.ID, MemberID: m, AmountCents: shares[m]})
		e.TotalCents += shares[m]
	}
	return e
}

func testGroupRoundTrip(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice", "bob", "carol")
	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.Name, got.Name)
	assert.Equal(t, []string{"alice", "bob", "carol"}, got.MemberIDs())
	assert.Equal(t, "name-bob", got.DisplayName("bob"))

	g2 := NewGroup(t, s, "dave")
	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	seen := map[string]int{}
	for _, gr := range groups {
		seen[gr.ID] = len(gr.Members)
	}
	assert.Equal(t, 3, seen[g.ID])
	assert.Equal(t, 1, seen[g2.ID])

	dup := &models.Group{ID: g.ID, Name: "again", CreatedAt: 1}
	assert.ErrorIs(t, s.CreateGroup(ctx, dup), storage.ErrDuplicate)
}

func testAddMember(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice")
	require.NoError(t, s.AddMember(ctx, g.ID, models.Member{ID: "bob", DisplayName: "Bob", JoinedAt: 2}))

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, got.MemberIDs())

	err = s.AddMember(ctx, g.ID, models.Member{ID: "bob", DisplayName: "Bob again"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	err = s.AddMember(ctx, "missing", models.Member{ID: "x"})
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func testUnknownGroup(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	_, err := s.GetGroup(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	_, err = s.Snapshot(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	_, err = s.ListExpenses(ctx, "missing", models.ExpenseFilter{})
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	_, err = s.ListSettlements(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	e, err := s.FindExpenseByKey(ctx, "missing", "k")
	assert.NoError(t, err)
	assert.Nil(t, e)
}

func testAppendAndSnapshot(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice", "bob", "carol")
	e := NewExpense(g.ID, "alice", "2024-03-01",
		map[string]int64{"carol": 3334, "alice": 3333, "bob": 3333}, "carol", "alice", "bob")
	require.NoError(t, s.AppendExpense(ctx, e))

	st := &models.Settlement{
		ID: ids.NewSettlement(), GroupID: g.ID, PayerID: "bob", PayeeID: "alice",
		AmountCents: 3333, Date: day("2024-03-02"), Note: "venmo", CreatedAt: time.Now().Unix(),
	}
	require.NoError(t, s.AppendSettlement(ctx, st))

	ledger, err := s.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, ledger.GroupID)
	assert.Len(t, ledger.Members, 3)
	require.Len(t, ledger.Expenses, 1)
	require.Len(t, ledger.Settlements, 1)

	got := ledger.Expenses[0]
	assert.Equal(t, e.ID, got.ID)
	assert.Equal(t, int64(10000), got.TotalCents)
	assert.Equal(t, models.CategoryFood, got.Category)
	assert.True(t, got.Date.Equal(day("2024-03-01")))
	require.Len(t, got.Splits, 3)
	assert.Equal(t, "carol", got.Splits[0].MemberID, "split order must be preserved")
	assert.Equal(t, int64(3334), got.Splits[0].AmountCents)
	assert.Equal(t, got.TotalCents, got.SplitTotal())

	gotSt := ledger.Settlements[0]
	assert.Equal(t, "bob", gotSt.PayerID)
	assert.Equal(t, "alice", gotSt.PayeeID)
	assert.Equal(t, "venmo", gotSt.Note)
	assert.True(t, gotSt.Date.Equal(day("2024-03-02")))

	// Snapshots are copies.
	ledger.Expenses[0].Splits[0].AmountCents = 1
	again, err := s.Snapshot(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3334), again.Expenses[0].Splits[0].AmountCents)
}

func testIdempotencyKeys(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice", "bob")
	other := NewGroup(t, s, "alice", "bob")

	e := NewExpense(g.ID, "alice", "2024-01-01", map[string]int64{"alice": 50, "bob": 50}, "alice", "bob")
	e.IdempotencyKey = "req-1"
	e.RequestHash = "hash-1"
	require.NoError(t, s.AppendExpense(ctx, e))

	found, err := s.FindExpenseByKey(ctx, g.ID, "req-1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, e.ID, found.ID)
	assert.Equal(t, "hash-1", found.RequestHash)
	assert.Len(t, found.Splits, 2)

	missing, err := s.FindExpenseByKey(ctx, g.ID, "req-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	dup := NewExpense(g.ID, "alice", "2024-01-01", map[string]int64{"alice": 50, "bob": 50}, "alice", "bob")
	dup.IdempotencyKey = "req-1"
	assert.ErrorIs(t, s.AppendExpense(ctx, dup), storage.ErrDuplicate)

	// Keys are scoped per group.
	elsewhere := NewExpense(other.ID, "alice", "2024-01-01", map[string]int64{"alice": 50, "bob": 50}, "alice", "bob")
	elsewhere.IdempotencyKey = "req-1"
	assert.NoError(t, s.AppendExpense(ctx, elsewhere))

	// Entries without a key never collide.
	for i := 0; i < 2; i++ {
		e := NewExpense(g.ID, "bob", "2024-01-02", map[string]int64{"alice": 10}, "alice")
		assert.NoError(t, s.AppendExpense(ctx, e))
	}

	st := &models.Settlement{
		ID: ids.NewSettlement(), GroupID: g.ID, PayerID: "bob", PayeeID: "alice",
		AmountCents: 40, Date: day("2024-01-03"), IdempotencyKey: "pay-1", RequestHash: "h",
	}
	require.NoError(t, s.AppendSettlement(ctx, st))
	foundSt, err := s.FindSettlementByKey(ctx, g.ID, "pay-1")
	require.NoError(t, err)
	require.NotNil(t, foundSt)
	assert.Equal(t, st.ID, foundSt.ID)

	dupSt := *st
	dupSt.ID = ids.NewSettlement()
	assert.ErrorIs(t, s.AppendSettlement(ctx, &dupSt), storage.ErrDuplicate)
}

func testListExpensesFilters(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice", "bob", "carol")
	e1 := NewExpense(g.ID, "alice", "2024-01-10", map[string]int64{"alice": 100, "bob": 100}, "alice", "bob")
	e2 := NewExpense(g.ID, "carol", "2024-02-10", map[string]int64{"alice": 300}, "alice")
	e2.Category = models.CategoryTravel
	e3 := NewExpense(g.ID, "bob", "2024-03-10", map[string]int64{"bob": 50, "carol": 50}, "bob", "carol")
	for _, e := range []*models.Expense{e1, e2, e3} {
		require.NoError(t, s.AppendExpense(ctx, e))
	}

	idsOf := func(es []*models.Expense) []string {
		out := make([]string, len(es))
		for i, e := range es {
			out[i] = e.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.ExpenseFilter
		want   []string
	}{
		{"no filter newest first", models.ExpenseFilter{}, []string{e3.ID, e2.ID, e1.ID}},
		{"payer counts as participant", models.ExpenseFilter{ParticipantID: "carol"}, []string{e3.ID, e2.ID}},
		{"split participant", models.ExpenseFilter{ParticipantID: "alice"}, []string{e2.ID, e1.ID}},
		{"category", models.ExpenseFilter{Category: models.CategoryTravel}, []string{e2.ID}},
		{"inclusive range", models.ExpenseFilter{StartDate: day("2024-01-10"), EndDate: day("2024-02-10")}, []string{e2.ID, e1.ID}},
		{"start only", models.ExpenseFilter{StartDate: day("2024-02-11")}, []string{e3.ID}},
		{"no match", models.ExpenseFilter{ParticipantID: "bob", Category: models.CategoryTravel}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListExpenses(ctx, g.ID, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(got))
			for _, e := range got {
				assert.Equal(t, e.TotalCents, e.SplitTotal(), "listed expenses carry their splits")
			}
		})
	}
}

func testListSettlementsOrder(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	g := NewGroup(t, s, "alice", "bob")
	dates := []string{"2024-05-01", "2024-07-01", "2024-06-01"}
	for _, d := range dates {
		require.NoError(t, s.AppendSettlement(ctx, &models.Settlement{
			ID: ids.NewSettlement(), GroupID: g.ID, PayerID: "bob", PayeeID: "alice",
			AmountCents: 10, Date: day(d), CreatedAt: time.Now().Unix(),
		}))
	}

	got, err := s.ListSettlements(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Equal(day("2024-07-01")))
	assert.True(t, got[1].Date.Equal(day("2024-06-01")))
	assert.True(t, got[2].Date.Equal(day("2024-05-01")))
}

// testSnapshotIsolation appends multi-split expenses while readers take
// snapshots; no snapshot may contain an expense missing any of its splits.
func testSnapshotIsolation(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g := NewGroup(t, s, "a", "b", "c", "d")
	const writes = 40

	var partial atomic.Int32
	var readers errgroup.Group
	for r := 0; r < 4; r++ {
		readers.Go(func() error {
			for ctx.Err() == nil {
				ledger, err := s.Snapshot(context.Background(), g.ID)
				if err != nil {
					return err
				}
				for _, e := range ledger.Expenses {
					if len(e.Splits) != 4 || e.SplitTotal() != e.TotalCents {
						partial.Add(1)
					}
				}
			}
			return nil
		})
	}

	var writers errgroup.Group
	for w := 0; w < writes; w++ {
		writers.Go(func() error {
			e := NewExpense(g.ID, "a", "2024-01-01",
				map[string]int64{"a": 25, "b": 25, "c": 25, "d": int64(25 + w)}, "a", "b", "c", "d")
			if err := s.AppendExpense(context.Background(), e); err != nil {
				return fmt.Errorf("append %d: %w", w, err)
			}
			return nil
		})
	}
	require.NoError(t, writers.Wait())
	cancel()
	require.NoError(t, readers.Wait())

	assert.Zero(t, partial.Load(), "a snapshot observed an expense without all of its splits")

	ledger, err := s.Snapshot(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Len(t, ledger.Expenses, writes)
}
