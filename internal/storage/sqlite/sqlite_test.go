package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitledger/internal/storage"
	"github.com/mmynk/splitledger/internal/storage/storetest"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store { return newTestStore(t) })
}

func TestMigrationsAreIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")

	first, err := New(dbPath)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	g := storetest.NewGroup(t, first, "alice", "bob")
	first.Close()

	second, err := New(dbPath)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer second.Close()

	got, err := second.GetGroup(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("GetGroup after reopen failed: %v", err)
	}
	if len(got.Members) != 2 {
		t.Errorf("members after reopen = %d, want 2", len(got.Members))
	}
}

func TestLedgerRowsAreImmutable(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	g := storetest.NewGroup(t, store, "alice", "bob")
	e := storetest.NewExpense(g.ID, "alice", "2024-01-01", map[string]int64{"alice": 5, "bob": 5}, "alice", "bob")
	if err := store.AppendExpense(ctx, e); err != nil {
		t.Fatalf("AppendExpense failed: %v", err)
	}

	statements := []string{
		"UPDATE expenses SET total_cents = 1",
		"DELETE FROM expenses",
		"UPDATE expense_splits SET amount_cents = 1",
		"DELETE FROM expense_splits",
	}
	for _, stmt := range statements {
		if _, err := store.db.ExecContext(ctx, stmt); err == nil {
			t.Errorf("%q succeeded, want immutability error", stmt)
		}
	}
}

func TestAppendExpenseRollsBackOnSplitFailure(t *testing.T) {
	store := newTestStore(t)
	defer store.Close()
	ctx := context.Background()

	g := storetest.NewGroup(t, store, "alice", "bob")
	e := storetest.NewExpense(g.ID, "alice", "2024-01-01", map[string]int64{"alice": 5, "bob": 5}, "alice", "bob")
	// Two splits with the same id violate the primary key on the second insert.
	e.Splits[1].ID = e.Splits[0].ID

	if err := store.AppendExpense(ctx, e); err == nil {
		t.Fatal("AppendExpense succeeded, want error")
	}

	ledger, err := store.Snapshot(ctx, g.ID)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if len(ledger.Expenses) != 0 {
		t.Errorf("expenses after failed append = %d, want 0", len(ledger.Expenses))
	}
}
