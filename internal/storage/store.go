// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitledger/internal/models"
)

// Store defines the ledger's persistence contract.
// This abstraction allows swapping storage backends (SQLite, in-memory)
// without changing the service layer.
//
// Entries are append-only: there are no update or delete operations.
// Every append is atomic, and every read that returns more than one record
// (Snapshot in particular) observes a single consistent state, so a reader
// never sees an expense without all of its splits.
type Store interface {
	// CreateGroup persists a new group together with its initial members.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group and its roster.
	// Returns a *ledgererr.NotFoundError if the group does not exist.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroups returns all groups ordered by creation time.
	ListGroups(ctx context.Context) ([]*models.Group, error)

	// AddMember appends a member to an existing group's roster.
	// The caller enforces the member cap.
	AddMember(ctx context.Context, groupID string, member models.Member) error

	// AppendExpense persists an expense and all of its splits in one transaction.
	AppendExpense(ctx context.Context, expense *models.Expense) error

	// AppendSettlement persists a settlement.
	AppendSettlement(ctx context.Context, settlement *models.Settlement) error

	// FindExpenseByKey returns the expense created with the idempotency key,
	// or nil and no error if the key is unused.
	FindExpenseByKey(ctx context.Context, groupID, key string) (*models.Expense, error)

	// FindSettlementByKey returns the settlement created with the idempotency
	// key, or nil and no error if the key is unused.
	FindSettlementByKey(ctx context.Context, groupID, key string) (*models.Settlement, error)

	// Snapshot reads a group's roster and full ledger as one consistent view.
	Snapshot(ctx context.Context, groupID string) (*models.Ledger, error)

	// ListExpenses returns a group's expenses matching filter, newest date first.
	ListExpenses(ctx context.Context, groupID string, filter models.ExpenseFilter) ([]*models.Expense, error)

	// ListSettlements returns a group's settlements, newest date first.
	ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// Close releases any resources held by the store.
	Close() error
}

// ErrDuplicate is returned when an insert collides with an existing record,
// such as a reused idempotency key or a member already on the roster.
var ErrDuplicate = errors.New("storage: duplicate record")
