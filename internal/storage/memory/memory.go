// Package memory provides an in-process implementation of storage.Store.
//
// It is used for tests and for running the service without a database file.
// All records are copied on the way in and on the way out, so callers can
// never mutate stored entries.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

var _ storage.Store = (*Store)(nil)

type groupData struct {
	group       models.Group
	expenses    []*models.Expense
	settlements []*models.Settlement
}

// Store keeps every group's roster and ledger in maps guarded by one RWMutex.
// Appends take the write lock and snapshots take the read lock, which gives
// the same atomicity a database transaction would.
type Store struct {
	mu     sync.RWMutex
	groups map[string]*groupData
	order  []string // group ids in creation order
}

// New creates an empty Store.
func New() *Store {
	return &Store{groups: make(map[string]*groupData)}
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.groups[group.ID]; exists {
		return fmt.Errorf("group %s: %w", group.ID, storage.ErrDuplicate)
	}
	seen := make(map[string]bool, len(group.Members))
	for _, m := range group.Members {
		if seen[m.ID] {
			return fmt.Errorf("member %s: %w", m.ID, storage.ErrDuplicate)
		}
		seen[m.ID] = true
	}
	s.groups[group.ID] = &groupData{group: copyGroup(group)}
	s.order = append(s.order, group.ID)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, ledgererr.NotFound("group", groupID)
	}
	out := copyGroup(&g.group)
	return &out, nil
}

func (s *Store) ListGroups(_ context.Context) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	groups := make([]*models.Group, 0, len(s.order))
	for _, id := range s.order {
		g := copyGroup(&s.groups[id].group)
		groups = append(groups, &g)
	}
	return groups, nil
}

func (s *Store) AddMember(_ context.Context, groupID string, member models.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return ledgererr.NotFound("group", groupID)
	}
	if g.group.HasMember(member.ID) {
		return fmt.Errorf("member %s: %w", member.ID, storage.ErrDuplicate)
	}
	g.group.Members = append(g.group.Members, member)
	return nil
}

func (s *Store) AppendExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[expense.GroupID]
	if !ok {
		return ledgererr.NotFound("group", expense.GroupID)
	}
	if expense.IdempotencyKey != "" {
		for _, e := range g.expenses {
			if e.IdempotencyKey == expense.IdempotencyKey {
				return fmt.Errorf("expense idempotency key %q: %w", expense.IdempotencyKey, storage.ErrDuplicate)
			}
		}
	}
	g.expenses = append(g.expenses, copyExpense(expense))
	return nil
}

func (s *Store) AppendSettlement(_ context.Context, settlement *models.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[settlement.GroupID]
	if !ok {
		return ledgererr.NotFound("group", settlement.GroupID)
	}
	if settlement.IdempotencyKey != "" {
		for _, st := range g.settlements {
			if st.IdempotencyKey == settlement.IdempotencyKey {
				return fmt.Errorf("settlement idempotency key %q: %w", settlement.IdempotencyKey, storage.ErrDuplicate)
			}
		}
	}
	st := *settlement
	g.settlements = append(g.settlements, &st)
	return nil
}

func (s *Store) FindExpenseByKey(_ context.Context, groupID, key string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok || key == "" {
		return nil, nil
	}
	for _, e := range g.expenses {
		if e.IdempotencyKey == key {
			return copyExpense(e), nil
		}
	}
	return nil, nil
}

func (s *Store) FindSettlementByKey(_ context.Context, groupID, key string) (*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok || key == "" {
		return nil, nil
	}
	for _, st := range g.settlements {
		if st.IdempotencyKey == key {
			out := *st
			return &out, nil
		}
	}
	return nil, nil
}

func (s *Store) Snapshot(_ context.Context, groupID string) (*models.Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, ledgererr.NotFound("group", groupID)
	}
	ledger := &models.Ledger{
		GroupID:     groupID,
		Members:     append([]models.Member(nil), g.group.Members...),
		Expenses:    make([]*models.Expense, len(g.expenses)),
		Settlements: make([]*models.Settlement, len(g.settlements)),
	}
	for i, e := range g.expenses {
		ledger.Expenses[i] = copyExpense(e)
	}
	for i, st := range g.settlements {
		out := *st
		ledger.Settlements[i] = &out
	}
	return ledger, nil
}

func (s *Store) ListExpenses(_ context.Context, groupID string, filter models.ExpenseFilter) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, ledgererr.NotFound("group", groupID)
	}
	var out []*models.Expense
	for _, e := range g.expenses {
		if filter.Match(e) {
			out = append(out, copyExpense(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListSettlements(_ context.Context, groupID string) ([]*models.Settlement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[groupID]
	if !ok {
		return nil, ledgererr.NotFound("group", groupID)
	}
	out := make([]*models.Settlement, len(g.settlements))
	for i, st := range g.settlements {
		c := *st
		out[i] = &c
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func copyGroup(g *models.Group) models.Group {
	out := *g
	out.Members = append([]models.Member(nil), g.Members...)
	return out
}

func copyExpense(e *models.Expense) *models.Expense {
	out := *e
	out.Splits = append([]models.Split(nil), e.Splits...)
	return &out
}
