package calculator

import (
	"container/heap"
	"errors"
	"sort"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
)

// Simplify turns net balances into a settlement plan.
//
// Algorithm (greedy, largest magnitude first):
//   - Members with a positive balance are creditors, negative are debtors,
//     zero balances are dropped.
//   - Repeatedly match the largest creditor with the largest debtor and
//     transfer min(credit, debt) from the debtor to the creditor.
//   - Parties with a remainder go back into their heap.
//
// Every step zeroes at least one party, so a plan for n non-zero members has
// at most n-1 transfers. This is not guaranteed to be the global minimum.
// Equal magnitudes are ordered by member ID, so identical input always yields
// the identical plan.
//
// Balances that do not sum to zero are rejected with a ConsistencyError.
func Simplify(balances map[string]int64) ([]models.Transfer, error) {
	ids := make([]string, 0, len(balances))
	var sum int64
	for id, v := range balances {
		ids = append(ids, id)
		sum += v
	}
	if sum != 0 {
		return nil, &ledgererr.ConsistencyError{Detail: "balances passed to simplify do not sum to zero", Sum: sum}
	}
	sort.Strings(ids)

	creditors := &partyHeap{}
	debtors := &partyHeap{}
	for _, id := range ids {
		switch v := balances[id]; {
		case v > 0:
			*creditors = append(*creditors, party{id: id, remaining: v})
		case v < 0:
			*debtors = append(*debtors, party{id: id, remaining: -v})
		}
	}
	heap.Init(creditors)
	heap.Init(debtors)

	var transfers []models.Transfer
	for creditors.Len() > 0 && debtors.Len() > 0 {
		c := heap.Pop(creditors).(party)
		d := heap.Pop(debtors).(party)

		amount := min(c.remaining, d.remaining)
		transfers = append(transfers, models.Transfer{
			FromMemberID: d.id,
			ToMemberID:   c.id,
			AmountCents:  amount,
		})

		c.remaining -= amount
		d.remaining -= amount
		if c.remaining > 0 {
			heap.Push(creditors, c)
		}
		if d.remaining > 0 {
			heap.Push(debtors, d)
		}
	}
	return transfers, nil
}

// Plan simplifies the sheet's net balances. A consistency error carries the
// sheet's group.
func (b *BalanceSheet) Plan() ([]models.Transfer, error) {
	transfers, err := Simplify(b.Net)
	var ce *ledgererr.ConsistencyError
	if errors.As(err, &ce) {
		ce.GroupID = b.GroupID
	}
	return transfers, err
}

type party struct {
	id        string
	remaining int64 // magnitude, always positive
}

// partyHeap is a max-heap on remaining, ties broken by ascending id.
type partyHeap []party

func (h partyHeap) Len() int { return len(h) }

func (h partyHeap) Less(i, j int) bool {
	if h[i].remaining != h[j].remaining {
		return h[i].remaining > h[j].remaining
	}
	return h[i].id < h[j].id
}

func (h partyHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *partyHeap) Push(x any) { *h = append(*h, x.(party)) }

func (h *partyHeap) Pop() any {
	old := *h
	n := len(old)
	p := old[n-1]
	*h = old[:n-1]
	return p
}
