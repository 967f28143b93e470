package calculator

import (
	"fmt"
	"sort"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
)

// BalanceSheet is the derived position of every member of a group.
type BalanceSheet struct {
	GroupID string

	// Members holds one entry per member, ordered by member ID.
	Members []models.MemberBalance

	// Net maps member ID to net balance in cents.
	Net map[string]int64
}

// Balances folds a ledger snapshot into per-member balances.
//
// For each member m:
//
//	balance(m) = paid(m) - owed(m) + settlements paid(m) - settlements received(m)
//
// A positive balance means the group owes m. Paying a settlement moves the
// payer toward being owed and the payee toward owing, so recording a plan
// transfer brings both parties closer to zero.
//
// Nothing is cached: the sheet is recomputed from the full ledger on every
// call, so it cannot drift from the entries. Every roster member appears,
// including members with no activity.
//
// An expense whose splits do not add up to its total, or a sheet whose
// balances do not sum to zero, indicates a corrupt ledger and is returned as
// a ConsistencyError instead of a result.
func Balances(ledger *models.Ledger) (*BalanceSheet, error) {
	balances := make(map[string]*models.MemberBalance)
	get := func(memberID string) *models.MemberBalance {
		b, ok := balances[memberID]
		if !ok {
			b = &models.MemberBalance{MemberID: memberID}
			balances[memberID] = b
		}
		return b
	}

	for _, m := range ledger.Members {
		get(m.ID)
	}

	for _, e := range ledger.Expenses {
		if got := e.SplitTotal(); got != e.TotalCents {
			return nil, &ledgererr.ConsistencyError{
				GroupID: ledger.GroupID,
				Detail:  fmt.Sprintf("expense %s splits sum to %d, total is %d", e.ID, got, e.TotalCents),
				Sum:     got - e.TotalCents,
			}
		}
		get(e.PayerID).PaidCents += e.TotalCents
		for _, s := range e.Splits {
			get(s.MemberID).OwedCents += s.AmountCents
		}
	}

	for _, s := range ledger.Settlements {
		get(s.PayerID).SettledOutCents += s.AmountCents
		get(s.PayeeID).SettledInCents += s.AmountCents
	}

	sheet := &BalanceSheet{
		GroupID: ledger.GroupID,
		Members: make([]models.MemberBalance, 0, len(balances)),
		Net:     make(map[string]int64, len(balances)),
	}
	var sum int64
	for id, b := range balances {
		b.NetCents = b.PaidCents - b.OwedCents + b.SettledOutCents - b.SettledInCents
		sheet.Net[id] = b.NetCents
		sheet.Members = append(sheet.Members, *b)
		sum += b.NetCents
	}
	if sum != 0 {
		return nil, &ledgererr.ConsistencyError{
			GroupID: ledger.GroupID,
			Detail:  "member balances do not sum to zero",
			Sum:     sum,
		}
	}

	sort.Slice(sheet.Members, func(i, j int) bool {
		return sheet.Members[i].MemberID < sheet.Members[j].MemberID
	})
	return sheet, nil
}
