package calculator

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
)

func expense(id, payer string, total int64, splits map[string]int64) *models.Expense {
	e := &models.Expense{ID: id, PayerID: payer, TotalCents: total}
	for _, m := range []string{"A", "B", "C", "D"} {
		if amt, ok := splits[m]; ok {
			e.Splits = append(e.Splits, models.Split{ExpenseID: id, MemberID: m, AmountCents: amt})
		}
	}
	return e
}

func roster(ids ...string) []models.Member {
	members := make([]models.Member, len(ids))
	for i, id := range ids {
		members[i] = models.Member{ID: id, DisplayName: id}
	}
	return members
}

func TestBalances(t *testing.T) {
	tests := []struct {
		name    string
		ledger  *models.Ledger
		want    map[string]int64
		wantErr bool
	}{
		{
			name:   "empty ledger lists every member at zero",
			ledger: &models.Ledger{GroupID: "g", Members: roster("A", "B", "C")},
			want:   map[string]int64{"A": 0, "B": 0, "C": 0},
		},
		{
			name: "one expense split three ways",
			ledger: &models.Ledger{
				GroupID: "g",
				Members: roster("A", "B", "C"),
				Expenses: []*models.Expense{
					expense("e1", "A", 10000, map[string]int64{"A": 3334, "B": 3333, "C": 3333}),
				},
			},
			want: map[string]int64{"A": 6666, "B": -3333, "C": -3333},
		},
		{
			name: "settlement moves balance toward zero",
			ledger: &models.Ledger{
				GroupID: "g",
				Members: roster("A", "B"),
				Expenses: []*models.Expense{
					expense("e1", "A", 1000, map[string]int64{"A": 500, "B": 500}),
				},
				Settlements: []*models.Settlement{
					{ID: "s1", PayerID: "B", PayeeID: "A", AmountCents: 500},
				},
			},
			want: map[string]int64{"A": 0, "B": 0},
		},
		{
			name: "payer outside the split",
			ledger: &models.Ledger{
				GroupID: "g",
				Members: roster("A", "B", "C"),
				Expenses: []*models.Expense{
					expense("e1", "C", 900, map[string]int64{"A": 450, "B": 450}),
				},
			},
			want: map[string]int64{"A": -450, "B": -450, "C": 900},
		},
		{
			name: "refund reverses the original",
			ledger: &models.Ledger{
				GroupID: "g",
				Members: roster("A", "B"),
				Expenses: []*models.Expense{
					expense("e1", "A", 1000, map[string]int64{"A": 500, "B": 500}),
					expense("e2", "A", -1000, map[string]int64{"A": -500, "B": -500}),
				},
			},
			want: map[string]int64{"A": 0, "B": 0},
		},
		{
			name: "split sum mismatch is a consistency error",
			ledger: &models.Ledger{
				GroupID: "g",
				Members: roster("A", "B"),
				Expenses: []*models.Expense{
					expense("e1", "A", 1000, map[string]int64{"A": 500}),
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := Balances(tt.ledger)
			if tt.wantErr {
				var ce *ledgererr.ConsistencyError
				if !errors.As(err, &ce) {
					t.Fatalf("Balances() error = %v, want ConsistencyError", err)
				}
				if ce.GroupID != tt.ledger.GroupID {
					t.Errorf("ConsistencyError.GroupID = %q, want %q", ce.GroupID, tt.ledger.GroupID)
				}
				return
			}
			if err != nil {
				t.Fatalf("Balances() unexpected error: %v", err)
			}
			if len(sheet.Net) != len(tt.want) {
				t.Fatalf("Balances() returned %d members, want %d", len(sheet.Net), len(tt.want))
			}
			for id, want := range tt.want {
				if got := sheet.Net[id]; got != want {
					t.Errorf("balance[%s] = %d, want %d", id, got, want)
				}
			}
		})
	}
}

func TestBalances_Breakdown(t *testing.T) {
	ledger := &models.Ledger{
		GroupID: "g",
		Members: roster("C", "A", "B"),
		Expenses: []*models.Expense{
			expense("e1", "A", 3000, map[string]int64{"A": 1000, "B": 1000, "C": 1000}),
		},
		Settlements: []*models.Settlement{
			{ID: "s1", PayerID: "B", PayeeID: "A", AmountCents: 400},
		},
	}

	sheet, err := Balances(ledger)
	require.NoError(t, err)
	require.Len(t, sheet.Members, 3)

	assert.Equal(t, "A", sheet.Members[0].MemberID)
	assert.Equal(t, "B", sheet.Members[1].MemberID)
	assert.Equal(t, "C", sheet.Members[2].MemberID)

	a := sheet.Members[0]
	assert.Equal(t, int64(3000), a.PaidCents)
	assert.Equal(t, int64(1000), a.OwedCents)
	assert.Equal(t, int64(400), a.SettledInCents)
	assert.Equal(t, int64(1600), a.NetCents)

	b := sheet.Members[1]
	assert.Equal(t, int64(400), b.SettledOutCents)
	assert.Equal(t, int64(-600), b.NetCents)
}

// Recording every transfer of a plan as a settlement leaves the group square.
func TestBalances_SettlingPlanZeroesGroup(t *testing.T) {
	ledger := &models.Ledger{
		GroupID: "g",
		Members: roster("A", "B", "C"),
		Expenses: []*models.Expense{
			expense("e1", "A", 2000, map[string]int64{"A": 1000, "B": 1000}),
			expense("e2", "C", 900, map[string]int64{"A": 300, "B": 300, "C": 300}),
		},
	}

	sheet, err := Balances(ledger)
	require.NoError(t, err)
	plan, err := sheet.Plan()
	require.NoError(t, err)
	require.NotEmpty(t, plan)

	for i, tr := range plan {
		ledger.Settlements = append(ledger.Settlements, &models.Settlement{
			ID:          fmt.Sprintf("s%d", i),
			PayerID:     tr.FromMemberID,
			PayeeID:     tr.ToMemberID,
			AmountCents: tr.AmountCents,
		})
	}

	sheet, err = Balances(ledger)
	require.NoError(t, err)
	for id, v := range sheet.Net {
		assert.Zerof(t, v, "member %s", id)
	}
	plan, err = sheet.Plan()
	require.NoError(t, err)
	assert.Empty(t, plan)
}

func TestBalances_ZeroSumWithRandomExpenses(t *testing.T) {
	ledger := &models.Ledger{GroupID: "g", Members: roster("A", "B", "C", "D")}
	participants := []string{"A", "B", "C", "D"}
	payers := []string{"D", "A", "C", "B"}

	for i := int64(1); i <= 50; i++ {
		shares, err := Split(SplitRequest{
			TotalCents:   i*137 + 1,
			Participants: participants[:1+i%4],
			Mode:         models.SplitEqual,
		})
		require.NoError(t, err)
		e := &models.Expense{ID: "e", PayerID: payers[i%4], TotalCents: i*137 + 1}
		for _, s := range shares {
			e.Splits = append(e.Splits, models.Split{MemberID: s.MemberID, AmountCents: s.AmountCents})
		}
		ledger.Expenses = append(ledger.Expenses, e)
	}

	sheet, err := Balances(ledger)
	require.NoError(t, err)
	var sum int64
	for _, v := range sheet.Net {
		sum += v
	}
	assert.Zero(t, sum)
}
