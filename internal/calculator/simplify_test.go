package calculator

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
)

func TestSimplify(t *testing.T) {
	tests := []struct {
		name     string
		balances map[string]int64
		want     []models.Transfer
	}{
		{
			name:     "one creditor two debtors",
			balances: map[string]int64{"A": 7692, "B": -2308, "C": -5384},
			want: []models.Transfer{
				{FromMemberID: "C", ToMemberID: "A", AmountCents: 5384},
				{FromMemberID: "B", ToMemberID: "A", AmountCents: 2308},
			},
		},
		{
			name:     "all settled",
			balances: map[string]int64{"A": 0, "B": 0},
			want:     nil,
		},
		{
			name:     "empty input",
			balances: map[string]int64{},
			want:     nil,
		},
		{
			name:     "equal magnitudes ordered by member id",
			balances: map[string]int64{"D": 100, "C": 100, "B": -100, "A": -100},
			want: []models.Transfer{
				{FromMemberID: "A", ToMemberID: "C", AmountCents: 100},
				{FromMemberID: "B", ToMemberID: "D", AmountCents: 100},
			},
		},
		{
			name:     "creditor remainder re-enters heap",
			balances: map[string]int64{"A": 1000, "B": 200, "C": -600, "D": -600},
			want: []models.Transfer{
				{FromMemberID: "C", ToMemberID: "A", AmountCents: 600},
				{FromMemberID: "D", ToMemberID: "A", AmountCents: 400},
				{FromMemberID: "D", ToMemberID: "B", AmountCents: 200},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Simplify(tt.balances)
			if err != nil {
				t.Fatalf("Simplify() unexpected error: %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("Simplify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimplify_RejectsNonZeroSum(t *testing.T) {
	_, err := Simplify(map[string]int64{"A": 100, "B": -99})
	if !errors.Is(err, ledgererr.ErrConsistency) {
		t.Fatalf("Simplify() error = %v, want consistency error", err)
	}
}

func TestBalanceSheet_PlanNamesGroup(t *testing.T) {
	sheet := &BalanceSheet{GroupID: "grp_1", Net: map[string]int64{"A": 100, "B": -99}}
	_, err := sheet.Plan()
	var ce *ledgererr.ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "grp_1", ce.GroupID)
	assert.Contains(t, err.Error(), "group grp_1")
}

func TestSimplify_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 1000; i++ {
		n := 2 + rng.Intn(9)
		balances := make(map[string]int64, n)
		var sum int64
		for k := 0; k < n-1; k++ {
			v := rng.Int63n(2_000_001) - 1_000_000
			balances[fmt.Sprintf("m%02d", k)] = v
			sum += v
		}
		balances[fmt.Sprintf("m%02d", n-1)] = -sum

		t.Run(fmt.Sprint(i), func(t *testing.T) {
			plan, err := Simplify(balances)
			require.NoError(t, err)

			nonZero := 0
			for _, v := range balances {
				if v != 0 {
					nonZero++
				}
			}
			if nonZero > 0 {
				assert.LessOrEqual(t, len(plan), nonZero-1)
			}

			remaining := make(map[string]int64, n)
			for id, v := range balances {
				remaining[id] = v
			}
			for _, tr := range plan {
				assert.Positive(t, tr.AmountCents)
				assert.NotEqual(t, tr.FromMemberID, tr.ToMemberID)
				remaining[tr.FromMemberID] += tr.AmountCents
				remaining[tr.ToMemberID] -= tr.AmountCents
			}
			for id, v := range remaining {
				assert.Zerof(t, v, "member %s not settled", id)
			}

			again, err := Simplify(balances)
			require.NoError(t, err)
			assert.Equal(t, plan, again, "plan must be deterministic")
		})
	}
}
