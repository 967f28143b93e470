package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/guard"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func newLedger(t *testing.T) (*ledger.Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return ledger.New(store, guard.New(time.Second, nil), nil, nil, ledger.Options{}), store
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	svc, store := newLedger(t)

	healthy, err := svc.CreateGroup(ctx, "Healthy", []ledger.MemberInput{{ID: "A", DisplayName: "A"}, {ID: "B", DisplayName: "B"}})
	require.NoError(t, err)
	_, err = svc.CreateExpense(ctx, ledger.CreateExpenseInput{
		GroupID: healthy.ID, PayerID: "A", TotalCents: 1000,
		SplitMode: models.SplitEqual, ParticipantIDs: []string{"A", "B"},
	})
	require.NoError(t, err)

	broken, err := svc.CreateGroup(ctx, "Broken", []ledger.MemberInput{{ID: "A", DisplayName: "A"}, {ID: "B", DisplayName: "B"}})
	require.NoError(t, err)
	require.NoError(t, store.AppendExpense(ctx, &models.Expense{
		ID: "exp_bad", GroupID: broken.ID, PayerID: "A", TotalCents: 500,
		Splits: []models.Split{{MemberID: "B", AmountCents: 400}},
	}))

	reg := prometheus.NewRegistry()
	a := New(ctx, svc, metrics.New(reg))
	report, err := a.RunOnce(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Violations, 1)
	assert.Equal(t, broken.ID, report.Violations[0].GroupID)
	assert.Equal(t, int64(-100), report.Violations[0].Err.Sum)

	count, err := testutil.GatherAndCount(reg, "splitledger_audit_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

type failingLedger struct{}

func (failingLedger) ListGroups(context.Context) ([]*models.Group, error) {
	return nil, errors.New("disk gone")
}

func (failingLedger) GetBalances(context.Context, string) (*calculator.BalanceSheet, error) {
	return nil, nil
}

func TestRunOnce_ListError(t *testing.T) {
	a := New(context.Background(), failingLedger{}, nil)
	_, err := a.RunOnce(context.Background())
	assert.ErrorContains(t, err, "disk gone")
}

func TestSchedule(t *testing.T) {
	svc, _ := newLedger(t)
	a := New(context.Background(), svc, nil)

	assert.Error(t, a.Schedule("not a cron spec"))
	require.NoError(t, a.Schedule("*/1 * * * * *"))

	a.Start()
	a.Stop()
}
