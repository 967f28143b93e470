// Package audit periodically recomputes every group's balances and reports
// ledgers that violate the zero-sum invariant.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
)

// Ledger is the read side of the ledger service the auditor needs.
type Ledger interface {
	ListGroups(ctx context.Context) ([]*models.Group, error)
	GetBalances(ctx context.Context, groupID string) (*calculator.BalanceSheet, error)
}

// Violation describes a group whose ledger failed the audit.
type Violation struct {
	GroupID string
	Err     *ledgererr.ConsistencyError
}

// Report summarizes one audit pass.
type Report struct {
	Checked    int
	Violations []Violation
}

// Auditor runs consistency checks on a cron schedule.
type Auditor struct {
	ledger  Ledger
	metrics *metrics.Recorder
	cron    *cron.Cron
	ctx     context.Context
}

// New creates an Auditor. rec may be nil.
func New(ctx context.Context, ledger Ledger, rec *metrics.Recorder) *Auditor {
	return &Auditor{
		ledger:  ledger,
		metrics: rec,
		cron:    cron.New(cron.WithSeconds()),
		ctx:     ctx,
	}
}

// Schedule registers the audit with a seconds-field cron spec,
// e.g. "0 */15 * * * *".
func (a *Auditor) Schedule(spec string) error {
	if _, err := a.cron.AddFunc(spec, a.run); err != nil {
		return fmt.Errorf("register audit: %w", err)
	}
	return nil
}

func (a *Auditor) Start() {
	a.cron.Start()
	slog.Info("Audit scheduler started")
}

// Stop halts the scheduler and waits for a running audit to finish.
func (a *Auditor) Stop() {
	<-a.cron.Stop().Done()
	slog.Info("Audit scheduler stopped")
}

func (a *Auditor) run() {
	if _, err := a.RunOnce(a.ctx); err != nil {
		slog.Error("Audit failed", "error", err)
	}
}

// RunOnce checks every group once. Consistency violations are collected in
// the report; any other error aborts the pass.
func (a *Auditor) RunOnce(ctx context.Context) (*Report, error) {
	groups, err := a.ledger.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	report := &Report{}
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		_, err := a.ledger.GetBalances(ctx, g.ID)
		report.Checked++
		if err == nil {
			continue
		}
		var ce *ledgererr.ConsistencyError
		if !errors.As(err, &ce) {
			return report, fmt.Errorf("audit group %s: %w", g.ID, err)
		}
		report.Violations = append(report.Violations, Violation{GroupID: g.ID, Err: ce})
		slog.Error("Audit found inconsistent ledger", "group_id", g.ID, "detail", ce.Detail, "sum", ce.Sum)
	}

	a.metrics.AuditCompleted(report.Checked)
	slog.Info("Audit completed", "groups", report.Checked, "violations", len(report.Violations))
	return report, nil
}
