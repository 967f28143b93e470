// Package ledger implements the group ledger operations.
//
// Writes (expenses, settlements, roster changes) run inside the group's
// guard section: the roster is loaded, the request validated, shares
// computed and the records appended before the section is released.
// Reads take no section; they work on a store snapshot.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/guard"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// Options tunes a Service.
type Options struct {
	// MaxMembers caps a group's roster. Zero selects models.DefaultMaxMembers.
	MaxMembers int

	// AllowRefunds permits expenses with a negative total when the request
	// asks for it.
	AllowRefunds bool
}

// Service is the entry point for every ledger operation.
type Service struct {
	store        storage.Store
	guard        *guard.Guard
	publisher    events.Publisher
	metrics      *metrics.Recorder
	maxMembers   int
	allowRefunds bool
	now          func() time.Time
}

// New creates a Service. publisher and rec may be nil.
func New(store storage.Store, g *guard.Guard, publisher events.Publisher, rec *metrics.Recorder, opts Options) *Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	if opts.MaxMembers <= 0 {
		opts.MaxMembers = models.DefaultMaxMembers
	}
	return &Service{
		store:        store,
		guard:        g,
		publisher:    publisher,
		metrics:      rec,
		maxMembers:   opts.MaxMembers,
		allowRefunds: opts.AllowRefunds,
		now:          time.Now,
	}
}

// MaxMembers returns the roster cap in effect.
func (s *Service) MaxMembers() int { return s.maxMembers }

// GetBalances derives every member's balance from a ledger snapshot.
func (s *Service) GetBalances(ctx context.Context, groupID string) (*calculator.BalanceSheet, error) {
	if groupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	snapshot, err := s.store.Snapshot(ctx, groupID)
	if err != nil {
		return nil, err
	}
	sheet, err := calculator.Balances(snapshot)
	if err != nil {
		s.reportConsistency(groupID, err)
		return nil, err
	}
	return sheet, nil
}

// GetSettlementPlan proposes transfers that zero every balance in the group.
// The plan is advisory; nothing is recorded until the caller records
// settlements.
func (s *Service) GetSettlementPlan(ctx context.Context, groupID string) ([]models.Transfer, error) {
	sheet, err := s.GetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}
	transfers, err := sheet.Plan()
	if err != nil {
		s.reportConsistency(groupID, err)
		return nil, err
	}
	return transfers, nil
}

func (s *Service) reportConsistency(groupID string, err error) {
	var ce *ledgererr.ConsistencyError
	if errors.As(err, &ce) {
		s.metrics.ConsistencyViolation()
		slog.Error("Ledger consistency violated", "group_id", groupID, "detail", ce.Detail, "sum", ce.Sum)
	}
}

// publish announces a committed entry. Failures are logged and counted only.
// The entry is already durable, so a caller going away does not cancel it.
func (s *Service) publish(ctx context.Context, msg *events.Message) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), msg); err != nil {
		s.metrics.PublishFailed(msg.Type)
		slog.Warn("Failed to publish ledger event",
			"type", msg.Type,
			"entry_id", msg.EntryID,
			"group_id", msg.GroupID,
			"error", err)
	}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// requireMember returns a validation error if memberID is not on g's roster.
func requireMember(g *models.Group, field, memberID string) error {
	if memberID == "" {
		return ledgererr.Invalid(field, ledgererr.ErrMissingField, "")
	}
	if !g.HasMember(memberID) {
		return ledgererr.Invalid(field, ledgererr.ErrNotMember, "%s", memberID)
	}
	return nil
}
