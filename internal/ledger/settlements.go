package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ids"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// RecordSettlementInput describes a real-world payment between two members.
type RecordSettlementInput struct {
	GroupID     string
	PayerID     string
	PayeeID     string
	AmountCents int64

	// Date defaults to today (UTC).
	Date time.Time

	Note           string
	IdempotencyKey string
}

// RecordSettlement appends a settlement. The payer's balance rises and the
// payee's falls by the amount.
func (s *Service) RecordSettlement(ctx context.Context, in RecordSettlementInput) (*models.Settlement, error) {
	if in.GroupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	if in.PayerID != "" && in.PayerID == in.PayeeID {
		return nil, ledgererr.Invalid("payee_id", ledgererr.ErrSamePayerPayee, "%s", in.PayerID)
	}
	if in.AmountCents <= 0 {
		return nil, ledgererr.Invalid("amount", ledgererr.ErrNonPositiveTotal, "got %d cents", in.AmountCents)
	}
	if in.AmountCents > money.MaxCents {
		return nil, ledgererr.Invalid("amount", ledgererr.ErrAmountTooLarge, "got %d cents", in.AmountCents)
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	hash := in.fingerprint()

	var settlement *models.Settlement
	replayed := false
	err := s.guard.Do(ctx, in.GroupID, func(ctx context.Context) error {
		if in.IdempotencyKey != "" {
			existing, err := s.store.FindSettlementByKey(ctx, in.GroupID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != hash {
					return ledgererr.Invalid("idempotency_key", ledgererr.ErrIdempotencyConflict, "%s", in.IdempotencyKey)
				}
				settlement, replayed = existing, true
				return nil
			}
		}

		group, err := s.store.GetGroup(ctx, in.GroupID)
		if err != nil {
			return err
		}
		if err := requireMember(group, "payer_id", in.PayerID); err != nil {
			return err
		}
		if err := requireMember(group, "payee_id", in.PayeeID); err != nil {
			return err
		}

		st := &models.Settlement{
			ID:             ids.NewSettlement(),
			GroupID:        in.GroupID,
			PayerID:        in.PayerID,
			PayeeID:        in.PayeeID,
			AmountCents:    in.AmountCents,
			Date:           in.Date,
			Note:           in.Note,
			CreatedAt:      s.now().Unix(),
			IdempotencyKey: in.IdempotencyKey,
			RequestHash:    hash,
		}
		if err := s.store.AppendSettlement(ctx, st); err != nil {
			return err
		}
		settlement = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.metrics.IdempotentReplay("settlement")
		slog.Debug("Settlement request replayed", "group_id", in.GroupID, "settlement_id", settlement.ID)
		return settlement, nil
	}

	s.metrics.EntryAppended("settlement")
	slog.Info("Settlement recorded",
		"group_id", settlement.GroupID,
		"settlement_id", settlement.ID,
		"payer_id", settlement.PayerID,
		"payee_id", settlement.PayeeID,
		"amount_cents", settlement.AmountCents)
	s.publish(ctx, events.SettlementRecorded(settlement))
	return settlement, nil
}

// ListSettlements returns a group's settlements, newest first.
func (s *Service) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	if groupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	return s.store.ListSettlements(ctx, groupID)
}
