package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/ids"
	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
)

// CreateExpenseInput describes an expense to record.
type CreateExpenseInput struct {
	GroupID     string
	PayerID     string
	TotalCents  int64
	Description string

	// Category defaults to models.CategoryOther.
	Category models.Category

	// Date defaults to today (UTC).
	Date time.Time

	SplitMode      models.SplitMode
	ParticipantIDs []string

	// Weights are basis points in percentage mode and cents in custom mode.
	Weights []int64

	// IdempotencyKey makes retries safe: a repeated request with the same key
	// and the same content returns the original expense.
	IdempotencyKey string

	// AllowRefund requests a negative total. It only takes effect when the
	// service is configured to allow refunds.
	AllowRefund bool
}

// CreateExpense validates, splits and appends an expense.
func (s *Service) CreateExpense(ctx context.Context, in CreateExpenseInput) (*models.Expense, error) {
	if in.GroupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	if in.Category == "" {
		in.Category = models.CategoryOther
	}
	if _, err := models.ParseCategory(string(in.Category)); err != nil {
		return nil, ledgererr.Invalid("category", ledgererr.ErrUnknownCategory, "%q", in.Category)
	}
	if in.Date.IsZero() {
		in.Date = s.today()
	}
	hash := in.fingerprint()

	var expense *models.Expense
	replayed := false
	err := s.guard.Do(ctx, in.GroupID, func(ctx context.Context) error {
		if in.IdempotencyKey != "" {
			existing, err := s.store.FindExpenseByKey(ctx, in.GroupID, in.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if existing.RequestHash != hash {
					return ledgererr.Invalid("idempotency_key", ledgererr.ErrIdempotencyConflict, "%s", in.IdempotencyKey)
				}
				expense, replayed = existing, true
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

		shares, err := calculator.Split(calculator.SplitRequest{
			TotalCents:   in.TotalCents,
			Participants: in.ParticipantIDs,
			Mode:         in.SplitMode,
			Weights:      in.Weights,
			Members:      group.MemberIDs(),
			AllowRefund:  in.AllowRefund && s.allowRefunds,
		})
		if err != nil {
			return err
		}

		e := &models.Expense{
			ID:             ids.NewExpense(),
			GroupID:        in.GroupID,
			PayerID:        in.PayerID,
			TotalCents:     in.TotalCents,
			Description:    in.Description,
			Category:       in.Category,
			Date:           in.Date,
			SplitMode:      in.SplitMode,
			Splits:         make([]models.Split, len(shares)),
			CreatedAt:      s.now().Unix(),
			IdempotencyKey: in.IdempotencyKey,
			RequestHash:    hash,
		}
		for i, sh := range shares {
			e.Splits[i] = models.Split{
				ID:          ids.NewSplit(),
				ExpenseID:   e.ID,
				MemberID:    sh.MemberID,
				AmountCents: sh.AmountCents,
			}
		}
		if err := s.store.AppendExpense(ctx, e); err != nil {
			return err
		}
		expense = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	if replayed {
		s.metrics.IdempotentReplay("expense")
		slog.Debug("Expense request replayed", "group_id", in.GroupID, "expense_id", expense.ID)
		return expense, nil
	}

	s.metrics.EntryAppended("expense")
	slog.Info("Expense recorded",
		"group_id", expense.GroupID,
		"expense_id", expense.ID,
		"total_cents", expense.TotalCents,
		"split_mode", expense.SplitMode,
		"participants", len(expense.Splits))
	s.publish(ctx, events.ExpenseCreated(expense))
	return expense, nil
}

// ListExpenses returns a group's expenses matching filter, newest first.
func (s *Service) ListExpenses(ctx context.Context, groupID string, filter models.ExpenseFilter) ([]*models.Expense, error) {
	if groupID == "" {
		return nil, ledgererr.Invalid("group_id", ledgererr.ErrMissingField, "")
	}
	if filter.Category != "" {
		if _, err := models.ParseCategory(string(filter.Category)); err != nil {
			return nil, ledgererr.Invalid("category", ledgererr.ErrUnknownCategory, "%q", filter.Category)
		}
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() && filter.EndDate.Before(filter.StartDate) {
		return nil, ledgererr.Invalid("end_date", ledgererr.ErrInvalidDate, "end date is before start date")
	}
	return s.store.ListExpenses(ctx, groupID, filter)
}
