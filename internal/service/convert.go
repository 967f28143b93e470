package service

import (
	"errors"
	"time"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/pkg/api"
)

func parseAmount(field, s string) (int64, error) {
	cents, err := money.ParseCents(s)
	if err != nil {
		reason := ledgererr.ErrInvalidAmount
		if errors.Is(err, money.ErrEmpty) {
			reason = ledgererr.ErrMissingField
		} else if errors.Is(err, money.ErrOutOfRange) {
			reason = ledgererr.ErrAmountTooLarge
		}
		return 0, ledgererr.Invalid(field, reason, "%v", err)
	}
	return cents, nil
}

func parseAmounts(field string, values []string, parse func(string) (int64, error)) ([]int64, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := make([]int64, len(values))
	for i, v := range values {
		n, err := parse(v)
		if err != nil {
			return nil, ledgererr.Invalid(field, ledgererr.ErrInvalidAmount, "entry %d: %v", i, err)
		}
		out[i] = n
	}
	return out, nil
}

// parseDate accepts "YYYY-MM-DD". An empty string yields the zero time.
func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, ledgererr.Invalid(field, ledgererr.ErrInvalidDate, "%q", s)
	}
	return d, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(models.DateLayout)
}

func groupToAPI(g *models.Group) *api.Group {
	out := &api.Group{
		Id:        g.ID,
		Name:      g.Name,
		Members:   make([]*api.Member, len(g.Members)),
		CreatedAt: g.CreatedAt,
	}
	for i, m := range g.Members {
		out.Members[i] = &api.Member{Id: m.ID, DisplayName: m.DisplayName, JoinedAt: m.JoinedAt}
	}
	return out
}

func expenseToAPI(e *models.Expense) *api.Expense {
	out := &api.Expense{
		Id:             e.ID,
		GroupId:        e.GroupID,
		PayerId:        e.PayerID,
		Amount:         money.FormatCents(e.TotalCents),
		Description:    e.Description,
		Category:       string(e.Category),
		Date:           formatDate(e.Date),
		SplitMode:      string(e.SplitMode),
		Splits:         make([]*api.Split, len(e.Splits)),
		CreatedAt:      e.CreatedAt,
		IdempotencyKey: e.IdempotencyKey,
	}
	for i, s := range e.Splits {
		out.Splits[i] = &api.Split{Id: s.ID, MemberId: s.MemberID, Amount: money.FormatCents(s.AmountCents)}
	}
	return out
}

func settlementToAPI(s *models.Settlement) *api.Settlement {
	return &api.Settlement{
		Id:             s.ID,
		GroupId:        s.GroupID,
		PayerId:        s.PayerID,
		PayeeId:        s.PayeeID,
		Amount:         money.FormatCents(s.AmountCents),
		Date:           formatDate(s.Date),
		Note:           s.Note,
		CreatedAt:      s.CreatedAt,
		IdempotencyKey: s.IdempotencyKey,
	}
}
