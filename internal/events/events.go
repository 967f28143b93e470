// Package events announces new ledger entries to other systems.
//
// Events are notifications, not the source of truth: they are published
// after the entry is committed, and a failed publish never undoes or fails
// the append.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

// Event types. They double as AMQP routing keys.
const (
	TypeExpenseCreated     = "expense.created"
	TypeSettlementRecorded = "settlement.recorded"
)

// Publisher delivers ledger events.
type Publisher interface {
	Publish(ctx context.Context, msg *Message) error
	Close() error
}

// Message is the JSON body of a ledger event.
type Message struct {
	Type       string             `json:"type"`
	EntryID    string             `json:"entry_id"`
	GroupID    string             `json:"group_id"`
	OccurredAt time.Time          `json:"occurred_at"`
	Expense    *ExpensePayload    `json:"expense,omitempty"`
	Settlement *SettlementPayload `json:"settlement,omitempty"`
}

type ExpensePayload struct {
	PayerID     string         `json:"payer_id"`
	TotalCents  int64          `json:"total_cents"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category"`
	Date        string         `json:"date"`
	SplitMode   string         `json:"split_mode"`
	Splits      []SplitPayload `json:"splits"`
}

type SplitPayload struct {
	MemberID    string `json:"member_id"`
	AmountCents int64  `json:"amount_cents"`
}

type SettlementPayload struct {
	PayerID     string `json:"payer_id"`
	PayeeID     string `json:"payee_id"`
	AmountCents int64  `json:"amount_cents"`
	Date        string `json:"date"`
	Note        string `json:"note,omitempty"`
}

// ExpenseCreated builds the event for a newly appended expense.
func ExpenseCreated(e *models.Expense) *Message {
	p := &ExpensePayload{
		PayerID:     e.PayerID,
		TotalCents:  e.TotalCents,
		Description: e.Description,
		Category:    string(e.Category),
		Date:        e.Date.Format(models.DateLayout),
		SplitMode:   string(e.SplitMode),
		Splits:      make([]SplitPayload, len(e.Splits)),
	}
	for i, s := range e.Splits {
		p.Splits[i] = SplitPayload{MemberID: s.MemberID, AmountCents: s.AmountCents}
	}
	return &Message{
		Type:       TypeExpenseCreated,
		EntryID:    e.ID,
		GroupID:    e.GroupID,
		OccurredAt: time.Unix(e.CreatedAt, 0).UTC(),
		Expense:    p,
	}
}

// SettlementRecorded builds the event for a newly appended settlement.
func SettlementRecorded(s *models.Settlement) *Message {
	return &Message{
		Type:       TypeSettlementRecorded,
		EntryID:    s.ID,
		GroupID:    s.GroupID,
		OccurredAt: time.Unix(s.CreatedAt, 0).UTC(),
		Settlement: &SettlementPayload{
			PayerID:     s.PayerID,
			PayeeID:     s.PayeeID,
			AmountCents: s.AmountCents,
			Date:        s.Date.Format(models.DateLayout),
			Note:        s.Note,
		},
	}
}

// ToJSON converts the message to JSON bytes
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a message produced by ToJSON.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, *Message) error { return nil }
func (Noop) Close() error                            { return nil }

// Memory keeps published events in order. Useful in tests.
type Memory struct {
	mu       sync.Mutex
	messages []*Message
	// Err, when set, is returned by Publish and nothing is stored.
	Err error
}

func (m *Memory) Publish(_ context.Context, msg *Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *Memory) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (m *Memory) Messages() []*Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Message(nil), m.messages...)
}
