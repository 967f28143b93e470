package ledger

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/mmynk/splitledger/internal/models"
)

// fingerprint hashes the fields of a mutation that determine its outcome.
// Two requests with the same idempotency key must have the same fingerprint
// to be treated as a retry.
type fingerprint struct {
	buf []byte
}

func (f *fingerprint) str(s string) *fingerprint {
	f.buf = binary.AppendUvarint(f.buf, uint64(len(s)))
	f.buf = append(f.buf, s...)
	return f
}

func (f *fingerprint) num(v int64) *fingerprint {
	f.buf = binary.AppendVarint(f.buf, v)
	return f
}

func (f *fingerprint) sum() string {
	h := blake2b.Sum256(f.buf)
	return hex.EncodeToString(h[:])
}

func (in *CreateExpenseInput) fingerprint() string {
	f := (&fingerprint{}).
		str("expense").
		str(in.GroupID).
		str(in.PayerID).
		num(in.TotalCents).
		str(in.Description).
		str(string(in.Category)).
		str(in.Date.Format(models.DateLayout)).
		str(string(in.SplitMode))
	f.num(int64(len(in.ParticipantIDs)))
	for _, p := range in.ParticipantIDs {
		f.str(p)
	}
	f.num(int64(len(in.Weights)))
	for _, w := range in.Weights {
		f.num(w)
	}
	return f.sum()
}

func (in *RecordSettlementInput) fingerprint() string {
	return (&fingerprint{}).
		str("settlement").
		str(in.GroupID).
		str(in.PayerID).
		str(in.PayeeID).
		num(in.AmountCents).
		str(in.Date.Format(models.DateLayout)).
		str(in.Note).
		sum()
}
