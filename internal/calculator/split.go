package calculator

import (
	"sort"

	"github.com/mmynk/splitledger/internal/ledgererr"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
)

// Share is one participant's computed portion of an expense.
type Share struct {
	MemberID    string
	AmountCents int64
}

// SplitRequest describes an expense to divide.
type SplitRequest struct {
	// TotalCents is the expense total. Must be positive unless AllowRefund is set.
	TotalCents int64

	// Participants are the members sharing the expense, in the order that
	// receives leftover cents.
	Participants []string

	Mode models.SplitMode

	// Weights are ignored in equal mode, are basis points in percentage mode
	// (10000 = 100%), and are exact cents in custom mode. One per participant.
	Weights []int64

	// Members is the group roster. When non-empty, every participant must be on it.
	Members []string

	// AllowRefund permits a negative total.
	AllowRefund bool
}

// Split divides an expense total into per-participant shares.
// The returned shares follow the participant order and always sum to TotalCents.
func Split(req SplitRequest) ([]Share, error) {
	if err := validateSplit(req); err != nil {
		return nil, err
	}

	switch req.Mode {
	case models.SplitEqual:
		return splitEqual(req.TotalCents, req.Participants), nil
	case models.SplitPercentage:
		return splitPercentage(req.TotalCents, req.Participants, req.Weights)
	default:
		return splitCustom(req.TotalCents, req.Participants, req.Weights)
	}
}

func validateSplit(req SplitRequest) error {
	switch req.Mode {
	case models.SplitEqual, models.SplitPercentage, models.SplitCustom:
	default:
		return ledgererr.Invalid("split_mode", ledgererr.ErrUnknownMode, "%q", req.Mode)
	}
	if len(req.Participants) == 0 {
		return ledgererr.Invalid("participants", ledgererr.ErrNoParticipants, "")
	}
	if req.TotalCents == 0 || (req.TotalCents < 0 && !req.AllowRefund) {
		return ledgererr.Invalid("amount", ledgererr.ErrNonPositiveTotal, "got %d cents", req.TotalCents)
	}
	if req.TotalCents > money.MaxCents || req.TotalCents < -money.MaxCents {
		return ledgererr.Invalid("amount", ledgererr.ErrAmountTooLarge, "got %d cents", req.TotalCents)
	}

	seen := make(map[string]bool, len(req.Participants))
	for _, p := range req.Participants {
		if seen[p] {
			return ledgererr.Invalid("participants", ledgererr.ErrDuplicateParticipant, "%s", p)
		}
		seen[p] = true
	}

	if len(req.Members) > 0 {
		roster := make(map[string]bool, len(req.Members))
		for _, m := range req.Members {
			roster[m] = true
		}
		for _, p := range req.Participants {
			if !roster[p] {
				return ledgererr.Invalid("participants", ledgererr.ErrNotMember, "%s", p)
			}
		}
	}

	if req.Mode != models.SplitEqual && len(req.Weights) != len(req.Participants) {
		return ledgererr.Invalid("weights", ledgererr.ErrWeightCount,
			"got %d weights for %d participants", len(req.Weights), len(req.Participants))
	}
	return nil
}

// splitEqual gives every participant |total| div n and hands the remainder out
// one cent at a time in input order. A refund is the negation of the same split.
func splitEqual(total int64, participants []string) []Share {
	abs, sign := absSign(total)
	n := int64(len(participants))
	base := abs / n
	rem := abs - base*n

	shares := make([]Share, len(participants))
	for i, p := range participants {
		amt := base
		if int64(i) < rem {
			amt++
		}
		shares[i] = Share{MemberID: p, AmountCents: sign * amt}
	}
	return shares
}

// splitPercentage truncates each |total|*bp/10000 and corrects the residual
// cents largest-truncation-first, ties broken by input order.
func splitPercentage(total int64, participants []string, bps []int64) ([]Share, error) {
	var sum int64
	for _, bp := range bps {
		if bp < 0 {
			return nil, ledgererr.Invalid("percentages", ledgererr.ErrNegativeWeight, "got %s%%", money.FormatBasisPoints(bp))
		}
		sum += bp
	}
	if sum != money.FullPercent {
		return nil, ledgererr.Invalid("percentages", ledgererr.ErrPercentSum, "got %s%%", money.FormatBasisPoints(sum))
	}

	abs, sign := absSign(total)
	amounts := make([]int64, len(participants))
	remainders := make([]int64, len(participants))
	var allocated int64
	for i, bp := range bps {
		// |total| <= MaxCents and bp <= 10000, so the product fits in int64.
		raw := abs * bp
		amounts[i] = raw / money.FullPercent
		remainders[i] = raw % money.FullPercent
		allocated += amounts[i]
	}

	order := make([]int, len(participants))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})
	// The residual is below len(participants) because each truncation loses < 1 cent.
	for k := int64(0); k < abs-allocated; k++ {
		amounts[order[k]]++
	}

	shares := make([]Share, len(participants))
	for i, p := range participants {
		shares[i] = Share{MemberID: p, AmountCents: sign * amounts[i]}
	}
	return shares, nil
}

func splitCustom(total int64, participants []string, amounts []int64) ([]Share, error) {
	var sum int64
	shares := make([]Share, len(participants))
	for i, p := range participants {
		amt := amounts[i]
		// Shares carry the sign of the total; zero shares are allowed.
		if (total > 0 && amt < 0) || (total < 0 && amt > 0) {
			return nil, ledgererr.Invalid("custom_amounts", ledgererr.ErrNegativeWeight,
				"share %s for %s has the wrong sign", money.FormatCents(amt), p)
		}
		if amt > money.MaxCents || amt < -money.MaxCents {
			return nil, ledgererr.Invalid("custom_amounts", ledgererr.ErrAmountTooLarge, "share for %s", p)
		}
		sum += amt
		shares[i] = Share{MemberID: p, AmountCents: amt}
	}
	if sum != total {
		return nil, ledgererr.Invalid("custom_amounts", ledgererr.ErrCustomSum,
			"shares sum to %s, total is %s, difference %s",
			money.FormatCents(sum), money.FormatCents(total), money.FormatCents(total-sum))
	}
	return shares, nil
}

func absSign(v int64) (int64, int64) {
	if v < 0 {
		return -v, -1
	}
	return v, 1
}
