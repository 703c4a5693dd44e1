package engine

import (
	"context"

	"hexbet/internal/state"
)

// ClaimKind says how a bet is paid out.
type ClaimKind string

const (
	ClaimPayout ClaimKind = "payout"
	ClaimRefund ClaimKind = "refund"
)

// Payout is the winner payout owed on b in a claimable round:
// stake/count × 5 × (100−gap)/100, truncating left to right.
func Payout(r *state.Round, b *state.BetRecord) (uint64, error) {
	base, err := mulUint64Checked(b.PerOutcome(), payoutMultiplier, "winning stake")
	if err != nil {
		return 0, err
	}
	return mulDiv(base, 100-r.GapRate, 100, "payout")
}

// claimable returns what b is owed at height h, or an error explaining why
// nothing is owed yet.
func claimable(r *state.Round, b *state.BetRecord, h int64) (ClaimKind, uint64, error) {
	if h <= r.LockHeight {
		return "", 0, ErrSequence.Wrapf("round %d locks at height %d", r.Epoch, r.LockHeight)
	}
	if b == nil {
		return "", 0, ErrNotEligible.Wrapf("no bet on round %d", r.Epoch)
	}
	if b.Claimed {
		return "", 0, ErrAlreadyClaimed.Wrapf("round %d", r.Epoch)
	}
	switch {
	case r.Status == state.RoundClaimable:
		if !b.Has(r.WinningOutcome) {
			return "", 0, ErrNotEligible.Wrapf("bet does not cover winning outcome %d", r.WinningOutcome)
		}
		amt, err := Payout(r, b)
		if err != nil {
			return "", 0, err
		}
		return ClaimPayout, amt, nil
	case r.IsExpired(h):
		return ClaimRefund, b.Amount, nil
	default:
		return "", 0, ErrWindow.Wrapf("round %d is unresolved until height %d", r.Epoch, r.RevealDeadline())
	}
}

// Claim pays player the winnings of a claimable round or refunds the full
// stake of an expired one. Each bet is paid at most once.
func (k *Keeper) Claim(ctx context.Context, player string, epoch uint64) (ClaimKind, uint64, error) {
	release, err := k.enter()
	if err != nil {
		return "", 0, err
	}
	defer release()

	r := k.st.Round(epoch)
	if r == nil {
		return "", 0, ErrRoundNotFound.Wrapf("round %d", epoch)
	}
	b := k.st.Bet(epoch, player)
	kind, amt, err := claimable(r, b, k.height())
	if err != nil {
		return "", 0, err
	}
	if amt > 0 {
		if err := k.bank.TransferOut(ctx, player, amt); err != nil {
			return "", 0, ErrInsufficientFunds.Wrap(err.Error())
		}
	}
	b.Claimed = true

	k.logger.Debug("bet claimed", "epoch", epoch, "player", player, "kind", kind, "amount", amt)
	return kind, amt, nil
}

// PendingClaim is an unpaid payout or refund.
type PendingClaim struct {
	Epoch  uint64    `json:"epoch"`
	Kind   ClaimKind `json:"kind"`
	Amount uint64    `json:"amount"`
}

// Claimable lists every round in player's history with a payout or refund that
// can be claimed at the current height, oldest first.
func (k *Keeper) Claimable(player string) []PendingClaim {
	h := k.height()
	var out []PendingClaim
	for _, epoch := range k.st.History[player] {
		r := k.st.Round(epoch)
		if r == nil {
			continue
		}
		kind, amt, err := claimable(r, k.st.Bet(epoch, player), h)
		if err != nil {
			continue
		}
		out = append(out, PendingClaim{Epoch: epoch, Kind: kind, Amount: amt})
	}
	return out
}
