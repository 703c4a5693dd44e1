package engine

import (
	"context"

	"hexbet/internal/state"
)

// bonusUnits is the bonus b earned in r, in stake units.
//
// Won: perOutcome × 5 × gap/100 × bonus/100, plus the losing formula over the
// stake on the other chosen outcomes. Lost: stake × bonus/100.
func bonusUnits(r *state.Round, b *state.BetRecord) (uint64, error) {
	per := b.PerOutcome()
	if !b.Has(r.WinningOutcome) {
		return mulDiv(b.Amount, r.BonusRate, 100, "bonus")
	}
	base, err := mulUint64Checked(per, payoutMultiplier, "winning stake")
	if err != nil {
		return 0, err
	}
	_, units, err := cuts(base, r)
	if err != nil {
		return 0, err
	}
	if b.Count > 1 {
		rest, err := mulUint64Checked(per, uint64(b.Count-1), "other outcomes")
		if err != nil {
			return 0, err
		}
		_, extra, err := cuts(rest, r)
		if err != nil {
			return 0, err
		}
		if units, err = addUint64Checked(units, extra, "bonus"); err != nil {
			return 0, err
		}
	}
	return units, nil
}

// bonusAsset converts units into the secondary asset at the round's own
// settlement rate, capped at what the round has left to pay.
func bonusAsset(r *state.Round, units uint64) (uint64, error) {
	if units == 0 || r.BonusAmount == 0 || r.BonusAssetAmount == 0 {
		return 0, nil
	}
	amt, err := mulDiv(units, r.BonusAssetAmount, r.BonusAmount, "bonus asset")
	if err != nil {
		return 0, err
	}
	left := r.BonusAssetAmount - r.BonusAssetPaid
	if amt > left {
		amt = left
	}
	return amt, nil
}

type bonusMark struct {
	bet   *state.BetRecord
	round *state.Round
	asset uint64
}

// ClaimBonus pays player the secondary-asset bonus of every resolved round in
// their history not yet bonus-claimed. The walk runs newest to oldest and stops
// at the first round already bonus-claimed. Rounds still in progress are
// skipped and stay claimable later; expired rounds are closed out with zero.
func (k *Keeper) ClaimBonus(ctx context.Context, player string) (uint64, error) {
	release, err := k.enter()
	if err != nil {
		return 0, err
	}
	defer release()

	if player == "" {
		return 0, ErrInvalidRequest.Wrap("missing player")
	}
	history := k.st.History[player]
	if len(history) == 0 {
		return 0, ErrNotEligible.Wrapf("%s has no rounds", player)
	}

	h := k.height()
	var (
		marks []bonusMark
		total uint64
	)
	for i := len(history) - 1; i >= 0; i-- {
		epoch := history[i]
		r := k.st.Round(epoch)
		b := k.st.Bet(epoch, player)
		if r == nil || b == nil {
			continue
		}
		if b.BonusClaimed {
			break
		}
		switch {
		case r.Status == state.RoundClaimable:
			units, err := bonusUnits(r, b)
			if err != nil {
				return 0, err
			}
			var amt uint64
			if k.exchange != nil {
				if amt, err = bonusAsset(r, units); err != nil {
					return 0, err
				}
			}
			if total, err = addUint64Checked(total, amt, "bonus total"); err != nil {
				return 0, err
			}
			marks = append(marks, bonusMark{bet: b, round: r, asset: amt})
		case r.IsExpired(h):
			marks = append(marks, bonusMark{bet: b, round: r})
		}
	}
	if len(marks) == 0 {
		return 0, ErrNotEligible.Wrapf("%s has no unclaimed bonus", player)
	}

	if total > 0 {
		if err := k.exchange.SendAsset(ctx, player, total); err != nil {
			return 0, ErrInsufficientFunds.Wrap(err.Error())
		}
	}
	for _, m := range marks {
		m.bet.BonusClaimed = true
		m.round.BonusAssetPaid += m.asset
	}

	k.logger.Debug("bonus claimed", "player", player, "rounds", len(marks), "amount", total)
	return total, nil
}
