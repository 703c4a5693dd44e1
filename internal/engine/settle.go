package engine

import (
	"context"

	"hexbet/internal/state"
)

// payoutMultiplier is the net multiple paid on a winning outcome (six equally
// likely outcomes).
const payoutMultiplier = 5

type settlement struct {
	treasury uint64
	bonus    uint64
	payout   uint64

	// Banker pool movement: credit is added before debit is taken.
	credit uint64
	debit  uint64

	// retained is the stake on the winning outcome. It neither enters nor
	// leaves the pool.
	retained uint64
}

// computeSettlement derives the treasury cut, bonus cut, winner payout and
// banker pool movement of r for winning outcome win. Divisions truncate left to
// right and treasury is always computed before bonus.
func computeSettlement(r *state.Round, win uint8) (settlement, error) {
	var out settlement
	if win >= state.NumOutcomes {
		return out, ErrInvalidRequest.Wrapf("winning outcome %d out of range", win)
	}

	var bucketSum uint64
	for o := uint8(0); o < state.NumOutcomes; o++ {
		s := r.OutcomeAmounts[o]
		var err error
		if bucketSum, err = addUint64Checked(bucketSum, s, "bucket sum"); err != nil {
			return out, err
		}

		var t, b uint64
		if o == win {
			base, err := mulUint64Checked(s, payoutMultiplier, "winning stake")
			if err != nil {
				return out, err
			}
			if t, b, err = cuts(base, r); err != nil {
				return out, err
			}
			payout, err := mulDiv(base, 100-r.GapRate, 100, "payout")
			if err != nil {
				return out, err
			}
			out.payout = payout
			debit, err := addUint64Checked(payout, t, "pool debit")
			if err != nil {
				return out, err
			}
			if out.debit, err = addUint64Checked(debit, b, "pool debit"); err != nil {
				return out, err
			}
			// The winning stake stays in custody outside the pool.
			out.retained = s
		} else {
			if t, b, err = cuts(s, r); err != nil {
				return out, err
			}
			net := s - t - b
			if out.credit, err = addUint64Checked(out.credit, net, "pool credit"); err != nil {
				return out, err
			}
		}
		if out.treasury, err = addUint64Checked(out.treasury, t, "treasury cut"); err != nil {
			return out, err
		}
		if out.bonus, err = addUint64Checked(out.bonus, b, "bonus cut"); err != nil {
			return out, err
		}
	}

	// Split residue (amount not divisible by the chosen count) goes to the pool.
	residue, err := subUint64Checked(r.TotalAmount, bucketSum, "split residue")
	if err != nil {
		return out, err
	}
	if out.credit, err = addUint64Checked(out.credit, residue, "pool credit"); err != nil {
		return out, err
	}
	return out, nil
}

// cuts returns amount*gap/100*treasury/100 and amount*gap/100*bonus/100.
func cuts(amount uint64, r *state.Round) (uint64, uint64, error) {
	gap, err := mulDiv(amount, r.GapRate, 100, "gap")
	if err != nil {
		return 0, 0, err
	}
	t, err := mulDiv(gap, r.TreasuryRate, 100, "treasury cut")
	if err != nil {
		return 0, 0, err
	}
	b, err := mulDiv(gap, r.BonusRate, 100, "bonus cut")
	if err != nil {
		return 0, 0, err
	}
	return t, b, nil
}

// applyTo returns the banker pool balance after the settlement.
func (s settlement) applyTo(pool uint64) (uint64, error) {
	p, err := addUint64Checked(pool, s.credit, "banker pool")
	if err != nil {
		return 0, err
	}
	if p < s.debit {
		return 0, ErrInsufficientFunds.Wrapf("banker pool %d cannot cover %d", p, s.debit)
	}
	return p - s.debit, nil
}

// settle runs once per round: it books treasury and bonus cuts, moves the
// banker pool and converts the bonus cut. A second call fails without effect.
func (k *Keeper) settle(ctx context.Context, r *state.Round, win uint8) error {
	if r.Settled {
		return ErrAlreadySettled.Wrapf("round %d", r.Epoch)
	}
	s, err := computeSettlement(r, win)
	if err != nil {
		return err
	}
	pool, err := s.applyTo(k.st.Vault.Pool)
	if err != nil {
		return err
	}
	treasury, err := addUint64Checked(k.st.Treasury, s.treasury, "treasury")
	if err != nil {
		return err
	}
	reserve := k.st.BonusReserve
	var bonusAsset uint64
	if s.bonus > 0 {
		if k.exchange != nil {
			if bonusAsset, err = k.exchange.Convert(ctx, s.bonus); err != nil {
				return err
			}
		} else if reserve, err = addUint64Checked(reserve, s.bonus, "bonus reserve"); err != nil {
			return err
		}
	}

	r.Settled = true
	r.TreasuryAmount = s.treasury
	r.BonusAmount = s.bonus
	r.BonusAssetAmount = bonusAsset
	r.PayoutAmount = s.payout
	r.RetainedAmount = s.retained
	k.st.Treasury = treasury
	k.st.BonusReserve = reserve
	k.st.Vault.Pool = pool

	k.logger.Info("round settled",
		"epoch", r.Epoch,
		"treasury", s.treasury,
		"bonus", s.bonus,
		"bonusAsset", bonusAsset,
		"payout", s.payout,
		"retained", s.retained,
		"pool", pool,
	)
	return nil
}
