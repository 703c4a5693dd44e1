package engine

import (
	"context"

	"hexbet/internal/state"
)

// OutcomeSet converts a list of outcome indexes into a bitset. Duplicates are
// rejected so the chosen count always equals the number of set bits.
func OutcomeSet(outcomes []uint8) (uint8, uint8, error) {
	if len(outcomes) == 0 {
		return 0, 0, ErrInvalidRequest.Wrap("at least one outcome must be chosen")
	}
	var set uint8
	for _, o := range outcomes {
		if o >= state.NumOutcomes {
			return 0, 0, ErrInvalidRequest.Wrapf("outcome %d out of range", o)
		}
		if set&(1<<o) != 0 {
			return 0, 0, ErrInvalidRequest.Wrapf("outcome %d chosen twice", o)
		}
		set |= 1 << o
	}
	return set, uint8(len(outcomes)), nil
}

// PlaceBet stakes amount from player on the current round, split evenly (with
// truncation) across the chosen outcomes. A player bets at most once per round.
func (k *Keeper) PlaceBet(ctx context.Context, player string, outcomes []uint8, amount uint64) (*state.BetRecord, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if player == "" {
		return nil, ErrInvalidRequest.Wrap("missing player")
	}
	set, count, err := OutcomeSet(outcomes)
	if err != nil {
		return nil, err
	}

	st := k.st
	if st.Vault.Phase != state.PhasePlayer {
		return nil, ErrPhase.Wrap("bets are only accepted in the player phase")
	}
	r := st.LatestRound()
	if r == nil {
		return nil, ErrRoundNotFound.Wrap("no round has started")
	}
	if r.Status != state.RoundOpen {
		return nil, ErrState.Wrapf("round %d is %s, want %s", r.Epoch, r.Status, state.RoundOpen)
	}
	h := k.height()
	if h <= r.StartHeight || h >= r.LockHeight {
		return nil, ErrWindow.Wrapf("betting on round %d is open in (%d,%d), now %d", r.Epoch, r.StartHeight, r.LockHeight, h)
	}
	if st.Bet(r.Epoch, player) != nil {
		return nil, ErrAlreadyBet.Wrapf("%s already bet on round %d", player, r.Epoch)
	}
	minAmount, err := mulUint64Checked(st.Params.MinStake, uint64(count), "minimum stake")
	if err != nil {
		return nil, err
	}
	if amount < minAmount {
		return nil, ErrInvalidRequest.Wrapf("stake %d below minimum %d for %d outcomes", amount, minAmount, count)
	}

	per := amount / uint64(count)
	total, err := addUint64Checked(r.TotalAmount, amount, "round total")
	if err != nil {
		return nil, err
	}
	var buckets [state.NumOutcomes]uint64
	for o := uint8(0); o < state.NumOutcomes; o++ {
		buckets[o] = r.OutcomeAmounts[o]
		if set&(1<<o) == 0 {
			continue
		}
		if buckets[o], err = addUint64Checked(buckets[o], per, "outcome bucket"); err != nil {
			return nil, err
		}
	}
	participants, err := addUint64Checked(r.Participants, 1, "participants")
	if err != nil {
		return nil, err
	}

	if err := k.bank.TransferIn(ctx, player, amount); err != nil {
		return nil, ErrInsufficientFunds.Wrap(err.Error())
	}

	r.TotalAmount = total
	r.OutcomeAmounts = buckets
	r.Participants = participants
	b := &state.BetRecord{
		Epoch:    r.Epoch,
		Player:   player,
		Amount:   amount,
		Outcomes: set,
		Count:    count,
	}
	st.PutBet(b)
	st.History[player] = append(st.History[player], r.Epoch)

	k.logger.Debug("bet placed", "epoch", r.Epoch, "player", player, "amount", amount, "outcomes", set)
	return b, nil
}
