package engine

import (
	"context"
	"math/big"

	"hexbet/internal/commitment"
	"hexbet/internal/state"
)

// StartRound opens the next round with the operator's commitment. The previous
// round's lock height must have been reached.
func (k *Keeper) StartRound(ctx context.Context, caller string, commit []byte) (*state.Round, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := k.requireRole(ctx, caller, RoleOperator); err != nil {
		return nil, err
	}
	if err := commitment.ValidateCommitment(commit); err != nil {
		return nil, ErrSequence.Wrap(err.Error())
	}

	st := k.st
	h := k.height()
	if st.Vault.Phase != state.PhasePlayer {
		return nil, ErrPhase.Wrap("rounds can only start in the player phase")
	}
	if h >= st.Vault.PlayerPhaseEnd {
		return nil, ErrPhase.Wrapf("player phase ends at height %d", st.Vault.PlayerPhaseEnd)
	}
	if prev := st.LatestRound(); prev != nil && h < prev.LockHeight {
		return nil, ErrSequence.Wrapf("round %d locks at height %d", prev.Epoch, prev.LockHeight)
	}

	p := st.Params
	lockHeight, err := addInt64AndU64Checked(h, p.Interval, "lock height")
	if err != nil {
		return nil, err
	}
	if _, err := addInt64AndU64Checked(lockHeight, p.Buffer, "reveal deadline"); err != nil {
		return nil, err
	}
	epoch, err := addUint64Checked(st.Epoch, 1, "epoch")
	if err != nil {
		return nil, err
	}

	r := &state.Round{
		Epoch:        epoch,
		StartHeight:  h,
		LockHeight:   lockHeight,
		Buffer:       p.Buffer,
		GapRate:      p.GapRate,
		TreasuryRate: p.TreasuryRate,
		BonusRate:    p.BonusRate,
		Commitment:   append([]byte(nil), commit...),
		Status:       state.RoundOpen,
	}
	st.Rounds[epoch] = r
	st.Epoch = epoch

	k.logger.Info("round opened", "epoch", epoch, "start", h, "lock", lockHeight)
	return r, nil
}

// LockRound closes betting. Allowed from the lock height up to the end of the
// reveal buffer.
func (k *Keeper) LockRound(ctx context.Context, caller string, epoch uint64) (*state.Round, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := k.requireRole(ctx, caller, RoleOperator); err != nil {
		return nil, err
	}
	r := k.st.Round(epoch)
	if r == nil {
		return nil, ErrRoundNotFound.Wrapf("round %d", epoch)
	}
	if r.Status != state.RoundOpen {
		return nil, ErrState.Wrapf("round %d is %s, want %s", epoch, r.Status, state.RoundOpen)
	}
	h := k.height()
	if h < r.LockHeight {
		return nil, ErrSequence.Wrapf("round %d locks at height %d (now %d)", epoch, r.LockHeight, h)
	}
	if h > r.RevealDeadline() {
		return nil, ErrWindow.Wrapf("lock window for round %d closed at height %d", epoch, r.RevealDeadline())
	}

	r.Status = state.RoundLock
	k.logger.Info("round locked", "epoch", epoch, "height", h, "participants", r.Participants, "total", r.TotalAmount)
	return r, nil
}

// SendSecret reveals the round secret, resolves the winning outcome and settles
// the round.
func (k *Keeper) SendSecret(ctx context.Context, caller string, epoch uint64, secret []byte) (*state.Round, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := k.requireRole(ctx, caller, RoleOperator); err != nil {
		return nil, err
	}
	r := k.st.Round(epoch)
	if r == nil {
		return nil, ErrRoundNotFound.Wrapf("round %d", epoch)
	}
	if len(r.Secret) != 0 {
		return nil, ErrAlreadyRevealed.Wrapf("round %d", epoch)
	}
	if r.Status != state.RoundLock {
		return nil, ErrState.Wrapf("round %d is %s, want %s", epoch, r.Status, state.RoundLock)
	}
	h := k.height()
	if h < r.LockHeight || h > r.RevealDeadline() {
		return nil, ErrWindow.Wrapf("reveal window for round %d is [%d,%d] (now %d)", epoch, r.LockHeight, r.RevealDeadline(), h)
	}
	if err := commitment.ValidateSecret(secret); err != nil {
		return nil, ErrCommitmentMismatch.Wrap(err.Error())
	}
	if !commitment.Verify(secret, r.Commitment) {
		return nil, ErrCommitmentMismatch.Wrapf("round %d", epoch)
	}

	win := WinningOutcome(secret, r.Participants)
	if err := k.settle(ctx, r, win); err != nil {
		return nil, err
	}
	r.RevealHeight = h
	r.Secret = append([]byte(nil), secret...)
	r.WinningOutcome = win
	r.Status = state.RoundClaimable
	k.logger.Info("secret revealed", "epoch", epoch, "height", h, "winner", win)
	return r, nil
}

// WinningOutcome derives the outcome as (secret XOR participants) mod 6, with
// the secret read as a big-endian unsigned integer. Both inputs are known to
// the operator at reveal time, so the result is not tamper-proof.
func WinningOutcome(secret []byte, participants uint64) uint8 {
	x := new(big.Int).SetBytes(secret)
	x.Xor(x, new(big.Int).SetUint64(participants))
	x.Mod(x, big.NewInt(state.NumOutcomes))
	return uint8(x.Uint64())
}

// Resolved reports whether r no longer accepts lock/reveal at height h.
func Resolved(r *state.Round, h int64) bool {
	if r == nil {
		return true
	}
	return r.Status == state.RoundClaimable || r.IsExpired(h)
}
