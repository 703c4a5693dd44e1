package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hexbet/internal/commitment"
	"hexbet/internal/state"
)

func TestStartRound_Windows(t *testing.T) {
	e := newTestEnv(t, false)
	commit := commitment.Hash(secretFor(t, 0, 0))

	// Banker phase blocks rounds.
	_, err := e.k.StartRound(e.ctx, operator, commit)
	require.ErrorIs(t, err, ErrPhase)

	e.seedPool(1000)
	e.at(100)

	_, err = e.k.StartRound(e.ctx, "alice", commit)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = e.k.StartRound(e.ctx, operator, nil)
	require.ErrorIs(t, err, ErrSequence)
	_, err = e.k.StartRound(e.ctx, operator, make([]byte, commitment.Size))
	require.ErrorIs(t, err, ErrSequence)

	r, err := e.k.StartRound(e.ctx, operator, commit)
	require.NoError(t, err)
	require.Equal(t, uint64(1), r.Epoch)
	require.Equal(t, int64(100), r.StartHeight)
	require.Equal(t, int64(110), r.LockHeight)
	require.Equal(t, state.RoundOpen, r.Status)

	// The next round waits for this one's lock height.
	e.at(109)
	_, err = e.k.StartRound(e.ctx, operator, commit)
	require.ErrorIs(t, err, ErrSequence)
	e.at(110)
	r2, err := e.k.StartRound(e.ctx, operator, commit)
	require.NoError(t, err)
	require.Equal(t, uint64(2), r2.Epoch)
	require.Equal(t, uint64(2), e.st.Epoch)

	// No new round past the end of the player phase.
	e.at(e.st.Vault.PlayerPhaseEnd)
	_, err = e.k.StartRound(e.ctx, operator, commit)
	require.ErrorIs(t, err, ErrPhase)
}

func TestLockHeightFixedAtCreation(t *testing.T) {
	e := newTestEnv(t, false)
	e.seedPool(1000)
	e.at(100)
	r := e.playRound(0, bet{player: "alice", outcomes: []uint8{1}, amount: 10})
	require.Equal(t, r.StartHeight+int64(e.st.Params.Interval), r.LockHeight)
	require.Equal(t, int64(110), r.LockHeight)
	require.Equal(t, int64(111), r.RevealHeight)
}

func TestLockRound_Windows(t *testing.T) {
	e := newTestEnv(t, false)
	e.seedPool(1000)
	e.at(100)
	r := e.openRound(secretFor(t, 0, 0))

	e.at(109)
	_, err := e.k.LockRound(e.ctx, operator, r.Epoch)
	require.ErrorIs(t, err, ErrSequence)

	_, err = e.k.LockRound(e.ctx, operator, 99)
	require.ErrorIs(t, err, ErrRoundNotFound)

	e.at(116)
	_, err = e.k.LockRound(e.ctx, operator, r.Epoch)
	require.ErrorIs(t, err, ErrWindow)

	e.at(115)
	_, err = e.k.LockRound(e.ctx, "alice", r.Epoch)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = e.k.LockRound(e.ctx, operator, r.Epoch)
	require.NoError(t, err)
	require.Equal(t, state.RoundLock, r.Status)

	_, err = e.k.LockRound(e.ctx, operator, r.Epoch)
	require.ErrorIs(t, err, ErrState)
}

func TestSendSecret_Verification(t *testing.T) {
	e := newTestEnv(t, false)
	e.seedPool(1000)
	e.at(100)
	secret := secretFor(t, 1, 2)
	r := e.openRound(secret, bet{player: "alice", outcomes: []uint8{3}, amount: 10})

	// Not locked yet.
	e.at(110)
	_, err := e.k.SendSecret(e.ctx, operator, r.Epoch, secret)
	require.ErrorIs(t, err, ErrState)

	_, err = e.k.LockRound(e.ctx, operator, r.Epoch)
	require.NoError(t, err)

	wrong := append([]byte(nil), secret...)
	wrong[0] ^= 0xff
	_, err = e.k.SendSecret(e.ctx, operator, r.Epoch, wrong)
	require.ErrorIs(t, err, ErrCommitmentMismatch)
	_, err = e.k.SendSecret(e.ctx, operator, r.Epoch, secret[:16])
	require.ErrorIs(t, err, ErrCommitmentMismatch)
	require.Equal(t, state.RoundLock, r.Status)
	require.Empty(t, r.Secret)
	require.False(t, r.Settled)

	_, err = e.k.SendSecret(e.ctx, operator, r.Epoch, secret)
	require.NoError(t, err)
	require.Equal(t, state.RoundClaimable, r.Status)
	require.Equal(t, uint8(2), r.WinningOutcome)
	require.Equal(t, secret, r.Secret)
	require.True(t, r.Settled)

	_, err = e.k.SendSecret(e.ctx, operator, r.Epoch, secret)
	require.ErrorIs(t, err, ErrAlreadyRevealed)
}

func TestSendSecret_AfterBufferFails(t *testing.T) {
	e := newTestEnv(t, false)
	e.seedPool(1000)
	e.at(100)
	secret := secretFor(t, 0, 0)
	r := e.openRound(secret)
	e.at(110)
	_, err := e.k.LockRound(e.ctx, operator, r.Epoch)
	require.NoError(t, err)

	e.at(116)
	_, err = e.k.SendSecret(e.ctx, operator, r.Epoch, secret)
	require.ErrorIs(t, err, ErrWindow)
	require.True(t, r.IsExpired(e.clock.h))
	require.True(t, Resolved(r, e.clock.h))
	require.False(t, Resolved(r, 115))
}

func TestWinningOutcome(t *testing.T) {
	secret := make([]byte, commitment.SecretSize)
	secret[31] = 7
	// 7 xor 1 = 6, 6 mod 6 = 0.
	require.Equal(t, uint8(0), WinningOutcome(secret, 1))
	// 7 xor 0 = 7, 7 mod 6 = 1.
	require.Equal(t, uint8(1), WinningOutcome(secret, 0))
	// 7 xor 2 = 5.
	require.Equal(t, uint8(5), WinningOutcome(secret, 2))

	// The whole secret takes part: 2^8 mod 6 = 4.
	secret = make([]byte, commitment.SecretSize)
	secret[30] = 1
	require.Equal(t, uint8(4), WinningOutcome(secret, 0))
}
