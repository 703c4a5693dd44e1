package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"hexbet/internal/state"
)

func settleRound(amounts [state.NumOutcomes]uint64, total uint64) *state.Round {
	return &state.Round{
		Epoch:          1,
		GapRate:        5,
		TreasuryRate:   10,
		BonusRate:      10,
		TotalAmount:    total,
		OutcomeAmounts: amounts,
		Status:         state.RoundLock,
	}
}

func TestComputeSettlement(t *testing.T) {
	r := settleRound([state.NumOutcomes]uint64{2000, 1000, 0, 0, 0, 0}, 3001)

	s, err := computeSettlement(r, 0)
	require.NoError(t, err)
	// Winning bucket: 2000*5 = 10000, gap 500, treasury 50, bonus 50, payout 9500.
	// Losing bucket: gap 50, treasury 5, bonus 5, 990 to the pool.
	require.Equal(t, uint64(55), s.treasury)
	require.Equal(t, uint64(55), s.bonus)
	require.Equal(t, uint64(9500), s.payout)
	require.Equal(t, uint64(9600), s.debit)
	require.Equal(t, uint64(990+1), s.credit)
	require.Equal(t, uint64(2000), s.retained)

	_, err = s.applyTo(8608)
	require.ErrorIs(t, err, ErrInsufficientFunds)
	pool, err := s.applyTo(8609)
	require.NoError(t, err)
	require.Zero(t, pool)

	_, err = computeSettlement(r, state.NumOutcomes)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestComputeSettlement_WinningBucketOnlyDebitsPool(t *testing.T) {
	r := settleRound([state.NumOutcomes]uint64{2000, 1000, 0, 0, 0, 0}, 3000)

	s, err := computeSettlement(r, 0)
	require.NoError(t, err)
	pool, err := s.applyTo(10_000)
	require.NoError(t, err)
	// Losing bucket: +(1000-5-5). Winning bucket: -(9500+50+50).
	require.Equal(t, uint64(10_000+990-9600), pool)
	require.Equal(t, uint64(1390), pool)
}

func TestComputeSettlement_TruncatesLeftToRight(t *testing.T) {
	r := settleRound([state.NumOutcomes]uint64{0, 0, 0, 199, 0, 0}, 199)
	r.GapRate, r.TreasuryRate, r.BonusRate = 9, 90, 10
	// gap = 199*9/100 = 17; treasury = 17*90/100 = 15 (not 199*9*90/10000 = 16).
	s, err := computeSettlement(r, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(15), s.treasury)
	require.Equal(t, uint64(1), s.bonus)
	require.Equal(t, uint64(183), s.credit)
	require.Zero(t, s.payout)
	require.Zero(t, s.debit)
}

func TestSettle_Idempotent(t *testing.T) {
	e := newTestEnv(t, true)
	e.seedPool(10_000)
	e.at(100)
	r := e.playRound(0,
		bet{player: "alice", outcomes: []uint8{0}, amount: 2000},
		bet{player: "bob", outcomes: []uint8{1}, amount: 1000},
	)
	require.True(t, r.Settled)
	require.Equal(t, uint64(55), r.TreasuryAmount)
	require.Equal(t, uint64(55), r.BonusAmount)
	require.Equal(t, uint64(110), r.BonusAssetAmount)
	require.Equal(t, uint64(9500), r.PayoutAmount)
	require.Equal(t, uint64(2000), r.RetainedAmount)
	require.Equal(t, uint64(55), e.st.Treasury)
	require.Equal(t, uint64(10_000+990-9600), e.st.Vault.Pool)
	require.Equal(t, uint64(55), e.x.converted)

	pool, treasury := e.st.Vault.Pool, e.st.Treasury
	release, err := e.k.enter()
	require.NoError(t, err)
	err = e.k.settle(e.ctx, r, r.WinningOutcome)
	release()
	require.ErrorIs(t, err, ErrAlreadySettled)
	require.Equal(t, pool, e.st.Vault.Pool)
	require.Equal(t, treasury, e.st.Treasury)
	require.Equal(t, uint64(55), e.x.converted)
}

func TestSettle_WithoutExchangeKeepsBonusReserve(t *testing.T) {
	e := newTestEnv(t, false)
	e.seedPool(10_000)
	e.at(100)
	r := e.playRound(1, bet{player: "alice", outcomes: []uint8{0}, amount: 2000})
	// Losing 2000: gap 100, treasury 10, bonus 10.
	require.Equal(t, uint64(10), r.BonusAmount)
	require.Zero(t, r.BonusAssetAmount)
	require.Equal(t, uint64(10), e.st.BonusReserve)
	require.Equal(t, uint64(10), e.st.Treasury)
	require.Equal(t, uint64(10_000+1980), e.st.Vault.Pool)
}

// Every staked unit ends up in the pool, the treasury, the bonus cut, the
// retained winning stake or the winner payout.
func FuzzSettlementConservation(f *testing.F) {
	f.Add(uint32(20), uint32(20), uint32(20), uint32(0), uint32(0), uint32(0), uint8(1), uint8(2), uint8(5), uint8(10), uint8(10))
	f.Add(uint32(2000), uint32(1000), uint32(0), uint32(0), uint32(0), uint32(7), uint8(0), uint8(3), uint8(5), uint8(10), uint8(10))
	f.Add(uint32(1), uint32(99), uint32(399), uint32(12345), uint32(0), uint32(1), uint8(3), uint8(0), uint8(100), uint8(60), uint8(40))
	f.Fuzz(func(t *testing.T, a0, a1, a2, a3, a4, a5 uint32, win, residue, gap, tr, br uint8) {
		r := settleRound([state.NumOutcomes]uint64{uint64(a0), uint64(a1), uint64(a2), uint64(a3), uint64(a4), uint64(a5)}, 0)
		r.GapRate = uint64(gap % 101)
		r.TreasuryRate = uint64(tr % 101)
		r.BonusRate = uint64(br % 101)
		if r.TreasuryRate+r.BonusRate > 100 {
			r.BonusRate = 100 - r.TreasuryRate
		}
		for _, v := range r.OutcomeAmounts {
			r.TotalAmount += v
		}
		r.TotalAmount += uint64(residue % state.NumOutcomes)

		s, err := computeSettlement(r, win%state.NumOutcomes)
		require.NoError(t, err)
		require.Equal(t, r.TotalAmount+s.debit, s.credit+s.retained+s.payout+s.treasury+s.bonus)
		require.Equal(t, r.OutcomeAmounts[win%state.NumOutcomes], s.retained)
		require.Equal(t, s.payout+winningCuts(t, r, win%state.NumOutcomes), s.debit)
	})
}

func winningCuts(t *testing.T, r *state.Round, win uint8) uint64 {
	t.Helper()
	tc, bc, err := cuts(r.OutcomeAmounts[win]*payoutMultiplier, r)
	require.NoError(t, err)
	return tc + bc
}
