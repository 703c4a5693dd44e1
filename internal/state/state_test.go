package state

import (
	"bytes"
	"testing"

	sdkmath "cosmossdk.io/math"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"
)

func TestAppHash_StableAcrossMapOrder(t *testing.T) {
	s1 := NewState()
	s1.Height = 7
	s1.Accounts["bob"] = 2
	s1.Accounts["alice"] = 1
	s1.Epoch = 42

	s2 := NewState()
	s2.Height = 7
	s2.Accounts["alice"] = 1
	s2.Accounts["bob"] = 2
	s2.Epoch = 42

	h1 := s1.AppHash()
	h2 := s2.AppHash()
	if !bytes.Equal(h1, h2) {
		t.Fatalf("expected stable app hash; h1=%x h2=%x", h1, h2)
	}

	// Any semantic change should change the hash.
	s2.Accounts["alice"] = 9
	h3 := s2.AppHash()
	if bytes.Equal(h1, h3) {
		t.Fatalf("expected hash to change after state mutation")
	}
}

func TestAppHash_CoversBetsAndBankers(t *testing.T) {
	s := NewState()
	s.Rounds[1] = &Round{Epoch: 1, Status: RoundOpen}
	s.PutBet(&BetRecord{Epoch: 1, Player: "alice", Amount: 10, Outcomes: 1, Count: 1})
	h1 := s.AppHash()

	s.Bet(1, "alice").Claimed = true
	h2 := s.AppHash()
	require.NotEqual(t, h1, h2)

	s.Banker("bob").Shares = sdkmath.NewInt(5)
	require.NotEqual(t, h2, s.AppHash())
}

func TestClone_IsDeep(t *testing.T) {
	s := NewState()
	s.Accounts["alice"] = 10
	s.Rounds[1] = &Round{Epoch: 1, Status: RoundOpen, Commitment: []byte{1, 2, 3}}
	s.PutBet(&BetRecord{Epoch: 1, Player: "alice", Amount: 10, Outcomes: 3, Count: 2})
	s.History["alice"] = []uint64{1}
	s.Banker("bob").Shares = sdkmath.NewInt(100)

	c, err := s.Clone()
	require.NoError(t, err)
	require.Equal(t, s.AppHash(), c.AppHash())

	c.Accounts["alice"] = 0
	c.Rounds[1].Status = RoundLock
	c.Bet(1, "alice").Claimed = true
	c.History["alice"] = append(c.History["alice"], 2)
	c.Bankers["bob"].Shares = sdkmath.NewInt(1)

	require.Equal(t, uint64(10), s.Accounts["alice"])
	require.Equal(t, RoundOpen, s.Rounds[1].Status)
	require.False(t, s.Bet(1, "alice").Claimed)
	require.Equal(t, []uint64{1}, s.History["alice"])
	require.Equal(t, sdkmath.NewInt(100), s.Bankers["bob"].Shares)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	store := NewStore(dbm.NewMemDB())

	empty, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, NewState().AppHash(), empty.AppHash())

	s := NewState()
	s.Height = 12
	s.Accounts["alice"] = 90
	s.Assets["alice"] = 3
	s.AccountKeys["alice"] = bytes.Repeat([]byte{7}, 32)
	s.NonceMax["alice"] = 4
	s.Operators = []string{"op"}
	s.Admins = []string{"admin"}
	s.Epoch = 2
	s.Rounds[1] = &Round{Epoch: 1, StartHeight: 1, LockHeight: 11, Status: RoundClaimable, Settled: true}
	s.Rounds[2] = &Round{Epoch: 2, StartHeight: 11, LockHeight: 21, Status: RoundOpen, OutcomeAmounts: [NumOutcomes]uint64{5, 5}}
	s.PutBet(&BetRecord{Epoch: 2, Player: "alice", Amount: 10, Outcomes: 3, Count: 2})
	s.History["alice"] = []uint64{2}
	s.Banker("bob").Shares = sdkmath.NewInt(1000)
	s.Vault.Pool = 1000
	s.Vault.Phase = PhasePlayer
	s.Treasury = 8

	require.NoError(t, store.Save(s))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, s.AppHash(), got.AppHash())
	require.Equal(t, uint64(10), got.Bet(2, "alice").Amount)
	require.Equal(t, PhasePlayer, got.Vault.Phase)
}

func TestParams_Validate(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())

	cases := map[string]func(p *Params){
		"gap over 100":       func(p *Params) { p.GapRate = 101 },
		"cuts over 100":      func(p *Params) { p.TreasuryRate, p.BonusRate = 60, 41 },
		"zero min stake":     func(p *Params) { p.MinStake = 0 },
		"interval too short": func(p *Params) { p.Interval = 1 },
		"zero buffer":        func(p *Params) { p.Buffer = 0 },
		"zero banker phase":  func(p *Params) { p.BankerPhaseBlocks = 0 },
		"treasury rate over": func(p *Params) { p.TreasuryRate = 101 },
		"bonus rate over":    func(p *Params) { p.BonusRate = 101 },
	}
	for name, mutate := range cases {
		p := DefaultParams()
		mutate(&p)
		require.Error(t, p.Validate(), name)
	}
}

func TestBetRecord_PerOutcomeTruncates(t *testing.T) {
	b := &BetRecord{Amount: 61, Outcomes: 0b000111, Count: 3}
	require.Equal(t, uint64(20), b.PerOutcome())
	require.True(t, b.Has(0))
	require.True(t, b.Has(2))
	require.False(t, b.Has(3))
	require.False(t, b.Has(9))
}

func TestPrefixEnd(t *testing.T) {
	require.Equal(t, []byte{0x03}, prefixEnd([]byte{0x02}))
	require.Equal(t, []byte{0x02}, prefixEnd([]byte{0x01, 0xff}))
	require.Nil(t, prefixEnd([]byte{0xff}))
}
