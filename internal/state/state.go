package state

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"

	sdkmath "cosmossdk.io/math"
)

// NumOutcomes is the number of outcomes a round resolves to.
const NumOutcomes = 6

// NAVBase is the fixed-point unit of the banker vault NAV (1.0 == 1e12).
const NAVBase uint64 = 1_000_000_000_000

type State struct {
	Height int64 `json:"height"`

	Accounts    map[string]uint64 `json:"accounts"`
	Assets      map[string]uint64 `json:"assets"`                // secondary (bonus) asset balances
	AccountKeys map[string][]byte `json:"accountKeys,omitempty"` // addr -> ed25519 pubkey (32 bytes)
	NonceMax    map[string]uint64 `json:"nonceMax,omitempty"`    // signer -> last accepted tx.nonce (u64), for replay protection

	Operators []string `json:"operators,omitempty"` // sorted
	Admins    []string `json:"admins,omitempty"`    // sorted

	Params Params `json:"params"`

	// Epoch is the id of the most recently started round; 0 before the first round.
	Epoch   uint64                           `json:"epoch"`
	Rounds  map[uint64]*Round                `json:"rounds"`
	Bets    map[uint64]map[string]*BetRecord `json:"bets"`
	History map[string][]uint64              `json:"history"` // participant -> epochs, append-only
	Bankers map[string]*BankerShare          `json:"bankers"`

	Vault Vault `json:"vault"`

	Treasury     uint64 `json:"treasury"`
	BonusReserve uint64 `json:"bonusReserve,omitempty"` // unconverted bonus cuts when no exchange is configured
}

type Params struct {
	GapRate      uint64 `json:"gapRate"`
	TreasuryRate uint64 `json:"treasuryRate"`
	BonusRate    uint64 `json:"bonusRate"`
	MinStake     uint64 `json:"minStake"`

	// Window lengths in blocks.
	Interval          uint64 `json:"interval"`
	Buffer            uint64 `json:"buffer"`
	PlayerPhaseBlocks uint64 `json:"playerPhaseBlocks"`
	BankerPhaseBlocks uint64 `json:"bankerPhaseBlocks"`
}

func DefaultParams() Params {
	return Params{
		GapRate:           5,
		TreasuryRate:      10,
		BonusRate:         10,
		MinStake:          10,
		Interval:          100,
		Buffer:            20,
		PlayerPhaseBlocks: 10_000,
		BankerPhaseBlocks: 200,
	}
}

func (p Params) Validate() error {
	if p.GapRate > 100 {
		return fmt.Errorf("gapRate must be <= 100")
	}
	if p.TreasuryRate > 100 {
		return fmt.Errorf("treasuryRate must be <= 100")
	}
	if p.BonusRate > 100 {
		return fmt.Errorf("bonusRate must be <= 100")
	}
	if p.TreasuryRate+p.BonusRate > 100 {
		return fmt.Errorf("treasuryRate + bonusRate must be <= 100")
	}
	if p.MinStake == 0 {
		return fmt.Errorf("minStake must be > 0")
	}
	if p.Interval < 2 {
		return fmt.Errorf("interval must be >= 2")
	}
	if p.Buffer == 0 {
		return fmt.Errorf("buffer must be > 0")
	}
	if p.PlayerPhaseBlocks == 0 || p.BankerPhaseBlocks == 0 {
		return fmt.Errorf("phase lengths must be > 0")
	}
	return nil
}

type RoundStatus string

const (
	RoundOpen      RoundStatus = "open"
	RoundLock      RoundStatus = "lock"
	RoundClaimable RoundStatus = "claimable"
)

type Round struct {
	Epoch uint64 `json:"epoch"`

	StartHeight  int64 `json:"startHeight"`
	LockHeight   int64 `json:"lockHeight"`
	RevealHeight int64 `json:"revealHeight,omitempty"`

	// Buffer and rates are fixed when the round opens so later parameter
	// changes never move its windows or payouts.
	Buffer       uint64 `json:"buffer"`
	GapRate      uint64 `json:"gapRate"`
	TreasuryRate uint64 `json:"treasuryRate"`
	BonusRate    uint64 `json:"bonusRate"`

	Commitment []byte `json:"commitment"`       // 32-byte sha256 (base64 in JSON)
	Secret     []byte `json:"secret,omitempty"` // 32 bytes once revealed

	TotalAmount    uint64              `json:"totalAmount"`
	OutcomeAmounts [NumOutcomes]uint64 `json:"outcomeAmounts"`
	Participants   uint64              `json:"participants"`

	Status         RoundStatus `json:"status"`
	WinningOutcome uint8       `json:"winningOutcome"` // meaningful iff Status == claimable

	Settled          bool   `json:"settled,omitempty"`
	TreasuryAmount   uint64 `json:"treasuryAmount,omitempty"`
	BonusAmount      uint64 `json:"bonusAmount,omitempty"`      // stake units
	BonusAssetAmount uint64 `json:"bonusAssetAmount,omitempty"` // secondary asset, fixed at settlement
	BonusAssetPaid   uint64 `json:"bonusAssetPaid,omitempty"`
	PayoutAmount     uint64 `json:"payoutAmount,omitempty"` // owed to winners
	// RetainedAmount is the winning-outcome stake, held in custody outside
	// the banker pool.
	RetainedAmount uint64 `json:"retainedAmount,omitempty"`
}

// RevealDeadline is the last height at which the round may be locked or revealed.
func (r *Round) RevealDeadline() int64 {
	return r.LockHeight + int64(r.Buffer)
}

// IsExpired reports whether the round can no longer settle: it never reached
// claimable and its reveal window has elapsed at height h.
func (r *Round) IsExpired(h int64) bool {
	return r.Status != RoundClaimable && h > r.RevealDeadline()
}

type BetRecord struct {
	Epoch  uint64 `json:"epoch"`
	Player string `json:"player"`

	Amount   uint64 `json:"amount"`
	Outcomes uint8  `json:"outcomes"` // bitset, bit i = outcome i
	Count    uint8  `json:"count"`

	Claimed      bool `json:"claimed,omitempty"`
	BonusClaimed bool `json:"bonusClaimed,omitempty"`
}

// Has reports whether the bet covers outcome o.
func (b *BetRecord) Has(o uint8) bool {
	return o < NumOutcomes && b.Outcomes&(1<<o) != 0
}

// PerOutcome is the stake credited to each chosen outcome.
func (b *BetRecord) PerOutcome() uint64 {
	if b.Count == 0 {
		return 0
	}
	return b.Amount / uint64(b.Count)
}

type BankerShare struct {
	Shares sdkmath.Int `json:"shares"`
	AvgNAV sdkmath.Int `json:"avgNav"`
}

type Phase string

const (
	PhasePlayer Phase = "player"
	PhaseBanker Phase = "banker"
)

type Vault struct {
	NAV         sdkmath.Int `json:"nav"`
	TotalShares sdkmath.Int `json:"totalShares"`

	Pool     uint64 `json:"pool"`
	PrevPool uint64 `json:"prevPool"` // pool at the start of the current player phase

	Phase          Phase `json:"phase"`
	PlayerPhaseEnd int64 `json:"playerPhaseEnd"`
	BankerPhaseEnd int64 `json:"bankerPhaseEnd"`
}

func NewState() *State {
	st := &State{
		Params:  DefaultParams(),
		Vault:   Vault{Phase: PhaseBanker},
		Rounds:  map[uint64]*Round{},
		Bets:    map[uint64]map[string]*BetRecord{},
		History: map[string][]uint64{},
		Bankers: map[string]*BankerShare{},
	}
	st.normalize()
	return st
}

func (s *State) normalize() {
	if s.Accounts == nil {
		s.Accounts = map[string]uint64{}
	}
	if s.Assets == nil {
		s.Assets = map[string]uint64{}
	}
	if s.AccountKeys == nil {
		s.AccountKeys = map[string][]byte{}
	}
	if s.NonceMax == nil {
		s.NonceMax = map[string]uint64{}
	}
	if s.Rounds == nil {
		s.Rounds = map[uint64]*Round{}
	}
	if s.Bets == nil {
		s.Bets = map[uint64]map[string]*BetRecord{}
	}
	if s.History == nil {
		s.History = map[string][]uint64{}
	}
	if s.Bankers == nil {
		s.Bankers = map[string]*BankerShare{}
	}
	for _, b := range s.Bankers {
		if b.Shares.IsNil() {
			b.Shares = sdkmath.ZeroInt()
		}
		if b.AvgNAV.IsNil() {
			b.AvgNAV = sdkmath.ZeroInt()
		}
	}
	if s.Vault.NAV.IsNil() {
		s.Vault.NAV = sdkmath.NewIntFromUint64(NAVBase)
	}
	if s.Vault.TotalShares.IsNil() {
		s.Vault.TotalShares = sdkmath.ZeroInt()
	}
	if s.Vault.Phase == "" {
		s.Vault.Phase = PhaseBanker
	}
}

// Clone returns a deep copy of state suitable for staged tx execution.
func (s *State) Clone() (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("state is nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state clone: %w", err)
	}
	var out State
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode state clone: %w", err)
	}
	out.normalize()
	return &out, nil
}

// Round returns the round for epoch, or nil.
func (s *State) Round(epoch uint64) *Round {
	return s.Rounds[epoch]
}

// LatestRound returns the most recently started round, or nil.
func (s *State) LatestRound() *Round {
	if s.Epoch == 0 {
		return nil
	}
	return s.Rounds[s.Epoch]
}

// Bet returns the bet of player in epoch, or nil.
func (s *State) Bet(epoch uint64, player string) *BetRecord {
	m := s.Bets[epoch]
	if m == nil {
		return nil
	}
	return m[player]
}

func (s *State) PutBet(b *BetRecord) {
	m := s.Bets[b.Epoch]
	if m == nil {
		m = map[string]*BetRecord{}
		s.Bets[b.Epoch] = m
	}
	m[b.Player] = b
}

// Banker returns the banker share record for addr, creating an empty one if missing.
func (s *State) Banker(addr string) *BankerShare {
	b := s.Bankers[addr]
	if b == nil {
		b = &BankerShare{Shares: sdkmath.ZeroInt(), AvgNAV: sdkmath.ZeroInt()}
		s.Bankers[addr] = b
	}
	return b
}

func (s *State) HasRole(list []string, addr string) bool {
	i := sort.SearchStrings(list, addr)
	return i < len(list) && list[i] == addr
}

func (s *State) AppHash() []byte {
	// encoding/json does not order maps deterministically for nested values we
	// hash, so maps are flattened into sorted slices first.
	type accountKV struct {
		Addr    string `json:"addr"`
		Balance uint64 `json:"balance"`
	}
	type accountKeyKV struct {
		Addr   string `json:"addr"`
		PubKey []byte `json:"pubKey"`
	}
	type nonceKV struct {
		Signer string `json:"signer"`
		Nonce  uint64 `json:"nonce"`
	}
	type historyKV struct {
		Addr   string   `json:"addr"`
		Epochs []uint64 `json:"epochs"`
	}
	type bankerKV struct {
		Addr  string       `json:"addr"`
		Share *BankerShare `json:"share"`
	}

	sortedBalances := func(m map[string]uint64) []accountKV {
		out := make([]accountKV, 0, len(m))
		for k, v := range m {
			out = append(out, accountKV{Addr: k, Balance: v})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Addr < out[j].Addr })
		return out
	}

	accountKeys := make([]accountKeyKV, 0, len(s.AccountKeys))
	for k, v := range s.AccountKeys {
		accountKeys = append(accountKeys, accountKeyKV{Addr: k, PubKey: v})
	}
	sort.Slice(accountKeys, func(i, j int) bool { return accountKeys[i].Addr < accountKeys[j].Addr })

	nonces := make([]nonceKV, 0, len(s.NonceMax))
	for k, v := range s.NonceMax {
		nonces = append(nonces, nonceKV{Signer: k, Nonce: v})
	}
	sort.Slice(nonces, func(i, j int) bool { return nonces[i].Signer < nonces[j].Signer })

	epochs := make([]uint64, 0, len(s.Rounds))
	for id := range s.Rounds {
		epochs = append(epochs, id)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })
	rounds := make([]*Round, 0, len(epochs))
	bets := []*BetRecord{}
	for _, id := range epochs {
		rounds = append(rounds, s.Rounds[id])
		players := make([]string, 0, len(s.Bets[id]))
		for p := range s.Bets[id] {
			players = append(players, p)
		}
		sort.Strings(players)
		for _, p := range players {
			bets = append(bets, s.Bets[id][p])
		}
	}

	history := make([]historyKV, 0, len(s.History))
	for k, v := range s.History {
		history = append(history, historyKV{Addr: k, Epochs: v})
	}
	sort.Slice(history, func(i, j int) bool { return history[i].Addr < history[j].Addr })

	bankers := make([]bankerKV, 0, len(s.Bankers))
	for k, v := range s.Bankers {
		bankers = append(bankers, bankerKV{Addr: k, Share: v})
	}
	sort.Slice(bankers, func(i, j int) bool { return bankers[i].Addr < bankers[j].Addr })

	normalized := struct {
		Height       int64          `json:"height"`
		Accounts     []accountKV    `json:"accounts"`
		Assets       []accountKV    `json:"assets"`
		AccountKeys  []accountKeyKV `json:"accountKeys,omitempty"`
		NonceMax     []nonceKV      `json:"nonceMax,omitempty"`
		Operators    []string       `json:"operators,omitempty"`
		Admins       []string       `json:"admins,omitempty"`
		Params       Params         `json:"params"`
		Epoch        uint64         `json:"epoch"`
		Rounds       []*Round       `json:"rounds"`
		Bets         []*BetRecord   `json:"bets"`
		History      []historyKV    `json:"history"`
		Bankers      []bankerKV     `json:"bankers"`
		Vault        Vault          `json:"vault"`
		Treasury     uint64         `json:"treasury"`
		BonusReserve uint64         `json:"bonusReserve"`
	}{
		Height:       s.Height,
		Accounts:     sortedBalances(s.Accounts),
		Assets:       sortedBalances(s.Assets),
		AccountKeys:  accountKeys,
		NonceMax:     nonces,
		Operators:    s.Operators,
		Admins:       s.Admins,
		Params:       s.Params,
		Epoch:        s.Epoch,
		Rounds:       rounds,
		Bets:         bets,
		History:      history,
		Bankers:      bankers,
		Vault:        s.Vault,
		Treasury:     s.Treasury,
		BonusReserve: s.BonusReserve,
	}

	b, _ := json.Marshal(normalized)
	sum := sha256.Sum256(b)
	return sum[:]
}

// ---- Bank ----

func (s *State) Balance(addr string) uint64 {
	return s.Accounts[addr]
}

func (s *State) Credit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("balance overflow: have=%d add=%d", bal, amount)
	}
	s.Accounts[addr] = bal + amount
	return nil
}

func (s *State) Debit(addr string, amount uint64) error {
	bal := s.Accounts[addr]
	if bal < amount {
		return fmt.Errorf("insufficient funds: have=%d need=%d", bal, amount)
	}
	s.Accounts[addr] = bal - amount
	return nil
}

func (s *State) AssetBalance(addr string) uint64 {
	return s.Assets[addr]
}

func (s *State) CreditAsset(addr string, amount uint64) error {
	bal := s.Assets[addr]
	if bal > ^uint64(0)-amount {
		return fmt.Errorf("asset balance overflow: have=%d add=%d", bal, amount)
	}
	s.Assets[addr] = bal + amount
	return nil
}

func (s *State) DebitAsset(addr string, amount uint64) error {
	bal := s.Assets[addr]
	if bal < amount {
		return fmt.Errorf("insufficient asset funds: have=%d need=%d", bal, amount)
	}
	s.Assets[addr] = bal - amount
	return nil
}
