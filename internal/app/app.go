package app

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"cosmossdk.io/log"
	abci "github.com/cometbft/cometbft/abci/types"
	dbm "github.com/cosmos/cosmos-db"
	"github.com/shopspring/decimal"

	"hexbet/internal/codec"
	"hexbet/internal/commitment"
	"hexbet/internal/config"
	"hexbet/internal/engine"
	"hexbet/internal/state"
)

const (
	AppVersion uint64 = 1
)

// Options configure a HexbetApp.
type Options struct {
	// Home is the node home; state lives in <home>/data. Ignored when DB is set.
	Home string
	// DB overrides the on-disk database (tests use dbm.NewMemDB()).
	DB dbm.DB

	Genesis      config.GenesisConfig
	ExchangeRate *decimal.Decimal
	Logger       log.Logger
}

type HexbetApp struct {
	*abci.BaseApplication

	store   *state.Store
	genesis config.GenesisConfig
	rate    *decimal.Decimal
	logger  log.Logger

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(opts Options) (*HexbetApp, error) {
	var store *state.Store
	if opts.DB != nil {
		store = state.NewStore(opts.DB)
	} else {
		s, err := state.OpenStore(filepath.Join(opts.Home, "data"))
		if err != nil {
			return nil, err
		}
		store = s
	}
	st, err := store.Load()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	a := &HexbetApp{
		BaseApplication: abci.NewBaseApplication(),
		store:           store,
		genesis:         opts.Genesis,
		rate:            opts.ExchangeRate,
		logger:          logger,
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func (a *HexbetApp) Close() error {
	return a.store.Close()
}

func (a *HexbetApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "hexbet",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

// CheckTx only validates structure and the envelope signature fields; state
// dependent checks happen at execution.
func (a *HexbetApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	env, err := codec.DecodeTxEnvelope(req.Tx)
	if err != nil {
		return checkErr(ErrTxDecode.Wrap(err.Error())), nil
	}
	if err := requireSignedEnvelope(env); err != nil {
		return checkErr(ErrTxAuth.Wrap(err.Error())), nil
	}
	if _, err := parseNonce(env); err != nil {
		return checkErr(err), nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func checkErr(err error) *abci.CheckTxResponse {
	res := errResult(err)
	return &abci.CheckTxResponse{Code: res.Code, Codespace: res.Codespace, Log: res.Log}
}

// InitChain seeds an empty state from the genesis config. A node restarted on
// existing state keeps it.
func (a *HexbetApp) InitChain(_ context.Context, req *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.st.Height != 0 || a.st.Epoch != 0 {
		return &abci.InitChainResponse{AppHash: a.lastHash}, nil
	}
	st, err := genesisState(a.genesis, req.InitialHeight)
	if err != nil {
		return nil, err
	}
	a.st = st
	a.lastHash = st.AppHash()
	a.logger.Info("genesis applied",
		"operators", len(st.Operators),
		"admins", len(st.Admins),
		"accounts", len(st.Accounts),
		"banker_phase_end", st.Vault.BankerPhaseEnd,
	)
	return &abci.InitChainResponse{AppHash: a.lastHash}, nil
}

func genesisState(g config.GenesisConfig, initialHeight int64) (*state.State, error) {
	st := state.NewState()
	st.Params = g.Params.Params()
	if err := st.Params.Validate(); err != nil {
		return nil, fmt.Errorf("genesis params: %w", err)
	}
	st.Operators = sortedUnique(g.Operators)
	st.Admins = sortedUnique(g.Admins)
	for addr, bal := range g.Accounts {
		if err := st.Credit(addr, bal); err != nil {
			return nil, fmt.Errorf("genesis account %s: %w", addr, err)
		}
	}
	for addr, k := range g.PubKeys {
		pub, err := commitment.ParseHex(k, 32)
		if err != nil {
			return nil, fmt.Errorf("genesis pub key for %s: %w", addr, err)
		}
		st.AccountKeys[addr] = pub
	}
	if initialHeight < 1 {
		initialHeight = 1
	}
	end := initialHeight + int64(st.Params.BankerPhaseBlocks)
	if end < initialHeight {
		return nil, fmt.Errorf("genesis banker phase overflows height")
	}
	st.Vault.BankerPhaseEnd = end
	return st, nil
}

func sortedUnique(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (a *HexbetApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		res := a.deliverTx(txBytes, req.Height)
		txResults = append(txResults, res)
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *HexbetApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.store.Save(a.st); err != nil {
		// Returning the error halts the node rather than diverging from disk.
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// deliverTx executes one tx against a clone of the state and adopts the clone
// only on success.
func (a *HexbetApp) deliverTx(txBytes []byte, height int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return errResult(ErrTxDecode.Wrap(err.Error()))
	}
	staged, err := a.st.Clone()
	if err != nil {
		return errResult(ErrTxDecode.Wrap(err.Error()))
	}
	res, err := a.execute(staged, env, height)
	if err != nil {
		a.logger.Debug("tx rejected", "type", env.Type, "signer", env.Signer, "err", err)
		return errResult(err)
	}
	a.st = staged
	return res
}

func (a *HexbetApp) keeper(st *state.State, height int64) *engine.Keeper {
	opts := []engine.Option{engine.WithLogger(a.logger)}
	if a.rate != nil {
		opts = append(opts, engine.WithExchange(newRateExchange(st, *a.rate)))
	}
	return engine.NewKeeper(st, stateBank{st: st}, stateAuthorizer{st: st}, engine.FixedHeight(height), opts...)
}
