// Package operator drives the round lifecycle from outside the chain: it
// commits a fresh secret per epoch, locks and reveals rounds at their heights
// and flips the vault phase at its boundaries.
package operator

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"cosmossdk.io/log"
	"github.com/robfig/cron/v3"

	"hexbet/internal/codec"
	"hexbet/internal/commitment"
	"hexbet/internal/engine"
	"hexbet/internal/state"
)

type action int

const (
	actNone action = iota
	actStart
	actLock
	actReveal
	actEnterPlayer
	actEnterBanker
)

func (a action) String() string {
	switch a {
	case actStart:
		return "start"
	case actLock:
		return "lock"
	case actReveal:
		return "reveal"
	case actEnterPlayer:
		return "enter_player_phase"
	case actEnterBanker:
		return "enter_banker_phase"
	default:
		return "none"
	}
}

// nextAction decides what to submit for execution at height h given the vault
// and the latest round (nil before the first round).
func nextAction(v *state.Vault, r *state.Round, h int64) action {
	if v.Phase == state.PhaseBanker {
		if h >= v.BankerPhaseEnd {
			return actEnterPlayer
		}
		return actNone
	}
	if r != nil && h >= r.LockHeight && h <= r.RevealDeadline() {
		switch r.Status {
		case state.RoundOpen:
			return actLock
		case state.RoundLock:
			return actReveal
		}
	}
	if h >= v.PlayerPhaseEnd {
		if engine.Resolved(r, h) {
			return actEnterBanker
		}
		return actNone
	}
	if r == nil || h >= r.LockHeight {
		return actStart
	}
	return actNone
}

type Option func(*Operator)

func WithLogger(l log.Logger) Option {
	return func(o *Operator) { o.logger = l }
}

// WithRand replaces the secret entropy source.
func WithRand(r io.Reader) Option {
	return func(o *Operator) { o.rand = r }
}

type Operator struct {
	node    Node
	secrets *SecretStore
	account string
	priv    ed25519.PrivateKey
	logger  log.Logger
	rand    io.Reader

	mu sync.Mutex
	// nonce is the last nonce this process signed with.
	nonce uint64
	// lastSent is the latest height seen when the last tx went out; nothing
	// more is sent until a newer block shows its effect.
	lastSent int64
}

func New(node Node, secrets *SecretStore, account string, priv ed25519.PrivateKey, opts ...Option) *Operator {
	o := &Operator{
		node:    node,
		secrets: secrets,
		account: account,
		priv:    priv,
		logger:  log.NewNopLogger(),
		rand:    rand.Reader,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = o.logger.With("module", "operator")
	return o
}

// Run ticks on the cron schedule until ctx is done.
func (o *Operator) Run(ctx context.Context, schedule string) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(schedule, func() {
		if err := o.Tick(ctx); err != nil {
			o.logger.Error("operator tick failed", "err", err)
		}
	}); err != nil {
		return fmt.Errorf("register operator tick %q: %w", schedule, err)
	}
	c.Start()
	o.logger.Info("operator started", "account", o.account, "schedule", schedule)

	<-ctx.Done()
	<-c.Stop().Done()
	o.logger.Info("operator stopped")
	return nil
}

// Tick submits at most one tx: whatever the next block should execute.
func (o *Operator) Tick(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	latest, err := o.node.LatestHeight(ctx)
	if err != nil {
		return err
	}
	if latest <= o.lastSent {
		return nil
	}
	var v state.Vault
	found, err := o.query(ctx, "/vault", &v)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("vault query failed")
	}
	var r *state.Round
	var latestRound state.Round
	found, err = o.query(ctx, "/round/latest", &latestRound)
	if err != nil {
		return err
	}
	if found {
		r = &latestRound
	}

	h := latest + 1
	act := nextAction(&v, r, h)
	if act == actNone {
		return nil
	}

	var (
		typ   string
		value any
	)
	switch act {
	case actStart:
		var epoch uint64 = 1
		if r != nil {
			epoch = r.Epoch + 1
		}
		secret, err := o.secretFor(epoch)
		if err != nil {
			return err
		}
		typ, value = codec.TypeRoundStart, codec.RoundStartTx{Operator: o.account, Commitment: commitment.Hash(secret)}
	case actLock:
		typ, value = codec.TypeRoundLock, codec.RoundLockTx{Operator: o.account, Epoch: r.Epoch}
	case actReveal:
		secret, err := o.secrets.Get(r.Epoch)
		if err != nil {
			return err
		}
		if secret == nil {
			return fmt.Errorf("no stored secret for round %d", r.Epoch)
		}
		if !commitment.Verify(secret, r.Commitment) {
			return fmt.Errorf("stored secret for round %d does not match its commitment", r.Epoch)
		}
		typ, value = codec.TypeRoundReveal, codec.RoundRevealTx{Operator: o.account, Epoch: r.Epoch, Secret: secret}
	case actEnterPlayer:
		typ, value = codec.TypeAdminEnterPlayerPhase, codec.AdminPhaseTx{Caller: o.account}
	case actEnterBanker:
		typ, value = codec.TypeAdminEnterBankerPhase, codec.AdminPhaseTx{Caller: o.account}
	}

	if err := o.send(ctx, typ, value); err != nil {
		return fmt.Errorf("%s: %w", act, err)
	}
	o.lastSent = latest
	o.logger.Info("tx broadcast", "action", act.String(), "height", h)
	return nil
}

// secretFor returns the stored secret for epoch, generating and persisting one
// first if needed.
func (o *Operator) secretFor(epoch uint64) ([]byte, error) {
	secret, err := o.secrets.Get(epoch)
	if err != nil || secret != nil {
		return secret, err
	}
	secret = make([]byte, commitment.SecretSize)
	if _, err := io.ReadFull(o.rand, secret); err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}
	if err := o.secrets.Put(epoch, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

func (o *Operator) send(ctx context.Context, typ string, value any) error {
	var acct struct {
		Nonce uint64 `json:"nonce"`
	}
	if _, err := o.query(ctx, "/account/"+o.account, &acct); err != nil {
		return err
	}
	n := max(o.nonce, acct.Nonce) + 1
	tx, err := codec.SignedTx(typ, value, n, o.account, o.priv)
	if err != nil {
		return err
	}
	if err := o.node.Broadcast(ctx, tx); err != nil {
		return err
	}
	o.nonce = n
	return nil
}

// query decodes a successful ABCI query into v. A non-zero query code reports
// found=false.
func (o *Operator) query(ctx context.Context, path string, v any) (bool, error) {
	res, err := o.node.Query(ctx, path)
	if err != nil {
		return false, err
	}
	if res.Code != 0 {
		return false, nil
	}
	if err := json.Unmarshal(res.Value, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
