package engine

import (
	"context"

	"cosmossdk.io/log"

	"hexbet/internal/state"
)

// Keeper executes engine operations against one State. Operations are
// serialized by the caller; the keeper rejects nested calls made while an
// operation is in progress (for example from a bank or exchange callback).
type Keeper struct {
	st       *state.State
	bank     BankKeeper
	exchange ExchangeKeeper
	auth     Authorizer
	clock    HeightSource
	logger   log.Logger

	busy bool
}

type Option func(*Keeper)

// WithExchange configures the bonus exchange. Without it bonus cuts stay in
// custody and bonus claims pay nothing.
func WithExchange(x ExchangeKeeper) Option {
	return func(k *Keeper) { k.exchange = x }
}

func WithLogger(l log.Logger) Option {
	return func(k *Keeper) {
		if l != nil {
			k.logger = l
		}
	}
}

func NewKeeper(st *state.State, bank BankKeeper, auth Authorizer, clock HeightSource, opts ...Option) *Keeper {
	if st == nil {
		panic("hexbet keeper: state is nil")
	}
	if bank == nil {
		panic("hexbet keeper: bank keeper is nil")
	}
	if auth == nil {
		panic("hexbet keeper: authorizer is nil")
	}
	if clock == nil {
		panic("hexbet keeper: height source is nil")
	}
	k := &Keeper{
		st:     st,
		bank:   bank,
		auth:   auth,
		clock:  clock,
		logger: log.NewNopLogger(),
	}
	for _, o := range opts {
		o(k)
	}
	k.logger = k.logger.With("module", "x/"+ModuleName)
	return k
}

func (k *Keeper) State() *state.State { return k.st }

func (k *Keeper) Logger() log.Logger { return k.logger }

func (k *Keeper) height() int64 { return k.clock.Height() }

// enter marks the keeper busy for the duration of one operation.
func (k *Keeper) enter() (func(), error) {
	if k.busy {
		return nil, ErrReentrant.Wrap("operation already in progress")
	}
	k.busy = true
	return func() { k.busy = false }, nil
}

func (k *Keeper) requireRole(ctx context.Context, caller string, role Role) error {
	if caller == "" {
		return ErrUnauthorized.Wrap("missing caller")
	}
	if !k.auth.HasRole(ctx, caller, role) {
		return ErrUnauthorized.Wrapf("%s lacks role %s", caller, role)
	}
	return nil
}
