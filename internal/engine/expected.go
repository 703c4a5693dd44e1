package engine

import "context"

// BankKeeper moves stake units between participants and the engine's custody.
// Implementations must return an error instead of partially applying a transfer.
type BankKeeper interface {
	TransferIn(ctx context.Context, from string, amount uint64) error
	TransferOut(ctx context.Context, to string, amount uint64) error
}

// ExchangeKeeper converts bonus cuts held in custody into the secondary asset
// and pays that asset out. It is optional.
type ExchangeKeeper interface {
	Convert(ctx context.Context, amount uint64) (uint64, error)
	SendAsset(ctx context.Context, to string, amount uint64) error
}

type Role string

const (
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Authorizer answers role checks; role assignment lives outside the engine.
type Authorizer interface {
	HasRole(ctx context.Context, addr string, role Role) bool
}

// HeightSource is the monotonically increasing clock all windows are measured in.
type HeightSource interface {
	Height() int64
}

// FixedHeight is a HeightSource pinned to a single block height.
type FixedHeight int64

func (h FixedHeight) Height() int64 { return int64(h) }
