package app

import (
	"context"

	"hexbet/internal/engine"
	"hexbet/internal/state"
)

// CustodyAccount holds stakes, the banker pool, the treasury and unpaid bonus
// units. ExchangeAccount receives stake units the exchange converts.
const (
	CustodyAccount  = "hexbet/custody"
	ExchangeAccount = "hexbet/exchange"
)

var _ engine.BankKeeper = (*stateBank)(nil)

// stateBank moves stake units between account balances and the custody account.
type stateBank struct {
	st *state.State
}

func (b stateBank) TransferIn(_ context.Context, from string, amount uint64) error {
	return b.move(from, CustodyAccount, amount)
}

func (b stateBank) TransferOut(_ context.Context, to string, amount uint64) error {
	return b.move(CustodyAccount, to, amount)
}

func (b stateBank) move(from, to string, amount uint64) error {
	if amount == 0 {
		return nil
	}
	if err := b.st.Debit(from, amount); err != nil {
		return ErrBank.Wrap(err.Error())
	}
	if err := b.st.Credit(to, amount); err != nil {
		// Undo so a failed transfer has no effect.
		b.st.Accounts[from] += amount
		return ErrBank.Wrap(err.Error())
	}
	return nil
}

var _ engine.Authorizer = stateAuthorizer{}

// stateAuthorizer answers role checks from the genesis role lists.
type stateAuthorizer struct {
	st *state.State
}

func (a stateAuthorizer) HasRole(_ context.Context, addr string, role engine.Role) bool {
	switch role {
	case engine.RoleOperator:
		return a.st.HasRole(a.st.Operators, addr)
	case engine.RoleAdmin:
		return a.st.HasRole(a.st.Admins, addr)
	default:
		return false
	}
}
