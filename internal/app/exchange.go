package app

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"hexbet/internal/engine"
	"hexbet/internal/state"
)

var _ engine.ExchangeKeeper = (*rateExchange)(nil)

// rateExchange swaps stake units for the bonus asset at a fixed rate. Converted
// units leave custody for ExchangeAccount; the bought asset is held in custody
// until bonus claims pay it out.
type rateExchange struct {
	st   *state.State
	rate decimal.Decimal
}

func newRateExchange(st *state.State, rate decimal.Decimal) *rateExchange {
	return &rateExchange{st: st, rate: rate}
}

// Quote returns floor(amount × rate).
func (x *rateExchange) Quote(amount uint64) (uint64, error) {
	in, err := decimal.NewFromString(strconv.FormatUint(amount, 10))
	if err != nil {
		return 0, ErrBank.Wrap(err.Error())
	}
	out, err := strconv.ParseUint(in.Mul(x.rate).Floor().String(), 10, 64)
	if err != nil {
		return 0, ErrBank.Wrapf("converted amount out of range: %v", err)
	}
	return out, nil
}

func (x *rateExchange) Convert(_ context.Context, amount uint64) (uint64, error) {
	out, err := x.Quote(amount)
	if err != nil {
		return 0, err
	}
	bank := stateBank{st: x.st}
	if err := bank.move(CustodyAccount, ExchangeAccount, amount); err != nil {
		return 0, err
	}
	if err := x.st.CreditAsset(CustodyAccount, out); err != nil {
		return 0, ErrBank.Wrap(err.Error())
	}
	return out, nil
}

func (x *rateExchange) SendAsset(_ context.Context, to string, amount uint64) error {
	if err := x.st.DebitAsset(CustodyAccount, amount); err != nil {
		return ErrBank.Wrap(err.Error())
	}
	if err := x.st.CreditAsset(to, amount); err != nil {
		return ErrBank.Wrap(err.Error())
	}
	return nil
}
