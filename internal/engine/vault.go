package engine

import (
	"context"

	sdkmath "cosmossdk.io/math"

	"hexbet/internal/state"
)

var navBase = sdkmath.NewIntFromUint64(state.NAVBase)

// Deposit adds amount to the banker pool and mints shares at the current NAV.
func (k *Keeper) Deposit(ctx context.Context, banker string, amount uint64) (sdkmath.Int, error) {
	release, err := k.enter()
	if err != nil {
		return sdkmath.Int{}, err
	}
	defer release()

	if banker == "" {
		return sdkmath.Int{}, ErrInvalidRequest.Wrap("missing banker")
	}
	if amount == 0 {
		return sdkmath.Int{}, ErrInvalidRequest.Wrap("amount must be > 0")
	}
	v := &k.st.Vault
	if v.Phase != state.PhaseBanker {
		return sdkmath.Int{}, ErrPhase.Wrap("deposits are only accepted in the banker phase")
	}
	if !v.NAV.IsPositive() {
		return sdkmath.Int{}, ErrState.Wrap("vault NAV is zero")
	}

	scaled := sdkmath.NewIntFromUint64(amount).Mul(navBase)
	minted := scaled.Quo(v.NAV)
	if !minted.IsPositive() {
		return sdkmath.Int{}, ErrInvalidRequest.Wrapf("amount %d buys no shares at NAV %s", amount, v.NAV)
	}
	pool, err := addUint64Checked(v.Pool, amount, "banker pool")
	if err != nil {
		return sdkmath.Int{}, err
	}

	if err := k.bank.TransferIn(ctx, banker, amount); err != nil {
		return sdkmath.Int{}, ErrInsufficientFunds.Wrap(err.Error())
	}

	b := k.st.Banker(banker)
	newShares := b.Shares.Add(minted)
	b.AvgNAV = b.AvgNAV.Mul(b.Shares).Add(scaled).Quo(newShares)
	b.Shares = newShares
	v.TotalShares = v.TotalShares.Add(minted)
	v.Pool = pool

	k.logger.Info("banker deposited", "banker", banker, "amount", amount, "shares", minted, "nav", v.NAV)
	return minted, nil
}

// Withdraw burns shares and pays out their value at the current NAV.
func (k *Keeper) Withdraw(ctx context.Context, banker string, shares sdkmath.Int) (uint64, error) {
	release, err := k.enter()
	if err != nil {
		return 0, err
	}
	defer release()

	if banker == "" {
		return 0, ErrInvalidRequest.Wrap("missing banker")
	}
	if shares.IsNil() || !shares.IsPositive() {
		return 0, ErrInvalidRequest.Wrap("shares must be > 0")
	}
	v := &k.st.Vault
	if v.Phase != state.PhaseBanker {
		return 0, ErrPhase.Wrap("withdrawals are only accepted in the banker phase")
	}
	b := k.st.Bankers[banker]
	if b == nil || b.Shares.LT(shares) {
		return 0, ErrInsufficientShares.Wrapf("%s holds fewer than %s shares", banker, shares)
	}
	amount, err := intToUint64(shares.Mul(v.NAV).Quo(navBase), "withdraw amount")
	if err != nil {
		return 0, err
	}
	if amount > v.Pool {
		return 0, ErrInsufficientFunds.Wrapf("banker pool %d cannot cover %d", v.Pool, amount)
	}

	if amount > 0 {
		if err := k.bank.TransferOut(ctx, banker, amount); err != nil {
			return 0, ErrInsufficientFunds.Wrap(err.Error())
		}
	}
	b.Shares = b.Shares.Sub(shares)
	v.TotalShares = v.TotalShares.Sub(shares)
	v.Pool -= amount

	k.logger.Info("banker withdrew", "banker", banker, "shares", shares, "amount", amount, "nav", v.NAV)
	return amount, nil
}

// EnterBankerPhase ends the player phase once its end height is reached and
// the latest round is resolved, and marks NAV to the pool's performance over
// the phase.
func (k *Keeper) EnterBankerPhase(ctx context.Context, caller string) (*state.Vault, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := k.requirePhaseRole(ctx, caller); err != nil {
		return nil, err
	}
	v := &k.st.Vault
	h := k.height()
	if v.Phase != state.PhasePlayer {
		return nil, ErrPhase.Wrapf("already in %s phase", v.Phase)
	}
	if h < v.PlayerPhaseEnd {
		return nil, ErrPhase.Wrapf("player phase ends at height %d", v.PlayerPhaseEnd)
	}
	if r := k.st.LatestRound(); !Resolved(r, h) {
		return nil, ErrState.Wrapf("round %d is unresolved until height %d", r.Epoch, r.RevealDeadline())
	}
	end, err := addInt64AndU64Checked(h, k.st.Params.BankerPhaseBlocks, "banker phase end")
	if err != nil {
		return nil, err
	}

	nav := v.NAV
	if v.PrevPool > 0 {
		nav = nav.Mul(sdkmath.NewIntFromUint64(v.Pool)).Quo(sdkmath.NewIntFromUint64(v.PrevPool))
	}
	if nav.IsZero() && v.TotalShares.IsZero() {
		nav = navBase
	}

	prev := v.NAV
	v.NAV = nav
	v.Phase = state.PhaseBanker
	v.BankerPhaseEnd = end

	k.logger.Info("banker phase entered", "height", h, "nav_prev", prev, "nav", nav, "pool", v.Pool, "prev_pool", v.PrevPool, "ends", end)
	return v, nil
}

// EnterPlayerPhase closes the vault and opens betting. The pool at this point
// is the reference for the next NAV update.
func (k *Keeper) EnterPlayerPhase(ctx context.Context, caller string) (*state.Vault, error) {
	release, err := k.enter()
	if err != nil {
		return nil, err
	}
	defer release()

	if err := k.requirePhaseRole(ctx, caller); err != nil {
		return nil, err
	}
	v := &k.st.Vault
	h := k.height()
	if v.Phase != state.PhaseBanker {
		return nil, ErrPhase.Wrapf("already in %s phase", v.Phase)
	}
	if h < v.BankerPhaseEnd {
		return nil, ErrPhase.Wrapf("banker phase ends at height %d", v.BankerPhaseEnd)
	}
	end, err := addInt64AndU64Checked(h, k.st.Params.PlayerPhaseBlocks, "player phase end")
	if err != nil {
		return nil, err
	}

	v.Phase = state.PhasePlayer
	v.PrevPool = v.Pool
	v.PlayerPhaseEnd = end

	k.logger.Info("player phase entered", "height", h, "pool", v.Pool, "ends", end)
	return v, nil
}

func (k *Keeper) requirePhaseRole(ctx context.Context, caller string) error {
	if caller != "" && k.auth.HasRole(ctx, caller, RoleAdmin) {
		return nil
	}
	return k.requireRole(ctx, caller, RoleOperator)
}

// RedeemableValue is what banker's shares are worth at the current NAV.
func (k *Keeper) RedeemableValue(banker string) sdkmath.Int {
	b := k.st.Bankers[banker]
	if b == nil {
		return sdkmath.ZeroInt()
	}
	return b.Shares.Mul(k.st.Vault.NAV).Quo(navBase)
}

// ProfitRatio is NAV × 100 / average acquisition NAV, in percent. It is zero
// for a banker without an acquisition price.
func (k *Keeper) ProfitRatio(banker string) sdkmath.Int {
	b := k.st.Bankers[banker]
	if b == nil || !b.AvgNAV.IsPositive() {
		return sdkmath.ZeroInt()
	}
	return k.st.Vault.NAV.MulRaw(100).Quo(b.AvgNAV)
}
