package engine

import (
	"context"

	"hexbet/internal/state"
)

// SetParams replaces the engine parameters. Changes are only accepted in the
// banker phase; rounds keep the buffer and rates they opened with.
func (k *Keeper) SetParams(ctx context.Context, caller string, p state.Params) error {
	release, err := k.enter()
	if err != nil {
		return err
	}
	defer release()

	if err := k.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	if err := p.Validate(); err != nil {
		return ErrInvalidRequest.Wrap(err.Error())
	}
	if k.st.Vault.Phase != state.PhaseBanker {
		return ErrPhase.Wrap("params can only change in the banker phase")
	}
	k.st.Params = p

	k.logger.Info("params updated",
		"gap_rate", p.GapRate,
		"treasury_rate", p.TreasuryRate,
		"bonus_rate", p.BonusRate,
		"min_stake", p.MinStake,
		"interval", p.Interval,
		"buffer", p.Buffer,
	)
	return nil
}
