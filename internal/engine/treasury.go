package engine

import "context"

// SweepTreasury pays the whole accumulated treasury to recipient and resets it.
func (k *Keeper) SweepTreasury(ctx context.Context, caller, recipient string) (uint64, error) {
	release, err := k.enter()
	if err != nil {
		return 0, err
	}
	defer release()

	if err := k.requireRole(ctx, caller, RoleAdmin); err != nil {
		return 0, err
	}
	if recipient == "" {
		return 0, ErrInvalidRequest.Wrap("missing recipient")
	}
	amt := k.st.Treasury
	if amt == 0 {
		return 0, nil
	}
	if err := k.bank.TransferOut(ctx, recipient, amt); err != nil {
		return 0, ErrInsufficientFunds.Wrap(err.Error())
	}
	k.st.Treasury = 0

	k.logger.Info("treasury swept", "to", recipient, "amount", amt)
	return amt, nil
}
