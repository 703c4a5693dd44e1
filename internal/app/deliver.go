package app

import (
	"context"
	"encoding/hex"
	"encoding/json"

	sdkmath "cosmossdk.io/math"
	abci "github.com/cometbft/cometbft/abci/types"

	"hexbet/internal/codec"
	"hexbet/internal/engine"
	"hexbet/internal/state"
)

func decodeValue(env codec.TxEnvelope, v any) error {
	if err := json.Unmarshal(env.Value, v); err != nil {
		return ErrTxDecode.Wrapf("bad %s value: %v", env.Type, err)
	}
	return nil
}

// authorize verifies env was signed by account and consumes its nonce.
func authorize(st *state.State, env codec.TxEnvelope, account string) error {
	if err := requireAccountAuth(st, env, account); err != nil {
		return err
	}
	return consumeNonce(st, env)
}

func (a *HexbetApp) execute(st *state.State, env codec.TxEnvelope, height int64) (*abci.ExecTxResult, error) {
	ctx := context.Background()
	k := a.keeper(st, height)

	switch env.Type {
	case codec.TypeAuthRegisterAccount:
		var msg codec.AuthRegisterAccountTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return nil, err
		}
		if err := consumeNonce(st, env); err != nil {
			return nil, err
		}
		st.AccountKeys[msg.Account] = append([]byte(nil), msg.PubKey...)
		return okEvent(EventTypeAccountRegistered, map[string]string{
			"account": msg.Account,
			"pubKey":  hex.EncodeToString(msg.PubKey),
		}), nil

	case codec.TypeBankMint:
		var msg codec.BankMintTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Admin); err != nil {
			return nil, err
		}
		if !st.HasRole(st.Admins, msg.Admin) {
			return nil, engine.ErrUnauthorized.Wrapf("%s is not an admin", msg.Admin)
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, engine.ErrInvalidRequest.Wrap("missing to/amount")
		}
		credit := st.Credit
		if msg.Asset {
			credit = st.CreditAsset
		}
		if err := credit(msg.To, msg.Amount); err != nil {
			return nil, ErrBank.Wrap(err.Error())
		}
		return okEvent(EventTypeBankMinted, map[string]string{
			"to":     msg.To,
			"amount": u64(msg.Amount),
			"asset":  boolStr(msg.Asset),
		}), nil

	case codec.TypeBankSend:
		var msg codec.BankSendTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.From); err != nil {
			return nil, err
		}
		if msg.To == "" || msg.Amount == 0 {
			return nil, engine.ErrInvalidRequest.Wrap("missing to/amount")
		}
		if err := (stateBank{st: st}).move(msg.From, msg.To, msg.Amount); err != nil {
			return nil, err
		}
		return okEvent(EventTypeBankSent, map[string]string{
			"from":   msg.From,
			"to":     msg.To,
			"amount": u64(msg.Amount),
		}), nil

	case codec.TypeRoundStart:
		var msg codec.RoundStartTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Operator); err != nil {
			return nil, err
		}
		r, err := k.StartRound(ctx, msg.Operator, msg.Commitment)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeRoundStarted, map[string]string{
			"epoch":       u64(r.Epoch),
			"startHeight": i64(r.StartHeight),
			"lockHeight":  i64(r.LockHeight),
			"commitment":  hex.EncodeToString(r.Commitment),
		}), nil

	case codec.TypeRoundLock:
		var msg codec.RoundLockTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Operator); err != nil {
			return nil, err
		}
		r, err := k.LockRound(ctx, msg.Operator, msg.Epoch)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeRoundLocked, map[string]string{
			"epoch":        u64(r.Epoch),
			"participants": u64(r.Participants),
			"totalAmount":  u64(r.TotalAmount),
		}), nil

	case codec.TypeRoundReveal:
		var msg codec.RoundRevealTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Operator); err != nil {
			return nil, err
		}
		r, err := k.SendSecret(ctx, msg.Operator, msg.Epoch, msg.Secret)
		if err != nil {
			return nil, err
		}
		return okEvents(
			event(EventTypeSecretRevealed, map[string]string{
				"epoch":          u64(r.Epoch),
				"secret":         hex.EncodeToString(r.Secret),
				"winningOutcome": u64(uint64(r.WinningOutcome)),
				"revealHeight":   i64(r.RevealHeight),
			}),
			event(EventTypeRoundSettled, map[string]string{
				"epoch":            u64(r.Epoch),
				"treasuryAmount":   u64(r.TreasuryAmount),
				"bonusAmount":      u64(r.BonusAmount),
				"bonusAssetAmount": u64(r.BonusAssetAmount),
				"payoutAmount":     u64(r.PayoutAmount),
				"retainedAmount":   u64(r.RetainedAmount),
				"pool":             u64(st.Vault.Pool),
			}),
		), nil

	case codec.TypeBetPlace:
		var msg codec.BetPlaceTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		outcomes := make([]uint8, 0, len(msg.Outcomes))
		for _, o := range msg.Outcomes {
			if o >= state.NumOutcomes {
				return nil, engine.ErrInvalidRequest.Wrapf("outcome %d out of range", o)
			}
			outcomes = append(outcomes, uint8(o))
		}
		b, err := k.PlaceBet(ctx, msg.Player, outcomes, msg.Amount)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeBetPlaced, map[string]string{
			"epoch":    u64(b.Epoch),
			"player":   b.Player,
			"amount":   u64(b.Amount),
			"outcomes": u64(uint64(b.Outcomes)),
		}), nil

	case codec.TypeBetClaim:
		var msg codec.BetClaimTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		kind, amt, err := k.Claim(ctx, msg.Player, msg.Epoch)
		if err != nil {
			return nil, err
		}
		typ := EventTypeClaimed
		if kind == engine.ClaimRefund {
			typ = EventTypeRefunded
		}
		return okEvent(typ, map[string]string{
			"epoch":  u64(msg.Epoch),
			"player": msg.Player,
			"amount": u64(amt),
		}), nil

	case codec.TypeBetClaimBonus:
		var msg codec.BetClaimBonusTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Player); err != nil {
			return nil, err
		}
		amt, err := k.ClaimBonus(ctx, msg.Player)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeBonusClaimed, map[string]string{
			"player": msg.Player,
			"amount": u64(amt),
		}), nil

	case codec.TypeVaultDeposit:
		var msg codec.VaultDepositTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Banker); err != nil {
			return nil, err
		}
		shares, err := k.Deposit(ctx, msg.Banker, msg.Amount)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeBankerDeposited, map[string]string{
			"banker": msg.Banker,
			"amount": u64(msg.Amount),
			"shares": shares.String(),
			"nav":    st.Vault.NAV.String(),
		}), nil

	case codec.TypeVaultWithdraw:
		var msg codec.VaultWithdrawTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Banker); err != nil {
			return nil, err
		}
		shares, ok := sdkmath.NewIntFromString(msg.Shares)
		if !ok {
			return nil, engine.ErrInvalidRequest.Wrapf("invalid shares %q", msg.Shares)
		}
		amt, err := k.Withdraw(ctx, msg.Banker, shares)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeBankerWithdrew, map[string]string{
			"banker": msg.Banker,
			"shares": shares.String(),
			"amount": u64(amt),
			"nav":    st.Vault.NAV.String(),
		}), nil

	case codec.TypeAdminSetParams:
		var msg codec.AdminSetParamsTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Admin); err != nil {
			return nil, err
		}
		if err := k.SetParams(ctx, msg.Admin, msg.Params); err != nil {
			return nil, err
		}
		p := st.Params
		return okEvent(EventTypeParamsUpdated, map[string]string{
			"gapRate":           u64(p.GapRate),
			"treasuryRate":      u64(p.TreasuryRate),
			"bonusRate":         u64(p.BonusRate),
			"minStake":          u64(p.MinStake),
			"interval":          u64(p.Interval),
			"buffer":            u64(p.Buffer),
			"playerPhaseBlocks": u64(p.PlayerPhaseBlocks),
			"bankerPhaseBlocks": u64(p.BankerPhaseBlocks),
		}), nil

	case codec.TypeAdminSweepTreasury:
		var msg codec.AdminSweepTreasuryTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Admin); err != nil {
			return nil, err
		}
		amt, err := k.SweepTreasury(ctx, msg.Admin, msg.To)
		if err != nil {
			return nil, err
		}
		return okEvent(EventTypeTreasurySwept, map[string]string{
			"to":     msg.To,
			"amount": u64(amt),
		}), nil

	case codec.TypeAdminEnterBankerPhase:
		var msg codec.AdminPhaseTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Caller); err != nil {
			return nil, err
		}
		prevNAV := st.Vault.NAV
		v, err := k.EnterBankerPhase(ctx, msg.Caller)
		if err != nil {
			return nil, err
		}
		return okEvents(
			event(EventTypeNavUpdated, map[string]string{
				"navBefore": prevNAV.String(),
				"nav":       v.NAV.String(),
				"pool":      u64(v.Pool),
				"prevPool":  u64(v.PrevPool),
			}),
			phaseEvent(v),
		), nil

	case codec.TypeAdminEnterPlayerPhase:
		var msg codec.AdminPhaseTx
		if err := decodeValue(env, &msg); err != nil {
			return nil, err
		}
		if err := authorize(st, env, msg.Caller); err != nil {
			return nil, err
		}
		v, err := k.EnterPlayerPhase(ctx, msg.Caller)
		if err != nil {
			return nil, err
		}
		return okEvents(phaseEvent(v)), nil

	default:
		return nil, ErrUnknownTx.Wrapf("%q", env.Type)
	}
}

func phaseEvent(v *state.Vault) abci.Event {
	end := v.PlayerPhaseEnd
	if v.Phase == state.PhaseBanker {
		end = v.BankerPhaseEnd
	}
	return event(EventTypePhaseChanged, map[string]string{
		"phase":    string(v.Phase),
		"endsAt":   i64(end),
		"pool":     u64(v.Pool),
		"navAfter": v.NAV.String(),
	})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
