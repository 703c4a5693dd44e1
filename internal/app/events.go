package app

import (
	"sort"
	"strconv"

	errorsmod "cosmossdk.io/errors"
	abci "github.com/cometbft/cometbft/abci/types"
)

// Event types.
const (
	EventTypeBankMinted        = "BankMinted"
	EventTypeBankSent          = "BankSent"
	EventTypeAccountRegistered = "AccountRegistered"

	EventTypeRoundStarted   = "RoundStarted"
	EventTypeRoundLocked    = "RoundLocked"
	EventTypeSecretRevealed = "SecretRevealed"
	EventTypeRoundSettled   = "RoundSettled"

	EventTypeBetPlaced    = "BetPlaced"
	EventTypeClaimed      = "Claimed"
	EventTypeRefunded     = "Refunded"
	EventTypeBonusClaimed = "BonusClaimed"

	EventTypeBankerDeposited = "BankerDeposited"
	EventTypeBankerWithdrew  = "BankerWithdrew"
	EventTypeNavUpdated      = "NavUpdated"
	EventTypePhaseChanged    = "PhaseChanged"

	EventTypeTreasurySwept = "TreasurySwept"
	EventTypeParamsUpdated = "ParamsUpdated"
)

func event(typ string, attrs map[string]string) abci.Event {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return ev
}

func okEvents(evs ...abci.Event) *abci.ExecTxResult {
	return &abci.ExecTxResult{
		Code:   0,
		Events: evs,
	}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	return okEvents(event(typ, attrs))
}

func errResult(err error) *abci.ExecTxResult {
	codespace, code, log := errorsmod.ABCIInfo(err, false)
	return &abci.ExecTxResult{Code: code, Codespace: codespace, Log: log}
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

func i64(v int64) string { return strconv.FormatInt(v, 10) }
