package app

import errorsmod "cosmossdk.io/errors"

// Codespace of tx-level failures raised before the engine runs.
const Codespace = "hexbet-tx"

var (
	ErrTxDecode  = errorsmod.Register(Codespace, 1, "tx decode error")
	ErrTxAuth    = errorsmod.Register(Codespace, 2, "tx authentication failed")
	ErrTxNonce   = errorsmod.Register(Codespace, 3, "invalid tx nonce")
	ErrUnknownTx = errorsmod.Register(Codespace, 4, "unknown tx type")
	ErrBank      = errorsmod.Register(Codespace, 5, "bank transfer failed")
)
