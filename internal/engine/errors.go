package engine

import errorsmod "cosmossdk.io/errors"

// ModuleName is the error codespace and logger scope of the engine.
const ModuleName = "hexbet"

// Engine sentinel errors.
var (
	ErrInvalidRequest     = errorsmod.Register(ModuleName, 1, "invalid request")
	ErrSequence           = errorsmod.Register(ModuleName, 2, "operation out of sequence")
	ErrWindow             = errorsmod.Register(ModuleName, 3, "outside of valid height window")
	ErrCommitmentMismatch = errorsmod.Register(ModuleName, 4, "secret does not match commitment")
	ErrState              = errorsmod.Register(ModuleName, 5, "invalid round status")
	ErrInsufficientFunds  = errorsmod.Register(ModuleName, 6, "insufficient funds")
	ErrInsufficientShares = errorsmod.Register(ModuleName, 7, "insufficient shares")
	ErrAlreadyClaimed     = errorsmod.Register(ModuleName, 8, "already claimed")
	ErrAlreadyRevealed    = errorsmod.Register(ModuleName, 9, "secret already revealed")
	ErrAlreadySettled     = errorsmod.Register(ModuleName, 10, "round already settled")
	ErrNotEligible        = errorsmod.Register(ModuleName, 11, "not eligible")
	ErrRoundNotFound      = errorsmod.Register(ModuleName, 12, "round not found")
	ErrUnauthorized       = errorsmod.Register(ModuleName, 13, "unauthorized")
	ErrReentrant          = errorsmod.Register(ModuleName, 14, "reentrant call")
	ErrPhase              = errorsmod.Register(ModuleName, 15, "operation not allowed in current phase")
	ErrOverflow           = errorsmod.Register(ModuleName, 16, "arithmetic overflow")
	ErrAlreadyBet         = errorsmod.Register(ModuleName, 17, "already bet on round")
)
