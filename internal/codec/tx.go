package codec

import (
	"encoding/json"
	"fmt"

	"hexbet/internal/state"
)

// TxEnvelope is the transaction container.
//
// CometBFT transactions are opaque bytes; hexbet txs are JSON.
type TxEnvelope struct {
	// Basic routing.
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`

	// Tx auth:
	// - Nonce: decimal u64, must strictly increase per signer.
	// - Signer: account that signed the tx.
	// - Sig: Ed25519 signature over SignBytes(type, value, nonce, signer).
	Nonce  string `json:"nonce,omitempty"`
	Signer string `json:"signer,omitempty"`
	Sig    []byte `json:"sig,omitempty"`
}

func DecodeTxEnvelope(txBytes []byte) (TxEnvelope, error) {
	var env TxEnvelope
	if err := json.Unmarshal(txBytes, &env); err != nil {
		return TxEnvelope{}, fmt.Errorf("invalid tx json: %w", err)
	}
	if env.Type == "" {
		return TxEnvelope{}, fmt.Errorf("missing tx.type")
	}
	return env, nil
}

// Tx types.
const (
	TypeBankMint            = "bank/mint"
	TypeBankSend            = "bank/send"
	TypeAuthRegisterAccount = "auth/register_account"

	TypeRoundStart  = "round/start"
	TypeRoundLock   = "round/lock"
	TypeRoundReveal = "round/reveal"

	TypeBetPlace      = "bet/place"
	TypeBetClaim      = "bet/claim"
	TypeBetClaimBonus = "bet/claim_bonus"

	TypeVaultDeposit  = "vault/deposit"
	TypeVaultWithdraw = "vault/withdraw"

	TypeAdminSetParams        = "admin/set_params"
	TypeAdminSweepTreasury    = "admin/sweep_treasury"
	TypeAdminEnterBankerPhase = "admin/enter_banker_phase"
	TypeAdminEnterPlayerPhase = "admin/enter_player_phase"
)

// ---- Bank ----

type BankMintTx struct {
	Admin  string `json:"admin"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Asset  bool   `json:"asset,omitempty"` // mint the bonus asset instead of stake units
}

type BankSendTx struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
}

// ---- Auth ----

type AuthRegisterAccountTx struct {
	Account string `json:"account"`
	PubKey  []byte `json:"pubKey"` // base64 (32 bytes)
}

// ---- Rounds (operator) ----

type RoundStartTx struct {
	Operator   string `json:"operator"`
	Commitment []byte `json:"commitment"` // base64 sha256(secret)
}

type RoundLockTx struct {
	Operator string `json:"operator"`
	Epoch    uint64 `json:"epoch"`
}

type RoundRevealTx struct {
	Operator string `json:"operator"`
	Epoch    uint64 `json:"epoch"`
	Secret   []byte `json:"secret"` // base64 (32 bytes)
}

// ---- Bets ----

type BetPlaceTx struct {
	Player string `json:"player"`
	// Outcomes are indexes 0..5. Plain numbers in JSON, not a byte string.
	Outcomes []uint32 `json:"outcomes"`
	Amount   uint64   `json:"amount"`
}

type BetClaimTx struct {
	Player string `json:"player"`
	Epoch  uint64 `json:"epoch"`
}

type BetClaimBonusTx struct {
	Player string `json:"player"`
}

// ---- Vault ----

type VaultDepositTx struct {
	Banker string `json:"banker"`
	Amount uint64 `json:"amount"`
}

type VaultWithdrawTx struct {
	Banker string `json:"banker"`
	Shares string `json:"shares"` // decimal integer
}

// ---- Admin ----

type AdminSetParamsTx struct {
	Admin  string       `json:"admin"`
	Params state.Params `json:"params"`
}

type AdminSweepTreasuryTx struct {
	Admin string `json:"admin"`
	To    string `json:"to"`
}

type AdminPhaseTx struct {
	Caller string `json:"caller"`
}
