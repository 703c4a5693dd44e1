package app

import (
	"crypto/ed25519"
	"fmt"
	"strconv"

	"hexbet/internal/codec"
	"hexbet/internal/state"
)

func requireSignedEnvelope(env codec.TxEnvelope) error {
	if env.Nonce == "" {
		return fmt.Errorf("missing tx.nonce")
	}
	if env.Signer == "" {
		return fmt.Errorf("missing tx.signer")
	}
	if len(env.Sig) == 0 {
		return fmt.Errorf("missing tx.sig")
	}
	if len(env.Sig) != ed25519.SignatureSize {
		return fmt.Errorf("invalid tx.sig length: got %d want %d", len(env.Sig), ed25519.SignatureSize)
	}
	return nil
}

func verifyEnvelope(pub []byte, env codec.TxEnvelope) error {
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	msg := codec.SignBytes(env.Type, env.Value, env.Nonce, env.Signer)
	if !ed25519.Verify(ed25519.PublicKey(pub), msg, env.Sig) {
		return fmt.Errorf("invalid signature")
	}
	return nil
}

// requireRegisterAccountAuth checks a self-signed key registration. Once an
// account has a key, only a tx signed by that key can replace it.
func requireRegisterAccountAuth(st *state.State, env codec.TxEnvelope, msg codec.AuthRegisterAccountTx) error {
	if msg.Account == "" {
		return ErrTxAuth.Wrap("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return ErrTxAuth.Wrap(err.Error())
	}
	if env.Signer != msg.Account {
		return ErrTxAuth.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, msg.Account)
	}
	key := msg.PubKey
	if existing := st.AccountKeys[msg.Account]; len(existing) != 0 {
		key = existing
	}
	if err := verifyEnvelope(key, env); err != nil {
		return ErrTxAuth.Wrap(err.Error())
	}
	if len(msg.PubKey) != ed25519.PublicKeySize {
		return ErrTxAuth.Wrapf("pubKey must be %d bytes", ed25519.PublicKeySize)
	}
	return nil
}

func requireAccountAuth(st *state.State, env codec.TxEnvelope, account string) error {
	if account == "" {
		return ErrTxAuth.Wrap("missing account")
	}
	if err := requireSignedEnvelope(env); err != nil {
		return ErrTxAuth.Wrap(err.Error())
	}
	if env.Signer != account {
		return ErrTxAuth.Wrapf("tx signer mismatch: signer=%q want=%q", env.Signer, account)
	}
	pub := st.AccountKeys[account]
	if len(pub) == 0 {
		return ErrTxAuth.Wrapf("account %q missing pubKey (auth/register_account required)", account)
	}
	if err := verifyEnvelope(pub, env); err != nil {
		return ErrTxAuth.Wrap(err.Error())
	}
	return nil
}

func parseNonce(env codec.TxEnvelope) (uint64, error) {
	n, err := strconv.ParseUint(env.Nonce, 10, 64)
	if err != nil {
		return 0, ErrTxNonce.Wrapf("invalid tx.nonce %q", env.Nonce)
	}
	return n, nil
}

// consumeNonce accepts env's nonce if it is above the signer's last one.
func consumeNonce(st *state.State, env codec.TxEnvelope) error {
	n, err := parseNonce(env)
	if err != nil {
		return err
	}
	if last, ok := st.NonceMax[env.Signer]; ok && n <= last {
		return ErrTxNonce.Wrapf("replayed tx.nonce %d (last %d)", n, last)
	}
	st.NonceMax[env.Signer] = n
	return nil
}
