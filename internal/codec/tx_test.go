package codec

import (
	"crypto/ed25519"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeTxEnvelope_OK(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":  TypeBetPlace,
		"value": map[string]any{"player": "alice", "outcomes": []int{0, 2}, "amount": 20},
	})
	require.NoError(t, err)

	env, err := DecodeTxEnvelope(b)
	require.NoError(t, err)
	require.Equal(t, TypeBetPlace, env.Type)

	var msg BetPlaceTx
	require.NoError(t, json.Unmarshal(env.Value, &msg))
	require.Equal(t, "alice", msg.Player)
	require.Equal(t, []uint32{0, 2}, msg.Outcomes)
	require.Equal(t, uint64(20), msg.Amount)
}

func TestDecodeTxEnvelope_IgnoresUnknownFields(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"type":  TypeBankSend,
		"extra": "7",
		"value": map[string]any{"from": "alice", "to": "bob", "amount": 1},
	})
	require.NoError(t, err)

	_, err = DecodeTxEnvelope(b)
	require.NoError(t, err)
}

func TestDecodeTxEnvelope_MissingType(t *testing.T) {
	b, err := json.Marshal(map[string]any{
		"value": map[string]any{"x": 1},
	})
	require.NoError(t, err)
	_, err = DecodeTxEnvelope(b)
	require.Error(t, err)
}

func TestDecodeTxEnvelope_InvalidJSON(t *testing.T) {
	_, err := DecodeTxEnvelope([]byte("{not json"))
	require.Error(t, err)
}

func TestSignedTx_Verifies(t *testing.T) {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = 1
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)

	b, err := SignedTx(TypeRoundLock, RoundLockTx{Operator: "op", Epoch: 3}, 9, "op", priv)
	require.NoError(t, err)

	env, err := DecodeTxEnvelope(b)
	require.NoError(t, err)
	require.Equal(t, "9", env.Nonce)
	require.Equal(t, "op", env.Signer)
	require.True(t, ed25519.Verify(pub, SignBytes(env.Type, env.Value, env.Nonce, env.Signer), env.Sig))

	// Any field change breaks the signature.
	require.False(t, ed25519.Verify(pub, SignBytes(env.Type, env.Value, "10", env.Signer), env.Sig))
	require.False(t, ed25519.Verify(pub, SignBytes(TypeRoundStart, env.Value, env.Nonce, env.Signer), env.Sig))
	require.False(t, ed25519.Verify(pub, SignBytes(env.Type, []byte(`{}`), env.Nonce, env.Signer), env.Sig))

	_, err = SignedTx(TypeRoundLock, RoundLockTx{}, 1, "op", priv[:10])
	require.Error(t, err)
}
