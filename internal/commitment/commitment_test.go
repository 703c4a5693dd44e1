package commitment

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func secretOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, SecretSize)
}

func TestVerify_AcceptsOwnHash(t *testing.T) {
	for i := 0; i < 32; i++ {
		s := secretOf(byte(i))
		require.True(t, Verify(s, Hash(s)), "secret %d", i)
	}
}

func TestVerify_RejectsOtherSecrets(t *testing.T) {
	for i := 0; i < 32; i++ {
		s := secretOf(byte(i))
		other := secretOf(byte(i + 1))
		require.False(t, Verify(s, Hash(other)), "secret %d", i)
	}
}

func TestVerify_FailsClosedOnMalformedInput(t *testing.T) {
	s := secretOf(7)
	c := Hash(s)

	require.False(t, Verify(s[:31], c))
	require.False(t, Verify(s, c[:31]))
	require.False(t, Verify(nil, nil))

	flipped := append([]byte(nil), c...)
	flipped[31] ^= 0x01
	require.False(t, Verify(s, flipped))
}

func TestValidateCommitment(t *testing.T) {
	require.NoError(t, ValidateCommitment(Hash(secretOf(1))))
	require.Error(t, ValidateCommitment(make([]byte, Size)))
	require.Error(t, ValidateCommitment([]byte{1, 2, 3}))
	require.Error(t, ValidateCommitment(nil))
}

func TestParseHex(t *testing.T) {
	c := Hash(secretOf(9))
	enc := hex.EncodeToString(c)
	got, err := ParseHex(enc, Size)
	require.NoError(t, err)
	require.Equal(t, c, got)
	got, err = ParseHex("0x"+enc, Size)
	require.NoError(t, err)
	require.Equal(t, c, got)
	got, err = ParseHex(" 0x0102 ", 0)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, got)

	_, err = ParseHex(enc[:62], Size)
	require.ErrorContains(t, err, "want 32 bytes")
	_, err = ParseHex("0xabc", 0)
	require.Error(t, err)
	_, err = ParseHex("0x", 0)
	require.Error(t, err)
	_, err = ParseHex("zz", 0)
	require.Error(t, err)
}
