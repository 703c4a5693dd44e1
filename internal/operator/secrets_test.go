package operator

import (
	"bytes"
	"testing"

	dbm "github.com/cosmos/cosmos-db"
	"github.com/stretchr/testify/require"
)

func TestSecretStore(t *testing.T) {
	s := NewSecretStore(dbm.NewMemDB())

	got, err := s.Get(1)
	require.NoError(t, err)
	require.Nil(t, got)

	secret := bytes.Repeat([]byte{0xab}, 32)
	require.NoError(t, s.Put(1, secret))
	require.NoError(t, s.Put(1, secret))
	require.ErrorContains(t, s.Put(1, bytes.Repeat([]byte{0xcd}, 32)), "different secret")
	require.Error(t, s.Put(2, []byte{1, 2, 3}))

	got, err = s.Get(1)
	require.NoError(t, err)
	require.Equal(t, secret, got)
}

func TestOpenSecretStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSecretStore(dir, "operator")
	require.NoError(t, err)
	secret := bytes.Repeat([]byte{0x11}, 32)
	require.NoError(t, s.Put(7, secret))
	require.NoError(t, s.Close())

	s, err = OpenSecretStore(dir, "operator")
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(7)
	require.NoError(t, err)
	require.Equal(t, secret, got)
}
