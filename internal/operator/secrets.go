package operator

import (
	"encoding/binary"
	"fmt"
	"os"

	dbm "github.com/cosmos/cosmos-db"

	"hexbet/internal/commitment"
)

var secretKeyPrefix = []byte{0x01} // secretKeyPrefix || u64be(epoch)

func secretKey(epoch uint64) []byte {
	bz := make([]byte, 1+8)
	bz[0] = secretKeyPrefix[0]
	binary.BigEndian.PutUint64(bz[1:], epoch)
	return bz
}

// SecretStore keeps the operator's round secrets. A secret is written with a
// synchronous flush before its commitment leaves the process, so a restart can
// always reveal.
type SecretStore struct {
	db dbm.DB
}

// OpenSecretStore opens the goleveldb-backed secret database name under dir.
func OpenSecretStore(dir, name string) (*SecretStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("mkdir secret dir: %w", err)
	}
	db, err := dbm.NewDB(name, dbm.GoLevelDBBackend, dir)
	if err != nil {
		return nil, fmt.Errorf("open secret db: %w", err)
	}
	return &SecretStore{db: db}, nil
}

func NewSecretStore(db dbm.DB) *SecretStore {
	return &SecretStore{db: db}
}

func (s *SecretStore) Close() error {
	return s.db.Close()
}

// Put records the secret for epoch. An existing different secret is never
// overwritten.
func (s *SecretStore) Put(epoch uint64, secret []byte) error {
	if err := commitment.ValidateSecret(secret); err != nil {
		return err
	}
	prev, err := s.Get(epoch)
	if err != nil {
		return err
	}
	if prev != nil {
		if string(prev) != string(secret) {
			return fmt.Errorf("epoch %d already has a different secret", epoch)
		}
		return nil
	}
	if err := s.db.SetSync(secretKey(epoch), secret); err != nil {
		return fmt.Errorf("write secret %d: %w", epoch, err)
	}
	return nil
}

// Get returns the secret for epoch, or nil if none is stored.
func (s *SecretStore) Get(epoch uint64) ([]byte, error) {
	bz, err := s.db.Get(secretKey(epoch))
	if err != nil {
		return nil, fmt.Errorf("read secret %d: %w", epoch, err)
	}
	if bz == nil {
		return nil, nil
	}
	return append([]byte(nil), bz...), nil
}
