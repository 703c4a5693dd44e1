package state

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	dbm "github.com/cosmos/cosmos-db"
)

// Store persists State into a cosmos-db key/value database, one record per
// round, bet, banker share and account.
type Store struct {
	db dbm.DB
}

// OpenStore opens (or creates) the goleveldb-backed state database under home.
func OpenStore(home string) (*Store, error) {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir home: %w", err)
	}
	db, err := dbm.NewDB("state", dbm.GoLevelDBBackend, home)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}
	return &Store{db: db}, nil
}

func NewStore(db dbm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

type globals struct {
	Height       int64    `json:"height"`
	Operators    []string `json:"operators,omitempty"`
	Admins       []string `json:"admins,omitempty"`
	Params       Params   `json:"params"`
	Epoch        uint64   `json:"epoch"`
	Vault        Vault    `json:"vault"`
	Treasury     uint64   `json:"treasury"`
	BonusReserve uint64   `json:"bonusReserve,omitempty"`
}

// Load reads the full state. An empty database yields NewState().
func (s *Store) Load() (*State, error) {
	bz, err := s.db.Get(GlobalsKey)
	if err != nil {
		return nil, fmt.Errorf("read globals: %w", err)
	}
	if bz == nil {
		return NewState(), nil
	}
	var g globals
	if err := json.Unmarshal(bz, &g); err != nil {
		return nil, fmt.Errorf("decode globals: %w", err)
	}
	st := &State{
		Height:       g.Height,
		Operators:    g.Operators,
		Admins:       g.Admins,
		Params:       g.Params,
		Epoch:        g.Epoch,
		Vault:        g.Vault,
		Treasury:     g.Treasury,
		BonusReserve: g.BonusReserve,
	}
	st.normalize()

	err = s.iterate(RoundKeyPrefix, func(_ []byte, v []byte) error {
		var r Round
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("decode round: %w", err)
		}
		st.Rounds[r.Epoch] = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.iterate(BetKeyPrefix, func(_ []byte, v []byte) error {
		var b BetRecord
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("decode bet: %w", err)
		}
		st.PutBet(&b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.iterate(BankerKeyPrefix, func(addr []byte, v []byte) error {
		var b BankerShare
		if err := json.Unmarshal(v, &b); err != nil {
			return fmt.Errorf("decode banker share: %w", err)
		}
		st.Bankers[string(addr)] = &b
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = s.iterate(HistoryKeyPrefix, func(addr []byte, v []byte) error {
		var epochs []uint64
		if err := json.Unmarshal(v, &epochs); err != nil {
			return fmt.Errorf("decode history: %w", err)
		}
		st.History[string(addr)] = epochs
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.iterateU64(AccountKeyPrefix, st.Accounts); err != nil {
		return nil, err
	}
	if err := s.iterateU64(AssetKeyPrefix, st.Assets); err != nil {
		return nil, err
	}
	if err := s.iterateU64(NonceKeyPrefix, st.NonceMax); err != nil {
		return nil, err
	}
	err = s.iterate(PubKeyKeyPrefix, func(addr []byte, v []byte) error {
		st.AccountKeys[string(addr)] = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	st.normalize()
	return st, nil
}

// Save writes every record of st in one synchronous batch.
func (s *Store) Save(st *State) error {
	if st == nil {
		return fmt.Errorf("state is nil")
	}
	batch := s.db.NewBatch()
	defer batch.Close()

	set := func(key []byte, v any) error {
		bz, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %x: %w", key, err)
		}
		return batch.Set(key, bz)
	}

	if err := set(GlobalsKey, globals{
		Height:       st.Height,
		Operators:    st.Operators,
		Admins:       st.Admins,
		Params:       st.Params,
		Epoch:        st.Epoch,
		Vault:        st.Vault,
		Treasury:     st.Treasury,
		BonusReserve: st.BonusReserve,
	}); err != nil {
		return err
	}
	for epoch, r := range st.Rounds {
		if err := set(RoundKey(epoch), r); err != nil {
			return err
		}
	}
	for epoch, m := range st.Bets {
		for addr, b := range m {
			if err := set(BetKey(epoch, addr), b); err != nil {
				return err
			}
		}
	}
	for addr, b := range st.Bankers {
		if err := set(addrKey(BankerKeyPrefix, addr), b); err != nil {
			return err
		}
	}
	for addr, h := range st.History {
		if err := set(addrKey(HistoryKeyPrefix, addr), h); err != nil {
			return err
		}
	}
	for addr, v := range st.Accounts {
		if err := batch.Set(addrKey(AccountKeyPrefix, addr), u64be(v)); err != nil {
			return err
		}
	}
	for addr, v := range st.Assets {
		if err := batch.Set(addrKey(AssetKeyPrefix, addr), u64be(v)); err != nil {
			return err
		}
	}
	for addr, v := range st.NonceMax {
		if err := batch.Set(addrKey(NonceKeyPrefix, addr), u64be(v)); err != nil {
			return err
		}
	}
	for addr, pk := range st.AccountKeys {
		if err := batch.Set(addrKey(PubKeyKeyPrefix, addr), pk); err != nil {
			return err
		}
	}
	if err := batch.WriteSync(); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

// iterate calls cb with the key suffix (after the one-byte prefix) and value.
func (s *Store) iterate(prefix []byte, cb func(suffix []byte, value []byte) error) error {
	it, err := s.db.Iterator(prefix, prefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		key := it.Key()
		if len(key) < 1 || key[0] != prefix[0] {
			continue
		}
		if err := cb(key[1:], it.Value()); err != nil {
			return err
		}
	}
	return it.Error()
}

func (s *Store) iterateU64(prefix []byte, dst map[string]uint64) error {
	return s.iterate(prefix, func(addr []byte, v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("invalid u64 encoding under prefix %x", prefix)
		}
		dst[string(addr)] = binary.BigEndian.Uint64(v)
		return nil
	})
}
