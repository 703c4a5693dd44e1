package state

import "encoding/binary"

var (
	GlobalsKey = []byte{0x01} // scalar globals (JSON)

	RoundKeyPrefix   = []byte{0x02} // RoundKeyPrefix || u64be(epoch)
	BetKeyPrefix     = []byte{0x03} // BetKeyPrefix || u64be(epoch) || addr
	BankerKeyPrefix  = []byte{0x04} // BankerKeyPrefix || addr
	HistoryKeyPrefix = []byte{0x05} // HistoryKeyPrefix || addr
	AccountKeyPrefix = []byte{0x06} // AccountKeyPrefix || addr -> u64be
	AssetKeyPrefix   = []byte{0x07} // AssetKeyPrefix || addr -> u64be
	PubKeyKeyPrefix  = []byte{0x08} // PubKeyKeyPrefix || addr -> ed25519 pubkey
	NonceKeyPrefix   = []byte{0x09} // NonceKeyPrefix || addr -> u64be
)

func RoundKey(epoch uint64) []byte {
	bz := make([]byte, 1+8)
	bz[0] = RoundKeyPrefix[0]
	binary.BigEndian.PutUint64(bz[1:], epoch)
	return bz
}

func BetKey(epoch uint64, addr string) []byte {
	bz := make([]byte, 1+8, 1+8+len(addr))
	bz[0] = BetKeyPrefix[0]
	binary.BigEndian.PutUint64(bz[1:], epoch)
	return append(bz, addr...)
}

func addrKey(prefix []byte, addr string) []byte {
	bz := make([]byte, 0, 1+len(addr))
	bz = append(bz, prefix[0])
	return append(bz, addr...)
}

func u64be(v uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, v)
	return bz
}

// prefixEnd returns the exclusive upper bound for iterating keys with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}
