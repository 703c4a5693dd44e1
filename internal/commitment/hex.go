package commitment

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// ParseHex decodes a key or commitment given in config or genesis, with or
// without a 0x prefix. size > 0 pins the decoded length.
func ParseHex(s string, size int) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, fmt.Errorf("empty hex value")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	if size > 0 && len(b) != size {
		return nil, fmt.Errorf("want %d bytes, got %d", size, len(b))
	}
	return b, nil
}
