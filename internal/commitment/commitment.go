package commitment

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
)

// SecretSize is the length of a round secret in bytes (a big-endian uint256).
const SecretSize = 32

// Size is the length of a commitment hash in bytes.
const Size = sha256.Size

// Hash returns the commitment for secret: sha256(secret).
func Hash(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}

// Verify reports whether secret hashes to commitment. Malformed inputs never
// verify.
func Verify(secret []byte, commitment []byte) bool {
	if len(secret) != SecretSize || len(commitment) != Size {
		return false
	}
	sum := sha256.Sum256(secret)
	return subtle.ConstantTimeCompare(sum[:], commitment) == 1
}

// ValidateCommitment checks that c has the shape of a commitment and is not all zero.
func ValidateCommitment(c []byte) error {
	if len(c) != Size {
		return fmt.Errorf("commitment must be %d bytes, got %d", Size, len(c))
	}
	if isZero(c) {
		return fmt.Errorf("commitment is empty")
	}
	return nil
}

// ValidateSecret checks the secret length.
func ValidateSecret(s []byte) error {
	if len(s) != SecretSize {
		return fmt.Errorf("secret must be %d bytes, got %d", SecretSize, len(s))
	}
	return nil
}

func isZero(b []byte) bool {
	for _, x := range b {
		if x != 0 {
			return false
		}
	}
	return true
}
