package engine

import (
	"math"

	sdkmath "cosmossdk.io/math"
)

func addUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if a > ^uint64(0)-b {
		return 0, ErrOverflow.Wrapf("%s overflows uint64", field)
	}
	return a + b, nil
}

func subUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if b > a {
		return 0, ErrOverflow.Wrapf("%s underflows uint64", field)
	}
	return a - b, nil
}

func mulUint64Checked(a uint64, b uint64, field string) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	if a > ^uint64(0)/b {
		return 0, ErrOverflow.Wrapf("%s overflows uint64", field)
	}
	return a * b, nil
}

func addInt64AndU64Checked(a int64, b uint64, field string) (int64, error) {
	if b > uint64(math.MaxInt64) {
		return 0, ErrOverflow.Wrapf("%s delta overflows int64", field)
	}
	if a > math.MaxInt64-int64(b) {
		return 0, ErrOverflow.Wrapf("%s overflows int64", field)
	}
	return a + int64(b), nil
}

// mulDiv computes a*b/c truncating, with a 256-bit intermediate.
func mulDiv(a uint64, b uint64, c uint64, field string) (uint64, error) {
	if c == 0 {
		return 0, ErrInvalidRequest.Wrapf("%s: division by zero", field)
	}
	q := sdkmath.NewIntFromUint64(a).Mul(sdkmath.NewIntFromUint64(b)).Quo(sdkmath.NewIntFromUint64(c))
	return intToUint64(q, field)
}

func intToUint64(v sdkmath.Int, field string) (uint64, error) {
	if v.IsNegative() || !v.IsUint64() {
		return 0, ErrOverflow.Wrapf("%s does not fit uint64", field)
	}
	return v.Uint64(), nil
}
