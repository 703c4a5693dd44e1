package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddInt64AndU64Checked(t *testing.T) {
	got, err := addInt64AndU64Checked(42, 10, "deadline")
	require.NoError(t, err)
	require.Equal(t, int64(52), got)
}

func TestAddInt64AndU64Checked_Overflow(t *testing.T) {
	_, err := addInt64AndU64Checked(math.MaxInt64, 1, "deadline")
	require.ErrorIs(t, err, ErrOverflow)
	_, err = addInt64AndU64Checked(0, uint64(math.MaxInt64)+1, "deadline")
	require.ErrorIs(t, err, ErrOverflow)
}

func TestUint64Checked(t *testing.T) {
	_, err := addUint64Checked(math.MaxUint64, 1, "x")
	require.ErrorIs(t, err, ErrOverflow)
	_, err = subUint64Checked(1, 2, "x")
	require.ErrorIs(t, err, ErrOverflow)
	_, err = mulUint64Checked(math.MaxUint64, 2, "x")
	require.ErrorIs(t, err, ErrOverflow)

	v, err := mulUint64Checked(0, math.MaxUint64, "x")
	require.NoError(t, err)
	require.Zero(t, v)
}

func TestMulDiv_WideIntermediate(t *testing.T) {
	got, err := mulDiv(math.MaxUint64, 1_000_000_000_000, 1_000_000_000_000, "x")
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), got)

	got, err = mulDiv(7, 3, 2, "x")
	require.NoError(t, err)
	require.Equal(t, uint64(10), got)

	_, err = mulDiv(1, 1, 0, "x")
	require.ErrorIs(t, err, ErrInvalidRequest)
	_, err = mulDiv(math.MaxUint64, 2, 1, "x")
	require.ErrorIs(t, err, ErrOverflow)
}
