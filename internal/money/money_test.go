package money

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in       float64
		decimals int32
		want     float64
	}{
		{1.005, 2, 1.01},
		{7.4999, 3, 7.5},
		{10, 3, 10},
		{0.0005, 3, 0.001},
		{2.345, 2, 2.35},
		{-2.5, 0, -2},
		{-1.005, 2, -1},
		{-1.0051, 2, -1.01},
	}
	for _, tc := range cases {
		got := Round(Ptr(tc.in), tc.decimals)
		require.NotNil(t, got)
		require.InDelta(t, tc.want, *got, 1e-12, "round(%v, %d)", tc.in, tc.decimals)
	}
}

func TestRoundAbsent(t *testing.T) {
	require.Nil(t, Round(nil, 2))
	require.Nil(t, Round(Ptr(math.NaN()), 2))
	require.Nil(t, Round(Ptr(math.Inf(1)), 2))

	zero := Round(Ptr(0), 3)
	require.NotNil(t, zero)
	require.Zero(t, *zero)
}

func TestToMinor(t *testing.T) {
	require.Equal(t, int64(20000), ToMinor(Ptr(200)))
	require.Equal(t, int64(750), ToMinor(Ptr(7.5)))
	require.Equal(t, int64(1001), ToMinor(Ptr(10.005)))
	require.Equal(t, int64(0), ToMinor(nil))
	require.Equal(t, int64(0), ToMinor(Ptr(math.NaN())))
	require.Equal(t, int64(0), ToMinor(Ptr(math.Inf(-1))))
}

func TestPredicates(t *testing.T) {
	require.True(t, IsAbsent(nil))
	require.False(t, IsAbsent(Ptr(0)))

	require.True(t, IsPositiveFinite(Ptr(0.1)))
	require.False(t, IsPositiveFinite(Ptr(0)))
	require.False(t, IsPositiveFinite(Ptr(-3)))
	require.False(t, IsPositiveFinite(nil))
	require.False(t, IsPositiveFinite(Ptr(math.Inf(1))))
	require.False(t, IsPositiveFinite(Ptr(math.NaN())))
}

func TestMulDivRound(t *testing.T) {
	require.Equal(t, int64(10000), MulDivRound(20000, 500, 1000))
	require.Equal(t, int64(4), MulDivRound(7, 500, 1000))
	require.Equal(t, int64(0), MulDivRound(7, 500, 0))
	require.Equal(t, int64(25), RoundInt(24.5))
	require.Equal(t, int64(-2), RoundInt(-2.5))
	require.Equal(t, int64(-3), RoundInt(-2.51))
	require.InDelta(t, 123.45, FromMinor(12345), 1e-9)
}

func TestFormat(t *testing.T) {
	require.Equal(t, "123.45", Format(12345))
	require.Equal(t, "0.05", Format(5))
	require.Equal(t, "-1.50", Format(-150))
}

func TestPercent(t *testing.T) {
	require.Equal(t, "41.6", Percent(20500, 49300))
	require.Equal(t, "0.0", Percent(10, 0))
	require.Equal(t, "-25.0", Percent(-1, 4))
}
