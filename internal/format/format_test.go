package format

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{600, "600 B"},
		{1023, "1023 B"},
		{1024, "1kB"},
		{1536, "1kB"}, // truncates, never rounds up
		{12288, "12kB"},
		{409600, "400kB"},
		{1 << 20, "1MB"},
		{1 << 30, "1GB"},
		{1 << 40, "1TB"},
		{1 << 50, "1PB"},
		{1 << 60, "1EB"},
		{math.MaxUint64, "15EB"},
	}
	for _, tc := range cases {
		got, err := Bytes(tc.in)
		require.NoError(t, err, "Bytes(%d)", tc.in)
		assert.Equal(t, tc.want, got, "Bytes(%d)", tc.in)
	}
}

func TestCount(t *testing.T) {
	cases := []struct {
		in   uint64
		want string
	}{
		{0, "0 "},
		{3, "3 "},
		{999, "999 "},
		{1000, "1k"},
		{1500, "1k"},
		{12000, "12k"},
		{999999, "999k"},
		{1000000, "1M"},
		{2500000000, "2G"},
		{math.MaxUint64, "18E"},
	}
	for _, tc := range cases {
		got, err := Count(tc.in)
		require.NoError(t, err, "Count(%d)", tc.in)
		assert.Equal(t, tc.want, got, "Count(%d)", tc.in)
	}
}

// The deepest magnitude a uint64 can reach lands inside the prefix table
// on both scales, which is what keeps ErrPrefixRange out of reach for
// Bytes and Count.
func TestPrefixTableHeadroom(t *testing.T) {
	assert.Less(t, (bits.Len64(math.MaxUint64)-1)/10, len(prefixes))

	base := 0
	for q := uint64(math.MaxUint64); q >= 1000; q /= 1000 {
		base++
	}
	assert.Less(t, base, len(prefixes))
}

// The unscaled column keeps its width via the blank prefix; scaled values
// drop it. Downstream padding relies on this.
func TestBlankPrefixWidth(t *testing.T) {
	plain, err := Bytes(600)
	require.NoError(t, err)
	scaled, err := Bytes(614400)
	require.NoError(t, err)
	assert.Equal(t, "600 B", plain)
	assert.Equal(t, "600kB", scaled)
	assert.Len(t, plain, len(scaled))
}
