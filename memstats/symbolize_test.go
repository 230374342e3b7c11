package memstats

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupResolvesOwnFrame(t *testing.T) {
	sym, err := newSymbolizer()
	require.NoError(t, err)

	var pcs [4]uintptr
	n := runtime.Callers(1, pcs[:])
	require.Positive(t, n)

	got := sym.lookup(pcs[0])
	assert.Contains(t, got.Name, "TestLookupResolvesOwnFrame")
	assert.Contains(t, got.File, "symbolize_test.go")
	assert.Positive(t, got.Line)
	assert.Contains(t, got.String(), "symbolize_test.go:")
}

func TestLookupCachesResolutions(t *testing.T) {
	sym, err := newSymbolizer()
	require.NoError(t, err)

	var pcs [4]uintptr
	require.Positive(t, runtime.Callers(1, pcs[:]))

	first := sym.lookup(pcs[0])
	second := sym.lookup(pcs[0])
	assert.Equal(t, first, second)

	cached, ok := sym.cache.Get(pcs[0])
	require.True(t, ok, "a resolution must land in the cache")
	assert.Equal(t, first, cached)
}

func TestLookupFallsBackOnRawAddress(t *testing.T) {
	sym, err := newSymbolizer()
	require.NoError(t, err)

	// An address no Go function occupies.
	got := sym.lookup(0x1)
	assert.Equal(t, "0x1", got.Name)
	assert.Empty(t, got.File)
	assert.Equal(t, "0x1", got.String(), "raw addresses render without a position")
}

func TestSymbolString(t *testing.T) {
	full := symbol{Name: "pkg.Fn", File: "file.go", Line: 42}
	assert.Equal(t, "pkg.Fn file.go:42", full.String())

	bare := symbol{Name: "pkg.Fn"}
	assert.Equal(t, "pkg.Fn", bare.String())
}
