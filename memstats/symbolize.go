package memstats

import (
	"encoding/binary"
	"fmt"
	"runtime"

	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"
)

const symbolCacheSize = 4096

// symbol is one resolved program counter.
type symbol struct {
	Name string
	File string
	Line int
}

// String renders the symbol as report label text.
func (s symbol) String() string {
	if s.File == "" {
		return s.Name
	}
	return fmt.Sprintf("%s %s:%d", s.Name, s.File, s.Line)
}

// symbolizer resolves program counters to source positions. Reports resolve
// the same hot call sites over and over, so resolutions go through a shared
// LRU.
type symbolizer struct {
	cache *freelru.SyncedLRU[uintptr, symbol]
}

func newSymbolizer() (*symbolizer, error) {
	cache, err := freelru.NewSynced[uintptr, symbol](symbolCacheSize, hashPC)
	if err != nil {
		return nil, err
	}
	return &symbolizer{cache: cache}, nil
}

func hashPC(pc uintptr) uint32 {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(pc))
	return uint32(xxhash.Sum64(b[:]))
}

// lookup resolves pc, falling back on the raw address for counters the
// runtime has no function for (stripped or foreign code).
func (s *symbolizer) lookup(pc uintptr) symbol {
	if sym, ok := s.cache.Get(pc); ok {
		return sym
	}
	frames := runtime.CallersFrames([]uintptr{pc})
	fr, _ := frames.Next()
	sym := symbol{Name: fr.Function, File: fr.File, Line: fr.Line}
	if sym.Name == "" {
		sym.Name = fmt.Sprintf("0x%x", pc)
		sym.File = ""
		sym.Line = 0
	}
	s.cache.Add(pc, sym)
	return sym
}
