package memstats

import "errors"

var (
	// ErrUnknownAlphabet indicates a histogram alphabet name outside the
	// registered set.
	ErrUnknownAlphabet = errors.New("memstats: unknown histogram alphabet")

	// ErrBadBins indicates a non-positive histogram bin count.
	ErrBadBins = errors.New("memstats: bins must be positive")

	// ErrBadStackDepth indicates a stack depth outside [0, MaxStackDepth].
	ErrBadStackDepth = errors.New("memstats: stack depth out of range")

	// ErrBadChunkBytes indicates a chunk size too small to hold even one
	// event slot at the configured stack depth.
	ErrBadChunkBytes = errors.New("memstats: chunk bytes below one event slot")
)
