// Package arena hands out fixed-size memory chunks mapped outside the Go
// heap. Recorded allocation events live in these chunks so that storing them
// neither re-enters an instrumented allocator nor adds GC pressure to the
// host program.
package arena

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultChunkBytes is the chunk size used when Options.ChunkBytes is zero.
const DefaultChunkBytes = 1 << 20

var (
	// ErrClosed indicates an allocation attempt on a closed arena.
	ErrClosed = errors.New("arena: closed")

	// ErrLimit indicates the configured mapped-byte ceiling was reached.
	ErrLimit = errors.New("arena: mapped-byte limit reached")
)

// Options configures an Arena.
type Options struct {
	// ChunkBytes is the size of each chunk. Defaults to DefaultChunkBytes.
	ChunkBytes int

	// MaxBytes caps the total bytes the arena will map. Zero means no limit.
	MaxBytes int64
}

// Arena is a recycling chunk allocator. Chunks come from anonymous memory
// mappings where the platform supports them and are reused after Recycle, so
// a steady record/report cycle settles on a fixed footprint.
type Arena struct {
	opts Options

	mu     sync.Mutex
	free   [][]byte
	mapped int64
	inUse  int64
	closed bool
}

// New creates an arena. It maps nothing until the first Alloc.
func New(opts Options) (*Arena, error) {
	if opts.ChunkBytes <= 0 {
		opts.ChunkBytes = DefaultChunkBytes
	}
	if opts.MaxBytes < 0 {
		return nil, fmt.Errorf("arena: negative byte limit %d", opts.MaxBytes)
	}
	if opts.MaxBytes > 0 && int64(opts.ChunkBytes) > opts.MaxBytes {
		return nil, fmt.Errorf("%w: chunk size %d exceeds limit %d",
			ErrLimit, opts.ChunkBytes, opts.MaxBytes)
	}
	return &Arena{opts: opts}, nil
}

// Alloc returns a zeroed chunk of ChunkBytes, reusing a recycled chunk when
// one is available. It fails with ErrLimit once MaxBytes worth of chunks are
// outstanding and with ErrClosed after Close.
func (a *Arena) Alloc() ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil, ErrClosed
	}
	if n := len(a.free); n > 0 {
		b := a.free[n-1]
		a.free = a.free[:n-1]
		a.inUse += int64(len(b))
		return b, nil
	}
	if a.opts.MaxBytes > 0 && a.mapped+int64(a.opts.ChunkBytes) > a.opts.MaxBytes {
		return nil, ErrLimit
	}
	b, err := mapChunk(a.opts.ChunkBytes)
	if err != nil {
		return nil, fmt.Errorf("arena: map chunk: %w", err)
	}
	a.mapped += int64(len(b))
	a.inUse += int64(len(b))
	return b, nil
}

// Recycle returns a chunk obtained from Alloc to the free list. It never
// fails; recycling after Close unmaps the chunk instead of pooling it.
func (a *Arena) Recycle(b []byte) {
	if b == nil {
		return
	}
	clear(b)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inUse -= int64(len(b))
	if a.closed {
		a.mapped -= int64(len(b))
		unmapChunk(b)
		return
	}
	a.free = append(a.free, b)
}

// Close unmaps all pooled chunks and rejects further allocations. Chunks
// still outstanding are unmapped when they are recycled. Close is
// idempotent; only the first call's error is reported.
func (a *Arena) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	var firstErr error
	for _, b := range a.free {
		a.mapped -= int64(len(b))
		if err := unmapChunk(b); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("arena: unmap chunk: %w", err)
		}
	}
	a.free = nil
	return firstErr
}

// MappedBytes reports the total bytes currently mapped, pooled or not.
func (a *Arena) MappedBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mapped
}

// InUseBytes reports the bytes handed out and not yet recycled.
func (a *Arena) InUseBytes() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inUse
}
