package memstats

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/memkit/internal/arena"
)

func newTestLog(t *testing.T, depth int, arenaOpts arena.Options) *eventLog {
	t.Helper()
	if arenaOpts.ChunkBytes == 0 {
		arenaOpts.ChunkBytes = 4096
	}
	a, err := arena.New(arenaOpts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return newEventLog(a, depth)
}

func collect(b *Batch) []Event {
	var events []Event
	b.Events(func(ev Event) bool {
		if ev.Frames != nil {
			frames := make([]uintptr, len(ev.Frames))
			copy(frames, ev.Frames)
			ev.Frames = frames
		}
		events = append(events, ev)
		return true
	})
	return events
}

func TestAppendThenDrainReturnsAll(t *testing.T) {
	l := newTestLog(t, 0, arena.Options{})

	const n = 1000
	for i := range n {
		require.True(t, l.append(uintptr(i), uint64(i%512), time.Duration(i), 7, nil))
	}

	b := l.drain()
	defer b.Release()
	require.Equal(t, n, b.Len())

	events := collect(b)
	require.Len(t, events, n)
	for i, ev := range events {
		assert.Equal(t, uintptr(i), ev.Addr, "append order must be preserved")
		assert.Equal(t, uint64(i%512), ev.Size)
		assert.Equal(t, time.Duration(i), ev.When)
		assert.Equal(t, int64(7), ev.G)
		assert.Nil(t, ev.Frames)
	}
}

func TestSecondDrainIsEmpty(t *testing.T) {
	l := newTestLog(t, 0, arena.Options{})

	require.True(t, l.append(1, 64, 0, 1, nil))
	first := l.drain()
	assert.Equal(t, 1, first.Len())
	first.Release()

	second := l.drain()
	defer second.Release()
	assert.Zero(t, second.Len(), "drain must leave the log empty")
}

func TestConcurrentAppends(t *testing.T) {
	l := newTestLog(t, 0, arena.Options{})

	const (
		goroutines = 8
		perG       = 500
	)
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perG {
				l.append(uintptr(g*perG+i), 32, 0, int64(g), nil)
			}
		}()
	}
	wg.Wait()

	b := l.drain()
	defer b.Release()
	require.Equal(t, goroutines*perG, b.Len(), "no event may be lost or duplicated")

	seen := make(map[uintptr]bool, goroutines*perG)
	b.Events(func(ev Event) bool {
		assert.False(t, seen[ev.Addr], "event %#x duplicated", ev.Addr)
		seen[ev.Addr] = true
		return true
	})
	assert.Len(t, seen, goroutines*perG)
}

func TestAppendRollsOverChunks(t *testing.T) {
	l := newTestLog(t, 0, arena.Options{ChunkBytes: 256})
	perChunk := 256 / l.slotBytes

	n := perChunk*3 + 1
	for i := range n {
		require.True(t, l.append(uintptr(i), 8, 0, 1, nil))
	}

	b := l.drain()
	defer b.Release()
	assert.Equal(t, n, b.Len())
	assert.Len(t, b.chunks, 4, "expected three full chunks plus one")
}

func TestAppendDropsWhenExhausted(t *testing.T) {
	l := newTestLog(t, 0, arena.Options{ChunkBytes: 256, MaxBytes: 256})
	perChunk := 256 / l.slotBytes

	stored := 0
	for range perChunk + 5 {
		if l.append(1, 8, 0, 1, nil) {
			stored++
		}
	}
	assert.Equal(t, perChunk, stored, "one chunk's worth fits")
	assert.Equal(t, uint64(5), l.dropped.Load(), "the rest is dropped and counted")

	b := l.drain()
	defer b.Release()
	assert.Equal(t, perChunk, b.Len())
}

func TestFramesRoundTrip(t *testing.T) {
	const depth = 4
	l := newTestLog(t, depth, arena.Options{})

	frames := []uintptr{0x1000, 0x2000, 0x3000}
	overlong := []uintptr{1, 2, 3, 4, 5, 6}
	require.True(t, l.append(1, 64, 0, 1, frames))
	require.True(t, l.append(2, 64, 0, 1, overlong))
	require.True(t, l.append(3, 64, 0, 1, nil))

	b := l.drain()
	defer b.Release()
	events := collect(b)
	require.Len(t, events, 3)

	assert.Equal(t, frames, events[0].Frames)
	assert.Equal(t, overlong[:depth], events[1].Frames, "capture truncates at the configured depth")
	assert.Nil(t, events[2].Frames)
}

func TestReleaseReturnsChunks(t *testing.T) {
	a, err := arena.New(arena.Options{ChunkBytes: 256})
	require.NoError(t, err)
	defer a.Close()
	l := newEventLog(a, 0)

	for i := range 100 {
		require.True(t, l.append(uintptr(i), 8, 0, 1, nil))
	}
	require.Positive(t, a.InUseBytes())

	b := l.drain()
	b.Release()
	assert.Zero(t, a.InUseBytes(), "released batches hand their chunks back")
}
