package memstats

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// Stats accumulates the allocation profile of one scope: the process, a
// goroutine, a full call stack, or a single frame.
type Stats struct {
	// Count is the number of allocations observed.
	Count uint64

	// TotalSize is the accumulated number of bytes requested.
	TotalSize uint64

	// MaxSize is the largest single request, which is also the largest key
	// in SizeFreq.
	MaxSize uint64

	// SizeFreq maps each distinct request size to the number of times it
	// was requested. The frequencies sum to Count.
	SizeFreq map[uint64]uint64
}

func newStats() *Stats {
	return &Stats{SizeFreq: make(map[uint64]uint64)}
}

// observe folds one allocation into the stats. Deallocations carry size zero
// and contribute nothing.
func (s *Stats) observe(size uint64) {
	if size == 0 {
		return
	}
	s.Count++
	s.TotalSize += size
	if size > s.MaxSize {
		s.MaxSize = size
	}
	s.SizeFreq[size]++
}

// StackStats pairs the stats of one full call stack with its frames.
type StackStats struct {
	Stats

	// Frames is the captured stack, innermost first.
	Frames []uintptr
}

// Summary is the result of aggregating one drained batch: overlapping views
// of the same events keyed by scope. An event with a captured stack of depth
// D lands in the global bucket, its goroutine's bucket, its stack's bucket,
// and D frame buckets.
type Summary struct {
	Global      Stats
	ByGoroutine map[int64]*Stats
	ByStack     map[uint64]*StackStats
	ByFrame     map[uintptr]*Stats

	// Events is the number of drained events, deallocations included.
	Events int

	// Dropped is the engine's running count of events lost to store
	// exhaustion, snapshotted at drain time.
	Dropped uint64
}

// aggregate consumes a drained batch into a Summary. Aggregation is one-shot:
// the caller releases the batch afterwards and drained data is never
// aggregated twice. Stack buckets are keyed by a hash of the raw frame
// sequence.
func aggregate(b *Batch) *Summary {
	sum := &Summary{
		Global:      Stats{SizeFreq: make(map[uint64]uint64)},
		ByGoroutine: make(map[int64]*Stats),
		ByStack:     make(map[uint64]*StackStats),
		ByFrame:     make(map[uintptr]*Stats),
		Events:      b.Len(),
	}
	b.forEachSlot(func(slot []byte) bool {
		size := binary.LittleEndian.Uint64(slot[slotSize:])
		if size == 0 {
			return true
		}
		sum.Global.observe(size)

		g := int64(binary.LittleEndian.Uint64(slot[slotG:]))
		gs := sum.ByGoroutine[g]
		if gs == nil {
			gs = newStats()
			sum.ByGoroutine[g] = gs
		}
		gs.observe(size)

		n := int(binary.LittleEndian.Uint64(slot[slotNStk:]))
		if n == 0 {
			return true
		}
		raw := slot[slotHeader : slotHeader+n*frameBytes]
		key := xxhash.Sum64(raw)
		ss := sum.ByStack[key]
		if ss == nil {
			ss = &StackStats{
				Stats:  Stats{SizeFreq: make(map[uint64]uint64)},
				Frames: decodeFrames(raw),
			}
			sum.ByStack[key] = ss
		}
		ss.observe(size)

		for i := range n {
			pc := uintptr(binary.LittleEndian.Uint64(raw[i*frameBytes:]))
			fs := sum.ByFrame[pc]
			if fs == nil {
				fs = newStats()
				sum.ByFrame[pc] = fs
			}
			fs.observe(size)
		}
		return true
	})
	return sum
}

func decodeFrames(raw []byte) []uintptr {
	frames := make([]uintptr, len(raw)/frameBytes)
	for i := range frames {
		frames[i] = uintptr(binary.LittleEndian.Uint64(raw[i*frameBytes:]))
	}
	return frames
}
