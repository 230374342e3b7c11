package memstats

import (
	"encoding/binary"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joshuapare/memkit/internal/arena"
)

// Events are packed into fixed-size slots written sequentially into arena
// chunks. Slot layout, little-endian:
//
//	[0]  address
//	[8]  size (0 = deallocation)
//	[16] nanoseconds since engine start
//	[24] goroutine ID
//	[32] captured frame count
//	[40] frames, frameBytes each, up to the configured depth
const (
	slotAddr   = 0
	slotSize   = 8
	slotWhen   = 16
	slotG      = 24
	slotNStk   = 32
	slotHeader = 40
	frameBytes = 8
)

// eventLog is the shared append-only store of not-yet-reported events. The
// append critical section is a cursor bump and a fixed-size copy; chunk
// acquisition is amortized over the slots a chunk holds.
type eventLog struct {
	arena     *arena.Arena
	depth     int
	slotBytes int

	mu     sync.Mutex
	chunks [][]byte
	off    int // write offset into the last chunk
	count  int

	dropped    atomic.Uint64
	dropWarned atomic.Bool
}

// eventSlotBytes is the slot size for events carrying depth frames.
func eventSlotBytes(depth int) int {
	return slotHeader + depth*frameBytes
}

func newEventLog(a *arena.Arena, depth int) *eventLog {
	return &eventLog{
		arena:     a,
		depth:     depth,
		slotBytes: eventSlotBytes(depth),
	}
}

// append records one event. It reports false when the event was dropped
// because no chunk could be provided; the drop is counted and warned about
// once per log, never surfaced to the allocation path.
func (l *eventLog) append(addr uintptr, size uint64, when time.Duration, g int64, frames []uintptr) bool {
	l.mu.Lock()
	if len(l.chunks) == 0 || l.off+l.slotBytes > len(l.chunks[len(l.chunks)-1]) {
		chunk, err := l.arena.Alloc()
		if err != nil {
			l.mu.Unlock()
			l.dropped.Add(1)
			if l.dropWarned.CompareAndSwap(false, true) {
				log.WithError(err).Warn("memstats: dropping events, event store exhausted")
			}
			return false
		}
		l.chunks = append(l.chunks, chunk)
		l.off = 0
	}
	cur := l.chunks[len(l.chunks)-1]
	slot := cur[l.off : l.off+l.slotBytes]
	binary.LittleEndian.PutUint64(slot[slotAddr:], uint64(addr))
	binary.LittleEndian.PutUint64(slot[slotSize:], size)
	binary.LittleEndian.PutUint64(slot[slotWhen:], uint64(when))
	binary.LittleEndian.PutUint64(slot[slotG:], uint64(g))
	n := min(len(frames), l.depth)
	binary.LittleEndian.PutUint64(slot[slotNStk:], uint64(n))
	for i := range n {
		binary.LittleEndian.PutUint64(slot[slotHeader+i*frameBytes:], uint64(frames[i]))
	}
	l.off += l.slotBytes
	l.count++
	l.mu.Unlock()
	return true
}

// drain atomically detaches everything appended so far and resets the log to
// empty. An append racing with drain lands entirely in one side or the
// other; nothing is torn, duplicated, or lost.
func (l *eventLog) drain() *Batch {
	l.mu.Lock()
	b := &Batch{
		arena:     l.arena,
		chunks:    l.chunks,
		lastOff:   l.off,
		slotBytes: l.slotBytes,
		count:     l.count,
	}
	l.chunks = nil
	l.off = 0
	l.count = 0
	l.mu.Unlock()
	return b
}

// Batch is the detached content of one drain. It owns its chunks until
// Release hands them back to the arena; exactly one consumer aggregates or
// iterates it.
type Batch struct {
	arena     *arena.Arena
	chunks    [][]byte
	lastOff   int
	slotBytes int
	count     int
	scratch   []uintptr
}

// Len returns the number of events in the batch, deallocations included.
func (b *Batch) Len() int { return b.count }

// Events calls yield for every event in append order until yield returns
// false. The Frames slice is reused between calls; callers must copy it if
// it has to outlive the callback.
func (b *Batch) Events(yield func(Event) bool) {
	b.forEachSlot(func(slot []byte) bool {
		ev := Event{
			Addr: uintptr(binary.LittleEndian.Uint64(slot[slotAddr:])),
			Size: binary.LittleEndian.Uint64(slot[slotSize:]),
			When: time.Duration(binary.LittleEndian.Uint64(slot[slotWhen:])),
			G:    int64(binary.LittleEndian.Uint64(slot[slotG:])),
		}
		if n := int(binary.LittleEndian.Uint64(slot[slotNStk:])); n > 0 {
			if cap(b.scratch) < n {
				b.scratch = make([]uintptr, n)
			}
			b.scratch = b.scratch[:n]
			for i := range n {
				b.scratch[i] = uintptr(binary.LittleEndian.Uint64(slot[slotHeader+i*frameBytes:]))
			}
			ev.Frames = b.scratch
		}
		return yield(ev)
	})
}

// forEachSlot walks raw slots. Full chunks hold as many whole slots as fit;
// the final chunk is filled up to lastOff.
func (b *Batch) forEachSlot(visit func(slot []byte) bool) {
	for i, chunk := range b.chunks {
		limit := len(chunk) / b.slotBytes * b.slotBytes
		if i == len(b.chunks)-1 {
			limit = b.lastOff
		}
		for off := 0; off < limit; off += b.slotBytes {
			if !visit(chunk[off : off+b.slotBytes]) {
				return
			}
		}
	}
}

// Release recycles the batch's chunks. The batch and any Frames slices
// obtained from it must not be used afterwards.
func (b *Batch) Release() {
	for _, chunk := range b.chunks {
		b.arena.Recycle(chunk)
	}
	b.chunks = nil
	b.count = 0
	b.scratch = nil
}
