package memstats

import "unsafe"

// Allocator is the minimal surface of a host allocator the tracking adapter
// can wrap.
type Allocator interface {
	// Allocate returns a block of size bytes, or nil when the underlying
	// source cannot satisfy the request.
	Allocate(size int) []byte

	// Free returns a block obtained from Allocate.
	Free(b []byte)
}

// HeapAllocator allocates from the Go heap and lets the garbage collector
// reclaim freed blocks.
type HeapAllocator struct{}

func (HeapAllocator) Allocate(size int) []byte { return make([]byte, size) }

func (HeapAllocator) Free([]byte) {}

// TrackingAllocator wraps a base Allocator and reports its traffic to an
// Engine. It is the in-process interception layer: hosts that route their
// allocations through an Allocator get instrumentation by swapping this in.
// Base failures pass through untouched; recording failures never reach the
// caller.
type TrackingAllocator struct {
	base Allocator
	eng  *Engine
}

// NewTrackingAllocator wraps base so that every Allocate and Free is
// reported to eng.
func NewTrackingAllocator(base Allocator, eng *Engine) *TrackingAllocator {
	return &TrackingAllocator{base: base, eng: eng}
}

// Allocate obtains a block from the base allocator and records the request.
// Empty blocks have no stable address and are not recorded. When the gate is
// closed the overhead is one atomic load.
func (t *TrackingAllocator) Allocate(size int) []byte {
	b := t.base.Allocate(size)
	if len(b) > 0 {
		t.eng.OnAlloc(blockAddr(b), uint64(size))
	}
	return b
}

// Free records the deallocation and returns the block to the base allocator.
func (t *TrackingAllocator) Free(b []byte) {
	if len(b) > 0 {
		t.eng.OnFree(blockAddr(b))
	}
	t.base.Free(b)
}

// blockAddr identifies a block by its backing array. The engine treats it as
// opaque and never dereferences it.
func blockAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

var (
	_ Allocator = HeapAllocator{}
	_ Allocator = (*TrackingAllocator)(nil)
)
