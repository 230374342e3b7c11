package memstats

import "time"

// Event is one recorded allocation or deallocation. Events are created at
// the hook entry points, appended to the engine's log once, and never
// mutated afterwards.
type Event struct {
	// Addr identifies the block. It is opaque to the engine and never
	// dereferenced.
	Addr uintptr

	// Size is the number of bytes requested. Zero marks a deallocation.
	Size uint64

	// When is the offset from engine start. Recorded for ordering and
	// debugging; aggregation does not use it.
	When time.Duration

	// G is the ID of the goroutine that performed the call.
	G int64

	// Frames holds the captured program counters, innermost first. Empty
	// when stack capture is disabled.
	Frames []uintptr
}
