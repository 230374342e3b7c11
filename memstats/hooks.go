package memstats

import (
	"runtime"
	"time"

	"github.com/joshuapare/memkit/internal/goid"
)

// OnAlloc reports an allocation of size bytes at addr. It is called
// synchronously on the allocating goroutine by the interception layer,
// checks the gate first, and returns without side effects when recording is
// off. It never fails and never panics; an event the engine cannot store is
// dropped and counted.
func (e *Engine) OnAlloc(addr uintptr, size uint64) {
	if !e.gate.process.Load() {
		return
	}
	g := goid.ID()
	if !e.gate.goroutineOn(g) {
		return
	}
	e.record(addr, size, g)
}

// OnFree reports a deallocation of the block at addr. Deallocations are
// recorded with size zero; aggregation keeps them out of every count.
func (e *Engine) OnFree(addr uintptr) {
	if !e.gate.process.Load() {
		return
	}
	g := goid.ID()
	if !e.gate.goroutineOn(g) {
		return
	}
	e.record(addr, 0, g)
}

func (e *Engine) record(addr uintptr, size uint64, g int64) {
	var frames []uintptr
	if e.opts.StackDepth > 0 {
		var pcs [MaxStackDepth]uintptr
		// Skip runtime.Callers, record, and the hook: frame 0 is the
		// instrumented call site.
		n := runtime.Callers(3, pcs[:e.opts.StackDepth])
		frames = pcs[:n]
	}
	e.log.append(addr, size, time.Since(e.start), g, frames)
}
