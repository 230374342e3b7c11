package memstats

import (
	"sync"
	"sync/atomic"

	"github.com/joshuapare/memkit/internal/goid"
)

// gate is the two-level recording switch: a process-wide atomic flag and a
// per-goroutine flag, combined by logical AND. The process flag is the cheap
// kill switch checked first on every hook call; the goroutine registry only
// holds entries for goroutines whose flag diverges from the configured
// default, so an untouched goroutine costs one atomic load and one map miss.
type gate struct {
	process   atomic.Bool
	defaultOn bool
	perG      sync.Map // goroutine ID -> bool
}

func (g *gate) enableProcess() bool {
	return g.process.Swap(true)
}

func (g *gate) disableProcess() bool {
	return g.process.Swap(false)
}

// setGoroutine flips the flag for goroutine id and returns the previous
// value. Setting a goroutine back to the default removes its entry.
func (g *gate) setGoroutine(id int64, on bool) bool {
	prev := g.goroutineOn(id)
	if on == g.defaultOn {
		g.perG.Delete(id)
	} else {
		g.perG.Store(id, on)
	}
	return prev
}

func (g *gate) goroutineOn(id int64) bool {
	if v, ok := g.perG.Load(id); ok {
		return v.(bool)
	}
	return g.defaultOn
}

// EnableProcess atomically enables recording process-wide and returns the
// previous state. The engine's log exists before any caller can hold an
// Engine, so a goroutine observing the flag as enabled can always record
// safely.
func (e *Engine) EnableProcess() bool {
	return e.gate.enableProcess()
}

// DisableProcess atomically disables recording process-wide and returns the
// previous state.
func (e *Engine) DisableProcess() bool {
	return e.gate.disableProcess()
}

// EnableGoroutine enables recording for the calling goroutine and returns
// the previous state of its flag. The flag outlives the goroutine; workers
// that toggled it should restore the previous value before exiting.
func (e *Engine) EnableGoroutine() bool {
	return e.gate.setGoroutine(goid.ID(), true)
}

// DisableGoroutine disables recording for the calling goroutine and returns
// the previous state of its flag.
func (e *Engine) DisableGoroutine() bool {
	return e.gate.setGoroutine(goid.ID(), false)
}

// ShouldRecord reports whether a hook call on the current goroutine would
// record an event: the process flag and the calling goroutine's flag must
// both be enabled. With the process flag off this is a single atomic load.
func (e *Engine) ShouldRecord() bool {
	if !e.gate.process.Load() {
		return false
	}
	return e.gate.goroutineOn(goid.ID())
}
