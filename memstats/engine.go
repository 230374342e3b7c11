package memstats

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/joshuapare/memkit/internal/arena"
)

// Engine is the recording context: the gate, the event store, and the report
// configuration, built in an order that makes partially-constructed state
// unobservable. Hook methods are safe from any goroutine; Report, Snapshot,
// and WriteProfile serialize against each other internally.
type Engine struct {
	opts  Options
	start time.Time
	out   io.Writer

	arena *arena.Arena
	log   *eventLog
	gate  gate
	sym   *symbolizer

	reportMu   sync.Mutex
	legendOnce sync.Once
	closeOnce  sync.Once
	closeErr   error
}

// New builds an Engine. The event store exists before the process flag can
// be set, so no caller can ever observe recording as enabled while the log
// is missing. Option misconfiguration that FromEnv would have repaired is an
// error here.
func New(opts Options) (*Engine, error) {
	if opts.Bins == 0 {
		opts.Bins = DefaultBins
	}
	if opts.Bins < 0 {
		return nil, fmt.Errorf("%w, got %d", ErrBadBins, opts.Bins)
	}
	if opts.StackDepth < 0 || opts.StackDepth > MaxStackDepth {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", ErrBadStackDepth, opts.StackDepth, MaxStackDepth)
	}
	if slot := eventSlotBytes(opts.StackDepth); opts.ChunkBytes != 0 && opts.ChunkBytes < slot {
		return nil, fmt.Errorf("%w: %d < %d at stack depth %d", ErrBadChunkBytes, opts.ChunkBytes, slot, opts.StackDepth)
	}
	if opts.Alphabet.Len() == 0 {
		opts.Alphabet = Box
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	a, err := arena.New(arena.Options{ChunkBytes: opts.ChunkBytes, MaxBytes: opts.MaxBytes})
	if err != nil {
		return nil, fmt.Errorf("memstats: event store: %w", err)
	}
	sym, err := newSymbolizer()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("memstats: symbolizer: %w", err)
	}

	e := &Engine{
		opts:  opts,
		start: time.Now(),
		out:   opts.Output,
		arena: a,
		log:   newEventLog(a, opts.StackDepth),
		sym:   sym,
	}
	e.gate.defaultOn = opts.EnableGoroutines

	// Last: everything a recording goroutine needs is in place.
	if opts.EnableProcess {
		e.gate.enableProcess()
	}
	return e, nil
}

// Dropped reports how many events were lost to event-store exhaustion.
func (e *Engine) Dropped() uint64 {
	return e.log.dropped.Load()
}

// Snapshot drains everything recorded so far and aggregates it. The drained
// events are consumed: they appear in no later snapshot or report.
func (e *Engine) Snapshot() *Summary {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() *Summary {
	b := e.log.drain()
	defer b.Release()
	sum := aggregate(b)
	sum.Dropped = e.log.dropped.Load()
	return sum
}

// Close shuts the engine down: it forces the process flag off, produces the
// final report unless SkipExitReport is set, and releases the event store.
// The order matters; recording must be impossible before teardown starts,
// and the store must be alive for the final report. Close is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.gate.disableProcess()
		if !e.opts.SkipExitReport {
			e.closeErr = e.Report("default")
		}
		e.log.drain().Release()
		if err := e.arena.Close(); err != nil && e.closeErr == nil {
			e.closeErr = err
		}
	})
	return e.closeErr
}

// The default engine backing the package-level API, configured from the
// environment on first use.
var defaultEngine = sync.OnceValue(func() *Engine {
	e, err := New(FromEnv())
	if err != nil {
		log.WithError(err).Warn("memstats: falling back on zero-value options")
		e, _ = New(Options{})
	}
	return e
})

// Default returns the process-wide engine, building it from the environment
// on first use.
func Default() *Engine { return defaultEngine() }

// EnableProcess enables recording on the default engine and returns the
// previous state.
func EnableProcess() bool { return Default().EnableProcess() }

// DisableProcess disables recording on the default engine and returns the
// previous state.
func DisableProcess() bool { return Default().DisableProcess() }

// EnableGoroutine enables recording for the calling goroutine on the default
// engine and returns the previous state of its flag.
func EnableGoroutine() bool { return Default().EnableGoroutine() }

// DisableGoroutine disables recording for the calling goroutine on the
// default engine and returns the previous state of its flag.
func DisableGoroutine() bool { return Default().DisableGoroutine() }

// ShouldRecord reports whether the default engine would record a hook call
// on the current goroutine.
func ShouldRecord() bool { return Default().ShouldRecord() }

// OnAlloc reports an allocation to the default engine.
func OnAlloc(addr uintptr, size uint64) { Default().OnAlloc(addr, size) }

// OnFree reports a deallocation to the default engine.
func OnFree(addr uintptr) { Default().OnFree(addr) }

// Report drains the default engine and prints a report under label.
func Report(label string) error { return Default().Report(label) }

// Close shuts down the default engine.
func Close() error { return Default().Close() }
