// Package memstats records heap allocation traffic and renders it as
// histogram reports.
//
// # Overview
//
// This package implements the recording half of an allocation profiler: an
// interception layer (a wrapped allocator, a runtime hook, an FFI shim)
// reports every allocation and deallocation to an Engine, which buffers the
// events off the Go heap and, on demand, aggregates them into per-scope
// statistics and prints a histogram report. The interception mechanism
// itself is out of scope; see TrackingAllocator for the in-process adapter.
//
// # Key Types
//
// The main types provided by this package are:
//
//   - Engine: the recording context holding the gate, the event log, and the
//     report configuration
//   - Options: engine configuration, also resolvable from MEMSTATS_*
//     environment variables via FromEnv
//   - Event: one recorded allocation or deallocation
//   - Batch: the detached contents of one drain
//   - Stats, Summary: aggregated counts, byte totals, and size frequencies
//   - Alphabet: an ordered symbol set used to draw histogram buckets
//   - TrackingAllocator: an Allocator wrapper that reports traffic to an
//     Engine
//
// # Recording
//
// Recording is gated twice: a process-wide flag and a per-goroutine flag,
// combined by logical AND. Both default to disabled. The process flag is the
// kill switch; the goroutine flag scopes instrumentation to the workloads
// under study:
//
//	eng, err := memstats.New(memstats.Options{EnableProcess: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Close()
//
//	eng.EnableGoroutine()
//	// ... allocate through an instrumented path ...
//	eng.Report("warmup")
//
// Hook entry points never fail and never panic: when the engine cannot store
// an event it drops it, counts the drop, and warns once.
//
// # Reports
//
// Report drains everything recorded so far and prints one line per scope
// (process total, each goroutine, each call-site frame when stack capture is
// enabled):
//
//	[   ▁█ ▂   ▁  ▁ ]12kB   |  745kB(231  ) | Total
//
// A report on an empty log prints nothing. The first non-empty report is
// followed by a legend explaining the columns and the symbol scale.
// WriteProfile offers the same drained data as a pprof profile instead.
//
// # Process-wide use
//
// The package-level functions mirror the Engine methods on a lazily
// constructed default engine configured from the environment, for programs
// that want instrumentation without plumbing an Engine through their code.
package memstats
