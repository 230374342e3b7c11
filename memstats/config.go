package memstats

import (
	"io"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/joshuapare/memkit/internal/arena"
)

// Configuration defaults and limits.
const (
	DefaultBins = 15

	// MaxStackDepth caps how many frames an event can carry.
	MaxStackDepth = 32
)

// The environment variables read by FromEnv.
const (
	EnvEnable        = "MEMSTATS_ENABLE_INSTRUMENTATION"
	EnvGoroutineInit = "MEMSTATS_GOROUTINE_INSTRUMENTATION_INIT"
	EnvReportAtExit  = "MEMSTATS_REPORT_AT_EXIT"
	EnvHistogram     = "MEMSTATS_HISTOGRAM_REPRESENTATION"
	EnvBins          = "MEMSTATS_BINS"
	EnvStackDepth    = "MEMSTATS_STACK_DEPTH"
	EnvMaxBytes      = "MEMSTATS_MAX_BYTES"
)

// Options configures an Engine. The zero value matches the documented
// defaults: recording disabled, goroutines disabled by default, a final
// report on Close, box histograms with 15 bins, no stack capture, and
// reports on standard output.
type Options struct {
	// EnableProcess sets the initial state of the process-wide flag.
	EnableProcess bool

	// EnableGoroutines sets the default flag for goroutines that never
	// toggled their own.
	EnableGoroutines bool

	// SkipExitReport suppresses the final report Close produces.
	SkipExitReport bool

	// Alphabet selects the histogram symbol set. Defaults to Box.
	Alphabet Alphabet

	// Bins is the number of histogram buckets. Defaults to DefaultBins.
	Bins int

	// StackDepth is the number of call frames captured per event, at most
	// MaxStackDepth. Zero disables stack capture.
	StackDepth int

	// ChunkBytes sizes the event store's chunks. Defaults to the arena's
	// chunk size. A nonzero value must hold at least one event slot for
	// the configured StackDepth.
	ChunkBytes int

	// MaxBytes caps the bytes the event store may hold. Events beyond the
	// cap are dropped and counted. Zero means no cap.
	MaxBytes int64

	// Output receives reports. Defaults to os.Stdout.
	Output io.Writer
}

// FromEnv resolves Options from the MEMSTATS_* environment variables.
// Malformed values fall back on their documented defaults with a warning;
// FromEnv never fails, so the options it returns are always accepted by New.
func FromEnv() Options {
	opts := Options{
		EnableProcess:    envBool(EnvEnable, false),
		EnableGoroutines: envBool(EnvGoroutineInit, false),
		SkipExitReport:   !envBool(EnvReportAtExit, true),
		Alphabet:         envAlphabet(EnvHistogram),
		Bins:             envPositiveInt(EnvBins, DefaultBins),
	}
	if v, ok := os.LookupEnv(EnvStackDepth); ok {
		n, err := strconv.Atoi(v)
		switch {
		case err != nil || n < 0:
			warnOption(EnvStackDepth, v, "0")
		case n > MaxStackDepth:
			warnOption(EnvStackDepth, v, strconv.Itoa(MaxStackDepth))
			opts.StackDepth = MaxStackDepth
		default:
			opts.StackDepth = n
		}
	}
	if v, ok := os.LookupEnv(EnvMaxBytes); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		switch {
		case err != nil || n < 0:
			warnOption(EnvMaxBytes, v, "0")
		case n > 0 && n < arena.DefaultChunkBytes:
			// Below one chunk nothing could ever be stored.
			warnOption(EnvMaxBytes, v, strconv.Itoa(arena.DefaultChunkBytes))
			opts.MaxBytes = arena.DefaultChunkBytes
		default:
			opts.MaxBytes = n
		}
	}
	return opts
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	switch v {
	case "true", "1":
		return true
	case "false", "0":
		return false
	}
	warnOption(key, v, strconv.FormatBool(def))
	return def
}

func envAlphabet(key string) Alphabet {
	v, ok := os.LookupEnv(key)
	if !ok {
		return Box
	}
	a, err := AlphabetByName(v)
	if err != nil {
		warnOption(key, v, Box.Name())
		return Box
	}
	return a
}

func envPositiveInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		warnOption(key, v, strconv.Itoa(def))
		return def
	}
	return n
}

func warnOption(key, value, fallback string) {
	log.WithFields(log.Fields{"option": key, "value": value}).
		Warnf("memstats: option not known, falling back on default %q", fallback)
}
