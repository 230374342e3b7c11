package memstats

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportEngine(t *testing.T, opts Options, out *bytes.Buffer) *Engine {
	t.Helper()
	opts.Output = out
	opts.SkipExitReport = true
	e, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestReportOnEmptyLogIsSilent(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{}, &out)

	require.NoError(t, e.Report("nothing"))
	assert.Zero(t, out.Len(), "an empty log must produce no output")

	// The silent call must not have consumed the one-time legend.
	e.EnableProcess()
	e.EnableGoroutine()
	e.OnAlloc(0x1, 64)
	require.NoError(t, e.Report("first"))
	assert.Equal(t, 1, strings.Count(out.String(), "MemStats Legend:"),
		"legend must still appear with the first non-empty report")
}

func TestReportLayout(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{
		EnableProcess:    true,
		EnableGoroutines: true,
		Bins:             4,
		Alphabet:         Punctuation,
	}, &out)

	for _, size := range []uint64{100, 100, 400} {
		e.OnAlloc(0x1000, size)
	}
	require.NoError(t, e.Report("scenario"))

	got := out.String()
	assert.Contains(t, got, "\n------------------- MemStats scenario -------------------\n")
	assert.Contains(t, got, "[!  :]400 B  |  600 B(3    ) | Total\n")
	assert.Contains(t, got, "| Goroutine ")
}

func TestReportLegendOncePerEngine(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{EnableProcess: true, EnableGoroutines: true}, &out)

	e.OnAlloc(0x1, 64)
	require.NoError(t, e.Report("one"))
	e.OnAlloc(0x2, 64)
	require.NoError(t, e.Report("two"))

	got := out.String()
	assert.Equal(t, 2, strings.Count(got, "------------------- MemStats"))
	assert.Equal(t, 1, strings.Count(got, "MemStats Legend:"), "legend renders at most once")
	assert.Equal(t, 1, strings.Count(got, "MemStats Histogram Legend:"))
}

func TestReportLegendSymbolRanges(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{
		EnableProcess:    true,
		EnableGoroutines: true,
		Alphabet:         Punctuation,
	}, &out)

	e.OnAlloc(0x1, 64)
	require.NoError(t, e.Report("legend"))

	got := out.String()
	assert.Contains(t, got, "  [{hist}]{max} | {total}({count}) | {label}\n")
	assert.Contains(t, got, "• ' ' -> [ 0.0%,  25.0%)\n")
	assert.Contains(t, got, "• '.' -> [25.0%,  50.0%)\n")
	assert.Contains(t, got, "• ':' -> [50.0%,  75.0%)\n")
	assert.Contains(t, got, "• '!' -> [75.0%, 100.0%]\n", "the final range is closed")
}

func TestReportGoroutineRowsSorted(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{EnableProcess: true, EnableGoroutines: true}, &out)

	e.OnAlloc(0x1, 128)
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.OnAlloc(0x2, 256)
	}()
	<-done

	require.NoError(t, e.Report("workers"))
	got := out.String()

	rows := regexp.MustCompile(`Goroutine (\d+)`).FindAllStringSubmatch(got, -1)
	require.Len(t, rows, 2, "one row per recording goroutine")
	first, err := strconv.ParseInt(rows[0][1], 10, 64)
	require.NoError(t, err)
	second, err := strconv.ParseInt(rows[1][1], 10, 64)
	require.NoError(t, err)
	assert.Less(t, first, second, "goroutine rows are ordered by ID")
}

func TestReportFrameRows(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{
		EnableProcess:    true,
		EnableGoroutines: true,
		StackDepth:       8,
	}, &out)

	recordOneAllocation(e)
	require.NoError(t, e.Report("frames"))

	got := out.String()
	assert.Contains(t, got, "recordOneAllocation",
		"frame rows must name the instrumented call site")
	assert.Regexp(t, `recordOneAllocation [^\s]+\.go:\d+`, got)
}

//go:noinline
func recordOneAllocation(e *Engine) {
	e.OnAlloc(0xbeef, 512)
}

func TestReportAfterDrainIsSilent(t *testing.T) {
	var out bytes.Buffer
	e := newReportEngine(t, Options{EnableProcess: true, EnableGoroutines: true}, &out)

	e.OnAlloc(0x1, 64)
	require.NoError(t, e.Report("first"))
	before := out.Len()

	require.NoError(t, e.Report("second"))
	assert.Equal(t, before, out.Len(), "a drained log reports nothing new")
}
