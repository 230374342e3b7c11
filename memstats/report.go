package memstats

import (
	"bytes"
	"fmt"
	"io"
	"slices"

	"github.com/joshuapare/memkit/internal/format"
)

// Report drains everything recorded so far and prints it to the engine's
// output under label: the process total, then each goroutine with a nonzero
// byte total, then each call-site frame with a nonzero byte total when stack
// capture is enabled. An empty log produces no output at all. The first
// non-empty report is followed once by the legend.
//
// Report serializes against itself, Snapshot, and WriteProfile, but an
// allocation recorded concurrently with the call may land in either this
// report or the next; callers wanting an exact cut must quiesce their
// instrumented goroutines first.
func (e *Engine) Report(label string) error {
	e.reportMu.Lock()
	defer e.reportMu.Unlock()
	sum := e.snapshotLocked()
	if sum.Events == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := e.render(&buf, sum, label); err != nil {
		return err
	}
	e.legendOnce.Do(func() { e.writeLegend(&buf) })
	_, err := e.out.Write(buf.Bytes())
	return err
}

func (e *Engine) render(w io.Writer, sum *Summary, label string) error {
	fmt.Fprintf(w, "\n------------------- MemStats %s -------------------\n", label)

	if err := e.renderLine(w, &sum.Global, "Total"); err != nil {
		return err
	}

	ids := make([]int64, 0, len(sum.ByGoroutine))
	for id := range sum.ByGoroutine {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		gs := sum.ByGoroutine[id]
		if gs.TotalSize == 0 {
			continue
		}
		if err := e.renderLine(w, gs, fmt.Sprintf("Goroutine %d", id)); err != nil {
			return err
		}
	}

	pcs := make([]uintptr, 0, len(sum.ByFrame))
	for pc := range sum.ByFrame {
		pcs = append(pcs, pc)
	}
	slices.Sort(pcs)
	for _, pc := range pcs {
		fs := sum.ByFrame[pc]
		if fs.TotalSize == 0 {
			continue
		}
		if err := e.renderLine(w, fs, e.sym.lookup(pc).String()); err != nil {
			return err
		}
	}
	return nil
}

// renderLine writes one report row. Scaling failures surface here, confined
// to the report call, never to the hook path.
func (e *Engine) renderLine(w io.Writer, s *Stats, label string) error {
	maxSize, err := format.Bytes(s.MaxSize)
	if err != nil {
		return err
	}
	total, err := format.Bytes(s.TotalSize)
	if err != nil {
		return err
	}
	count, err := format.Count(s.Count)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "[%s]%-6s | %6s(%-5s) | %s\n",
		renderHistogram(s, e.opts.Bins, e.opts.Alphabet), maxSize, total, count, label)
	return err
}

func (e *Engine) writeLegend(w io.Writer) {
	fmt.Fprint(w, "\nMemStats Legend:\n\n")
	fmt.Fprint(w, "  [{hist}]{max} | {total}({count}) | {label}\n\n")
	fmt.Fprint(w, "• hist:   distribution of allocation counts across the request size range\n")
	fmt.Fprint(w, "• max:    largest single allocation observed\n")
	fmt.Fprint(w, "• total:  accumulated bytes requested\n")
	fmt.Fprint(w, "• count:  number of allocation requests\n")
	fmt.Fprint(w, "• label:  scope of the measurement\n")
	fmt.Fprint(w, "\nMemStats Histogram Legend:\n\n")
	k := e.opts.Alphabet.Len()
	width := 100.0 / float64(k)
	for i, sym := range e.opts.Alphabet.symbols {
		closing := byte(')')
		if i == k-1 {
			closing = ']'
		}
		fmt.Fprintf(w, "• '%s' -> [%4.1f%%, %5.1f%%%c\n",
			sym, float64(i)*width, float64(i+1)*width, closing)
	}
}
