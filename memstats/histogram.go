package memstats

import (
	"fmt"
	"strings"
)

// Alphabet is an ordered symbol set used to draw histogram buckets. The
// first symbol stands for an empty bucket, the last for the busiest.
type Alphabet struct {
	name    string
	symbols []string
}

// Name returns the name the alphabet is registered under.
func (a Alphabet) Name() string { return a.name }

// Len returns the number of symbols.
func (a Alphabet) Len() int { return len(a.symbols) }

// Symbols returns a copy of the symbol set, dimmest first.
func (a Alphabet) Symbols() []string {
	out := make([]string, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// The built-in histogram alphabets.
var (
	Punctuation = Alphabet{"punctuation", []string{" ", ".", ":", "!"}}
	Circle      = Alphabet{"circle", []string{" ", ".", "o", "O"}}
	Shadow      = Alphabet{"shadow", []string{" ", "░", "▒", "▓", "█"}}
	Wire        = Alphabet{"wire", []string{" ", "-", "~", "=", "#"}}
	Box         = Alphabet{"box", []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}}
	Number      = Alphabet{"number", []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}}
)

var alphabets = map[string]Alphabet{
	Punctuation.name: Punctuation,
	Circle.name:      Circle,
	Shadow.name:      Shadow,
	Wire.name:        Wire,
	Box.name:         Box,
	Number.name:      Number,
}

// AlphabetByName returns the alphabet registered under name, or
// ErrUnknownAlphabet.
func AlphabetByName(name string) (Alphabet, error) {
	a, ok := alphabets[name]
	if !ok {
		return Alphabet{}, fmt.Errorf("%w: %q", ErrUnknownAlphabet, name)
	}
	return a, nil
}

// Alphabets returns the built-in alphabets sorted by name.
func Alphabets() []Alphabet {
	return []Alphabet{Box, Circle, Number, Punctuation, Shadow, Wire}
}

// renderHistogram distributes the size frequencies of s into bins
// equal-width buckets over [1, MaxSize] and renders one symbol per bucket.
// A size lands in bucket bins*(size-1)/MaxSize, which puts MaxSize itself in
// the final bucket once sizes span at least bins values. Bucket counts scale
// against the busiest bucket; the busiest clamps to the final symbol.
func renderHistogram(s *Stats, bins int, alpha Alphabet) string {
	hist := make([]uint64, bins)
	var busiest uint64
	for size, count := range s.SizeFreq {
		bin := uint64(bins) * (size - 1) / s.MaxSize
		hist[bin] += count
		if hist[bin] > busiest {
			busiest = hist[bin]
		}
	}
	k := uint64(alpha.Len())
	var sb strings.Builder
	for _, count := range hist {
		idx := uint64(0)
		if busiest > 0 {
			idx = count * k / busiest
		}
		if idx >= k {
			idx = k - 1
		}
		sb.WriteString(alpha.symbols[idx])
	}
	return sb.String()
}
