// Package format renders sizes and counts with metric-style magnitude
// prefixes for report output.
package format

import (
	"errors"
	"fmt"
	"math/bits"
)

// prefixes holds the magnitude letters shared by byte and count scaling.
// Index 0 is a plain space so unscaled values keep the same column width.
var prefixes = [...]byte{' ', 'k', 'M', 'G', 'T', 'P', 'E', 'Z', 'Y', 'R', 'Q'}

// ErrPrefixRange indicates a magnitude beyond the supported prefix table.
// Scaling fails loudly rather than truncating silently. The table covers
// every magnitude a uint64 can reach, so Bytes and Count never actually
// return it; only a shorter table would.
var ErrPrefixRange = errors.New("format: magnitude exceeds metric prefix range")

// Bytes renders n as a byte quantity scaled to a binary (base-1024)
// magnitude prefix, e.g. 600 -> "600 B", 12288 -> "12kB". The scaled value
// is truncated, not rounded.
func Bytes(n uint64) (string, error) {
	base := 0
	if n > 0 {
		base = (bits.Len64(n) - 1) / 10
	}
	if base >= len(prefixes) {
		return "", ErrPrefixRange
	}
	return fmt.Sprintf("%d%cB", n>>(10*base), prefixes[base]), nil
}

// Count renders n scaled to a decimal (base-1000) magnitude prefix,
// e.g. 3 -> "3 ", 12000 -> "12k". The scaled value is truncated.
func Count(n uint64) (string, error) {
	base := 0
	for q := n; q >= 1000; q /= 1000 {
		base++
	}
	if base >= len(prefixes) {
		return "", ErrPrefixRange
	}
	q := n
	for range base {
		q /= 1000
	}
	return fmt.Sprintf("%d%c", q, prefixes[base]), nil
}
