// Package goid resolves the runtime ID of the calling goroutine.
package goid

import "runtime"

var stackPrefix = []byte("goroutine ")

// ID returns the calling goroutine's runtime ID.
//
// The ID is parsed from the first line of the goroutine's stack dump
// ("goroutine N [running]:"). The runtime does not reuse IDs, so the value is
// stable for the life of the goroutine and unique across the process. The
// dump is written into a fixed stack buffer, so the call does not allocate,
// but it is not free; callers sitting on a hot path should check cheaper
// conditions first.
func ID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	if len(b) < len(stackPrefix) {
		return 0
	}
	b = b[len(stackPrefix):]
	var id int64
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + int64(c-'0')
	}
	return id
}
