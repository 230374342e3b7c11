//go:build !unix

package arena

// mapChunk falls back to heap chunks where anonymous mappings are not
// available. Recycling still bounds the footprint; the chunks merely live on
// the Go heap.
func mapChunk(n int) ([]byte, error) {
	return make([]byte, n), nil
}

func unmapChunk(b []byte) error {
	return nil
}
