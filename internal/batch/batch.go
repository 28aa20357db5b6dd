// Package batch splits unbounded key lists into store-sized chunks.
//
// Chunks are contiguous sub-slices of the input (no copying) and every chunk but
// the last has exactly size elements. Separate chunks are applied by separate
// atomic calls, so a reader may observe a bulk operation half applied.
package batch

// Limit is the per-call key budget. It stays well below Redis' argument and
// Lua unpack ceilings.
const Limit = 1000

// Count returns how many chunks n items split into.
func Count(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size <= 0 {
		size = Limit
	}
	return (n + size - 1) / size
}

// Chunks partitions items into ceil(len/size) contiguous chunks.
// A non-positive size falls back to Limit. Empty input yields nil.
func Chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = Limit
	}
	out := make([][]T, 0, Count(len(items), size))
	for lo := 0; lo < len(items); lo += size {
		hi := min(lo+size, len(items))
		out = append(out, items[lo:hi:hi])
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Each calls fn for every chunk in order and stops at the first error.
func Each[T any](items []T, size int, fn func(chunk []T) error) error {
	for _, chunk := range Chunks(items, size) {
		if err := fn(chunk); err != nil {
			return err
		}
	}
	return nil
}
