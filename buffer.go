package membuf

import (
	"bytes"
	"iter"
)

// Buffer is the capability shared by both backing stores: a contiguous
// byte region with bounds-checked reads and writes and signature search.
//
// Reads are safe to perform concurrently as long as no goroutine mutates
// the buffer at the same time; mutation requires exclusive access.
// Typed access is provided by the free generic functions (Ref, Unaligned,
// WriteRef, ...) since Go methods cannot carry type parameters.
type Buffer interface {
	// Len returns the length of the region in bytes.
	Len() int
	// Bytes returns the whole region. The slice aliases the backing
	// store; for an Owned buffer it is valid only until the next
	// length-changing mutation.
	Bytes() []byte
	// Read returns a bounds-checked sub-slice [off, off+n).
	Read(off, n int) ([]byte, error)
	// Write copies p into the region at off. It never grows the region.
	Write(off int, p []byte) error
	// StartsWith reports whether the region begins with p.
	StartsWith(p []byte) bool
	// EndsWith reports whether the region ends with p.
	EndsWith(p []byte) bool
	// Search returns a lazy sequence of every offset where pat matches,
	// in ascending order, overlapping matches included. Ranging over the
	// sequence again re-scans from the start.
	Search(pat *Pattern) iter.Seq[int]
	// Contains reports whether the exact byte sequence p occurs anywhere
	// in the region.
	Contains(p []byte) bool
}

// readRange and writeRange hold the single bounds-check used by every
// implementation, so both stores fail identically.

func readRange(data []byte, off, n int) ([]byte, error) {
	if off < 0 || n < 0 || off > len(data)-n {
		return nil, &ErrOutOfBounds{Len: len(data), End: off + n}
	}
	return data[off : off+n : off+n], nil
}

func writeRange(data []byte, off int, p []byte) error {
	if off < 0 || off > len(data)-len(p) {
		return &ErrOutOfBounds{Len: len(data), End: off + len(p)}
	}
	copy(data[off:], p)
	return nil
}

// Fill sets every byte of the region to value.
func Fill(b Buffer, value byte) {
	data := b.Bytes()
	for i := range data {
		data[i] = value
	}
}

// Swap exchanges the bytes at offsets i and j.
func Swap(b Buffer, i, j int) error {
	data := b.Bytes()
	if i < 0 || i >= len(data) || j < 0 || j >= len(data) {
		return &ErrOutOfBounds{Len: len(data), End: max(i, j)}
	}
	data[i], data[j] = data[j], data[i]
	return nil
}

// Reverse reverses the region in place.
func Reverse(b Buffer) {
	data := b.Bytes()
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
}

// CopyWithin copies the range [src, src+n) over the range starting at
// dst, handling overlap like the built-in copy.
func CopyWithin(b Buffer, src, n, dst int) error {
	data := b.Bytes()
	if src < 0 || n < 0 || src > len(data)-n {
		return &ErrOutOfBounds{Len: len(data), End: src + n}
	}
	if dst < 0 || dst > len(data)-n {
		return &ErrOutOfBounds{Len: len(data), End: dst + n}
	}
	copy(data[dst:dst+n], data[src:src+n])
	return nil
}

// Equal reports whether two buffers hold identical bytes.
func Equal(a, b Buffer) bool {
	return bytes.Equal(a.Bytes(), b.Bytes())
}
