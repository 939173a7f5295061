package membuf

import (
	"bytes"
	"iter"
	"unsafe"
)

// View is a non-owning Buffer over externally supplied memory, held as a
// pointer+length pair. It never allocates, frees or tracks the liveness
// of the memory it wraps: the caller must keep the source alive, and
// unmutated by outside parties, for as long as the View is in use.
//
// Copying a View copies the (pointer, length) pair, not the referent.
type View struct {
	ptr  unsafe.Pointer
	size int
}

// NewView wraps size bytes of memory starting at ptr.
func NewView(ptr unsafe.Pointer, size int) *View {
	if size < 0 {
		size = 0
	}
	return &View{ptr: ptr, size: size}
}

// ViewOf wraps the memory of an existing byte slice. The View aliases
// b's backing array; it does not copy.
func ViewOf(b []byte) *View {
	if len(b) == 0 {
		return &View{}
	}
	return &View{ptr: unsafe.Pointer(&b[0]), size: len(b)}
}

// Len returns the length of the viewed region.
func (v *View) Len() int { return v.size }

// Addr returns the base address of the viewed region.
func (v *View) Addr() uintptr { return uintptr(v.ptr) }

// Bytes returns the viewed region as a slice sharing the same memory.
func (v *View) Bytes() []byte {
	if v.size == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(v.ptr), v.size)
}

// Sub returns a View over the sub-region [off, off+size).
func (v *View) Sub(off, size int) (*View, error) {
	if off < 0 || size < 0 || off > v.size-size {
		return nil, &ErrOutOfBounds{Len: v.size, End: off + size}
	}
	if size == 0 {
		return &View{}, nil
	}
	return &View{ptr: unsafe.Add(v.ptr, off), size: size}, nil
}

// SplitAt splits the view into [0, mid) and [mid, len).
func (v *View) SplitAt(mid int) (*View, *View, error) {
	if mid < 0 || mid > v.size {
		return nil, nil, &ErrOutOfBounds{Len: v.size, End: mid}
	}
	left, _ := v.Sub(0, mid)
	right, _ := v.Sub(mid, v.size-mid)
	return left, right, nil
}

// Clone returns a copy of the (pointer, length) pair. Both views refer
// to the same underlying memory.
func (v *View) Clone() *View {
	c := *v
	return &c
}

func (v *View) Read(off, n int) ([]byte, error) { return readRange(v.Bytes(), off, n) }

func (v *View) Write(off int, p []byte) error { return writeRange(v.Bytes(), off, p) }

func (v *View) StartsWith(p []byte) bool { return bytes.HasPrefix(v.Bytes(), p) }

func (v *View) EndsWith(p []byte) bool { return bytes.HasSuffix(v.Bytes(), p) }

func (v *View) Search(pat *Pattern) iter.Seq[int] { return searchSeq(v.Bytes(), pat) }

func (v *View) Contains(p []byte) bool { return bytes.Contains(v.Bytes(), p) }
