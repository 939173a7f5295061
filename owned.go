package membuf

import (
	"bytes"
	"fmt"
	"iter"
	"os"
)

// Owned is a Buffer backed by a growable, self-owned byte store.
//
// Length-changing operations (Append, Insert, Resize, ...) may relocate
// the storage; they bump an internal generation counter so that pinned
// references (see PinRef) detect staleness instead of silently reading
// the abandoned array. Plain slices obtained via Bytes or Read alias the
// storage as of the call and must not be held across such mutations.
//
// Cloning an Owned buffer duplicates its storage.
type Owned struct {
	data []byte
	gen  uint64
}

// NewOwned returns an empty owned buffer.
func NewOwned() *Owned { return &Owned{} }

// OwnedFrom returns an owned buffer initialized with a copy of b.
func OwnedFrom(b []byte) *Owned {
	return &Owned{data: bytes.Clone(b)}
}

// OwnedWithSize returns a zero-filled owned buffer of n bytes.
func OwnedWithSize(n int) *Owned {
	if n < 0 {
		n = 0
	}
	return &Owned{data: make([]byte, n)}
}

// OwnedFromFile reads the file at path into a new owned buffer.
// I/O failures are passed through wrapped.
func OwnedFromFile(path string) (*Owned, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("membuf: read %s: %w", path, err)
	}
	return &Owned{data: data}, nil
}

// Save writes the buffer contents to the file at path.
func (o *Owned) Save(path string) error {
	if err := os.WriteFile(path, o.data, 0o644); err != nil {
		return fmt.Errorf("membuf: write %s: %w", path, err)
	}
	return nil
}

// Len returns the current length of the buffer.
func (o *Owned) Len() int { return len(o.data) }

// Bytes returns the buffer contents. The slice is valid until the next
// length-changing mutation.
func (o *Owned) Bytes() []byte { return o.data }

// Generation returns the mutation generation. It increases on every
// operation that changes the buffer's length.
func (o *Owned) Generation() uint64 { return o.gen }

// View returns a non-owning View over the current storage. Like any
// slice of an Owned buffer, it is invalidated by length mutations.
func (o *Owned) View() *View { return ViewOf(o.data) }

// Clone returns a deep copy with independent storage.
func (o *Owned) Clone() *Owned { return OwnedFrom(o.data) }

// AppendBytes appends p to the end of the buffer, growing it.
func (o *Owned) AppendBytes(p []byte) {
	o.data = append(o.data, p...)
	o.gen++
}

// Push appends a single byte.
func (o *Owned) Push(b byte) {
	o.data = append(o.data, b)
	o.gen++
}

// Pop removes and returns the last byte. It reports false on an empty
// buffer.
func (o *Owned) Pop() (byte, bool) {
	if len(o.data) == 0 {
		return 0, false
	}
	b := o.data[len(o.data)-1]
	o.data = o.data[:len(o.data)-1]
	o.gen++
	return b, true
}

// Insert inserts p at off, shifting the tail right. off may equal Len to
// append.
func (o *Owned) Insert(off int, p []byte) error {
	if off < 0 || off > len(o.data) {
		return &ErrOutOfBounds{Len: len(o.data), End: off}
	}
	o.data = append(o.data[:off], append(append([]byte(nil), p...), o.data[off:]...)...)
	o.gen++
	return nil
}

// Remove deletes the range [off, off+n), shifting the tail left.
func (o *Owned) Remove(off, n int) error {
	if off < 0 || n < 0 || off > len(o.data)-n {
		return &ErrOutOfBounds{Len: len(o.data), End: off + n}
	}
	o.data = append(o.data[:off], o.data[off+n:]...)
	o.gen++
	return nil
}

// Resize grows or shrinks the buffer to n bytes, filling new space with
// value.
func (o *Owned) Resize(n int, value byte) {
	if n < 0 {
		n = 0
	}
	if n <= len(o.data) {
		o.data = o.data[:n]
	} else {
		grown := make([]byte, n)
		copy(grown, o.data)
		if value != 0 {
			for i := len(o.data); i < n; i++ {
				grown[i] = value
			}
		}
		o.data = grown
	}
	o.gen++
}

// Truncate shortens the buffer to n bytes. It is a no-op if n exceeds
// the current length.
func (o *Owned) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(o.data) {
		o.data = o.data[:n]
		o.gen++
	}
}

// Clear empties the buffer, retaining capacity.
func (o *Owned) Clear() {
	o.data = o.data[:0]
	o.gen++
}

// SplitOff splits the buffer at off, returning a new owned buffer with
// the tail [off, len). The receiver keeps [0, off).
func (o *Owned) SplitOff(off int) (*Owned, error) {
	if off < 0 || off > len(o.data) {
		return nil, &ErrOutOfBounds{Len: len(o.data), End: off}
	}
	tail := OwnedFrom(o.data[off:])
	o.data = o.data[:off]
	o.gen++
	return tail, nil
}

func (o *Owned) Read(off, n int) ([]byte, error) { return readRange(o.data, off, n) }

func (o *Owned) Write(off int, p []byte) error { return writeRange(o.data, off, p) }

func (o *Owned) StartsWith(p []byte) bool { return bytes.HasPrefix(o.data, p) }

func (o *Owned) EndsWith(p []byte) bool { return bytes.HasSuffix(o.data, p) }

func (o *Owned) Search(pat *Pattern) iter.Seq[int] { return searchSeq(o.data, pat) }

func (o *Owned) Contains(p []byte) bool { return bytes.Contains(o.data, p) }
