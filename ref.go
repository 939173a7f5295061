package membuf

import (
	"iter"
	"unsafe"
)

// Typed buffer accessors. These are free generic functions over Buffer
// because Go methods cannot carry their own type parameters.
//
// Accessors that hand out pointers (Ref, SliceRef, ForceRef) alias the
// buffer's storage: the pointer is valid only while the storage is. For
// an Owned buffer that means until the next length-changing mutation;
// use PinRef to get a handle that detects that instead of misbehaving.

// Ref reinterprets the bytes at off as a *T sharing the buffer's
// storage. The span [off, off+sizeof(T)) must lie inside the buffer and
// off must satisfy T's alignment relative to the buffer's base address.
func Ref[T any](b Buffer, off int) (*T, error) {
	var zero T
	span, err := b.Read(off, int(unsafe.Sizeof(zero)))
	if err != nil {
		return nil, err
	}
	return FromBytes[T](span)
}

// SliceRef reinterprets the bytes at off as a []T of n elements sharing
// the buffer's storage.
func SliceRef[T any](b Buffer, off, n int) ([]T, error) {
	var zero T
	if n < 0 {
		return nil, &ErrOutOfBounds{Len: b.Len(), End: n}
	}
	span, err := b.Read(off, int(unsafe.Sizeof(zero))*n)
	if err != nil {
		return nil, err
	}
	return SliceFromBytes[T](span, n)
}

// Unaligned builds an owned T by copying the bytes at off. It has no
// alignment requirement and the result does not alias the buffer.
func Unaligned[T any](b Buffer, off int) (T, error) {
	var zero T
	span, err := b.Read(off, int(unsafe.Sizeof(zero)))
	if err != nil {
		return zero, err
	}
	return FromBytesUnaligned[T](span)
}

// ForceRef reinterprets the bytes at off as a *T, checking bounds and
// castability but skipping the alignment check. On platforms that fault
// on misaligned loads, dereferencing the result can crash; prefer Ref or
// Unaligned unless the address is known to be aligned by construction.
func ForceRef[T any](b Buffer, off int) (*T, error) {
	if err := CheckCastable[T](); err != nil {
		return nil, err
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	span, err := b.Read(off, size)
	if err != nil {
		return nil, err
	}
	return (*T)(unsafe.Pointer(&span[0])), nil
}

// WriteRef copies v's byte representation into the buffer at off.
func WriteRef[T any](b Buffer, off int, v *T) error {
	raw, err := Bytes(v)
	if err != nil {
		return err
	}
	return b.Write(off, raw)
}

// WriteSliceRef copies s's byte representation into the buffer at off.
func WriteSliceRef[T any](b Buffer, off int, s []T) error {
	raw, err := SliceBytes(s)
	if err != nil {
		return err
	}
	return b.Write(off, raw)
}

// AppendRef appends v's byte representation to the owned buffer.
func AppendRef[T any](o *Owned, v *T) error {
	raw, err := Bytes(v)
	if err != nil {
		return err
	}
	o.AppendBytes(raw)
	return nil
}

// AppendSliceRef appends s's byte representation to the owned buffer.
func AppendSliceRef[T any](o *Owned, s []T) error {
	raw, err := SliceBytes(s)
	if err != nil {
		return err
	}
	o.AppendBytes(raw)
	return nil
}

// SearchRef searches the buffer for v's exact byte representation.
func SearchRef[T any](b Buffer, v *T) (iter.Seq[int], error) {
	raw, err := Bytes(v)
	if err != nil {
		return nil, err
	}
	return b.Search(Exact(raw)), nil
}

// SearchSliceRef searches the buffer for s's exact byte representation.
func SearchSliceRef[T any](b Buffer, s []T) (iter.Seq[int], error) {
	raw, err := SliceBytes(s)
	if err != nil {
		return nil, err
	}
	return b.Search(Exact(raw)), nil
}

// ContainsRef reports whether v's byte representation occurs in the
// buffer.
func ContainsRef[T any](b Buffer, v *T) (bool, error) {
	raw, err := Bytes(v)
	if err != nil {
		return false, err
	}
	return b.Contains(raw), nil
}

// StartsWithRef reports whether the buffer begins with v's byte
// representation.
func StartsWithRef[T any](b Buffer, v *T) (bool, error) {
	raw, err := Bytes(v)
	if err != nil {
		return false, err
	}
	return b.StartsWith(raw), nil
}

// EndsWithRef reports whether the buffer ends with v's byte
// representation.
func EndsWithRef[T any](b Buffer, v *T) (bool, error) {
	raw, err := Bytes(v)
	if err != nil {
		return false, err
	}
	return b.EndsWith(raw), nil
}

// OffsetOf resolves a pointer previously obtained from the buffer back
// to its byte offset. It fails with *ErrInvalidPointer if v does not
// point into the buffer's current storage.
func OffsetOf[T any](b Buffer, v *T) (int, error) {
	data := b.Bytes()
	if len(data) == 0 {
		return 0, &ErrInvalidPointer{Addr: uintptr(unsafe.Pointer(v))}
	}
	base := uintptr(unsafe.Pointer(&data[0]))
	addr := uintptr(unsafe.Pointer(v))
	var zero T
	size := uintptr(unsafe.Sizeof(zero))
	if addr < base || addr+size > base+uintptr(len(data)) {
		return 0, &ErrInvalidPointer{Addr: addr}
	}
	return int(addr - base), nil
}

// Pin is a generation-checked handle to a T inside an Owned buffer. It
// stays valid across in-place writes but refuses to resolve once the
// buffer's length has changed, returning ErrStaleRef instead of reading
// relocated storage.
type Pin[T any] struct {
	owner *Owned
	gen   uint64
	off   int
}

// PinRef pins the T at off in the owned buffer. The usual bounds,
// alignment and castability checks of Ref apply at pin time.
func PinRef[T any](o *Owned, off int) (*Pin[T], error) {
	if _, err := Ref[T](o, off); err != nil {
		return nil, err
	}
	return &Pin[T]{owner: o, gen: o.gen, off: off}, nil
}

// Offset returns the pinned byte offset.
func (p *Pin[T]) Offset() int { return p.off }

// Valid reports whether the pin still matches the buffer's generation.
func (p *Pin[T]) Valid() bool { return p.gen == p.owner.gen }

// Ptr resolves the pin to a live *T, or ErrStaleRef after a length
// mutation.
func (p *Pin[T]) Ptr() (*T, error) {
	if p.gen != p.owner.gen {
		return nil, ErrStaleRef
	}
	return Ref[T](p.owner, p.off)
}

// Get resolves the pin and returns a copy of the pinned value.
func (p *Pin[T]) Get() (T, error) {
	v, err := p.Ptr()
	if err != nil {
		var zero T
		return zero, err
	}
	return *v, nil
}

// Set resolves the pin and overwrites the pinned value in place.
func (p *Pin[T]) Set(v T) error {
	dst, err := p.Ptr()
	if err != nil {
		return err
	}
	*dst = v
	return nil
}
