package membuf

import (
	"math"
	"unsafe"
)

// Byte-view primitives: reinterpret castable values as raw bytes and
// back. These are the foundation every buffer accessor is built on.

// Bytes reinterprets v as its raw byte representation. The returned
// slice aliases v; its length is exactly unsafe.Sizeof(*v).
func Bytes[T any](v *T) ([]byte, error) {
	if err := CheckCastable[T](); err != nil {
		return nil, err
	}
	size := int(unsafe.Sizeof(*v))
	if size == 0 {
		return nil, nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), size), nil
}

// SliceBytes reinterprets s as its raw byte representation. The returned
// slice aliases s; its length is len(s) * unsafe.Sizeof(element).
func SliceBytes[T any](s []T) ([]byte, error) {
	if err := CheckCastable[T](); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, nil
	}
	size := int(unsafe.Sizeof(s[0])) * len(s)
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), size), nil
}

// FromBytes reinterprets the start of b as a *T sharing b's storage.
// It fails with *ErrNotEnoughData if b is shorter than T and with
// *ErrMisaligned if b's base address does not satisfy T's alignment.
func FromBytes[T any](b []byte) (*T, error) {
	if err := CheckCastable[T](); err != nil {
		return nil, err
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return new(T), nil
	}
	if len(b) < size {
		return nil, &ErrNotEnoughData{Need: size, Have: len(b)}
	}
	align := unsafe.Alignof(zero)
	addr := uintptr(unsafe.Pointer(&b[0]))
	if addr%align != 0 {
		return nil, &ErrMisaligned{Align: align, Addr: addr}
	}
	return (*T)(unsafe.Pointer(&b[0])), nil
}

// FromBytesUnaligned builds an owned T by copying bytes out of b. It has
// no alignment requirement; the trade is copy semantics instead of a
// shared reference.
func FromBytesUnaligned[T any](b []byte) (T, error) {
	var v T
	if err := CheckCastable[T](); err != nil {
		return v, err
	}
	size := int(unsafe.Sizeof(v))
	if size == 0 {
		return v, nil
	}
	if len(b) < size {
		return v, &ErrNotEnoughData{Need: size, Have: len(b)}
	}
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), size), b)
	return v, nil
}

// SliceFromBytes reinterprets the start of b as a []T of n elements
// sharing b's storage. Bounds and alignment are checked as in FromBytes.
func SliceFromBytes[T any](b []byte, n int) ([]T, error) {
	if err := CheckCastable[T](); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, &ErrOutOfBounds{Len: len(b), End: n}
	}
	if n == 0 {
		return nil, nil
	}
	var zero T
	elem := int(unsafe.Sizeof(zero))
	if elem == 0 {
		return make([]T, n), nil
	}
	// Divide instead of multiplying so a huge n cannot overflow the
	// byte count before the bounds check.
	if n > len(b)/elem {
		need := math.MaxInt
		if n <= math.MaxInt/elem {
			need = n * elem
		}
		return nil, &ErrNotEnoughData{Need: need, Have: len(b)}
	}
	align := unsafe.Alignof(zero)
	addr := uintptr(unsafe.Pointer(&b[0]))
	if addr%align != 0 {
		return nil, &ErrMisaligned{Align: align, Addr: addr}
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n), nil
}
