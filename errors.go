package membuf

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrStaleRef is returned when a pinned reference is used after the
	// owning buffer has grown, shrunk or relocated its storage.
	ErrStaleRef = errors.New("membuf: stale reference: buffer mutated since pin")

	// ErrInvalidPattern is returned when a search pattern cannot be parsed.
	ErrInvalidPattern = errors.New("membuf: invalid pattern")
)

// ErrOutOfBounds indicates an access past the end of a buffer region.
type ErrOutOfBounds struct {
	Len int // length of the region
	End int // requested end offset
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("out of bounds: boundary is %#x, got %#x", e.Len, e.End)
}

// ErrMisaligned indicates a reference cast at an address that does not
// satisfy the target type's alignment.
type ErrMisaligned struct {
	Align uintptr // required alignment
	Addr  uintptr // offending address
}

func (e *ErrMisaligned) Error() string {
	return fmt.Sprintf("misaligned: address %#x is not %d-byte aligned", e.Addr, e.Align)
}

// ErrNotEnoughData indicates a byte span shorter than the target type.
type ErrNotEnoughData struct {
	Need int
	Have int
}

func (e *ErrNotEnoughData) Error() string {
	return fmt.Sprintf("not enough data: need %d bytes, have %d", e.Need, e.Have)
}

// ErrNotCastable indicates a type that does not satisfy the castability
// contract. Reason names the violating rule; for aggregate types the
// offending field is reported via the wrapped cause.
type ErrNotCastable struct {
	Type   reflect.Type
	Reason string
	cause  error
}

func (e *ErrNotCastable) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("type %s is not castable: %s: %v", e.Type, e.Reason, e.cause)
	}
	return fmt.Sprintf("type %s is not castable: %s", e.Type, e.Reason)
}

func (e *ErrNotCastable) Unwrap() error { return e.cause }

// ErrInvalidPointer indicates a reference that does not point into the
// buffer it was resolved against.
type ErrInvalidPointer struct {
	Addr uintptr
}

func (e *ErrInvalidPointer) Error() string {
	return fmt.Sprintf("invalid pointer: %#x", e.Addr)
}
