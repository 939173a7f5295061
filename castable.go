package membuf

import (
	"reflect"
	"sync"
)

// The castability contract: a type is castable when every bit pattern of
// its size, correctly aligned, is a valid value. That holds for
// fixed-size integers and floats, arrays of castable elements, and
// structs whose fields are castable and leave no padding. It does not
// hold for bool (254 of its bit patterns are not values), nor for
// anything carrying a pointer or a language-enforced invariant.
//
// Results are cached per type; the hot path is a single map load.

var castableCache sync.Map // reflect.Type -> error (nil means castable)

// CheckCastable reports whether T satisfies the castability contract,
// returning an *ErrNotCastable describing the violation if not.
func CheckCastable[T any]() error {
	return checkCastableType(reflect.TypeOf((*T)(nil)).Elem())
}

// IsCastable reports whether T satisfies the castability contract.
func IsCastable[T any]() bool {
	return CheckCastable[T]() == nil
}

// MustRegister checks T against the castability contract and panics on
// violation. It is the hook emitted by the castgen derivation tool:
//
//	var _ = membuf.MustRegister[Header]()
//
// so that an uncastable aggregate fails at package initialization rather
// than at first cast.
func MustRegister[T any]() struct{} {
	if err := CheckCastable[T](); err != nil {
		panic(err)
	}
	return struct{}{}
}

func checkCastableType(t reflect.Type) error {
	if v, ok := castableCache.Load(t); ok {
		if v == nil {
			return nil
		}
		return v.(error)
	}

	err := castableErr(t)
	if err == nil {
		castableCache.Store(t, nil)
	} else {
		castableCache.Store(t, err)
	}
	return err
}

func castableErr(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Int, reflect.Uint, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return nil

	case reflect.Array:
		if err := checkCastableType(t.Elem()); err != nil {
			return &ErrNotCastable{Type: t, Reason: "array element is not castable", cause: err}
		}
		return nil

	case reflect.Struct:
		var sum uintptr
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if err := checkCastableType(f.Type); err != nil {
				return &ErrNotCastable{Type: t, Reason: "field " + f.Name + " is not castable", cause: err}
			}
			if f.Offset != sum {
				return &ErrNotCastable{Type: t, Reason: "padding before field " + f.Name}
			}
			sum += f.Type.Size()
		}
		if sum != t.Size() {
			return &ErrNotCastable{Type: t, Reason: "trailing padding"}
		}
		return nil

	case reflect.Bool:
		return &ErrNotCastable{Type: t, Reason: "bool does not allow every bit pattern"}

	default:
		return &ErrNotCastable{Type: t, Reason: "kind " + t.Kind().String() + " is not plain data"}
	}
}
