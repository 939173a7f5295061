package main

import (
	"fmt"
	"go/types"
)

// checkCastable reports whether every bit pattern of t is a valid value:
// fixed-size integers, floats and complexes, arrays of castable
// elements, and padding-free structs of castable fields. This mirrors
// the runtime reflect check in the membuf root package, but runs at
// derivation time over go/types so violations surface before the code
// that casts is ever built.
func checkCastable(t types.Type, sizes types.Sizes) error {
	switch u := t.Underlying().(type) {
	case *types.Basic:
		return checkBasic(u)

	case *types.Array:
		if err := checkCastable(u.Elem(), sizes); err != nil {
			return fmt.Errorf("array element: %w", err)
		}
		return nil

	case *types.Struct:
		return checkStruct(u, sizes)

	case *types.TypeParam:
		return fmt.Errorf("generic type parameters cannot be verified")

	case *types.Pointer:
		return fmt.Errorf("pointers are not plain data")

	case *types.Slice:
		return fmt.Errorf("slices carry a pointer and are not plain data")

	default:
		return fmt.Errorf("%s is not plain data", u)
	}
}

func checkBasic(b *types.Basic) error {
	switch b.Kind() {
	case types.Int8, types.Int16, types.Int32, types.Int64,
		types.Uint8, types.Uint16, types.Uint32, types.Uint64,
		types.Int, types.Uint, types.Uintptr,
		types.Float32, types.Float64,
		types.Complex64, types.Complex128:
		return nil
	case types.Bool:
		return fmt.Errorf("bool does not allow every bit pattern")
	case types.String:
		return fmt.Errorf("strings carry a pointer and are not plain data")
	case types.UnsafePointer:
		return fmt.Errorf("unsafe.Pointer is not plain data")
	default:
		return fmt.Errorf("basic kind %s is not plain data", b)
	}
}

func checkStruct(s *types.Struct, sizes types.Sizes) error {
	n := s.NumFields()
	fields := make([]*types.Var, n)
	for i := range n {
		fields[i] = s.Field(i)
	}

	var offsets []int64
	if n > 0 {
		offsets = sizes.Offsetsof(fields)
	}

	var sum int64
	for i, f := range fields {
		if err := checkCastable(f.Type(), sizes); err != nil {
			return fmt.Errorf("field %s: %w", f.Name(), err)
		}
		if offsets[i] != sum {
			return fmt.Errorf("padding before field %s (offset %d, expected %d)", f.Name(), offsets[i], sum)
		}
		sum += sizes.Sizeof(f.Type())
	}

	if size := sizes.Sizeof(s); size != sum {
		return fmt.Errorf("trailing padding (%d bytes of fields in a %d byte struct)", sum, size)
	}
	return nil
}
