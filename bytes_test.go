package membuf

import (
	"encoding/binary"
	"math"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		v := header{Magic: 0xCAFEBABE, Version: 3, Flags: 0x8001, Count: 42}

		raw, err := Bytes(&v)
		require.NoError(t, err)
		require.Len(t, raw, int(unsafe.Sizeof(v)))

		back, err := FromBytes[header](raw)
		require.NoError(t, err)
		assert.Equal(t, v, *back)
	})

	t.Run("aliases the value", func(t *testing.T) {
		var v uint32
		raw, err := Bytes(&v)
		require.NoError(t, err)

		binary.NativeEndian.PutUint32(raw, 0x11223344)
		assert.Equal(t, uint32(0x11223344), v)
	})

	t.Run("non-castable rejected", func(t *testing.T) {
		v := true
		_, err := Bytes(&v)

		var nc *ErrNotCastable
		assert.ErrorAs(t, err, &nc)
	})
}

func TestSliceBytes(t *testing.T) {
	s := []uint16{0x0102, 0x0304, 0x0506}

	raw, err := SliceBytes(s)
	require.NoError(t, err)
	require.Len(t, raw, 6)

	back, err := SliceFromBytes[uint16](raw, 3)
	require.NoError(t, err)
	assert.Equal(t, s, back)

	empty, err := SliceBytes([]uint16(nil))
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestFromBytes(t *testing.T) {
	t.Run("little endian scalar", func(t *testing.T) {
		region := []byte{0x11, 0x22, 0x33, 0x44}

		got, err := FromBytesUnaligned[uint32](region)
		require.NoError(t, err)
		assert.Equal(t, binary.NativeEndian.Uint32(region), got)
	})

	t.Run("shares storage", func(t *testing.T) {
		raw := make([]byte, 8)
		p, err := FromBytes[uint64](raw)
		require.NoError(t, err)

		*p = 0xDEADBEEF
		assert.Equal(t, uint64(0xDEADBEEF), binary.NativeEndian.Uint64(raw))
	})

	t.Run("short input", func(t *testing.T) {
		_, err := FromBytes[uint64](make([]byte, 4))

		var ned *ErrNotEnoughData
		require.ErrorAs(t, err, &ned)
		assert.Equal(t, 8, ned.Need)
		assert.Equal(t, 4, ned.Have)
	})

	t.Run("misaligned base", func(t *testing.T) {
		backing := make([]byte, 16)
		off := misalignFor[uint32](backing)

		_, err := FromBytes[uint32](backing[off:])

		var ma *ErrMisaligned
		require.ErrorAs(t, err, &ma)
		assert.Equal(t, unsafe.Alignof(uint32(0)), ma.Align)
	})

	t.Run("non-castable rejected", func(t *testing.T) {
		_, err := FromBytes[bool](make([]byte, 1))
		var nc *ErrNotCastable
		assert.ErrorAs(t, err, &nc)
	})
}

func TestFromBytesUnaligned(t *testing.T) {
	backing := make([]byte, 16)
	for i := range backing {
		backing[i] = byte(i)
	}
	off := misalignFor[uint32](backing)

	got, err := FromBytesUnaligned[uint32](backing[off:])
	require.NoError(t, err)
	assert.Equal(t, binary.NativeEndian.Uint32(backing[off:off+4]), got)

	_, err = FromBytesUnaligned[uint64](make([]byte, 3))
	var ned *ErrNotEnoughData
	assert.ErrorAs(t, err, &ned)
}

func TestSliceFromBytes(t *testing.T) {
	raw := make([]byte, 12)
	for i := range raw {
		raw[i] = byte(i)
	}

	s, err := SliceFromBytes[uint32](raw, 3)
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, binary.NativeEndian.Uint32(raw[4:8]), s[1])

	_, err = SliceFromBytes[uint32](raw, 4)
	var ned *ErrNotEnoughData
	assert.ErrorAs(t, err, &ned)

	none, err := SliceFromBytes[uint32](raw, 0)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = SliceFromBytes[uint32](raw, -1)
	var oob *ErrOutOfBounds
	assert.ErrorAs(t, err, &oob)

	// A count large enough to overflow the byte size must still fail
	// the bounds check, not reach the cast.
	_, err = SliceFromBytes[uint32](raw, math.MaxInt/2)
	assert.ErrorAs(t, err, &ned)
}

// misalignFor returns an offset into backing whose address violates T's
// alignment. The backing array must be at least align+size bytes.
func misalignFor[T any](backing []byte) int {
	var zero T
	align := unsafe.Alignof(zero)
	base := uintptr(unsafe.Pointer(&backing[0]))

	for off := 0; off < int(align); off++ {
		if (base+uintptr(off))%align != 0 {
			return off
		}
	}
	// align == 1 cannot be violated; callers only use multi-byte types.
	return 0
}
