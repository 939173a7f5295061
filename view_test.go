package membuf

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewOf(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	v := ViewOf(data)

	assert.Equal(t, 4, v.Len())
	assert.Equal(t, uintptr(unsafe.Pointer(&data[0])), v.Addr())
	assert.Equal(t, data, v.Bytes())

	// The view aliases, it does not copy.
	data[0] = 0xFF
	assert.Equal(t, byte(0xFF), v.Bytes()[0])

	empty := ViewOf(nil)
	assert.Equal(t, 0, empty.Len())
	assert.Nil(t, empty.Bytes())
}

func TestNewView(t *testing.T) {
	data := []byte{10, 20, 30}
	v := NewView(unsafe.Pointer(&data[0]), len(data))

	assert.Equal(t, data, v.Bytes())

	neg := NewView(nil, -5)
	assert.Equal(t, 0, neg.Len())
}

func TestViewSub(t *testing.T) {
	v := ViewOf([]byte{0, 1, 2, 3, 4, 5})

	sub, err := v.Sub(2, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3, 4}, sub.Bytes())
	assert.Equal(t, v.Addr()+2, sub.Addr())

	// Sub-views share memory with the parent.
	sub.Bytes()[0] = 0xEE
	assert.Equal(t, byte(0xEE), v.Bytes()[2])

	zero, err := v.Sub(6, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, zero.Len())

	var oob *ErrOutOfBounds
	_, err = v.Sub(4, 3)
	assert.ErrorAs(t, err, &oob)
	_, err = v.Sub(-1, 2)
	assert.ErrorAs(t, err, &oob)
}

func TestViewSplitAt(t *testing.T) {
	v := ViewOf([]byte("headerbody"))

	left, right, err := v.SplitAt(6)
	require.NoError(t, err)
	assert.Equal(t, []byte("header"), left.Bytes())
	assert.Equal(t, []byte("body"), right.Bytes())

	var oob *ErrOutOfBounds
	_, _, err = v.SplitAt(11)
	assert.ErrorAs(t, err, &oob)
}

func TestViewClone(t *testing.T) {
	data := []byte{1, 2, 3}
	v := ViewOf(data)
	c := v.Clone()

	// Clone copies the pair, not the referent.
	assert.Equal(t, v.Addr(), c.Addr())
	data[1] = 0x99
	assert.Equal(t, byte(0x99), c.Bytes()[1])
}
