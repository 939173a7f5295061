package imagestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/membuf"
)

func TestLocalLifecycle(t *testing.T) {
	store := NewLocal(t.TempDir())
	ctx := context.Background()

	data := []byte("hello image store, this is a raw firmware dump")
	require.NoError(t, store.Put(ctx, "fw/dump-001.bin", data))

	img, err := store.Open(ctx, "fw/dump-001.bin")
	require.NoError(t, err)
	defer img.Close()

	require.Equal(t, int64(len(data)), img.Size())

	buf := make([]byte, 5)
	n, err := img.ReadAt(buf, 6)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	assert.Equal(t, "image", string(buf))

	// Raw files come back mmap-backed and zero-copy addressable.
	m, ok := img.(Mappable)
	require.True(t, ok)
	raw, err := m.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, raw)

	require.NoError(t, store.Put(ctx, "fw/dump-002.bin", []byte("x")))

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"fw/dump-001.bin", "fw/dump-002.bin"}, names)

	names, err = store.List(ctx, "fw/dump-002")
	require.NoError(t, err)
	assert.Equal(t, []string{"fw/dump-002.bin"}, names)

	require.NoError(t, store.Delete(ctx, "fw/dump-001.bin"))
	_, err = store.Open(ctx, "fw/dump-001.bin")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing image is not an error.
	assert.NoError(t, store.Delete(ctx, "fw/dump-001.bin"))
}

func TestLocalCompressed(t *testing.T) {
	ctx := context.Background()
	data := bytes.Repeat([]byte("compressible block "), 512)

	for _, codec := range []Codec{CodecLZ4, CodecZSTD} {
		t.Run(codec.String(), func(t *testing.T) {
			dir := t.TempDir()
			store := NewLocal(dir, WithCodec(codec))

			require.NoError(t, store.Put(ctx, "img.bin", data))

			// The stored file carries the codec's frame magic.
			stored, err := os.ReadFile(filepath.Join(dir, "img.bin"))
			require.NoError(t, err)
			assert.Equal(t, codec, DetectCodec(stored))
			assert.Less(t, len(stored), len(data))

			// Open decodes transparently.
			img, err := store.Open(ctx, "img.bin")
			require.NoError(t, err)
			defer img.Close()

			raw, err := ReadAll(img)
			require.NoError(t, err)
			assert.Equal(t, data, raw)
		})
	}
}

func TestLocalPutAtomic(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "img.bin", []byte("v1")))
	require.NoError(t, store.Put(ctx, "img.bin", []byte("v2")))

	img, err := store.Open(ctx, "img.bin")
	require.NoError(t, err)
	defer img.Close()

	raw, err := ReadAll(img)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), raw)

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAsBuffer(t *testing.T) {
	store := NewLocal(t.TempDir())
	ctx := context.Background()

	data := []byte{0xAA, 0x90, 0x12, 0x90, 0x34}
	require.NoError(t, store.Put(ctx, "scan.bin", data))

	img, err := store.Open(ctx, "scan.bin")
	require.NoError(t, err)
	defer img.Close()

	buf, err := AsBuffer(img)
	require.NoError(t, err)

	// Zero-copy path: the buffer is a View over the mapping.
	_, isView := buf.(*membuf.View)
	assert.True(t, isView)

	pat, err := membuf.ParsePattern("90 ??")
	require.NoError(t, err)

	var hits []int
	for off := range buf.Search(pat) {
		hits = append(hits, off)
	}
	assert.Equal(t, []int{1, 3}, hits)
}

func TestAsOwned(t *testing.T) {
	store := NewLocal(t.TempDir())
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "keep.bin", []byte{1, 2, 3}))

	img, err := store.Open(ctx, "keep.bin")
	require.NoError(t, err)

	o, err := AsOwned(img)
	require.NoError(t, err)

	// Owned copies survive closing the image.
	require.NoError(t, img.Close())
	assert.Equal(t, []byte{1, 2, 3}, o.Bytes())
}
