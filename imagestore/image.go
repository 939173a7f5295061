package imagestore

import "io"

// memImage is an Image over resident bytes. Used for decompressed opens,
// the in-memory store and the caching layer.
type memImage struct {
	data []byte
}

func (m *memImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *memImage) Close() error { return nil }

func (m *memImage) Size() int64 { return int64(len(m.data)) }

func (m *memImage) Bytes() ([]byte, error) { return m.data, nil }
