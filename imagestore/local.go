package imagestore

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hupe1980/membuf"
	"github.com/hupe1980/membuf/internal/mmap"
)

// Local implements Store on the local filesystem. Uncompressed images
// are opened with mmap for zero-copy access; compressed images are
// decoded into memory on Open.
type Local struct {
	root   string
	codec  Codec
	logger *membuf.Logger
}

// LocalOption configures a Local store.
type LocalOption func(*Local)

// WithCodec sets the compression codec applied by Put.
func WithCodec(codec Codec) LocalOption {
	return func(l *Local) { l.codec = codec }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *membuf.Logger) LocalOption {
	return func(l *Local) { l.logger = logger }
}

// NewLocal creates a Local store rooted at the given directory.
func NewLocal(root string, opts ...LocalOption) *Local {
	l := &Local{root: root, logger: membuf.NoopLogger()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open opens an image for reading. The stored codec is detected from
// the frame magic; compressed images come back fully decoded.
func (l *Local) Open(ctx context.Context, name string) (Image, error) {
	path := filepath.Join(l.root, name)

	m, err := mmap.Open(path)
	if err != nil {
		l.logger.LogOpen(ctx, name, 0, err)
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if codec := DetectCodec(m.Bytes()); codec != CodecNone {
		raw, _, err := Decode(m.Bytes())
		closeErr := m.Close()
		if err != nil {
			l.logger.LogOpen(ctx, name, 0, err)
			return nil, err
		}
		if closeErr != nil {
			return nil, closeErr
		}
		l.logger.LogOpen(ctx, name, int64(len(raw)), nil)
		return &memImage{data: raw}, nil
	}

	// Raw image: mmap gives the most efficient random access, and the
	// whole file is directly addressable for zero-copy views.
	_ = m.Advise(mmap.AccessRandom)
	l.logger.LogOpen(ctx, name, int64(m.Size()), nil)
	return &localImage{m: m}, nil
}

// Put publishes an image atomically via a temp file and rename,
// compressing with the store's codec.
func (l *Local) Put(ctx context.Context, name string, data []byte) error {
	encoded, err := Encode(data, l.codec)
	if err != nil {
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}

	path := filepath.Join(l.root, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(encoded); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		l.logger.LogPut(ctx, name, len(data), err)
		return err
	}

	l.logger.LogPut(ctx, name, len(data), nil)
	return nil
}

// Delete removes an image. Deleting a missing image is not an error.
func (l *Local) Delete(ctx context.Context, name string) error {
	err := os.Remove(filepath.Join(l.root, name))
	if err != nil && !os.IsNotExist(err) {
		l.logger.LogDelete(ctx, name, err)
		return err
	}
	l.logger.LogDelete(ctx, name, nil)
	return nil
}

// List returns the image names under prefix, sorted.
func (l *Local) List(_ context.Context, prefix string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, prefix) {
			names = append(names, rel)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// localImage is an mmap-backed Image.
type localImage struct {
	m *mmap.Mapping
}

func (b *localImage) ReadAt(p []byte, off int64) (n int, err error) {
	if len(p) == 0 {
		return 0, nil
	}
	data := b.m.Bytes()
	if off < 0 || off >= int64(len(data)) {
		return 0, io.EOF
	}
	n = copy(p, data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *localImage) Close() error { return b.m.Close() }

func (b *localImage) Size() int64 { return int64(b.m.Size()) }

func (b *localImage) Bytes() ([]byte, error) { return b.m.Bytes(), nil }
