package imagestore

import (
	"context"
	"io"
	"os"

	"github.com/hupe1980/membuf"
)

// ErrNotFound is returned when an image does not exist.
//
// Implementations should return an error that satisfies
// `errors.Is(err, ErrNotFound)`. The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is an abstraction for fetching and publishing binary images.
type Store interface {
	// Open opens an image for reading.
	Open(ctx context.Context, name string) (Image, error)
	// Put publishes an image atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes an image.
	Delete(ctx context.Context, name string) error
	// List returns the image names under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Image is a read-only handle to an opened image.
type Image interface {
	io.ReaderAt
	io.Closer
	// Size returns the image size in bytes.
	Size() int64
}

// Mappable is an optional interface for Images whose bytes are directly
// addressable (memory-mapped or resident). Bytes is zero-copy; the slice
// is valid until the Image is closed.
type Mappable interface {
	Bytes() ([]byte, error)
}

// ReadAll returns the full contents of an image. It is zero-copy only in
// the sense that Mappable images avoid a second read; the returned slice
// may still alias the image, so close order matters.
func ReadAll(img Image) ([]byte, error) {
	if m, ok := img.(Mappable); ok {
		return m.Bytes()
	}
	data := make([]byte, img.Size())
	if len(data) == 0 {
		return data, nil
	}
	if _, err := img.ReadAt(data, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return data, nil
}

// AsBuffer exposes an opened image as a membuf.Buffer. Mappable images
// yield a zero-copy View that is valid until the image is closed; other
// images are read into an Owned buffer that outlives the image.
func AsBuffer(img Image) (membuf.Buffer, error) {
	if m, ok := img.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return membuf.ViewOf(data), nil
	}
	data, err := ReadAll(img)
	if err != nil {
		return nil, err
	}
	return membuf.OwnedFrom(data), nil
}

// AsOwned reads an image into an Owned buffer with independent storage,
// safe to keep after the image is closed.
func AsOwned(img Image) (*membuf.Owned, error) {
	if m, ok := img.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return membuf.OwnedFrom(data), nil
	}
	data, err := ReadAll(img)
	if err != nil {
		return nil, err
	}
	return membuf.OwnedFrom(data), nil
}
