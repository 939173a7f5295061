package imagestore

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachingStore wraps a Store and keeps fully materialized images in
// memory. Concurrent Opens of the same image are deduplicated with
// singleflight, so a cold image is fetched from the backend exactly
// once no matter how many goroutines race on it.
//
// The cache holds whole images; it is meant for modest working sets of
// frequently scanned images, not as a general page cache.
type CachingStore struct {
	inner Store

	mu    sync.RWMutex
	cache map[string][]byte

	group singleflight.Group
}

// NewCachingStore wraps inner with an image cache.
func NewCachingStore(inner Store) *CachingStore {
	return &CachingStore{
		inner: inner,
		cache: make(map[string][]byte),
	}
}

// Open returns the cached image, fetching and materializing it from the
// backend on first use.
func (s *CachingStore) Open(ctx context.Context, name string) (Image, error) {
	s.mu.RLock()
	data, ok := s.cache[name]
	s.mu.RUnlock()
	if ok {
		return &memImage{data: data}, nil
	}

	v, err, _ := s.group.Do(name, func() (any, error) {
		// Re-check under the flight: a racing Open may have filled it.
		s.mu.RLock()
		data, ok := s.cache[name]
		s.mu.RUnlock()
		if ok {
			return data, nil
		}

		img, err := s.inner.Open(ctx, name)
		if err != nil {
			return nil, err
		}
		defer img.Close()

		raw, err := ReadAll(img)
		if err != nil {
			return nil, err
		}

		// Mappable images alias the backend; copy so the cache entry
		// survives the Close above for non-resident backends too.
		owned := make([]byte, len(raw))
		copy(owned, raw)

		s.mu.Lock()
		s.cache[name] = owned
		s.mu.Unlock()

		return owned, nil
	})
	if err != nil {
		return nil, err
	}
	return &memImage{data: v.([]byte)}, nil
}

// Put writes through to the backend and drops the cached copy.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete removes the image from the backend and the cache.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List delegates to the backend.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.mu.Unlock()
	s.group.Forget(name)
}
