package imagestore

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Store implementation for testing. Thread-safe
// for concurrent reads and writes.
type Memory struct {
	mu     sync.RWMutex
	images map[string][]byte
}

// NewMemory creates a new in-memory image store.
func NewMemory() *Memory {
	return &Memory{images: make(map[string][]byte)}
}

// Open opens an image for reading.
func (m *Memory) Open(_ context.Context, name string) (Image, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.images[name]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy to decouple the reader from later Puts.
	copied := make([]byte, len(data))
	copy(copied, data)

	return &memImage{data: copied}, nil
}

// Put publishes an image.
func (m *Memory) Put(_ context.Context, name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]byte, len(data))
	copy(copied, data)
	m.images[name] = copied
	return nil
}

// Delete removes an image.
func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.images, name)
	return nil
}

// List returns the image names with the given prefix, sorted.
func (m *Memory) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.images {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
