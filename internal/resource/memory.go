package resource

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-process accessor, used for uploads and tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemory returns a Memory seeded with files. The map is copied.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string][]byte, len(files))}
	for k, v := range files {
		m.files[k] = []byte(v)
	}
	return m
}

// Put stores data at path, replacing any previous content.
func (m *Memory) Put(path string, data []byte) {
	m.mu.Lock()
	m.files[path] = bytes.Clone(data)
	m.mu.Unlock()
}

func (m *Memory) Exists(_ context.Context, path string) (bool, error) {
	m.mu.RLock()
	_, ok := m.files[path]
	m.mu.RUnlock()
	return ok, nil
}

func (m *Memory) Open(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.files[path]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
