package blobstore

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
)

// MemoryStore keeps uploaded blobs in a map.
type MemoryStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	types   map[string]string
	putErr  error
	baseURL string
}

func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		blobs:   make(map[string][]byte),
		types:   make(map[string]string),
		baseURL: baseURL,
	}
}

// FailPuts makes every following Put return err. A nil err clears it.
func (m *MemoryStore) FailPuts(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putErr = err
}

func (m *MemoryStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	m.mu.Lock()
	failErr := m.putErr
	m.mu.Unlock()
	if failErr != nil {
		return "", fmt.Errorf("upload %s: %w", key, failErr)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("upload %s: read %d bytes, expected %d", key, len(data), size)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = data
	m.types[key] = contentType
	return m.baseURL + "/" + key, nil
}

// Get returns a stored blob and its content type.
func (m *MemoryStore) Get(key string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.blobs[key]
	return data, m.types[key], ok
}

func (m *MemoryStore) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.blobs))
	for k := range m.blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
