package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"sync"

	"github.com/google/uuid"
)

// MemoryStorage keeps objects in a map. It backs tests and local development
// where no S3 endpoint is configured; signed URLs are synthetic.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

// NewMemory returns an empty in-memory object store.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

// Upload stores the content in memory under presets/<uuid>/<filename>.
func (m *MemoryStorage) Upload(ctx context.Context, body io.Reader, filename, _ string) (string, error) {
	content, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("%w: read content: %w", ErrStorageFailure, err)
	}

	key := path.Join("presets", uuid.New().String(), path.Base(filename))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = content

	return key, nil
}

// Delete removes the object referenced by key.
func (m *MemoryStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return fmt.Errorf("%w: no object for key %q", ErrStorageFailure, key)
	}
	delete(m.objects, key)

	return nil
}

// SignedDownloadURL returns a synthetic URL for the stored object.
func (m *MemoryStorage) SignedDownloadURL(_ context.Context, key, downloadFilename string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return "", fmt.Errorf("%w: no object for key %q", ErrStorageFailure, key)
	}

	return fmt.Sprintf("memory://%s?filename=%s", key, url.QueryEscape(downloadFilename)), nil
}

// Object returns the stored bytes for key, for test assertions.
func (m *MemoryStorage) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, ok := m.objects[key]
	return content, ok
}

// Len reports how many objects are currently stored.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
