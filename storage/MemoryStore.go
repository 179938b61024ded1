package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

type memoryBlob struct {
	data        []byte
	contentType string
}

// MemoryStore keeps blobs in process. Handles are the upload paths.
type MemoryStore struct {
	mu       sync.RWMutex
	hostName string
	blobs    map[string]memoryBlob
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(hostName string) *MemoryStore {
	return &MemoryStore{hostName: hostName, blobs: make(map[string]memoryBlob)}
}

func (s *MemoryStore) Put(ctx context.Context, path, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[path] = memoryBlob{data: data, contentType: contentType}
	return path, nil
}

func (s *MemoryStore) URL(ctx context.Context, handle string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.blobs[handle]; !ok {
		return "", ErrNotFound
	}
	return filesURL(s.hostName, handle), nil
}

func (s *MemoryStore) Open(ctx context.Context, handle string) (io.ReadCloser, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[handle]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), blob.contentType, nil
}

// Fetch resolves a URL produced by this store back to the stored bytes.
func (s *MemoryStore) Fetch(url string) ([]byte, error) {
	prefix := filesURL(s.hostName, "")
	if !strings.HasPrefix(url, prefix) {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[strings.TrimPrefix(url, prefix)]
	if !ok {
		return nil, ErrNotFound
	}
	return blob.data, nil
}
