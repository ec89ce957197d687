package docstore

import (
	"context"
	"sync"

	"landregistry/pkg/platform/sentinel"
)

// InMemory keeps blobs in process memory. Doubles as the test fake.
type InMemory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewInMemory() *InMemory {
	return &InMemory{blobs: make(map[string][]byte)}
}

func (s *InMemory) Put(_ context.Context, content []byte) (string, error) {
	hash := HashContent(content)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[hash]; !ok {
		stored := make([]byte, len(content))
		copy(stored, content)
		s.blobs[hash] = stored
	}
	return hash, nil
}

func (s *InMemory) Get(_ context.Context, contentHash string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[contentHash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}
