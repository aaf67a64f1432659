package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	appgateway "github.com/bazaar/backend/internal/application/gateway"
)

var _ appgateway.DocumentStore = (*InMemoryDocumentStore)(nil)

// InMemoryDocumentStore keeps documents in process memory. For tests
// and local development without an object store.
type InMemoryDocumentStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewInMemoryDocumentStore creates an empty store.
func NewInMemoryDocumentStore() *InMemoryDocumentStore {
	return &InMemoryDocumentStore{
		objects: make(map[string][]byte),
	}
}

func (s *InMemoryDocumentStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("failed to read document body: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return key, nil
}

func (s *InMemoryDocumentStore) PresignGet(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.objects[key]; !ok {
		return "", fmt.Errorf("document not found: %s", key)
	}
	return "memory://" + key, nil
}

// Get returns the stored bytes, for test assertions.
func (s *InMemoryDocumentStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
