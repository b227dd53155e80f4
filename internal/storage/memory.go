package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Taichi-iskw/voice-support/internal/model"
)

// MemoryStore is an in-process ObjectStore used by the local engine and tests
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[model.ObjectRef][]byte
	puts    int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[model.ObjectRef][]byte),
	}
}

// Put stores a copy of data
func (s *MemoryStore) Put(ctx context.Context, ref model.ObjectRef, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = buf
	s.puts++
	return nil
}

// Get returns a copy of the stored object
func (s *MemoryStore) Get(ctx context.Context, ref model.ObjectRef) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

// Keys lists the stored keys of a bucket in lexical order
func (s *MemoryStore) Keys(namespace, bucket string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for ref := range s.objects {
		if ref.Namespace == namespace && ref.Bucket == bucket {
			keys = append(keys, ref.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

// PutCount returns how many writes the store has accepted
func (s *MemoryStore) PutCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
