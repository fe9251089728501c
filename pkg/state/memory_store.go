package state

import (
	"bytes"
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory Store intended for tests and examples. It keys
// records by Ref.Identifier() and copies bytes on the way in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
}

type memoryRecord struct {
	data []byte
	meta Meta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]memoryRecord{}}
}

func (s *MemoryStore) Load(_ context.Context, ref Ref) ([]byte, Meta, bool, error) {
	key, err := ref.Identifier()
	if err != nil {
		return nil, Meta{}, false, err
	}

	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, Meta{}, false, nil
	}
	return bytes.Clone(record.data), cloneMeta(record.meta), true, nil
}

func (s *MemoryStore) Save(_ context.Context, ref Ref, data []byte, meta Meta, expect Expect) (Meta, error) {
	key, err := ref.Identifier()
	if err != nil {
		return Meta{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.records[key]
	if err := expect.check(key, current.meta, exists); err != nil {
		return Meta{}, err
	}
	s.records[key] = memoryRecord{data: bytes.Clone(data), meta: cloneMeta(meta)}
	return cloneMeta(meta), nil
}

func (s *MemoryStore) Delete(_ context.Context, ref Ref) error {
	key, err := ref.Identifier()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[key]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	delete(s.records, key)
	return nil
}

// Len reports how many documents are stored.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
