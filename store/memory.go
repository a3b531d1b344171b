package store

import (
	"context"
	"sync"
)

// Memory is an in-memory Store. Records do not survive the process.
type Memory struct {
	mu      sync.RWMutex
	records map[string][]byte
	closed  bool
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: map[string][]byte{}}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := checkKey(key); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	record, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(record), true, nil
}

func (s *Memory) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		return s.Delete(ctx, key)
	}
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.records[key] = cloneBytes(value)
	return nil
}

func (s *Memory) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	delete(s.records, key)
	return nil
}

// Len returns the number of stored records.
func (s *Memory) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Memory) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
