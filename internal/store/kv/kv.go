// Package kv defines the durable key-value namespace the list is stored in.
package kv

import (
	"errors"
	"sync"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("kv: key not found")

// Store is a synchronous key-value namespace. Each Set replaces the whole
// value of one key.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Close() error
}

// Entry is one key/value pair of a batched write.
type Entry struct {
	Key   string
	Value []byte
}

// Batcher is implemented by backends that can write several keys atomically.
type Batcher interface {
	SetBatch(entries []Entry) error
}

// Memory keeps values in a map. Nothing survives Close.
type Memory struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{m: make(map[string][]byte)}
}

func (s *Memory) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Memory) Set(key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = v
	return nil
}

func (s *Memory) SetBatch(entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		v := make([]byte, len(e.Value))
		copy(v, e.Value)
		s.m[e.Key] = v
	}
	return nil
}

func (s *Memory) Close() error { return nil }
