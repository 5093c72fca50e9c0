package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemStore is an in-memory Store used in tests and as a stand-in for store
// backends that are not reachable. Safe for concurrent use within a process.
type MemStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// lockMu backs Lock. It is distinct from mu, which guards individual
	// operations, so a held store lock does not deadlock Get/Put.
	lockMu sync.Mutex
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{values: map[string][]byte{}}
}

// Get returns the value stored under key.
func (s *MemStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// Put stores value under key.
func (s *MemStore) Put(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	s.values[key] = v
	return nil
}

// Delete removes key.
func (s *MemStore) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.values[key]; !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	delete(s.values, key)
	return nil
}

// ListKeys returns all keys under prefix in lexical order.
func (s *MemStore) ListKeys(prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Lock satisfies Locker. In-memory stores are process-local, so the
// exclusive lock is an in-process mutex held until the UnlockFunc runs,
// covering a registry's read-check-write cycle against other goroutines.
func (s *MemStore) Lock() (UnlockFunc, error) {
	s.lockMu.Lock()
	return s.lockMu.Unlock, nil
}
