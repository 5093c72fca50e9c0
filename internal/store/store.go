// Package store provides the key/value persistence layer underneath the
// profile and stack registries. Keys are slash-separated relative paths;
// values are opaque byte slices (registries encode JSON into them).
package store

import (
	"errors"
	"strings"
)

var (
	// ErrKeyNotFound indicates the requested key does not exist in the store.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidKey indicates the key is empty or escapes the store root.
	ErrInvalidKey = errors.New("invalid key")

	// ErrStoreUnavailable indicates the backing location cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Store is the persistence contract shared by the file-backed and in-memory
// implementations. Writes persist immediately; there is no write-behind
// caching, so concurrent processes observe each other's writes promptly.
type Store interface {
	// Get returns the value for key, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Put writes value under key, creating or overwriting it.
	Put(key string, value []byte) error

	// Delete removes key. Returns ErrKeyNotFound if absent.
	Delete(key string) error

	// ListKeys returns all keys beginning with prefix, in lexical order.
	ListKeys(prefix string) ([]string, error)
}

// UnlockFunc releases an exclusive store lock.
type UnlockFunc func()

// Locker is implemented by stores that support exclusive acquisition across
// OS processes. Registry mutations take the lock for the duration of their
// read-check-write cycle.
type Locker interface {
	Lock() (UnlockFunc, error)
}

// validateKey rejects keys that are empty, absolute, or contain path
// traversal. Keys use forward slashes on every platform.
func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
