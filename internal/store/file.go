package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"
)

// lockFileName is the flock file guarding mutations to a store root.
const lockFileName = ".lock"

// FileStore persists each key as a file under a root directory. The key
// "profiles/default" maps to <root>/profiles/default. Writes go through a
// temp file and rename so readers never observe a partial value.
type FileStore struct {
	root string
}

// NewFileStore creates a FileStore rooted at dir, creating the directory if
// needed. Returns ErrStoreUnavailable when the root cannot be created.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating store root %s: %v", ErrStoreUnavailable, dir, err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the directory backing this store.
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

// Get returns the value stored under key.
func (s *FileStore) Get(key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, fmt.Errorf("%w: %q", err, key)
	}

	data, err := os.ReadFile(s.path(key)) //nolint:gosec // G304: path validated against the store root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStoreUnavailable, key, err)
	}
	return data, nil
}

// Put writes value under key, persisting immediately.
func (s *FileStore) Put(key string, value []byte) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: creating directory for %s: %v", ErrStoreUnavailable, key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".put-*")
	if err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, key, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: writing %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// Delete removes the value stored under key.
func (s *FileStore) Delete(key string) error {
	if err := validateKey(key); err != nil {
		return fmt.Errorf("%w: %q", err, key)
	}

	if err := os.Remove(s.path(key)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		return fmt.Errorf("%w: deleting %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}

// ListKeys returns every key under prefix in lexical order. A prefix of ""
// lists the whole store. The lock file is never listed.
func (s *FileStore) ListKeys(prefix string) ([]string, error) {
	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || d.Name() == lockFileName || strings.HasPrefix(d.Name(), ".put-") {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing %q: %v", ErrStoreUnavailable, prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

// Lock takes the exclusive cross-process lock for this store root, blocking
// until acquired. The returned UnlockFunc must be called to release it.
func (s *FileStore) Lock() (UnlockFunc, error) {
	fl := flock.New(filepath.Join(s.root, lockFileName))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("%w: locking %s: %v", ErrStoreUnavailable, s.root, err)
	}
	return func() { _ = fl.Unlock() }, nil
}
