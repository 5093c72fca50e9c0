package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_PutGet(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Put("profiles/default", []byte(`{"name":"default"}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get("profiles/default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"name":"default"}` {
		t.Errorf("value = %q", got)
	}

	// Overwrite
	if err := s.Put("profiles/default", []byte(`{}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, err = s.Get("profiles/default")
	if err != nil {
		t.Fatalf("Get after overwrite: %v", err)
	}
	if string(got) != `{}` {
		t.Errorf("value after overwrite = %q", got)
	}
}

func TestFileStore_GetMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	_, err = s.Get("profiles/nope")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got: %v", err)
	}
}

func TestFileStore_Delete(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := s.Put("active_profile", []byte("default")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("active_profile"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	err = s.Delete("active_profile")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("second delete: expected ErrKeyNotFound, got: %v", err)
	}
}

func TestFileStore_ListKeys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, k := range []string{"stacks/prod", "stacks/dev", "active_stack"} {
		if err := s.Put(k, []byte("x")); err != nil {
			t.Fatalf("Put %s: %v", k, err)
		}
	}

	keys, err := s.ListKeys("stacks/")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("keys = %v, want 2 entries", keys)
	}
	if keys[0] != "stacks/dev" || keys[1] != "stacks/prod" {
		t.Errorf("keys = %v, want lexical order [stacks/dev stacks/prod]", keys)
	}

	all, err := s.ListKeys("")
	if err != nil {
		t.Fatalf("ListKeys all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all keys = %v, want 3 entries", all)
	}
}

func TestFileStore_ListKeysExcludesLockFile(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	unlock, err := s.Lock()
	if err != nil {
		t.Fatalf("Lock: %v", err)
	}
	unlock()

	keys, err := s.ListKeys("")
	if err != nil {
		t.Fatalf("ListKeys: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("keys = %v, want none", keys)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	t.Parallel()

	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, k := range []string{"", "/abs", "a/../b", "a//b", "."} {
		if err := s.Put(k, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Put(%q): expected ErrInvalidKey, got: %v", k, err)
		}
	}
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s1.Put("profiles/prod", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// A second instance over the same root sees the write immediately.
	s2, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore(2): %v", err)
	}
	got, err := s2.Get("profiles/prod")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "v" {
		t.Errorf("value = %q, want %q", got, "v")
	}
}

func TestFileStore_NoPartialWritesVisible(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := s.Put("k", []byte("value")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	// No temp files left behind after a successful write.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if e.Name() != "k" {
			t.Errorf("unexpected entry %q in store root", e.Name())
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "k")); err != nil {
		t.Errorf("Stat k: %v", err)
	}
}
