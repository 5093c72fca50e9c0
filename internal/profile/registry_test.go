package profile

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kiln-ml/kiln/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	root := t.TempDir()
	s, err := store.NewFileStore(filepath.Join(root, "store"))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return NewRegistry(s, filepath.Join(root, "profiles"))
}

func TestRegistry_Create(t *testing.T) {
	r := newTestRegistry(t)

	p, err := r.Create("dev", StoreTypeLocal, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "dev" {
		t.Errorf("name = %q, want %q", p.Name, "dev")
	}
	if p.ID == "" {
		t.Error("ID should be assigned")
	}
	if p.StoreURL == "" {
		t.Error("store URL should be allocated")
	}
	if p.Created.IsZero() {
		t.Error("created timestamp should be set")
	}
	if p.Source != SourceManual {
		t.Errorf("source = %q, want %q", p.Source, SourceManual)
	}

	got, err := r.Get("dev")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("ID = %q, want %q", got.ID, p.ID)
	}
}

func TestRegistry_CreateDuplicate(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Create("dev", StoreTypeLocal, ""); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := r.Create("dev", StoreTypeLocal, "")
	if !errors.Is(err, ErrProfileExists) {
		t.Errorf("expected ErrProfileExists, got: %v", err)
	}
}

func TestRegistry_CreateInvalidStoreType(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create("weird", StoreType("bogus"), "somewhere")
	if !errors.Is(err, ErrInvalidStoreConfig) {
		t.Fatalf("expected ErrInvalidStoreConfig, got: %v", err)
	}

	// Nothing was persisted.
	if _, err := r.Get("weird"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got: %v", err)
	}
}

func TestRegistry_CreateRemoteRequiresURL(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Create("cloud", StoreTypeRemote, "")
	if !errors.Is(err, ErrInvalidStoreConfig) {
		t.Errorf("expected ErrInvalidStoreConfig, got: %v", err)
	}

	if _, err := r.Create("cloud", StoreTypeRemote, "https://kiln.example.com"); err != nil {
		t.Fatalf("Create with URL: %v", err)
	}
}

func TestRegistry_CreateInvalidName(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{"", "has space", "has/slash"} {
		if _, err := r.Create(name, StoreTypeLocal, ""); !errors.Is(err, ErrInvalidProfileName) {
			t.Errorf("Create(%q): expected ErrInvalidProfileName, got: %v", name, err)
		}
	}
}

func TestRegistry_GetMissing(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Get("nope")
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got: %v", err)
	}
}

func TestRegistry_ListLexicalOrder(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{"prod", "dev", "staging"} {
		if _, err := r.Create(name, StoreTypeLocal, ""); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	profiles, err := r.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("profiles = %d, want 3", len(profiles))
	}
	want := []string{"dev", "prod", "staging"}
	for i, p := range profiles {
		if p.Name != want[i] {
			t.Errorf("profiles[%d] = %q, want %q", i, p.Name, want[i])
		}
	}
}

func TestRegistry_SetActive(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Create("dev", StoreTypeLocal, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := r.SetActive("dev"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	name, err := r.ActiveName()
	if err != nil {
		t.Fatalf("ActiveName: %v", err)
	}
	if name != "dev" {
		t.Errorf("active = %q, want %q", name, "dev")
	}

	if err := r.SetActive("nope"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("SetActive missing: expected ErrProfileNotFound, got: %v", err)
	}
}

func TestRegistry_ActiveNameUnset(t *testing.T) {
	r := newTestRegistry(t)

	name, err := r.ActiveName()
	if err != nil {
		t.Fatalf("ActiveName: %v", err)
	}
	if name != "" {
		t.Errorf("active = %q, want unset", name)
	}
}

func TestRegistry_DeleteActiveGuard(t *testing.T) {
	r := newTestRegistry(t)

	if _, err := r.Create("dev", StoreTypeLocal, ""); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.SetActive("dev"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	// Without force the active profile cannot be deleted.
	err := r.Delete("dev", false)
	if !errors.Is(err, ErrActiveProfileInUse) {
		t.Fatalf("expected ErrActiveProfileInUse, got: %v", err)
	}

	// With force the pointer is cleared and the profile removed.
	if err := r.Delete("dev", true); err != nil {
		t.Fatalf("Delete force: %v", err)
	}
	name, err := r.ActiveName()
	if err != nil {
		t.Fatalf("ActiveName: %v", err)
	}
	if name != "" {
		t.Errorf("active = %q, want unset after forced delete", name)
	}
	if _, err := r.Get("dev"); !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound after delete, got: %v", err)
	}
}

func TestRegistry_DeleteMissing(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Delete("nope", false)
	if !errors.Is(err, ErrProfileNotFound) {
		t.Errorf("expected ErrProfileNotFound, got: %v", err)
	}
}

func TestRegistry_ActiveNameDanglingPointer(t *testing.T) {
	root := t.TempDir()
	s := store.NewMemStore()
	r := NewRegistry(s, filepath.Join(root, "profiles"))

	// A pointer to a profile that no longer exists reads as unset.
	if err := s.Put("active_profile", []byte("ghost")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	name, err := r.ActiveName()
	if err != nil {
		t.Fatalf("ActiveName: %v", err)
	}
	if name != "" {
		t.Errorf("active = %q, want unset for dangling pointer", name)
	}
}

func TestRegistry_UpdatePersistsPointer(t *testing.T) {
	r := newTestRegistry(t)

	p, err := r.Create("dev", StoreTypeLocal, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	p.ActiveStack = "local"
	if err := r.Update(p); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := r.Get("dev")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ActiveStack != "local" {
		t.Errorf("active stack = %q, want %q", got.ActiveStack, "local")
	}
}

func TestRegistry_TwoInstancesSameStore(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	profilesDir := filepath.Join(root, "profiles")

	s1, err := store.NewFileStore(storeDir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	s2, err := store.NewFileStore(storeDir)
	if err != nil {
		t.Fatalf("NewFileStore(2): %v", err)
	}

	// Two registries over the same root, as two CLI processes would be.
	r1 := NewRegistry(s1, profilesDir)
	r2 := NewRegistry(s2, profilesDir)

	if _, err := r1.Create("shared", StoreTypeLocal, ""); err != nil {
		t.Fatalf("Create via r1: %v", err)
	}
	if _, err := r2.Create("shared", StoreTypeLocal, ""); !errors.Is(err, ErrProfileExists) {
		t.Errorf("Create via r2: expected ErrProfileExists, got: %v", err)
	}

	// r2 sees r1's write immediately.
	p, err := r2.Get("shared")
	if err != nil {
		t.Fatalf("Get via r2: %v", err)
	}
	if p.Name != "shared" {
		t.Errorf("name = %q, want %q", p.Name, "shared")
	}
}

func TestRegistry_ConcurrentCreateSameName(t *testing.T) {
	root := t.TempDir()
	storeDir := filepath.Join(root, "store")
	profilesDir := filepath.Join(root, "profiles")

	// Two registries over the same root contend on the store lock, as two
	// simultaneous CLI invocations would.
	registries := make([]*Registry, 2)
	for i := range registries {
		s, err := store.NewFileStore(storeDir)
		if err != nil {
			t.Fatalf("NewFileStore(%d): %v", i, err)
		}
		registries[i] = NewRegistry(s, profilesDir)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(registries))
	for i, r := range registries {
		wg.Add(1)
		go func(i int, r *Registry) {
			defer wg.Done()
			_, errs[i] = r.Create("shared", StoreTypeLocal, "")
		}(i, r)
	}
	wg.Wait()

	var created, duplicate int
	for i, err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, ErrProfileExists):
			duplicate++
		default:
			t.Errorf("Create(%d): unexpected error: %v", i, err)
		}
	}
	if created != 1 || duplicate != 1 {
		t.Errorf("created = %d, duplicate = %d, want exactly one of each", created, duplicate)
	}
}

func TestProfile_OpenStoreRemote(t *testing.T) {
	t.Parallel()

	p := &Profile{Name: "cloud", StoreType: StoreTypeRemote, StoreURL: "https://kiln.example.com"}
	_, err := p.OpenStore()
	if !errors.Is(err, store.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got: %v", err)
	}
}
