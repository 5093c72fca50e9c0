package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiln-ml/kiln/internal/store"
)

var (
	// ErrProfileNotFound indicates the named profile does not exist.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrProfileExists indicates a profile with that name already exists.
	ErrProfileExists = errors.New("profile already exists")

	// ErrInvalidProfileName indicates the name is empty or malformed.
	ErrInvalidProfileName = errors.New("invalid profile name")

	// ErrInvalidStoreConfig indicates an unknown store type or a store URL
	// missing where one is required.
	ErrInvalidStoreConfig = errors.New("invalid store configuration")

	// ErrActiveProfileInUse indicates a delete targeted the active profile
	// without force.
	ErrActiveProfileInUse = errors.New("profile is the active profile")
)

const (
	profileKeyPrefix = "profiles/"
	activeProfileKey = "active_profile"
)

// Registry is the process-wide catalog of profiles, persisted in the global
// store. All mutations take the store's cross-process lock for the duration
// of their read-check-write cycle, so two CLI invocations cannot both pass
// the duplicate-name check.
type Registry struct {
	store       store.Store
	profilesDir string
}

// NewRegistry creates a Registry over the global store. profilesDir is the
// base directory for newly allocated local profile sub-stores; it may be
// empty when every Create call supplies an explicit store URL.
func NewRegistry(s store.Store, profilesDir string) *Registry {
	return &Registry{store: s, profilesDir: profilesDir}
}

// lock acquires the store's exclusive lock if the store supports one.
func (r *Registry) lock() (store.UnlockFunc, error) {
	if l, ok := r.store.(store.Locker); ok {
		return l.Lock()
	}
	return func() {}, nil
}

func profileKey(name string) string {
	return profileKeyPrefix + name
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\ ") {
		return fmt.Errorf("%w: %q", ErrInvalidProfileName, name)
	}
	return nil
}

// Create registers a new profile. Returns ErrProfileExists if the name is
// taken and ErrInvalidStoreConfig for a store type outside local/remote. An
// empty storeURL allocates a local sub-store under the registry's profiles
// directory. The new profile's stack store is initialized empty.
func (r *Registry) Create(name string, storeType StoreType, storeURL string) (*Profile, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	switch storeType {
	case StoreTypeLocal, StoreTypeRemote:
	default:
		return nil, fmt.Errorf("%w: unknown store type %q", ErrInvalidStoreConfig, storeType)
	}

	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := r.getLocked(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileExists, name)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return nil, err
	}

	if storeURL == "" {
		if storeType != StoreTypeLocal {
			return nil, fmt.Errorf("%w: store URL required for %s profiles", ErrInvalidStoreConfig, storeType)
		}
		if r.profilesDir == "" {
			return nil, fmt.Errorf("%w: no profiles directory configured", store.ErrStoreUnavailable)
		}
		storeURL = filepath.Join(r.profilesDir, name)
	}

	p := &Profile{
		ID:        uuid.New().String(),
		Name:      name,
		StoreType: storeType,
		StoreURL:  storeURL,
		Source:    SourceManual,
		Created:   time.Now().UTC(),
	}

	if storeType == StoreTypeLocal {
		// Initialize the profile's stack store so it exists even before
		// the first stack is written.
		if _, err := store.NewFileStore(storeURL); err != nil {
			return nil, err
		}
	}

	if err := r.putLocked(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the profile with the given name.
func (r *Registry) Get(name string) (*Profile, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.getLocked(name)
}

func (r *Registry) getLocked(name string) (*Profile, error) {
	data, err := r.store.Get(profileKey(name))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		return nil, err
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing profile %s: %w", name, err)
	}
	return &p, nil
}

func (r *Registry) putLocked(p *Profile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding profile %s: %w", p.Name, err)
	}
	return r.store.Put(profileKey(p.Name), data)
}

// List returns all registered profiles in lexical name order.
func (r *Registry) List() ([]Profile, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	keys, err := r.store.ListKeys(profileKeyPrefix)
	if err != nil {
		return nil, err
	}

	profiles := make([]Profile, 0, len(keys))
	for _, k := range keys {
		p, err := r.getLocked(strings.TrimPrefix(k, profileKeyPrefix))
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// Update rewrites an existing profile record. Used to persist active-stack
// and active-user pointer changes.
func (r *Registry) Update(p *Profile) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.getLocked(p.Name); err != nil {
		return err
	}
	return r.putLocked(p)
}

// Delete removes the named profile. Deleting the active profile fails with
// ErrActiveProfileInUse unless force is set, in which case the global active
// pointer is cleared.
func (r *Registry) Delete(name string, force bool) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.getLocked(name); err != nil {
		return err
	}

	active, err := r.activeNameLocked()
	if err != nil {
		return err
	}
	if active == name {
		if !force {
			return fmt.Errorf("%w: %s", ErrActiveProfileInUse, name)
		}
		if err := r.clearActiveLocked(); err != nil {
			return err
		}
	}

	return r.store.Delete(profileKey(name))
}

// SetActive marks the named profile as the global active profile.
func (r *Registry) SetActive(name string) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.getLocked(name); err != nil {
		return err
	}
	return r.store.Put(activeProfileKey, []byte(name))
}

// ActiveName returns the global active profile name, or "" if unset. A
// pointer referencing a profile that no longer exists is treated as unset.
func (r *Registry) ActiveName() (string, error) {
	unlock, err := r.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	return r.activeNameLocked()
}

func (r *Registry) activeNameLocked() (string, error) {
	data, err := r.store.Get(activeProfileKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return "", nil
		}
		return "", err
	}

	name := strings.TrimSpace(string(data))
	if name == "" {
		return "", nil
	}
	if _, err := r.getLocked(name); err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

func (r *Registry) clearActiveLocked() error {
	err := r.store.Delete(activeProfileKey)
	if err != nil && !errors.Is(err, store.ErrKeyNotFound) {
		return err
	}
	return nil
}
