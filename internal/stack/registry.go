package stack

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kiln-ml/kiln/internal/store"
)

var (
	// ErrStackNotFound indicates the named stack does not exist.
	ErrStackNotFound = errors.New("stack not found")

	// ErrStackExists indicates a stack with that name already exists.
	ErrStackExists = errors.New("stack already exists")

	// ErrInvalidStackName indicates the name is empty or malformed.
	ErrInvalidStackName = errors.New("invalid stack name")

	// ErrInvalidCategory indicates an empty component category.
	ErrInvalidCategory = errors.New("invalid component category")

	// ErrActiveStackInUse indicates a delete targeted the active stack
	// without force.
	ErrActiveStackInUse = errors.New("stack is the active stack")
)

const (
	stackKeyPrefix = "stacks/"
	activeStackKey = "active_stack"
)

// Registry catalogs the stacks of a single profile, persisted in that
// profile's own store.
type Registry struct {
	store store.Store
}

// NewRegistry creates a Registry over a profile's store.
func NewRegistry(s store.Store) *Registry {
	return &Registry{store: s}
}

func (r *Registry) lock() (store.UnlockFunc, error) {
	if l, ok := r.store.(store.Locker); ok {
		return l.Lock()
	}
	return func() {}, nil
}

func stackKey(name string) string {
	return stackKeyPrefix + name
}

func validName(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\ ") {
		return fmt.Errorf("%w: %q", ErrInvalidStackName, name)
	}
	return nil
}

// Create registers a new stack with the given component map. Returns
// ErrStackExists if the name is taken.
func (r *Registry) Create(name string, components map[Category]string) (*Stack, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	for cat := range components {
		if cat == "" {
			return nil, ErrInvalidCategory
		}
	}

	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := r.getLocked(name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrStackExists, name)
	} else if !errors.Is(err, ErrStackNotFound) {
		return nil, err
	}

	s := &Stack{
		Name:       name,
		Components: make(map[Category]string, len(components)),
		Created:    time.Now().UTC(),
	}
	for k, v := range components {
		s.Components[k] = v
	}

	if err := r.putLocked(s); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the stack with the given name.
func (r *Registry) Get(name string) (*Stack, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	return r.getLocked(name)
}

func (r *Registry) getLocked(name string) (*Stack, error) {
	data, err := r.store.Get(stackKey(name))
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrStackNotFound, name)
		}
		return nil, err
	}

	var s Stack
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing stack %s: %w", name, err)
	}
	if s.Components == nil {
		s.Components = map[Category]string{}
	}
	return &s, nil
}

func (r *Registry) putLocked(s *Stack) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding stack %s: %w", s.Name, err)
	}
	return r.store.Put(stackKey(s.Name), data)
}

// List returns all stacks in lexical name order.
func (r *Registry) List() ([]Stack, error) {
	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	keys, err := r.store.ListKeys(stackKeyPrefix)
	if err != nil {
		return nil, err
	}

	stacks := make([]Stack, 0, len(keys))
	for _, k := range keys {
		s, err := r.getLocked(strings.TrimPrefix(k, stackKeyPrefix))
		if err != nil {
			return nil, err
		}
		stacks = append(stacks, *s)
	}
	sort.Slice(stacks, func(i, j int) bool { return stacks[i].Name < stacks[j].Name })
	return stacks, nil
}

// Delete removes the named stack. Deleting the active stack fails with
// ErrActiveStackInUse unless force is set; a forced delete clears the
// active-stack pointer, leaving the profile with no active stack.
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
			return fmt.Errorf("%w: %s", ErrActiveStackInUse, name)
		}
		if err := r.store.Delete(activeStackKey); err != nil && !errors.Is(err, store.ErrKeyNotFound) {
			return err
		}
	}

	return r.store.Delete(stackKey(name))
}

// SetActive marks the named stack as this profile's active stack.
func (r *Registry) SetActive(name string) error {
	unlock, err := r.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := r.getLocked(name); err != nil {
		return err
	}
	return r.store.Put(activeStackKey, []byte(name))
}

// ActiveName returns the active stack name, or "" when no stack is active.
// A pointer to a stack that no longer exists reads as unset.
func (r *Registry) ActiveName() (string, error) {
	unlock, err := r.lock()
	if err != nil {
		return "", err
	}
	defer unlock()

	return r.activeNameLocked()
}

func (r *Registry) activeNameLocked() (string, error) {
	data, err := r.store.Get(activeStackKey)
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
		if errors.Is(err, ErrStackNotFound) {
			return "", nil
		}
		return "", err
	}
	return name, nil
}

// UpdateComponent sets the component reference for one category on the named
// stack. An empty ref removes the category from the stack.
func (r *Registry) UpdateComponent(stackName string, category Category, ref string) (*Stack, error) {
	if category == "" {
		return nil, ErrInvalidCategory
	}

	unlock, err := r.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	s, err := r.getLocked(stackName)
	if err != nil {
		return nil, err
	}

	if ref == "" {
		delete(s.Components, category)
	} else {
		s.Components[category] = ref
	}

	if err := r.putLocked(s); err != nil {
		return nil, err
	}
	return s, nil
}
