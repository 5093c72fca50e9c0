// Package resolve determines which profile and stack are active for the
// current invocation.
package resolve

import (
	"errors"
	"fmt"
	"os"

	"github.com/kiln-ml/kiln/internal/legacy"
	"github.com/kiln-ml/kiln/internal/migrate"
	"github.com/kiln-ml/kiln/internal/profile"
	"github.com/kiln-ml/kiln/internal/stack"
	"github.com/kiln-ml/kiln/internal/store"
)

// EnvProfile overrides the active profile for one invocation.
const EnvProfile = "KILN_PROFILE"

// EnvStack overrides the active stack for one invocation.
const EnvStack = "KILN_STACK"

// Source says which rule of the precedence chain selected the profile.
type Source string

const (
	// SourceOverride means an explicit env-var override named the profile.
	SourceOverride Source = "override"

	// SourceLegacy means a legacy repository marker below cwd selected a
	// migrated profile.
	SourceLegacy Source = "legacy"

	// SourceGlobal means the registry's global active pointer was used.
	SourceGlobal Source = "global"

	// SourceDefault means the fallback default profile was used, created
	// on first use if absent.
	SourceDefault Source = "default"
)

// Context is the result of resolution. Stack is nil when the chosen profile
// has no active stack.
type Context struct {
	Profile *profile.Profile
	Stack   *stack.Stack
	Source  Source
}

// Resolver implements the precedence chain:
//
//  1. KILN_PROFILE environment variable (explicit override)
//  2. legacy repository marker found walking up from cwd, migrating on
//     first encounter
//  3. the registry's global active pointer
//  4. the default profile, created on first use
type Resolver struct {
	profiles       *profile.Registry
	engine         *migrate.Engine
	defaultProfile string

	// lookupEnv is swappable in tests.
	lookupEnv func(string) string
}

// NewResolver creates a Resolver. defaultProfile is the fallback profile
// name; empty means "default".
func NewResolver(profiles *profile.Registry, engine *migrate.Engine, defaultProfile string) *Resolver {
	if defaultProfile == "" {
		defaultProfile = profile.DefaultName
	}
	return &Resolver{
		profiles:       profiles,
		engine:         engine,
		defaultProfile: defaultProfile,
		lookupEnv:      os.Getenv,
	}
}

// Resolve returns the active context for an invocation from cwd.
func (r *Resolver) Resolve(cwd string) (*Context, error) {
	p, src, err := r.resolveProfile(cwd)
	if err != nil {
		return nil, err
	}

	s, err := r.resolveStack(p)
	if err != nil {
		return nil, err
	}

	return &Context{Profile: p, Stack: s, Source: src}, nil
}

func (r *Resolver) resolveProfile(cwd string) (*profile.Profile, Source, error) {
	// Priority 1: explicit override.
	if name := r.lookupEnv(EnvProfile); name != "" {
		p, err := r.profiles.Get(name)
		if err != nil {
			return nil, "", fmt.Errorf("%s=%s: %w", EnvProfile, name, err)
		}
		return p, SourceOverride, nil
	}

	// Priority 2: legacy repository marker, migrating lazily on the first
	// invocation from within that root.
	if root, ok := legacy.FindRoot(cwd); ok {
		repo, err := legacy.Detect(root)
		if err != nil {
			return nil, "", err
		}
		if repo != nil && len(repo.Stacks) > 0 {
			p, err := r.engine.Migrate(repo)
			if err != nil {
				return nil, "", err
			}
			return p, SourceLegacy, nil
		}
	}

	// Priority 3: global active pointer.
	active, err := r.profiles.ActiveName()
	if err != nil {
		return nil, "", err
	}
	if active != "" {
		p, err := r.profiles.Get(active)
		if err != nil {
			return nil, "", err
		}
		return p, SourceGlobal, nil
	}

	// Priority 4: the default profile, created on first use.
	p, err := r.profiles.Get(r.defaultProfile)
	if errors.Is(err, profile.ErrProfileNotFound) {
		p, err = r.profiles.Create(r.defaultProfile, profile.StoreTypeLocal, "")
		if errors.Is(err, profile.ErrProfileExists) {
			// Raced with another invocation; the profile exists now.
			p, err = r.profiles.Get(r.defaultProfile)
		}
	}
	if err != nil {
		return nil, "", err
	}
	return p, SourceDefault, nil
}

// resolveStack returns the profile's active stack, honoring the KILN_STACK
// override. A remote profile's stacks are unreachable from this process;
// that only fails resolution when a stack was explicitly requested.
func (r *Resolver) resolveStack(p *profile.Profile) (*stack.Stack, error) {
	override := r.lookupEnv(EnvStack)

	st, err := p.OpenStore()
	if err != nil {
		if override == "" && errors.Is(err, store.ErrStoreUnavailable) && p.StoreType == profile.StoreTypeRemote {
			return nil, nil
		}
		return nil, err
	}
	stacks := stack.NewRegistry(st)

	name := override
	if name == "" {
		name, err = stacks.ActiveName()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, nil
		}
	}

	s, err := stacks.Get(name)
	if err != nil {
		if override != "" {
			return nil, fmt.Errorf("%s=%s: %w", EnvStack, override, err)
		}
		return nil, err
	}
	return s, nil
}
