package cmd

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/kiln-ml/kiln/internal/config"
	"github.com/kiln-ml/kiln/internal/migrate"
	"github.com/kiln-ml/kiln/internal/profile"
	"github.com/kiln-ml/kiln/internal/resolve"
	"github.com/kiln-ml/kiln/internal/stack"
	"github.com/kiln-ml/kiln/internal/store"
	"github.com/kiln-ml/kiln/internal/style"
)

// app wires the registries, migration engine, and resolver for one
// invocation.
type app struct {
	home     string
	settings *config.Settings
	profiles *profile.Registry
	engine   *migrate.Engine
	resolver *resolve.Resolver
}

// newApp builds the shared command context. Migration notices go straight to
// stdout; they fire at most once per legacy root.
func newApp() (*app, error) {
	home, err := config.Home()
	if err != nil {
		return nil, err
	}
	settings, err := config.Load(home)
	if err != nil {
		return nil, err
	}

	if !settings.Color || !term.IsTerminal(int(os.Stdout.Fd())) {
		style.Disable()
	}

	gs, err := store.NewFileStore(config.StoreRoot(home, settings))
	if err != nil {
		return nil, err
	}

	a := &app{home: home, settings: settings}
	a.profiles = profile.NewRegistry(gs, config.ProfilesDir(home))
	a.engine = migrate.NewEngine(a.profiles, func(msg string) {
		fmt.Println(style.Info.Render(msg))
	})
	a.resolver = resolve.NewResolver(a.profiles, a.engine, settings.DefaultProfile)
	return a, nil
}

// resolveContext resolves the active profile and stack from the current
// working directory.
func (a *app) resolveContext() (*resolve.Context, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	return a.resolver.Resolve(cwd)
}

// stacksFor opens the stack registry of a profile.
func (a *app) stacksFor(p *profile.Profile) (*stack.Registry, error) {
	st, err := p.OpenStore()
	if err != nil {
		return nil, err
	}
	return stack.NewRegistry(st), nil
}

// syncActiveStack mirrors the profile's active-stack pointer onto its
// registry record so listings show it without opening every sub-store.
func (a *app) syncActiveStack(p *profile.Profile, name string) error {
	p.ActiveStack = name
	return a.profiles.Update(p)
}
