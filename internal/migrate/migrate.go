// Package migrate turns a detected legacy repository into a registered
// profile, exactly once per repository root.
package migrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/kiln-ml/kiln/internal/legacy"
	"github.com/kiln-ml/kiln/internal/profile"
	"github.com/kiln-ml/kiln/internal/stack"
)

// ErrMigrationFailed indicates the migration could not complete: either the
// name-collision retries were exhausted or partial state is unrecoverable.
var ErrMigrationFailed = errors.New("migration failed")

const (
	// namePrefix starts every migrated profile name.
	namePrefix = "legacy-repository-"

	// maxNameAttempts bounds the retry loop on name collisions.
	maxNameAttempts = 5
)

// NoticeFunc receives the one-time human-readable migration notice. The CLI
// layer prints it; tests capture it.
type NoticeFunc func(msg string)

// Engine performs the one-time legacy-to-profile migration.
type Engine struct {
	profiles *profile.Registry
	notice   NoticeFunc
}

// NewEngine creates an Engine over the profile registry. notice may be nil.
func NewEngine(profiles *profile.Registry, notice NoticeFunc) *Engine {
	if notice == nil {
		notice = func(string) {}
	}
	return &Engine{profiles: profiles, notice: notice}
}

// candidateName generates a migrated-profile name: the fixed prefix plus the
// first 8 hex characters of a fresh UUID. With 32 bits of suffix entropy the
// collision probability across realistic registry sizes is negligible, and a
// collision only costs one retry.
func candidateName() string {
	return namePrefix + strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
}

// Migrate transforms repo into a registered profile. The operation is
// idempotent: a completed migration returns the already-created profile
// without touching the registry, and a crashed migration resumes from the
// pending record instead of creating a duplicate.
//
// Ordering is deliberate. The target name is recorded in the repository
// marker before the profile is created, and the completed flag is written
// last, so a crash at any point leaves either a resumable record or a
// finished one, never two profiles for the same root.
func (e *Engine) Migrate(repo *legacy.Repository) (*profile.Profile, error) {
	if repo.Migrated() {
		return e.profiles.Get(repo.Migration.Profile)
	}

	p, err := e.ensureProfile(repo)
	if err != nil {
		return nil, err
	}

	if err := e.copyStacks(repo, p); err != nil {
		return nil, err
	}

	if err := repo.CompleteMigration(); err != nil {
		// The marker stays pending; the next invocation resumes and
		// adopts the profile created above.
		return nil, fmt.Errorf("%w: finalizing marker for %s: %v", ErrMigrationFailed, repo.Root, err)
	}

	e.notice(fmt.Sprintf(
		"Migrated legacy repository at %s to profile %q.\n"+
			"Run 'kiln profile delete %s' if you no longer need it.",
		repo.Root, p.Name, p.Name))

	return p, nil
}

// ensureProfile returns the target profile for repo, creating it if needed.
// A pending record whose profile already exists is adopted as-is.
func (e *Engine) ensureProfile(repo *legacy.Repository) (*profile.Profile, error) {
	if repo.Migration != nil && repo.Migration.Profile != "" {
		p, err := e.profiles.Get(repo.Migration.Profile)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, profile.ErrProfileNotFound) {
			return nil, err
		}
		// Recorded but never created; fall through and create it under
		// the recorded name.
		return e.createProfile(repo, repo.Migration.Profile)
	}

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := candidateName()
		if err := repo.RecordPendingMigration(name); err != nil {
			return nil, fmt.Errorf("%w: recording target name: %v", ErrMigrationFailed, err)
		}
		p, err := e.createProfile(repo, name)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, profile.ErrProfileExists) {
			continue
		}
		return nil, err
	}
	return nil, fmt.Errorf("%w: exhausted %d name attempts for %s", ErrMigrationFailed, maxNameAttempts, repo.Root)
}

func (e *Engine) createProfile(repo *legacy.Repository, name string) (*profile.Profile, error) {
	// The new profile gets a fresh sub-store in the global location, never
	// the legacy path.
	p, err := e.profiles.Create(name, profile.StoreTypeLocal, "")
	if err != nil {
		return nil, err
	}

	p.Source = profile.SourceMigration
	if err := e.profiles.Update(p); err != nil {
		return nil, err
	}
	return p, nil
}

// copyStacks recreates every legacy stack in the profile's stack registry,
// preserving the active one. Stacks that already exist (a resumed migration)
// are left untouched.
func (e *Engine) copyStacks(repo *legacy.Repository, p *profile.Profile) error {
	st, err := p.OpenStore()
	if err != nil {
		return err
	}
	stacks := stack.NewRegistry(st)

	for name, def := range repo.Stacks {
		components := make(map[stack.Category]string, len(def))
		for cat, ref := range def {
			components[stack.Category(cat)] = ref
		}
		if _, err := stacks.Create(name, components); err != nil {
			if errors.Is(err, stack.ErrStackExists) {
				continue
			}
			return err
		}
	}

	if repo.ActiveStack != "" {
		if err := stacks.SetActive(repo.ActiveStack); err != nil {
			return err
		}
		p.ActiveStack = repo.ActiveStack
		if err := e.profiles.Update(p); err != nil {
			return err
		}
	}
	return nil
}
