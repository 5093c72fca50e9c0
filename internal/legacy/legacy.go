// Package legacy detects pre-profile repository configuration. Before
// profiles existed, each repository kept its stacks in a hidden .kiln
// directory; this package reads that layout and tracks whether it has been
// migrated into a profile.
package legacy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	// MarkerDirName is the hidden directory marking a legacy repository root.
	MarkerDirName = ".kiln"

	// stacksFileName holds the legacy stack definitions.
	stacksFileName = "stacks.yaml"

	// migrationFileName records migration progress for this root.
	migrationFileName = "migration.yaml"
)

var (
	// ErrInvalidLegacyConfig indicates the marker directory exists but its
	// contents cannot be parsed.
	ErrInvalidLegacyConfig = errors.New("legacy repository config is invalid")
)

// StackDef is one legacy stack definition: component category to reference.
type StackDef map[string]string

// MigrationRecord tracks the one-time migration of a legacy root. The
// profile name is recorded before any profile is created; Completed flips to
// true only after every stack has been recreated, so a crash mid-migration
// leaves a resumable record rather than a duplicate profile.
type MigrationRecord struct {
	// Profile is the target profile name chosen for this root.
	Profile string `yaml:"profile"`

	// Completed is true once the migration finished.
	Completed bool `yaml:"completed"`

	// MigratedAt is when the migration completed.
	MigratedAt time.Time `yaml:"migrated_at,omitempty"`
}

// Repository is a detected legacy repository root.
type Repository struct {
	// Root is the absolute path containing the marker directory.
	Root string

	// Stacks are the legacy stack definitions by name.
	Stacks map[string]StackDef

	// ActiveStack is the stack the legacy config marked active, or empty.
	ActiveStack string

	// Migration is the recorded migration state, or nil if none started.
	Migration *MigrationRecord
}

// legacyConfig is the on-disk schema of stacks.yaml.
type legacyConfig struct {
	ActiveStack string              `yaml:"active_stack"`
	Stacks      map[string]StackDef `yaml:"stacks"`
}

// Migrated reports whether this root's migration has completed.
func (r *Repository) Migrated() bool {
	return r.Migration != nil && r.Migration.Completed
}

// markerDir returns the marker directory for a root.
func markerDir(root string) string {
	return filepath.Join(root, MarkerDirName)
}

// Detect reads the legacy marker at root. Returns (nil, nil) when root holds
// no marker directory or no stacks file. Reading is side-effect-free; the
// returned Repository includes any recorded migration state so callers can
// distinguish pending, in-progress, and completed migrations.
func Detect(root string) (*Repository, error) {
	dir := markerDir(root)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(dir, stacksFileName)) //nolint:gosec // G304: path under the detected root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading legacy stacks: %w", err)
	}

	var cfg legacyConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidLegacyConfig, root, err)
	}

	repo := &Repository{
		Root:        root,
		Stacks:      cfg.Stacks,
		ActiveStack: cfg.ActiveStack,
	}
	if repo.Stacks == nil {
		repo.Stacks = map[string]StackDef{}
	}

	mig, err := readMigrationRecord(dir)
	if err != nil {
		return nil, err
	}
	repo.Migration = mig

	return repo, nil
}

func readMigrationRecord(dir string) (*MigrationRecord, error) {
	data, err := os.ReadFile(filepath.Join(dir, migrationFileName)) //nolint:gosec // G304: path under the detected root
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading migration record: %w", err)
	}

	var rec MigrationRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: migration record: %v", ErrInvalidLegacyConfig, err)
	}
	return &rec, nil
}

// FindRoot walks upward from dir looking for a legacy marker directory,
// stopping at the filesystem root. Returns ("", false) if none is found.
func FindRoot(dir string) (string, bool) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		if info, err := os.Stat(markerDir(cur)); err == nil && info.IsDir() {
			return cur, true
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", false
		}
		cur = parent
	}
}

// RecordPendingMigration writes a migration record naming the target profile
// with Completed left false. Called before the profile is created so a retry
// after a crash can find and adopt the profile instead of creating another.
func (r *Repository) RecordPendingMigration(profileName string) error {
	rec := &MigrationRecord{Profile: profileName}
	if err := r.writeMigrationRecord(rec); err != nil {
		return err
	}
	r.Migration = rec
	return nil
}

// CompleteMigration marks this root's migration finished. The write is
// atomic (temp file plus rename), so the completed flag is either fully
// persisted or not at all.
func (r *Repository) CompleteMigration() error {
	if r.Migration == nil {
		return fmt.Errorf("%w: no pending migration to complete", ErrInvalidLegacyConfig)
	}
	rec := &MigrationRecord{
		Profile:    r.Migration.Profile,
		Completed:  true,
		MigratedAt: time.Now().UTC(),
	}
	if err := r.writeMigrationRecord(rec); err != nil {
		return err
	}
	r.Migration = rec
	return nil
}

func (r *Repository) writeMigrationRecord(rec *MigrationRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding migration record: %w", err)
	}

	dir := markerDir(r.Root)
	tmp, err := os.CreateTemp(dir, ".migration-*")
	if err != nil {
		return fmt.Errorf("writing migration record: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing migration record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing migration record: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, migrationFileName)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing migration record: %w", err)
	}
	return nil
}
