// Package config locates the kiln config home and loads global settings.
// The config home holds the global store (profile registry), one sub-store
// per profile, and the optional config.toml settings file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// EnvConfigHome overrides the config home directory.
const EnvConfigHome = "KILN_CONFIG_HOME"

// settingsFileName is the optional global settings file inside the home.
const settingsFileName = "config.toml"

// Settings are user-tunable globals read from config.toml. Every field has a
// working default; a missing file is not an error.
type Settings struct {
	// Color enables styled terminal output. Stdout not being a terminal
	// still disables it.
	Color bool `toml:"color"`

	// StoreRoot overrides where the global registry store lives. Empty
	// means <config home>/store.
	StoreRoot string `toml:"store_root"`

	// DefaultProfile is the profile used when nothing else is active.
	DefaultProfile string `toml:"default_profile"`
}

// DefaultSettings returns the settings used when no config.toml exists.
func DefaultSettings() *Settings {
	return &Settings{
		Color:          true,
		DefaultProfile: "default",
	}
}

// Home returns the kiln config home: $KILN_CONFIG_HOME if set, otherwise
// the OS user config directory plus "kiln". The directory is created.
func Home() (string, error) {
	dir := os.Getenv(EnvConfigHome)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("locating config home: %w", err)
		}
		dir = filepath.Join(base, "kiln")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating config home %s: %w", dir, err)
	}
	return dir, nil
}

// Load reads config.toml from home, returning defaults when it is absent.
func Load(home string) (*Settings, error) {
	s := DefaultSettings()

	path := filepath.Join(home, settingsFileName)
	if _, err := toml.DecodeFile(path, s); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if s.DefaultProfile == "" {
		s.DefaultProfile = DefaultSettings().DefaultProfile
	}
	return s, nil
}

// Save writes the settings to config.toml in home.
func Save(home string, s *Settings) error {
	path := filepath.Join(home, settingsFileName)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600) //nolint:gosec // G304: path under config home
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(s); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

// StoreRoot returns the directory of the global registry store.
func StoreRoot(home string, s *Settings) string {
	if s != nil && s.StoreRoot != "" {
		return s.StoreRoot
	}
	return filepath.Join(home, "store")
}

// ProfilesDir returns the base directory for local profile sub-stores.
func ProfilesDir(home string) string {
	return filepath.Join(home, "profiles")
}
