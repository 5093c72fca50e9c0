package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHome_EnvOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kiln-home")
	t.Setenv(EnvConfigHome, dir)

	home, err := Home()
	if err != nil {
		t.Fatalf("Home: %v", err)
	}
	if home != dir {
		t.Errorf("home = %q, want %q", home, dir)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("home directory not created: %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Color {
		t.Error("color should default to true")
	}
	if s.DefaultProfile != "default" {
		t.Errorf("default profile = %q, want %q", s.DefaultProfile, "default")
	}
	if s.StoreRoot != "" {
		t.Errorf("store root = %q, want empty", s.StoreRoot)
	}
}

func TestLoad_ParsesFile(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	content := "color = false\nstore_root = \"/var/lib/kiln\"\ndefault_profile = \"team\"\n"
	if err := os.WriteFile(filepath.Join(home, "config.toml"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	s, err := Load(home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Color {
		t.Error("color should be false")
	}
	if s.StoreRoot != "/var/lib/kiln" {
		t.Errorf("store root = %q", s.StoreRoot)
	}
	if s.DefaultProfile != "team" {
		t.Errorf("default profile = %q", s.DefaultProfile)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	in := &Settings{Color: true, DefaultProfile: "prod"}
	if err := Save(home, in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := Load(home)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if out.DefaultProfile != "prod" {
		t.Errorf("default profile = %q, want %q", out.DefaultProfile, "prod")
	}
}

func TestStoreRoot(t *testing.T) {
	t.Parallel()

	home := "/home/alice/.config/kiln"
	if got := StoreRoot(home, &Settings{}); got != filepath.Join(home, "store") {
		t.Errorf("store root = %q", got)
	}
	if got := StoreRoot(home, &Settings{StoreRoot: "/mnt/kiln"}); got != "/mnt/kiln" {
		t.Errorf("store root override = %q", got)
	}
}
