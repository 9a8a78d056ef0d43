package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Store.Root = "/srv/investigations"
	cfg.Crypto.Iterations = 250000
	cfg.Keyring.Enabled = false

	if err := WriteConfig(tmpDir, cfg); err != nil {
		t.Fatalf("WriteConfig failed: %v", err)
	}

	loaded, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if loaded.Store.Root != "/srv/investigations" {
		t.Errorf("Store.Root: got %q, want %q", loaded.Store.Root, "/srv/investigations")
	}
	if loaded.Crypto.Iterations != 250000 {
		t.Errorf("Crypto.Iterations: got %d, want 250000", loaded.Crypto.Iterations)
	}
	if loaded.Keyring.Enabled {
		t.Error("Keyring.Enabled: got true, want false")
	}
}

func TestMissingConfigFallsBackToDefaults(t *testing.T) {
	tmpDir := t.TempDir()

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if cfg.Crypto.Iterations != 100000 {
		t.Errorf("default iterations: got %d, want 100000", cfg.Crypto.Iterations)
	}
	if cfg.Store.Root != filepath.Join(tmpDir, "sessions") {
		t.Errorf("default store root: got %q", cfg.Store.Root)
	}
	if !cfg.Keyring.Enabled {
		t.Error("keyring should default to enabled")
	}
}

func TestPartialConfigKeepsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	partial := "version: 1\nstore:\n  default_mode: batch\n"
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte(partial), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ReadConfig(tmpDir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Store.DefaultMode != "batch" {
		t.Errorf("DefaultMode: got %q, want %q", cfg.Store.DefaultMode, "batch")
	}
	if cfg.Crypto.Iterations != 100000 {
		t.Errorf("iterations should fall back to default, got %d", cfg.Crypto.Iterations)
	}
}

func TestDirHonorsEnvOverride(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("CASEFILE_HOME", tmpDir)

	dir, err := Dir()
	if err != nil {
		t.Fatalf("Dir failed: %v", err)
	}
	if dir != tmpDir {
		t.Errorf("Dir: got %q, want %q", dir, tmpDir)
	}
}

func TestMalformedConfigFails(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.yaml"), []byte("{not yaml: ["), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadConfig(tmpDir); err == nil {
		t.Error("expected error for malformed config")
	}
}
