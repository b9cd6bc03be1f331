package home

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-beats")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir.Path() != "/tmp/test-beats" {
			t.Errorf("expected path /tmp/test-beats, got %s", dir.Path())
		}
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		home, _ := os.UserHomeDir()
		expected := filepath.Join(home, DefaultDirName)
		if dir.Path() != expected {
			t.Errorf("expected path %s, got %s", expected, dir.Path())
		}
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-beats")

	tests := map[string]struct {
		got, want string
	}{
		"ConfigPath":      {dir.ConfigPath(), "/tmp/test-beats/config.yaml"},
		"ProcessedDBPath": {dir.ProcessedDBPath(), "/tmp/test-beats/processed.db"},
		"TranscriptsDir":  {dir.TranscriptsDir(), "/tmp/test-beats/transcripts"},
		"PromptsDir":      {dir.PromptsDir(), "/tmp/test-beats/prompts"},
		"LockPath":        {dir.LockPath(), "/tmp/test-beats/run.lock"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, tt.got)
			}
		})
	}
}

func TestDir_EnsureExists(t *testing.T) {
	beatsDir := filepath.Join(t.TempDir(), "beats-test")

	dir, err := New(beatsDir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dir.Exists() {
		t.Error("expected directory to not exist yet")
	}

	if err := dir.EnsureExists(); err != nil {
		t.Fatalf("EnsureExists failed: %v", err)
	}
	if !dir.Exists() {
		t.Error("expected directory to exist")
	}
	for _, sub := range []string{dir.TranscriptsDir(), dir.PromptsDir()} {
		if info, err := os.Stat(sub); err != nil || !info.IsDir() {
			t.Errorf("expected %s to exist", sub)
		}
	}
	if dir.ConfigExists() {
		t.Error("expected no config file")
	}

	// Idempotent
	if err := dir.EnsureExists(); err != nil {
		t.Errorf("second EnsureExists failed: %v", err)
	}
}
