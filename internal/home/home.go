// Package home lays out the beats state directory.
package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the beats home directory.
	DefaultDirName = ".beats"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// ProcessedDBName is the processed set database.
	ProcessedDBName = "processed.db"

	// TranscriptsDirName holds provider call transcripts.
	TranscriptsDirName = "transcripts"

	// PromptsDirName holds prompt template overrides.
	PromptsDirName = "prompts"

	// LockFileName guards against concurrent runs.
	LockFileName = "run.lock"
)

// Dir represents the beats home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.beats).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// ProcessedDBPath returns the path to the processed set database.
func (d *Dir) ProcessedDBPath() string {
	return filepath.Join(d.path, ProcessedDBName)
}

// TranscriptsDir returns the directory for call transcripts.
func (d *Dir) TranscriptsDir() string {
	return filepath.Join(d.path, TranscriptsDirName)
}

// PromptsDir returns the directory searched for prompt overrides.
func (d *Dir) PromptsDir() string {
	return filepath.Join(d.path, PromptsDirName)
}

// LockPath returns the run lock file path.
func (d *Dir) LockPath() string {
	return filepath.Join(d.path, LockFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.TranscriptsDir(), d.PromptsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
