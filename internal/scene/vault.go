package scene

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultSceneClass is the class marker a note needs to be loaded as a scene.
const DefaultSceneClass = "Scene"

// ErrPathInvalid is returned when a unit id escapes the vault root.
var ErrPathInvalid = errors.New("invalid scene path")

// VaultConfig configures a Vault.
type VaultConfig struct {
	Root       string
	SceneClass string
	Logger     *slog.Logger
}

// Vault is a folder of markdown notes with YAML frontmatter. It is both the
// unit source and the metadata mutator of a run.
type Vault struct {
	root       string
	sceneClass string
	logger     *slog.Logger

	// mu serializes writes to the same vault from one process.
	mu sync.Mutex
}

var (
	_ Source  = (*Vault)(nil)
	_ Mutator = (*Vault)(nil)
)

// NewVault creates a vault rooted at cfg.Root.
func NewVault(cfg VaultConfig) (*Vault, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, fmt.Errorf("vault root is required")
	}
	info, err := os.Stat(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("vault root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault root %s is not a directory", cfg.Root)
	}
	class := cfg.SceneClass
	if class == "" {
		class = DefaultSceneClass
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Vault{root: cfg.Root, sceneClass: class, logger: logger}, nil
}

// Root returns the vault directory.
func (v *Vault) Root() string {
	return v.root
}

// Load walks the vault and returns every scene note in ordinal order.
// Notes that cannot be parsed are skipped.
func (v *Vault) Load(ctx context.Context) ([]Unit, error) {
	var units []Unit
	err := filepath.WalkDir(v.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != v.root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rel, err := filepath.Rel(v.root, path)
		if err != nil {
			return err
		}
		id := filepath.ToSlash(rel)

		unit, ok := v.readUnit(path, id)
		if ok {
			units = append(units, unit)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load vault: %w", err)
	}

	SortUnits(units)
	return units, nil
}

func (v *Vault) readUnit(path, id string) (Unit, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		v.logger.Debug("skipping unreadable note", "scene", id, "error", err)
		return Unit{}, false
	}
	doc, err := parseDocument(data)
	if err != nil {
		v.logger.Debug("skipping note", "scene", id, "error", err)
		return Unit{}, false
	}
	if !v.isScene(doc.meta) {
		return Unit{}, false
	}

	title, ok := doc.scalar(FieldTitle)
	if !ok {
		title = doc.meta.String(FieldTitle)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Unit{ID: id, Title: title, Body: doc.body, Metadata: doc.meta}, true
}

func (v *Vault) isScene(meta Metadata) bool {
	for _, class := range meta.Class() {
		if strings.EqualFold(class, v.sceneClass) {
			return true
		}
	}
	return false
}

// Mutate reads the unit's note, applies fn to a copy of its metadata and
// replaces the note atomically. If fn fails or the context is done, the note
// is left untouched.
func (v *Vault) Mutate(ctx context.Context, id string, fn MutateFunc) error {
	path, err := v.mapPath(id)
	if err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", id, err)
	}
	doc, err := parseDocument(data)
	if err != nil {
		return fmt.Errorf("parse %s: %w", id, err)
	}

	updated, err := fn(doc.meta.Clone())
	if err != nil {
		return err
	}
	if err := doc.apply(updated); err != nil {
		return fmt.Errorf("apply %s: %w", id, err)
	}
	out, err := doc.render()
	if err != nil {
		return fmt.Errorf("render %s: %w", id, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	return writeAtomic(path, out)
}

// mapPath joins id under the root, rejecting absolute or escaping paths.
func (v *Vault) mapPath(id string) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(id))
	if rel == "." || rel == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", fmt.Errorf("%w: %q", ErrPathInvalid, id)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathInvalid, id)
	}
	return filepath.Join(v.root, rel), nil
}

// writeAtomic writes data to a temp file next to dest and renames it over
// dest, keeping dest's permissions.
func writeAtomic(dest string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(dest); err == nil {
		perm = info.Mode().Perm()
	}

	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, perm)

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	_ = syncDir(dir)
	return nil
}

// syncDir fsyncs a directory so the rename survives a crash. Best effort.
func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
