package scene

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write note: %v", err)
	}
	return path
}

func newTestVault(t *testing.T, dir string) *Vault {
	t.Helper()
	v, err := NewVault(VaultConfig{Root: dir})
	if err != nil {
		t.Fatalf("NewVault: %v", err)
	}
	return v
}

func TestMetadata_UpdateRequested(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want bool
	}{
		{"canonical yes", Metadata{FieldUpdate: "Yes"}, true},
		{"canonical lowercase y", Metadata{FieldUpdate: "y"}, true},
		{"legacy true", Metadata{FieldUpdateAlias: "true"}, true},
		{"bool true", Metadata{FieldUpdate: true}, true},
		{"int one", Metadata{FieldUpdate: 1}, true},
		{"no", Metadata{FieldUpdate: "No"}, false},
		{"missing", Metadata{}, false},
		{"legacy only affirmative", Metadata{FieldUpdate: "No", FieldUpdateAlias: "Yes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.UpdateRequested(); got != tt.want {
				t.Errorf("UpdateRequested() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_HasStatus(t *testing.T) {
	ready := []string{"Complete"}
	if !(Metadata{FieldStatus: "complete"}).HasStatus(ready) {
		t.Error("expected case-insensitive status match")
	}
	if !(Metadata{FieldStatus: []any{"Todo", "Complete"}}).HasStatus(ready) {
		t.Error("expected list status match")
	}
	if (Metadata{FieldStatus: "Working"}).HasStatus(ready) {
		t.Error("expected Working to not be ready")
	}
}

func TestMetadata_HasAnalysis(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want bool
	}{
		{"stamp", Metadata{FieldLastUpdated: "2024-01-01T00:00:00Z by m"}, true},
		{"canonical field", Metadata{FieldCurrent: []any{"a"}}, true},
		{"legacy field", Metadata{"2beats": "- a"}, true},
		{"empty values", Metadata{FieldCurrent: "", "1beats": []any{}}, false},
		{"none", Metadata{FieldStatus: "Complete"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.HasAnalysis(); got != tt.want {
				t.Errorf("HasAnalysis() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMetadata_Clone(t *testing.T) {
	orig := Metadata{"list": []any{"a", "b"}, "nested": map[string]any{"k": "v"}}
	c := orig.Clone()
	c["list"].([]any)[0] = "changed"
	c["nested"].(map[string]any)["k"] = "changed"

	if orig["list"].([]any)[0] != "a" {
		t.Error("clone shares list storage")
	}
	if orig["nested"].(map[string]any)["k"] != "v" {
		t.Error("clone shares map storage")
	}
}

func TestUnit_Words(t *testing.T) {
	u := Unit{Body: "one two three"}
	if got := u.Words(); got != 3 {
		t.Errorf("Words() = %d, want 3", got)
	}
	u.Metadata = Metadata{FieldWords: 1200}
	if got := u.Words(); got != 1200 {
		t.Errorf("Words() = %d, want declared 1200", got)
	}
	u.Metadata = Metadata{FieldWords: 0}
	if u.HasContent() {
		t.Error("declared zero words should have no content")
	}
}

func TestVault_Load(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "16.10 Later.md", "---\nClass: Scene\nStatus: Complete\n---\nbody\n")
	writeNote(t, dir, "16.9 Earlier.md", "---\nClass: Scene\n---\nbody\n")
	writeNote(t, dir, "Book/2 Two.md", "---\nClass: [Scene]\n---\nbody\n")
	writeNote(t, dir, "notes.md", "---\nClass: Character\n---\n")
	writeNote(t, dir, "broken.md", "---\nClass: [Scene\n---\n")
	writeNote(t, dir, "plain.md", "no frontmatter")
	writeNote(t, dir, ".obsidian/1 Hidden.md", "---\nClass: Scene\n---\n")
	writeNote(t, dir, "1 Crlf.md", "---\r\nClass: Scene\r\n---\r\nbody\r\n")

	units, err := newTestVault(t, dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var got []string
	for _, u := range units {
		got = append(got, u.Title)
	}
	want := []string{"1 Crlf", "2 Two", "16.9 Earlier", "16.10 Later"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("loaded %v, want %v", got, want)
	}
	if units[1].ID != "Book/2 Two.md" {
		t.Errorf("ID = %q, want slash path", units[1].ID)
	}
}

func TestVault_NumericTitle(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "---\nClass: Scene\nTitle: 16.10\n---\nbody\n")
	writeNote(t, dir, "b.md", "---\nClass: Scene\nTitle: 16.1\n---\nbody\n")
	writeNote(t, dir, "c.md", "---\nClass: Scene\nTitle: 16.9 Storm\n---\nbody\n")
	writeNote(t, dir, "7 Blank.md", "---\nClass: Scene\nTitle:\n---\nbody\n")

	units, err := newTestVault(t, dir).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	var got []string
	for _, u := range units {
		got = append(got, u.Number())
	}
	want := []string{"7", "16.1", "16.9", "16.10"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("numbers = %v, want %v", got, want)
	}
	if units[3].Title != "16.10" {
		t.Errorf("Title = %q, want 16.10", units[3].Title)
	}
}

func TestVault_Mutate(t *testing.T) {
	t.Run("preserves key order and body", func(t *testing.T) {
		dir := t.TempDir()
		path := writeNote(t, dir, "3 Scene.md",
			"---\nClass: Scene\n# keep me\nStatus: Complete\nBeats Update: Yes\nWords: 10\n---\n# Heading\n\nBody text.\n")
		v := newTestVault(t, dir)

		err := v.Mutate(context.Background(), "3 Scene.md", func(m Metadata) (Metadata, error) {
			m[FieldUpdate] = UpdateDone
			m[FieldLastUpdated] = "now by model"
			m[FieldCurrent] = []string{"a", "b"}
			return m, nil
		})
		if err != nil {
			t.Fatalf("Mutate: %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		got := string(data)
		if !strings.HasSuffix(got, "---\n# Heading\n\nBody text.\n") {
			t.Errorf("body not preserved:\n%s", got)
		}
		if !strings.Contains(got, "# keep me") {
			t.Errorf("comment not preserved:\n%s", got)
		}
		order := []string{"Class:", "Status:", "Beats Update:", "Words: 10", "Beats Last Updated:", "currentSceneAnalysis:"}
		last := -1
		for _, s := range order {
			idx := strings.Index(got, s)
			if idx < 0 || idx < last {
				t.Fatalf("expected %q after previous keys:\n%s", s, got)
			}
			last = idx
		}

		units, err := v.Load(context.Background())
		if err != nil || len(units) != 1 {
			t.Fatalf("reload: %v, %d units", err, len(units))
		}
		if units[0].Metadata.UpdateRequested() {
			t.Error("flag still set after mutate")
		}
	})

	t.Run("failed mutation leaves note untouched", func(t *testing.T) {
		dir := t.TempDir()
		content := "---\nClass: Scene\nBeats Update: Yes\n---\nbody\n"
		path := writeNote(t, dir, "1 A.md", content)
		v := newTestVault(t, dir)

		boom := errors.New("boom")
		err := v.Mutate(context.Background(), "1 A.md", func(m Metadata) (Metadata, error) {
			m[FieldUpdate] = UpdateDone
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != content {
			t.Errorf("note changed:\n%s", data)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 1 {
			t.Errorf("expected no temp files, got %d entries", len(entries))
		}
	})

	t.Run("cancelled context leaves note untouched", func(t *testing.T) {
		dir := t.TempDir()
		content := "---\nClass: Scene\n---\nbody\n"
		path := writeNote(t, dir, "1 A.md", content)
		v := newTestVault(t, dir)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := v.Mutate(ctx, "1 A.md", func(m Metadata) (Metadata, error) {
			m["x"] = "y"
			return m, nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		data, _ := os.ReadFile(path)
		if string(data) != content {
			t.Errorf("note changed:\n%s", data)
		}
	})

	t.Run("rejects escaping ids", func(t *testing.T) {
		v := newTestVault(t, t.TempDir())
		for _, id := range []string{"../outside.md", "/etc/passwd", ""} {
			err := v.Mutate(context.Background(), id, func(m Metadata) (Metadata, error) { return m, nil })
			if !errors.Is(err, ErrPathInvalid) {
				t.Errorf("Mutate(%q) = %v, want ErrPathInvalid", id, err)
			}
		}
	})
}
