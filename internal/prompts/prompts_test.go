package prompts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExtractVariables(t *testing.T) {
	text := "{{ .Current.Number }} {{.Prev.Body}} {{- .Current.Number -}} {{ template \"x\" .Next }}"
	got := ExtractVariables(text)
	want := []string{"Current.Number", "Prev.Body"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestResolver(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir, nil)
	r.Register(EmbeddedPrompt{Key: "beats.system", Text: "embedded"})

	t.Run("embedded default", func(t *testing.T) {
		p, err := r.Resolve("beats.system")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p.Text != "embedded" || p.IsOverride {
			t.Errorf("got %+v", p)
		}
		if p.Hash != HashText("embedded") {
			t.Error("hash mismatch")
		}
	})

	t.Run("override file wins", func(t *testing.T) {
		if err := os.WriteFile(filepath.Join(dir, "beats.system.tmpl"), []byte("custom"), 0o644); err != nil {
			t.Fatal(err)
		}
		p, err := r.Resolve("beats.system")
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}
		if p.Text != "custom" || !p.IsOverride {
			t.Errorf("got %+v", p)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		if _, err := r.Resolve("beats.missing"); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("invalid key", func(t *testing.T) {
		if _, err := r.Resolve("../etc"); err == nil {
			t.Error("expected error")
		}
	})
}
