package beats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

func sceneUnit(n, body string) scene.Unit {
	return scene.Unit{ID: n + ".md", Title: n + " Title", Body: body, Metadata: scene.Metadata{}}
}

func embeddedBuilder(t *testing.T) *Builder {
	t.Helper()
	r := prompts.NewResolver("", nil)
	RegisterPrompts(r)
	b, err := NewBuilder(r)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	return b
}

func mustBuild(t *testing.T, b *Builder, tr triplet.Triplet) Request {
	t.Helper()
	req, err := b.Build(tr)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return req
}

func TestBuilder_Build(t *testing.T) {
	b := embeddedBuilder(t)
	ctx := []scene.Unit{
		sceneUnit("1", "The door opens."),
		sceneUnit("2", "She runs."),
		sceneUnit("3", ""),
	}

	t.Run("full window", func(t *testing.T) {
		req := mustBuild(t, b, window(ctx, 1, triplet.Options{}))
		for _, want := range []string{"Review scene 2.", "Scene 1 (1 Title):", "The door opens.", "She runs."} {
			if !strings.Contains(req.User, want) {
				t.Errorf("user prompt missing %q:\n%s", want, req.User)
			}
		}
		if !strings.Contains(req.System, "previousSceneAnalysis:") {
			t.Error("system prompt missing answer labels")
		}
		if req.Hash == "" {
			t.Error("expected template hash")
		}
	})

	t.Run("boundary", func(t *testing.T) {
		req := mustBuild(t, b, window(ctx, 0, triplet.Options{}))
		if !strings.Contains(req.User, "start of the manuscript") {
			t.Errorf("expected start marker:\n%s", req.User)
		}
	})

	t.Run("suppressed neighbor", func(t *testing.T) {
		req := mustBuild(t, b, window(ctx, 1, triplet.Options{SuppressEmpty: true}))
		if !strings.Contains(req.User, "next scene has no content") {
			t.Errorf("expected empty marker:\n%s", req.User)
		}
	})

	t.Run("pure", func(t *testing.T) {
		tr := window(ctx, 1, triplet.Options{})
		if mustBuild(t, b, tr) != mustBuild(t, b, tr) {
			t.Error("Build is not deterministic")
		}
	})
}

func TestBuilder_Override(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, UserPromptKey+".tmpl"), []byte("Scene {{ .Current.Number }} only"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := prompts.NewResolver(dir, nil)
	RegisterPrompts(r)

	b, err := NewBuilder(r)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	ctx := []scene.Unit{sceneUnit("7", "x")}
	req, err := b.Build(window(ctx, 0, triplet.Options{}))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if req.User != "Scene 7 only" {
		t.Errorf("User = %q", req.User)
	}
	if req.System != systemPrompt {
		t.Error("expected embedded system prompt")
	}
}

func TestBuilder_BadOverride(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, UserPromptKey+".tmpl"), []byte("{{ .Current.Number "), 0o644); err != nil {
		t.Fatal(err)
	}
	r := prompts.NewResolver(dir, nil)
	RegisterPrompts(r)

	if _, err := NewBuilder(r); err == nil {
		t.Error("expected parse error")
	}
}

func TestBuilder_RenderError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, UserPromptKey+".tmpl"), []byte("{{ .Current.Wordcount }}"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := prompts.NewResolver(dir, nil)
	RegisterPrompts(r)

	b, err := NewBuilder(r)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	ctx := []scene.Unit{sceneUnit("7", "x")}
	if _, err := b.Build(window(ctx, 0, triplet.Options{})); err == nil {
		t.Error("expected render error for unknown field")
	}
}

func window(ctx []scene.Unit, i int, opts triplet.Options) triplet.Triplet {
	return triplet.Build(ctx, ctx[i:i+1], opts)[0]
}
