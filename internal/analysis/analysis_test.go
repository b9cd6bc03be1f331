package analysis

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
)

const wellFormed = `previousSceneAnalysis:
- 1: + Sets up the conflict
- Hook: strong opening
currentSceneAnalysis:
- 2: B Solid scene with a clear turn
- Pacing: ? Middle section drags
nextSceneAnalysis:
- 3: + Picks up the thread`

func TestParse(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		r, ok := Parse(wellFormed)
		if !ok {
			t.Fatal("Parse() reported failure")
		}
		want := Result{
			Previous: []string{"- 1 - + Sets up the conflict", "- Hook - strong opening"},
			Current:  []string{"- 2 - B Solid scene with a clear turn", "- Pacing - ? Middle section drags"},
			Next:     []string{"- 3 - + Picks up the thread"},
		}
		if !reflect.DeepEqual(*r, want) {
			t.Errorf("Parse() = %+v\nwant %+v", *r, want)
		}
	})

	t.Run("missing middle label", func(t *testing.T) {
		raw := strings.Replace(wellFormed, "currentSceneAnalysis:", "", 1)
		if r, ok := Parse(raw); ok || r != nil {
			t.Errorf("Parse() = %+v, %v; want nil, false", r, ok)
		}
	})

	t.Run("labels out of order", func(t *testing.T) {
		raw := "nextSceneAnalysis:\n- a\ncurrentSceneAnalysis:\n- b\npreviousSceneAnalysis:\n- c"
		if _, ok := Parse(raw); ok {
			t.Error("expected failure")
		}
	})

	t.Run("all sections empty", func(t *testing.T) {
		raw := "previousSceneAnalysis:\n\ncurrentSceneAnalysis:\nno bullets here\nnextSceneAnalysis:\n-   \n"
		if _, ok := Parse(raw); ok {
			t.Error("expected failure")
		}
	})

	t.Run("decorated labels and escaped newlines", func(t *testing.T) {
		raw := `**previousSceneAnalysis:**\n- 1: + Good setup\n## CurrentSceneAnalysis:\n* 2: A Strong\n• Dialogue: crisp\n__nextSceneAnalysis__:\n- 3: - Weak handoff\n\n\n`
		r, ok := Parse(raw)
		if !ok {
			t.Fatal("Parse() reported failure")
		}
		if got := r.Current; !reflect.DeepEqual(got, []string{"- 2 - A Strong", "- Dialogue - crisp"}) {
			t.Errorf("Current = %q", got)
		}
		if got := r.Next; !reflect.DeepEqual(got, []string{"- 3 - - Weak handoff"}) {
			t.Errorf("Next = %q", got)
		}
	})

	t.Run("boundary section may be empty", func(t *testing.T) {
		raw := "previousSceneAnalysis:\ncurrentSceneAnalysis:\n- 1: A Opening\nnextSceneAnalysis:\n- 2: + Good"
		r, ok := Parse(raw)
		if !ok {
			t.Fatal("Parse() reported failure")
		}
		if len(r.Previous) != 0 || len(r.Current) != 1 {
			t.Errorf("got %+v", r)
		}
	})

	t.Run("prose lines are dropped", func(t *testing.T) {
		raw := "Here is my review.\npreviousSceneAnalysis:\nSome intro text\n- 1: fine\ncurrentSceneAnalysis:\n- 2: ok\n**bold aside**\nnextSceneAnalysis:\n- 3: good\nThanks!"
		r, ok := Parse(raw)
		if !ok {
			t.Fatal("Parse() reported failure")
		}
		if len(r.Previous) != 1 || len(r.Current) != 1 || len(r.Next) != 1 {
			t.Errorf("got %+v", r)
		}
	})

	t.Run("garbage never panics", func(t *testing.T) {
		for _, raw := range []string{"", ":", "previousSceneAnalysis", `\n\n\n`, "nextSceneAnalysis:previousSceneAnalysis:"} {
			if _, ok := Parse(raw); ok {
				t.Errorf("Parse(%q) succeeded", raw)
			}
		}
	})
}

func TestWrite(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	r, _ := Parse(wellFormed)

	t.Run("replaces analysis and clears flag", func(t *testing.T) {
		old := scene.Metadata{
			scene.FieldTitle:   "2 The Turn",
			scene.FieldUpdate:  "Yes",
			"1beats":           "- old",
			scene.FieldCurrent: []any{"stale"},
		}
		got := Write(old, *r, "claude-sonnet-4-5-20250929", now)

		if _, ok := got["1beats"]; ok {
			t.Error("legacy field not removed")
		}
		if got[scene.FieldUpdate] != scene.UpdateDone {
			t.Errorf("flag = %v", got[scene.FieldUpdate])
		}
		if want := "2026-03-14T09:30:00Z by claude-sonnet-4-5-20250929"; got[scene.FieldLastUpdated] != want {
			t.Errorf("stamp = %v, want %s", got[scene.FieldLastUpdated], want)
		}
		wantCurrent := []any{"2 - B Solid scene with a clear turn", "Pacing - ? Middle section drags"}
		if !reflect.DeepEqual(got[scene.FieldCurrent], wantCurrent) {
			t.Errorf("current = %v", got[scene.FieldCurrent])
		}
		if old[scene.FieldUpdate] != "Yes" || old["1beats"] == nil {
			t.Error("Write modified its input")
		}
	})

	t.Run("keeps existing alias", func(t *testing.T) {
		got := Write(scene.Metadata{scene.FieldUpdateAlias: "yes"}, *r, "m", now)
		if _, ok := got[scene.FieldUpdate]; ok {
			t.Error("canonical flag added next to alias")
		}
		if got[scene.FieldUpdateAlias] != scene.UpdateDone {
			t.Errorf("alias = %v", got[scene.FieldUpdateAlias])
		}
		if got.UpdateRequested() {
			t.Error("unit still flagged")
		}
	})

	t.Run("canonical flag when none present", func(t *testing.T) {
		got := Write(scene.Metadata{}, *r, "m", now)
		if got[scene.FieldUpdate] != scene.UpdateDone {
			t.Errorf("flag = %v", got[scene.FieldUpdate])
		}
	})

	t.Run("empty section omitted", func(t *testing.T) {
		got := Write(scene.Metadata{scene.FieldPrevious: []any{"old"}}, Result{Current: []string{"- 1 - A"}}, "m", now)
		if _, ok := got[scene.FieldPrevious]; ok {
			t.Error("empty previous section written")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		old := scene.Metadata{scene.FieldUpdate: "Yes", scene.FieldStatus: "Complete"}
		first := Write(old, *r, "m", now)
		if !reflect.DeepEqual(first, Write(old, *r, "m", now)) {
			t.Error("same inputs produced different metadata")
		}
		if !reflect.DeepEqual(first, Write(first, *r, "m", now)) {
			t.Error("rewriting the output changed it")
		}
	})
}
