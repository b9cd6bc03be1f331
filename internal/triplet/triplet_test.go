package triplet

import (
	"fmt"
	"testing"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
)

func units(titles ...string) []scene.Unit {
	out := make([]scene.Unit, len(titles))
	for i, title := range titles {
		out[i] = scene.Unit{
			ID:       title + ".md",
			Title:    title,
			Body:     "some words here",
			Metadata: scene.Metadata{},
		}
	}
	return out
}

func number(u *scene.Unit) string {
	if u == nil {
		return "<nil>"
	}
	return u.Number()
}

func TestBuild_Neighbors(t *testing.T) {
	ctx := units("1", "2", "3", "4", "5")
	got := Build(ctx, ctx, Options{})

	if len(got) != len(ctx) {
		t.Fatalf("got %d triplets, want %d", len(got), len(ctx))
	}
	for i, tr := range got {
		wantPrev, wantNext := "<nil>", "<nil>"
		if i > 0 {
			wantPrev = ctx[i-1].Number()
		}
		if i < len(ctx)-1 {
			wantNext = ctx[i+1].Number()
		}
		if number(tr.Prev) != wantPrev || number(tr.Next) != wantNext {
			t.Errorf("triplet %d = (%s, %s), want (%s, %s)", i, number(tr.Prev), number(tr.Next), wantPrev, wantNext)
		}
		if tr.Current.ID != ctx[i].ID {
			t.Errorf("triplet %d current = %s", i, tr.Current.ID)
		}
	}
}

func TestBuild_TargetSubset(t *testing.T) {
	ctx := units("1", "2", "3", "4", "5")
	got := Build(ctx, []scene.Unit{ctx[1], ctx[3]}, Options{})

	if len(got) != 2 {
		t.Fatalf("got %d triplets", len(got))
	}
	if number(got[0].Prev) != "1" || number(got[0].Next) != "3" {
		t.Errorf("first = (%s, %s), want (1, 3)", number(got[0].Prev), number(got[0].Next))
	}
	if number(got[1].Prev) != "3" || number(got[1].Next) != "5" {
		t.Errorf("second = (%s, %s), want (3, 5)", number(got[1].Prev), number(got[1].Next))
	}
}

func TestBuild_TargetNotInContext(t *testing.T) {
	ctx := units("1", "2")
	stray := units("9")[0]
	got := Build(ctx, []scene.Unit{stray}, Options{})

	if got[0].Prev != nil || got[0].Next != nil {
		t.Error("expected no neighbors for a target outside the context list")
	}
	if got[0].Current.ID != stray.ID {
		t.Errorf("current = %s, want %s", got[0].Current.ID, stray.ID)
	}
}

func TestBuild_SuppressEmpty(t *testing.T) {
	ctx := units("1", "2", "3")
	ctx[0].Body = ""
	ctx[2].Metadata[scene.FieldWords] = 0

	t.Run("suppressed", func(t *testing.T) {
		tr := window(ctx, 1, Options{SuppressEmpty: true})
		if tr.Prev != nil || !tr.PrevEmpty {
			t.Error("expected empty previous neighbor to be suppressed")
		}
		if tr.Next != nil || !tr.NextEmpty {
			t.Error("expected empty next neighbor to be suppressed")
		}
		if got := KeyFor(tr, ""); got != "empty|2|empty" {
			t.Errorf("KeyFor = %q", got)
		}
	})

	t.Run("kept without suppression", func(t *testing.T) {
		tr := window(ctx, 1, Options{})
		if tr.Prev == nil || tr.Next == nil {
			t.Error("expected neighbors to be kept")
		}
	})

	t.Run("custom predicate", func(t *testing.T) {
		tr := window(ctx, 1, Options{SuppressEmpty: true, HasContent: func(scene.Unit) bool { return true }})
		if tr.Prev == nil || tr.Next == nil {
			t.Error("expected custom predicate to keep neighbors")
		}
	})
}

func TestKeyFor(t *testing.T) {
	ctx := units("16", "16.1 Escape", "17")
	tests := []struct {
		target int
		group  string
		want   string
	}{
		{0, "", "start|16|16.1"},
		{1, "", "16|16.1|17"},
		{2, "", "16.1|17|end"},
		{1, "Main Plot", "Main Plot::16|16.1|17"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", tt.target, tt.group), func(t *testing.T) {
			tr := window(ctx, tt.target, Options{})
			if got := KeyFor(tr, tt.group); got != tt.want {
				t.Errorf("KeyFor = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLabel(t *testing.T) {
	ctx := units("1", "2")
	if got := Label(window(ctx, 0, Options{})); got != "- > 1 > 2" {
		t.Errorf("Label = %q", got)
	}
}

func window(ctx []scene.Unit, i int, opts Options) Triplet {
	return Build(ctx, ctx[i:i+1], opts)[0]
}
