package selection

import (
	"strconv"
	"testing"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

type keySet map[string]bool

func (k keySet) Contains(key string) bool { return k[key] }

func unit(n int, meta scene.Metadata) scene.Unit {
	title := strconv.Itoa(n)
	return scene.Unit{ID: title + ".md", Title: title, Body: "words in a scene", Metadata: meta}
}

// catalog: 1 ready+flagged, 2 ready+analyzed, 3 not ready+flagged,
// 4 ready (legacy flag), 5 ready+legacy analysis, 6 ready.
func catalog() []scene.Unit {
	return []scene.Unit{
		unit(1, scene.Metadata{scene.FieldStatus: "Complete", scene.FieldUpdate: "Yes"}),
		unit(2, scene.Metadata{scene.FieldStatus: "Complete", scene.FieldLastUpdated: "x by y"}),
		unit(3, scene.Metadata{scene.FieldStatus: "Working", scene.FieldUpdate: "Yes"}),
		unit(4, scene.Metadata{scene.FieldStatus: []any{"Complete"}, scene.FieldUpdateAlias: "yes"}),
		unit(5, scene.Metadata{scene.FieldStatus: "Complete", "3beats": "- a"}),
		unit(6, scene.Metadata{scene.FieldStatus: "complete"}),
	}
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"force-all":   ModeForceAll,
		"forceAll":    ModeForceAll,
		"Unprocessed": ModeUnprocessed,
		"flagged":     ModeFlagged,
		"smart":       ModeSmart,
	}
	for in, want := range tests {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseMode("sometimes"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestFilter_Counts(t *testing.T) {
	f := Filter{ReadyStatuses: []string{"Complete"}}
	counts := f.Counts(catalog())

	want := map[Mode]int{
		ModeForceAll:    5,
		ModeUnprocessed: 3,
		ModeFlagged:     2,
		ModeSmart:       2,
	}
	for mode, n := range want {
		if counts[mode] != n {
			t.Errorf("count[%s] = %d, want %d", mode, counts[mode], n)
		}
	}
}

func TestFilter_SmartSkipsProcessed(t *testing.T) {
	all := catalog()
	f := Filter{}

	processed := keySet{}
	for _, tr := range f.Select(ModeFlagged, all).Triplets {
		if tr.Current.ID == "1.md" {
			processed[triplet.KeyFor(tr, "")] = true
		}
	}
	f.Processed = processed

	sel := f.Select(ModeSmart, all)
	if len(sel.Targets) != 1 || sel.Targets[0].ID != "4.md" {
		t.Fatalf("smart targets = %v, want only 4.md", ids(sel.Targets))
	}
	if f.Count(ModeSmart, all) != len(sel.Triplets) {
		t.Error("Count diverges from Select")
	}
}

func TestFilter_SmartReprocessesChangedWindow(t *testing.T) {
	all := catalog()
	f := Filter{Processed: keySet{"start|1|2": true}}

	// A scene inserted before 1 changes its window, so it is eligible again.
	withPrologue := append([]scene.Unit{unit(0, scene.Metadata{})}, all...)
	if n := f.Count(ModeSmart, withPrologue); n != 2 {
		t.Errorf("smart count = %d, want 2", n)
	}
	if n := f.Count(ModeSmart, all); n != 1 {
		t.Errorf("smart count = %d, want 1", n)
	}
}

func TestFilter_Group(t *testing.T) {
	all := catalog()
	all[0].Metadata[scene.FieldSubplot] = []any{"Main Plot", "B"}
	all[2].Metadata[scene.FieldSubplot] = "Main Plot"
	all[3].Metadata[scene.FieldSubplot] = "main plot"

	f := Filter{Group: "Main Plot"}
	sel := f.Select(ModeFlagged, all)

	if len(sel.Context) != 3 {
		t.Fatalf("context = %v, want 3 units", ids(sel.Context))
	}
	if len(sel.Triplets) != 2 {
		t.Fatalf("triplets = %d, want 2", len(sel.Triplets))
	}
	// Within the group, 4's previous neighbor is 3, not 3's manuscript neighbor.
	if got := triplet.KeyFor(sel.Triplets[1], f.Group); got != "Main Plot::3|4|end" {
		t.Errorf("key = %q", got)
	}
}

func TestFilter_SelectLargeCatalog(t *testing.T) {
	const n = 20000
	all := make([]scene.Unit, 0, n)
	for i := 1; i <= n; i++ {
		all = append(all, unit(i, scene.Metadata{scene.FieldStatus: "Complete", scene.FieldUpdate: "Yes"}))
	}
	f := Filter{Processed: keySet{"1|2|3": true}}

	sel := f.Select(ModeSmart, all)
	if len(sel.Triplets) != n-1 || len(sel.Targets) != n-1 {
		t.Fatalf("triplets = %d, targets = %d, want %d", len(sel.Triplets), len(sel.Targets), n-1)
	}
	for i, tr := range sel.Triplets {
		if tr.Current.ID != sel.Targets[i].ID {
			t.Fatalf("triplet %d is for %s, target is %s", i, tr.Current.ID, sel.Targets[i].ID)
		}
	}
	if got := triplet.KeyFor(sel.Triplets[0], ""); got != "start|1|2" {
		t.Errorf("first key = %q", got)
	}
	if got := sel.Targets[1].ID; got != "3.md" {
		t.Errorf("second target = %s, want 3.md (2 already processed)", got)
	}
	if got := triplet.KeyFor(sel.Triplets[n-2], ""); got != "19999|20000|end" {
		t.Errorf("last key = %q", got)
	}
}

func BenchmarkFilter_Select(b *testing.B) {
	all := make([]scene.Unit, 0, 5000)
	for i := 1; i <= 5000; i++ {
		all = append(all, unit(i, scene.Metadata{scene.FieldStatus: "Complete"}))
	}
	f := Filter{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Select(ModeForceAll, all)
	}
}

func ids(units []scene.Unit) []string {
	var out []string
	for _, u := range units {
		out = append(out, u.ID)
	}
	return out
}
