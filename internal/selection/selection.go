// Package selection decides which scenes a run processes.
//
// The same Select path serves live counting, estimates and the run itself,
// so the numbers a user confirms are the numbers the run works through.
package selection

import (
	"fmt"
	"strings"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

// Mode is a processing mode.
type Mode string

const (
	ModeForceAll    Mode = "force-all"
	ModeUnprocessed Mode = "unprocessed"
	ModeFlagged     Mode = "flagged"
	ModeSmart       Mode = "smart"
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeForceAll, ModeUnprocessed, ModeFlagged, ModeSmart}

// DefaultReadyStatuses is used when a Filter has no ready statuses.
var DefaultReadyStatuses = []string{"Complete"}

// ParseMode accepts the canonical mode names plus a few spellings users type.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "force-all", "forceall", "force_all", "all":
		return ModeForceAll, nil
	case "unprocessed":
		return ModeUnprocessed, nil
	case "flagged":
		return ModeFlagged, nil
	case "smart", "":
		return ModeSmart, nil
	}
	return "", fmt.Errorf("unknown mode %q (want one of force-all, unprocessed, flagged, smart)", s)
}

// Membership reports whether a processed key is already recorded.
type Membership interface {
	Contains(key string) bool
}

// Filter holds everything a mode predicate depends on.
type Filter struct {
	ReadyStatuses []string
	// Processed is consulted by smart mode only; nil means empty.
	Processed Membership
	// Group restricts the run to units tagged with this subplot.
	Group    string
	Triplets triplet.Options
}

// Selection is the outcome of applying a mode to a catalog.
type Selection struct {
	Mode     Mode
	Context  []scene.Unit
	Targets  []scene.Unit
	Triplets []triplet.Triplet
}

// Select applies mode to the ordered catalog.
func (f Filter) Select(mode Mode, all []scene.Unit) Selection {
	ctx := f.contextList(all)
	sel := Selection{Mode: mode, Context: ctx}

	var eligible []scene.Unit
	for _, u := range ctx {
		if f.eligible(mode, u) {
			eligible = append(eligible, u)
		}
	}

	for i, tr := range triplet.Build(ctx, eligible, f.Triplets) {
		if mode == ModeSmart && f.Processed != nil && f.Processed.Contains(triplet.KeyFor(tr, f.Group)) {
			continue
		}
		sel.Targets = append(sel.Targets, eligible[i])
		sel.Triplets = append(sel.Triplets, tr)
	}
	return sel
}

// Count returns the number of triplets mode would process.
func (f Filter) Count(mode Mode, all []scene.Unit) int {
	return len(f.Select(mode, all).Triplets)
}

// Counts returns Count for every mode.
func (f Filter) Counts(all []scene.Unit) map[Mode]int {
	out := make(map[Mode]int, len(Modes))
	for _, m := range Modes {
		out[m] = f.Count(m, all)
	}
	return out
}

// Ready reports whether u carries one of the ready statuses.
func (f Filter) Ready(u scene.Unit) bool {
	statuses := f.ReadyStatuses
	if len(statuses) == 0 {
		statuses = DefaultReadyStatuses
	}
	return u.Metadata.HasStatus(statuses)
}

func (f Filter) eligible(mode Mode, u scene.Unit) bool {
	if !f.Ready(u) {
		return false
	}
	switch mode {
	case ModeForceAll:
		return true
	case ModeUnprocessed:
		return !u.Metadata.HasAnalysis()
	case ModeFlagged, ModeSmart:
		return u.Metadata.UpdateRequested()
	}
	return false
}

func (f Filter) contextList(all []scene.Unit) []scene.Unit {
	if strings.TrimSpace(f.Group) == "" {
		return all
	}
	var out []scene.Unit
	for _, u := range all {
		if u.InGroup(f.Group) {
			out = append(out, u)
		}
	}
	return out
}
