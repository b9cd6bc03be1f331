// Package triplet builds previous/current/next context windows around the
// scenes selected for a run.
package triplet

import (
	"strings"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
)

// Key markers for missing neighbors.
const (
	StartMarker = "start"
	EndMarker   = "end"
	EmptyMarker = "empty"
)

// Triplet is the context window around one target scene.
type Triplet struct {
	Prev    *scene.Unit
	Current scene.Unit
	Next    *scene.Unit

	// PrevEmpty and NextEmpty are set when a neighbor exists in the context
	// list but was suppressed for having no content.
	PrevEmpty bool
	NextEmpty bool
}

// Options controls neighbor inclusion.
type Options struct {
	// SuppressEmpty replaces neighbors that fail HasContent with an empty marker.
	SuppressEmpty bool
	// HasContent defaults to a non-zero word count.
	HasContent func(scene.Unit) bool
}

func (o Options) hasContent(u scene.Unit) bool {
	if o.HasContent != nil {
		return o.HasContent(u)
	}
	return u.HasContent()
}

// Build returns one triplet per target, in target order. Neighbors are drawn
// from the context list; a target missing from it gets no neighbors.
func Build(context, targets []scene.Unit, opts Options) []Triplet {
	index := make(map[string]int, len(context))
	for i, u := range context {
		if _, dup := index[u.ID]; !dup {
			index[u.ID] = i
		}
	}

	out := make([]Triplet, 0, len(targets))
	for _, target := range targets {
		out = append(out, build(context, index, target, opts))
	}
	return out
}

func build(context []scene.Unit, index map[string]int, target scene.Unit, opts Options) Triplet {
	i, ok := index[target.ID]
	if !ok {
		return Triplet{Current: target}
	}

	t := Triplet{Current: context[i]}
	if i > 0 {
		prev := context[i-1]
		if opts.SuppressEmpty && !opts.hasContent(prev) {
			t.PrevEmpty = true
		} else {
			t.Prev = &prev
		}
	}
	if i < len(context)-1 {
		next := context[i+1]
		if opts.SuppressEmpty && !opts.hasContent(next) {
			t.NextEmpty = true
		} else {
			t.Next = &next
		}
	}
	return t
}

// KeyFor returns the processed-set key of a triplet. The group, when set,
// prefixes the key so group-scoped runs do not collide with full runs.
func KeyFor(t Triplet, group string) string {
	prev := neighborKey(t.Prev, t.PrevEmpty, StartMarker)
	next := neighborKey(t.Next, t.NextEmpty, EndMarker)
	key := prev + "|" + t.Current.Number() + "|" + next
	if g := strings.TrimSpace(group); g != "" {
		return g + "::" + key
	}
	return key
}

func neighborKey(u *scene.Unit, empty bool, boundary string) string {
	switch {
	case u != nil:
		return u.Number()
	case empty:
		return EmptyMarker
	default:
		return boundary
	}
}

// Label is the short progress label of a triplet, e.g. "15 > 16 > 17".
func Label(t Triplet) string {
	prev := neighborLabel(t.Prev, t.PrevEmpty)
	next := neighborLabel(t.Next, t.NextEmpty)
	return prev + " > " + t.Current.Number() + " > " + next
}

func neighborLabel(u *scene.Unit, empty bool) string {
	switch {
	case u != nil:
		return u.Number()
	case empty:
		return "(empty)"
	default:
		return "-"
	}
}
