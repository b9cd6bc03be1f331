// Package scene loads scene notes from a manuscript vault and applies
// atomic frontmatter mutations to them.
package scene

import (
	"context"
	"strings"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/ordinal"
)

// Unit is one scene: an identity, a title carrying its ordinal, the body
// text and the frontmatter metadata.
type Unit struct {
	// ID is the vault-relative slash path of the note.
	ID       string
	Title    string
	Body     string
	Metadata Metadata
}

// Ordinal returns the parsed ordinal from the title.
func (u Unit) Ordinal() ordinal.Ordinal {
	return ordinal.Parse(u.Title)
}

// Number returns the canonical ordinal string, or the title when the title
// has no leading number.
func (u Unit) Number() string {
	if o := u.Ordinal(); o.Valid {
		return o.String()
	}
	return u.Title
}

// Words returns the declared word count, falling back to counting the body.
func (u Unit) Words() int {
	if n, ok := u.Metadata.WordCount(); ok {
		return n
	}
	return len(strings.Fields(u.Body))
}

// HasContent reports whether the unit has any words.
func (u Unit) HasContent() bool {
	return u.Words() > 0
}

// InGroup reports whether the unit is tagged with the given subplot.
func (u Unit) InGroup(group string) bool {
	for _, g := range u.Metadata.Subplots() {
		if strings.EqualFold(g, group) {
			return true
		}
	}
	return false
}

// Source returns the ordered units of a manuscript.
type Source interface {
	Load(ctx context.Context) ([]Unit, error)
}

// MutateFunc computes new metadata from the current metadata.
type MutateFunc func(old Metadata) (Metadata, error)

// Mutator applies a metadata mutation to one unit with all-or-nothing
// persistence.
type Mutator interface {
	Mutate(ctx context.Context, id string, fn MutateFunc) error
}

// SortUnits orders units by ordinal, keeping vault order for ties.
func SortUnits(units []Unit) {
	ordinal.SortFunc(units, func(u Unit) string { return u.Title })
}
