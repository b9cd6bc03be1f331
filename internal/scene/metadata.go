package scene

import (
	"fmt"
	"strconv"
	"strings"
)

// Frontmatter field names. The update flag and the analysis fields have
// been written under more than one name over time; reads check every alias,
// writes use the canonical name unless the unit already carries an alias.
const (
	FieldClass       = "Class"
	FieldTitle       = "Title"
	FieldStatus      = "Status"
	FieldWords       = "Words"
	FieldSubplot     = "Subplot"
	FieldUpdate      = "Beats Update"
	FieldUpdateAlias = "BeatsUpdate"
	FieldLastUpdated = "Beats Last Updated"
	FieldPrevious    = "previousSceneAnalysis"
	FieldCurrent     = "currentSceneAnalysis"
	FieldNext        = "nextSceneAnalysis"
)

// UpdateFlagFields lists the update flag names, canonical first.
var UpdateFlagFields = []string{FieldUpdate, FieldUpdateAlias}

// AnalysisFields lists the canonical analysis fields in window order.
var AnalysisFields = []string{FieldPrevious, FieldCurrent, FieldNext}

// LegacyAnalysisFields lists the analysis fields of the older numbered
// convention, in the same order as AnalysisFields.
var LegacyAnalysisFields = []string{"1beats", "2beats", "3beats"}

// UpdateDone is the canonical value of a cleared update flag.
const UpdateDone = "No"

// Metadata is a scene's frontmatter bag.
type Metadata map[string]any

// Clone returns a deep copy of m. Nested lists and maps are copied so the
// clone can be edited without touching the original.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return Metadata{}
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// String returns a scalar field rendered as a trimmed string.
func (m Metadata) String(key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Strings returns a field that may be a scalar or a list as a list of
// non-empty trimmed strings.
func (m Metadata) Strings(key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	var out []string
	add := func(item any) {
		if item == nil {
			return
		}
		s := strings.TrimSpace(fmt.Sprint(item))
		if s != "" {
			out = append(out, s)
		}
	}
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			add(item)
		}
	case []string:
		for _, item := range t {
			add(item)
		}
	default:
		add(t)
	}
	return out
}

// Class returns the class markers of the unit.
func (m Metadata) Class() []string {
	return m.Strings(FieldClass)
}

// HasStatus reports whether any of the unit's statuses matches one of
// the given values, case-insensitively.
func (m Metadata) HasStatus(statuses []string) bool {
	for _, have := range m.Strings(FieldStatus) {
		for _, want := range statuses {
			if strings.EqualFold(have, strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

// UpdateFlagKey returns the flag field present on the unit, preferring the
// canonical name. It returns "" when neither alias is present.
func (m Metadata) UpdateFlagKey() string {
	for _, key := range UpdateFlagFields {
		if _, ok := m[key]; ok {
			return key
		}
	}
	return ""
}

// UpdateRequested reports whether any update flag alias carries an
// affirmative value.
func (m Metadata) UpdateRequested() bool {
	for _, key := range UpdateFlagFields {
		if v, ok := m[key]; ok && affirmative(v) {
			return true
		}
	}
	return false
}

func affirmative(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t == 1
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "yes", "y", "true", "1":
			return true
		}
	}
	return false
}

// WordCount returns the declared word count, if the field is present and
// numeric.
func (m Metadata) WordCount() (int, bool) {
	v, ok := m[FieldWords]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(strings.ReplaceAll(t, ",", "")))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// Subplots returns the unit's group tags.
func (m Metadata) Subplots() []string {
	return m.Strings(FieldSubplot)
}

// HasAnalysis reports whether the unit carries any prior-analysis marker:
// the last-updated stamp or a result field under either convention.
func (m Metadata) HasAnalysis() bool {
	if m.String(FieldLastUpdated) != "" {
		return true
	}
	for _, key := range AnalysisFields {
		if hasValue(m[key]) {
			return true
		}
	}
	for _, key := range LegacyAnalysisFields {
		if hasValue(m[key]) {
			return true
		}
	}
	return false
}

func hasValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(t) != ""
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	default:
		return true
	}
}
