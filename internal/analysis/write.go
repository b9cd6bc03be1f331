package analysis

import (
	"fmt"
	"strings"
	"time"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
)

// StampLayout formats the time part of the last-updated stamp.
const StampLayout = time.RFC3339

// Stamp renders the "<time> by <model>" value written to the last-updated
// field.
func Stamp(modelID string, now time.Time) string {
	return fmt.Sprintf("%s by %s", now.Format(StampLayout), modelID)
}

// Write computes the metadata a unit carries after a successful analysis.
// It does not touch old and returns the same output for the same inputs.
//
// Earlier analysis fields under either naming convention are replaced,
// empty sections are left out and the update flag is cleared under the
// name the unit already uses.
func Write(old scene.Metadata, r Result, modelID string, now time.Time) scene.Metadata {
	meta := old.Clone()

	for _, key := range scene.LegacyAnalysisFields {
		delete(meta, key)
	}
	for i, key := range scene.AnalysisFields {
		delete(meta, key)
		if items := stripBullets(r.Sections()[i]); len(items) > 0 {
			meta[key] = items
		}
	}

	meta[scene.FieldLastUpdated] = Stamp(modelID, now)

	cleared := false
	for _, key := range scene.UpdateFlagFields {
		if _, ok := meta[key]; ok {
			meta[key] = scene.UpdateDone
			cleared = true
		}
	}
	if !cleared {
		meta[scene.FieldUpdate] = scene.UpdateDone
	}
	return meta
}

func stripBullets(lines []string) []any {
	var out []any
	for _, line := range lines {
		text := strings.TrimSpace(line)
		if m := bulletLine.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[1])
		}
		if text != "" {
			out = append(out, text)
		}
	}
	return out
}
