// Package analysis turns a provider's answer into scene metadata.
package analysis

import (
	"regexp"
	"strings"
)

// Result holds the three parsed sections. Each entry is a normalized
// bullet line ("- text").
type Result struct {
	Previous []string `json:"previous" yaml:"previous"`
	Current  []string `json:"current" yaml:"current"`
	Next     []string `json:"next" yaml:"next"`
}

// Sections returns the sections in window order.
func (r Result) Sections() [3][]string {
	return [3][]string{r.Previous, r.Current, r.Next}
}

// Empty reports whether every section is empty.
func (r Result) Empty() bool {
	return len(r.Previous) == 0 && len(r.Current) == 0 && len(r.Next) == 0
}

// labelPatterns match the section labels in answer order. Labels may carry
// markdown heading or emphasis decoration around the name and colon.
var labelPatterns = [3]*regexp.Regexp{
	labelPattern("previousSceneAnalysis"),
	labelPattern("currentSceneAnalysis"),
	labelPattern("nextSceneAnalysis"),
}

func labelPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)[#*_]*[ \t]*` + name + `[ \t]*[*_]*[ \t]*:[*_]*`)
}

var (
	bulletLine  = regexp.MustCompile(`^[-*•][ \t]+(.*)$`)
	leadingWord = regexp.MustCompile(`^([^\s:]+):(\s+|$)`)
)

// Parse extracts the three labeled sections from raw. It reports false when
// a label is missing or when every section is empty.
func Parse(raw string) (*Result, bool) {
	spans, ok := splitSections(raw)
	if !ok {
		return nil, false
	}
	r := &Result{
		Previous: normalizeSection(spans[0]),
		Current:  normalizeSection(spans[1]),
		Next:     normalizeSection(spans[2]),
	}
	if r.Empty() {
		return nil, false
	}
	return r, true
}

// splitSections locates each label after the previous one. A section runs
// until the next label; the last runs to the end of the text.
func splitSections(raw string) ([3]string, bool) {
	var (
		spans  [3]string
		starts [3]int
		ends   [3]int
	)
	offset := 0
	for i, re := range labelPatterns {
		loc := re.FindStringIndex(raw[offset:])
		if loc == nil {
			return spans, false
		}
		starts[i] = offset + loc[0]
		ends[i] = offset + loc[1]
		offset = ends[i]
	}
	for i := range spans {
		stop := len(raw)
		if i+1 < len(spans) {
			stop = starts[i+1]
		}
		spans[i] = raw[ends[i]:stop]
	}
	return spans, true
}

func normalizeSection(s string) []string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = strings.ReplaceAll(s, "\r\n", "\n")

	lines := strings.Split(s, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}

	var out []string
	for _, line := range lines {
		m := bulletLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[1])
		if text == "" {
			continue
		}
		text = leadingWord.ReplaceAllString(text, "$1 - ")
		out = append(out, "- "+strings.TrimSpace(text))
	}
	return out
}
