// Package prompts resolves prompt templates from embedded defaults and
// user overrides.
//
// Resolution order for a key:
//  1. <override dir>/<key>.tmpl, when an override directory is configured
//  2. the embedded default registered under the key
//
// Every resolved prompt carries a hash of its text so transcripts can be
// traced back to the exact template that produced a request.
package prompts

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
)

// EmbeddedPrompt is a prompt shipped inside the binary.
type EmbeddedPrompt struct {
	Key         string // dotted key, e.g. beats.system
	Text        string // Go template text
	Description string
	Variables   []string
	Hash        string
}

// ResolvedPrompt is the text selected for a key.
type ResolvedPrompt struct {
	Key        string   `json:"key" yaml:"key"`
	Text       string   `json:"text" yaml:"text"`
	Variables  []string `json:"variables,omitempty" yaml:"variables,omitempty"`
	Hash       string   `json:"hash" yaml:"hash"`
	IsOverride bool     `json:"is_override" yaml:"is_override"`
	Path       string   `json:"path,omitempty" yaml:"path,omitempty"`
}

// variablePattern matches {{.Var}} and {{ .Var.Field }} references.
var variablePattern = regexp.MustCompile(`\{\{-?\s*\.([a-zA-Z_][a-zA-Z0-9_.]*)\s*-?\}\}`)

// ExtractVariables returns the sorted, de-duplicated top-level field
// references of a template, e.g. "Current.Number".
func ExtractVariables(text string) []string {
	seen := make(map[string]bool)
	var vars []string
	for _, match := range variablePattern.FindAllStringSubmatch(text, -1) {
		if name := match[1]; !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	sort.Strings(vars)
	return vars
}

// HashText returns the hex SHA256 of text.
func HashText(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
