package llmcall

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store reads transcripts back from a directory.
type Store struct {
	dir string
}

// NewStore creates a store over dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// QueryFilter specifies filters for listing calls.
type QueryFilter struct {
	Scene    string
	Provider string
	Model    string
	After    *time.Time
	Success  *bool
	Limit    int
}

// List returns the headers of matching transcripts, newest first. Files
// that do not parse are skipped. A missing directory lists nothing.
func (s *Store) List(ctx context.Context, filter QueryFilter) ([]Call, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read transcript dir: %w", err)
	}

	var calls []Call
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		call, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		if filter.matches(call) {
			calls = append(calls, *call)
		}
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].Timestamp.After(calls[j].Timestamp)
	})
	if filter.Limit > 0 && len(calls) > filter.Limit {
		calls = calls[:filter.Limit]
	}
	return calls, nil
}

// Get returns the call with the given id, or nil when none matches.
func (s *Store) Get(ctx context.Context, id string) (*Call, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*-"+id+".md"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return s.read(matches[0])
}

func (s *Store) read(path string) (*Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	header, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return nil, fmt.Errorf("%s: unterminated header", path)
	}

	var call Call
	if err := yaml.Unmarshal(header, &call); err != nil {
		return nil, fmt.Errorf("%s: parse header: %w", path, err)
	}
	call.System = section(body, "System")
	call.User = section(body, "User")
	call.Response = section(body, "Response")
	return &call, nil
}

// section returns the text under "## title" up to the next heading the
// transcript writer emits.
func section(body []byte, title string) string {
	text := string(body)
	marker := "\n## " + title + "\n\n"
	i := strings.Index(text, marker)
	if i < 0 {
		return ""
	}
	text = text[i+len(marker):]
	for _, next := range []string{"\n\n## System\n\n", "\n\n## User\n\n", "\n\n## Response\n\n"} {
		if j := strings.Index(text, next); j >= 0 {
			text = text[:j]
		}
	}
	return strings.TrimSuffix(text, "\n")
}

func (f QueryFilter) matches(c *Call) bool {
	if f.Scene != "" && c.Scene != f.Scene {
		return false
	}
	if f.Provider != "" && c.Provider != f.Provider {
		return false
	}
	if f.Model != "" && c.Model != f.Model {
		return false
	}
	if f.After != nil && !c.Timestamp.After(*f.After) {
		return false
	}
	if f.Success != nil && c.Success != *f.Success {
		return false
	}
	return true
}
