package scene

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned when a note does not open with a "---" block.
var ErrNoFrontmatter = errors.New("note has no frontmatter")

// document is a parsed note: the frontmatter mapping node (kept so that a
// rewrite preserves key order, comments and scalar styles) plus the body.
type document struct {
	node    *yaml.Node
	meta    Metadata
	body    string
	newline string
}

// parseDocument splits a note into frontmatter and body.
func parseDocument(data []byte) (*document, error) {
	text := string(data)
	text = strings.TrimPrefix(text, "\ufeff")

	nl := "\n"
	var rest string
	switch {
	case strings.HasPrefix(text, "---\r\n"):
		nl = "\r\n"
		rest = text[len("---\r\n"):]
	case strings.HasPrefix(text, "---\n"):
		rest = text[len("---\n"):]
	default:
		return nil, ErrNoFrontmatter
	}

	front, body, ok := cutClosingFence(rest)
	if !ok {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	doc := &document{body: body, newline: nl, meta: Metadata{}}
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(front), &root); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	switch {
	case root.Kind == 0:
		doc.node = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	case root.Kind == yaml.DocumentNode && len(root.Content) == 1 && root.Content[0].Kind == yaml.MappingNode:
		doc.node = root.Content[0]
	default:
		return nil, fmt.Errorf("frontmatter is not a mapping")
	}
	if err := doc.node.Decode(&doc.meta); err != nil {
		return nil, fmt.Errorf("decode frontmatter: %w", err)
	}
	return doc, nil
}

// scalar returns the source text of a scalar field, so that numeric-looking
// values such as 16.10 keep their trailing zeros.
func (d *document) scalar(key string) (string, bool) {
	for i := 0; i+1 < len(d.node.Content); i += 2 {
		k, v := d.node.Content[i], d.node.Content[i+1]
		if k.Value != key {
			continue
		}
		if v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
			return "", false
		}
		return strings.TrimSpace(v.Value), true
	}
	return "", false
}

// cutClosingFence finds the line that closes the frontmatter block.
func cutClosingFence(s string) (front, body string, ok bool) {
	pos := 0
	for pos <= len(s) {
		end := strings.IndexByte(s[pos:], '\n')
		var line string
		next := len(s)
		if end >= 0 {
			line = s[pos : pos+end]
			next = pos + end + 1
		} else {
			line = s[pos:]
		}
		trimmed := strings.TrimRight(line, "\r \t")
		if trimmed == "---" || trimmed == "..." {
			return s[:pos], s[next:], true
		}
		if end < 0 {
			break
		}
		pos = next
	}
	return "", "", false
}

// apply rewrites the mapping node so that it encodes meta. Keys whose value
// did not change keep their original nodes; removed keys are dropped; new
// keys are appended with the analysis fields first, then alphabetically.
func (d *document) apply(meta Metadata) error {
	content := make([]*yaml.Node, 0, len(meta)*2)
	seen := make(map[string]bool, len(meta))

	for i := 0; i+1 < len(d.node.Content); i += 2 {
		keyNode, valNode := d.node.Content[i], d.node.Content[i+1]
		key := keyNode.Value
		newVal, ok := meta[key]
		if !ok || seen[key] {
			continue
		}
		seen[key] = true
		if oldVal, had := d.meta[key]; had && reflect.DeepEqual(oldVal, newVal) {
			content = append(content, keyNode, valNode)
			continue
		}
		n, err := encodeValue(newVal)
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		n.HeadComment, n.LineComment, n.FootComment = valNode.HeadComment, valNode.LineComment, valNode.FootComment
		content = append(content, keyNode, n)
	}

	for _, key := range newKeys(meta, seen) {
		n, err := encodeValue(meta[key])
		if err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		content = append(content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, n)
	}

	d.node.Content = content
	d.meta = meta.Clone()
	return nil
}

var appendOrder = []string{FieldLastUpdated, FieldPrevious, FieldCurrent, FieldNext}

func newKeys(meta Metadata, seen map[string]bool) []string {
	var keys []string
	placed := make(map[string]bool)
	for _, key := range appendOrder {
		if _, ok := meta[key]; ok && !seen[key] {
			keys = append(keys, key)
			placed[key] = true
		}
	}
	var rest []string
	for key := range meta {
		if !seen[key] && !placed[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func encodeValue(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

// render serializes the note back to bytes.
func (d *document) render() ([]byte, error) {
	var front bytes.Buffer
	if len(d.node.Content) > 0 {
		enc := yaml.NewEncoder(&front)
		enc.SetIndent(2)
		if err := enc.Encode(d.node); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}

	fm := front.String()
	if d.newline != "\n" {
		fm = strings.ReplaceAll(fm, "\n", d.newline)
	}

	var out bytes.Buffer
	out.WriteString("---" + d.newline)
	out.WriteString(fm)
	out.WriteString("---" + d.newline)
	out.WriteString(d.body)
	return out.Bytes(), nil
}
