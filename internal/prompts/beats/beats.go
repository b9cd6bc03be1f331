// Package beats renders the scene-window prompts.
package beats

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

//go:embed system.tmpl
var systemPrompt string

//go:embed user.tmpl
var userPromptTmpl string

// Prompt keys
const (
	SystemPromptKey = "beats.system"
	UserPromptKey   = "beats.user"
)

// RegisterPrompts registers the embedded beats prompts with the resolver.
func RegisterPrompts(r *prompts.Resolver) {
	r.Register(prompts.EmbeddedPrompt{
		Key:         SystemPromptKey,
		Text:        systemPrompt,
		Description: "Scene beats system prompt - editor persona and answer format",
	})
	r.Register(prompts.EmbeddedPrompt{
		Key:         UserPromptKey,
		Text:        userPromptTmpl,
		Description: "Scene beats user prompt template - previous/current/next scene window",
	})
}

// Request is a rendered prompt pair.
type Request struct {
	System string
	User   string
	// Hash identifies the template pair that produced the request.
	Hash string
}

// SceneData is the template view of one window slot.
type SceneData struct {
	Role    string // previous, current or next
	Present bool
	Empty   bool
	Number  string
	Title   string
	Body    string
}

// UserPromptData is the data passed to the user template.
type UserPromptData struct {
	Prev    SceneData
	Current SceneData
	Next    SceneData
}

// NewUserPromptData builds the template view of a triplet.
func NewUserPromptData(t triplet.Triplet) UserPromptData {
	cur := t.Current
	return UserPromptData{
		Prev:    slot("previous", t.Prev, t.PrevEmpty),
		Current: slot("current", &cur, false),
		Next:    slot("next", t.Next, t.NextEmpty),
	}
}

func slot(role string, u *scene.Unit, empty bool) SceneData {
	if u == nil {
		return SceneData{Role: role, Empty: empty}
	}
	return SceneData{
		Role:    role,
		Present: true,
		Number:  u.Number(),
		Title:   u.Title,
		Body:    u.Body,
	}
}

// Builder renders prompts resolved through a Resolver, so user overrides
// apply.
type Builder struct {
	system string
	user   *template.Template
	hash   string
}

// NewBuilder resolves and parses both templates once.
func NewBuilder(r *prompts.Resolver) (*Builder, error) {
	sys, err := r.Resolve(SystemPromptKey)
	if err != nil {
		return nil, err
	}
	usr, err := r.Resolve(UserPromptKey)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("user").Option("missingkey=error").Parse(usr.Text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", usr.Key, err)
	}
	return &Builder{
		system: sys.Text,
		user:   tmpl,
		hash:   prompts.HashText(sys.Text + usr.Text),
	}, nil
}

// Build renders the prompt pair for a triplet.
func (b *Builder) Build(t triplet.Triplet) (Request, error) {
	var buf bytes.Buffer
	if err := b.user.Execute(&buf, NewUserPromptData(t)); err != nil {
		return Request{}, fmt.Errorf("render user prompt: %w", err)
	}
	return Request{System: b.system, User: buf.String(), Hash: b.hash}, nil
}
