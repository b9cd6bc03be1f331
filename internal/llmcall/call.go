// Package llmcall records every provider call as a markdown transcript so a
// run can be audited after the fact.
package llmcall

import (
	"time"

	"github.com/google/uuid"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/providers"
)

// Label keys the batch attaches to provider requests.
const (
	LabelScene      = "scene"
	LabelTriplet    = "triplet"
	LabelMode       = "mode"
	LabelGroup      = "group"
	LabelPromptKey  = "prompt_key"
	LabelPromptHash = "prompt_hash"
)

// Call represents a recorded provider call.
type Call struct {
	ID        string    `yaml:"id" json:"id"`
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	LatencyMs int       `yaml:"latency_ms" json:"latency_ms"`

	// Run context
	Scene   string `yaml:"scene,omitempty" json:"scene,omitempty"`
	Triplet string `yaml:"triplet,omitempty" json:"triplet,omitempty"`
	Mode    string `yaml:"mode,omitempty" json:"mode,omitempty"`
	Group   string `yaml:"group,omitempty" json:"group,omitempty"`

	// Prompt traceability
	PromptKey  string `yaml:"prompt_key,omitempty" json:"prompt_key,omitempty"`
	PromptHash string `yaml:"prompt_hash,omitempty" json:"prompt_hash,omitempty"`

	Provider  string `yaml:"provider" json:"provider"`
	Model     string `yaml:"model" json:"model"`
	RequestID string `yaml:"request_id,omitempty" json:"request_id,omitempty"`

	InputTokens  int `yaml:"input_tokens" json:"input_tokens"`
	OutputTokens int `yaml:"output_tokens" json:"output_tokens"`

	Success bool   `yaml:"success" json:"success"`
	Error   string `yaml:"error,omitempty" json:"error,omitempty"`

	// Transcript body; not part of the header.
	System   string `yaml:"-" json:"-"`
	User     string `yaml:"-" json:"-"`
	Response string `yaml:"-" json:"-"`
}

// FromInteraction creates a Call from a gateway interaction.
// Returns nil if the interaction carries no result.
func FromInteraction(in providers.Interaction, now time.Time) *Call {
	res := in.Result
	if res == nil {
		return nil
	}

	id := res.RequestID
	if id == "" {
		id = uuid.New().String()
	}

	call := &Call{
		ID:           id,
		Timestamp:    now,
		LatencyMs:    int(res.Duration.Milliseconds()),
		Scene:        in.Labels[LabelScene],
		Triplet:      in.Labels[LabelTriplet],
		Mode:         in.Labels[LabelMode],
		Group:        in.Labels[LabelGroup],
		PromptKey:    in.Labels[LabelPromptKey],
		PromptHash:   in.Labels[LabelPromptHash],
		Provider:     in.Provider,
		Model:        in.Model,
		RequestID:    res.RequestID,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		Success:      res.Success,
		System:       in.Request.System,
		User:         in.Request.User,
		Response:     res.Text,
	}

	if !res.Success {
		call.Error = res.ErrorMessage
		if call.Response == "" && len(res.RawPayload) > 0 {
			call.Response = string(res.RawPayload)
		}
	}
	return call
}
