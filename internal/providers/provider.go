// Package providers calls generative-text backends through one uniform,
// never-panicking gateway and retries rate-limited calls.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Config selects and configures one backend for a call.
type Config struct {
	Provider  string
	Model     string
	APIKey    string
	MaxTokens int
	BaseURL   string
	Timeout   time.Duration
	// RequestsPerMinute caps calls to this provider; 0 disables the cap.
	RequestsPerMinute int
}

// Request is one prompt pair.
type Request struct {
	System string
	User   string
	// Labels are passed through to the interaction observer.
	Labels map[string]string
}

// Completion is what a backend returns on success.
type Completion struct {
	Text         string
	Raw          json.RawMessage
	Model        string
	InputTokens  int
	OutputTokens int
}

// Backend is a provider implementation. Backends report failures as errors;
// the Gateway turns them into soft results.
type Backend interface {
	Name() string
	Complete(ctx context.Context, cfg Config, req Request) (*Completion, error)
}

// Result is the uniform outcome of a gateway call.
type Result struct {
	Success      bool            `json:"success"`
	Text         string          `json:"text,omitempty"`
	RawPayload   json.RawMessage `json:"raw_payload,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Err          *CallError      `json:"-"`

	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	RequestID    string        `json:"request_id"`
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Error returns the failure as an error, or nil on success.
func (r *Result) Error() error {
	if r == nil || r.Success {
		return nil
	}
	if r.Err != nil {
		return r.Err
	}
	return &CallError{Kind: KindProvider, Message: r.ErrorMessage}
}

// ErrorKind classifies a failed call.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "configuration"
	KindNetwork       ErrorKind = "network"
	KindProvider      ErrorKind = "provider"
)

// Sentinels matched by CallError.Is.
var (
	ErrConfiguration = errors.New("provider configuration error")
	ErrNetwork       = errors.New("provider network error")
	ErrProvider      = errors.New("provider error")
)

// CallError describes a failed call.
type CallError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *CallError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

// Is matches the kind sentinels.
func (e *CallError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrNetwork:
		return e.Kind == KindNetwork
	case ErrProvider:
		return e.Kind == KindProvider
	}
	return false
}

func configError(format string, args ...any) *CallError {
	return &CallError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

func networkError(err error) *CallError {
	return &CallError{Kind: KindNetwork, Message: err.Error(), Err: err}
}

// statusError builds a provider error from an HTTP status and body, using
// the structured error message when the body has one.
func statusError(status int, body []byte) *CallError {
	msg := extractErrorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &CallError{Kind: KindProvider, StatusCode: status, Message: msg}
}

// extractErrorMessage reads {"error":{"message":...}} and {"error":"..."}
// bodies, falling back to the trimmed raw text.
func extractErrorMessage(body []byte) string {
	var structured struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		if len(structured.Error) > 0 {
			var obj struct {
				Message string `json:"message"`
				Type    string `json:"type"`
				Status  string `json:"status"`
			}
			if json.Unmarshal(structured.Error, &obj) == nil && obj.Message != "" {
				if obj.Status != "" {
					return obj.Status + ": " + obj.Message
				}
				if obj.Type != "" {
					return obj.Type + ": " + obj.Message
				}
				return obj.Message
			}
			var s string
			if json.Unmarshal(structured.Error, &s) == nil && s != "" {
				return s
			}
		}
		if structured.Message != "" {
			return structured.Message
		}
	}
	return truncate(string(body), 512)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// DefaultMaxTokens is used when a config sets no limit.
const DefaultMaxTokens = 4000

func maxTokens(cfg Config) int {
	if cfg.MaxTokens > 0 {
		return cfg.MaxTokens
	}
	return DefaultMaxTokens
}

// httpClientFor returns base, or a client honoring cfg.Timeout.
func httpClientFor(base *http.Client, cfg Config) *http.Client {
	if base != nil {
		return base
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &http.Client{Timeout: timeout}
}
