package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MockResponseText is a well-formed beats answer, used by the mock backend
// when no response is configured.
const MockResponseText = `previousSceneAnalysis:
- 1: + Sets up the conflict the current scene resolves
currentSceneAnalysis:
- 2: B Solid scene with a clear turn
- Pacing: ? Middle section drags
nextSceneAnalysis:
- 3: + Picks up the thread cleanly`

// MockBackend is a Backend for tests and dry runs. It never touches the
// network.
type MockBackend struct {
	Latency      time.Duration
	ShouldFail   bool
	FailAfter    int // fail after N requests (0 = never)
	ResponseText string

	// Respond, when set, decides each call. n is the 1-based call number.
	Respond func(n int, cfg Config, req Request) (*Completion, error)

	requestCount atomic.Int64
	mu           sync.Mutex
	requests     []Request
}

// NewMockBackend creates a mock backend answering MockResponseText.
func NewMockBackend() *MockBackend {
	return &MockBackend{ResponseText: MockResponseText}
}

// Name returns the provider id.
func (m *MockBackend) Name() string {
	return ProviderMock
}

// Complete answers a request.
func (m *MockBackend) Complete(ctx context.Context, cfg Config, req Request) (*Completion, error) {
	count := int(m.requestCount.Add(1))
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-time.After(m.Latency):
		case <-ctx.Done():
			return nil, networkError(ctx.Err())
		}
	}

	if m.Respond != nil {
		return m.Respond(count, cfg, req)
	}
	if m.ShouldFail {
		return nil, &CallError{Kind: KindProvider, Message: "mock backend configured to fail"}
	}
	if m.FailAfter > 0 && count > m.FailAfter {
		return nil, &CallError{Kind: KindProvider, Message: fmt.Sprintf("mock backend failed after %d requests", m.FailAfter)}
	}

	text := m.ResponseText
	raw, _ := json.Marshal(map[string]any{"id": fmt.Sprintf("mock-%d", count), "text": text})
	return &Completion{
		Text:         text,
		Raw:          raw,
		Model:        cfg.Model,
		InputTokens:  (len(req.System) + len(req.User)) / 4,
		OutputTokens: len(text) / 4,
	}, nil
}

// RequestCount returns the number of requests made.
func (m *MockBackend) RequestCount() int {
	return int(m.requestCount.Load())
}

// Requests returns a copy of every request received.
func (m *MockBackend) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Reset clears the request history.
func (m *MockBackend) Reset() {
	m.requestCount.Store(0)
	m.mu.Lock()
	m.requests = nil
	m.mu.Unlock()
}

var _ Backend = (*MockBackend)(nil)
