package providers

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Registry holds the backends a gateway can dispatch to, keyed by provider id.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Backend
	logger   *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		backends: make(map[string]Backend),
		logger:   slog.Default(),
	}
}

// NewDefaultRegistry registers the Anthropic, OpenAI, Gemini and mock
// backends. httpClient may be nil.
func NewDefaultRegistry(httpClient *http.Client) *Registry {
	r := NewRegistry()
	r.Register(NewAnthropicBackend(httpClient))
	r.Register(NewOpenAIBackend(httpClient))
	r.Register(NewGeminiBackend(httpClient))
	r.Register(NewMockBackend())
	return r
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds or replaces a backend under its name.
func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
	if r.logger != nil {
		r.logger.Debug("registered provider backend", "provider", b.Name())
	}
}

// Unregister removes a backend.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.backends, name)
}

// Get returns the backend registered under name.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return b, nil
}

// Has reports whether a backend is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.backends[name]
	return ok
}

// Names returns the registered provider ids, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
