package providers

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Interaction is one completed gateway call, as seen by an Observer.
type Interaction struct {
	Provider string
	Model    string
	Request  Request
	Result   *Result
	Labels   map[string]string
}

// Observer receives every gateway call, successful or not.
type Observer interface {
	Observe(ctx context.Context, in Interaction)
}

// Gateway dispatches calls to registered backends and normalizes every
// outcome into a Result. Call never returns an error and never panics on
// backend failures.
type Gateway struct {
	registry *Registry
	observer Observer
	logger   *slog.Logger

	mu       sync.Mutex
	limiters map[string]*RateLimiter
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithObserver sets the interaction observer.
func WithObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// WithLogger sets the gateway logger.
func WithLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGateway creates a gateway over registry.
func NewGateway(registry *Registry, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		registry: registry,
		logger:   slog.Default(),
		limiters: make(map[string]*RateLimiter),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Validate checks a config without any network access.
func (g *Gateway) Validate(cfg Config) *CallError {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		return configError("no provider configured")
	}
	if !g.registry.Has(provider) {
		return configError("unknown provider %q", cfg.Provider)
	}
	if CanonicalModel(provider, cfg.Model) == "" {
		return configError("no model configured for provider %s", provider)
	}
	if provider != ProviderMock && strings.TrimSpace(cfg.APIKey) == "" {
		return configError("no API key configured for provider %s", provider)
	}
	return nil
}

// Call sends one request.
func (g *Gateway) Call(ctx context.Context, cfg Config, req Request) *Result {
	start := time.Now()
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Provider = provider
	cfg.Model = CanonicalModel(provider, cfg.Model)

	result := &Result{
		Provider:  provider,
		Model:     cfg.Model,
		RequestID: uuid.New().String(),
	}

	if cerr := g.Validate(cfg); cerr != nil {
		g.fail(result, cerr, start)
		g.observe(ctx, cfg, req, result)
		return result
	}
	backend, err := g.registry.Get(provider)
	if err != nil {
		g.fail(result, configError("%v", err), start)
		g.observe(ctx, cfg, req, result)
		return result
	}

	if err := g.limiter(cfg).Wait(ctx); err != nil {
		g.fail(result, networkError(err), start)
		g.observe(ctx, cfg, req, result)
		return result
	}

	comp, err := backend.Complete(ctx, cfg, req)
	if comp != nil {
		result.RawPayload = comp.Raw
	}
	switch {
	case err != nil:
		g.fail(result, asCallError(err), start)
	case comp == nil || strings.TrimSpace(comp.Text) == "":
		g.fail(result, &CallError{Kind: KindProvider, Message: "response contained no text content"}, start)
	default:
		result.Success = true
		result.Text = comp.Text
		result.InputTokens = comp.InputTokens
		result.OutputTokens = comp.OutputTokens
		if comp.Model != "" {
			result.Model = comp.Model
		}
		result.Duration = time.Since(start)
		g.logger.Debug("provider call succeeded",
			"provider", provider, "model", result.Model,
			"duration", result.Duration, "output_tokens", result.OutputTokens)
	}

	g.observe(ctx, cfg, req, result)
	return result
}

func (g *Gateway) fail(result *Result, cerr *CallError, start time.Time) {
	result.Success = false
	result.Err = cerr
	result.ErrorMessage = cerr.Error()
	result.Duration = time.Since(start)
	g.logger.Debug("provider call failed",
		"provider", result.Provider, "model", result.Model,
		"kind", cerr.Kind, "status", cerr.StatusCode, "error", cerr.Message)
}

func (g *Gateway) observe(ctx context.Context, cfg Config, req Request, result *Result) {
	if g.observer == nil {
		return
	}
	g.observer.Observe(ctx, Interaction{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		Request:  req,
		Result:   result,
		Labels:   req.Labels,
	})
}

// limiter returns the per-provider limiter, or nil when uncapped.
func (g *Gateway) limiter(cfg Config) *RateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	l, ok := g.limiters[cfg.Provider]
	if !ok || l.Limit() != cfg.RequestsPerMinute {
		l = NewRateLimiter(cfg.RequestsPerMinute)
		g.limiters[cfg.Provider] = l
	}
	return l
}

// RateLimitStatus reports the limiter state for provider. It returns false when
// no call to provider has been capped.
func (g *Gateway) RateLimitStatus(provider string) (RateLimiterStatus, bool) {
	g.mu.Lock()
	l, ok := g.limiters[provider]
	g.mu.Unlock()
	if !ok {
		return RateLimiterStatus{}, false
	}
	return l.Status(), true
}

// asCallError converts any backend error to a CallError. Context errors
// and transport failures are network errors.
func asCallError(err error) *CallError {
	var cerr *CallError
	if errors.As(err, &cerr) {
		return cerr
	}
	return networkError(err)
}
