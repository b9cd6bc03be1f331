package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 5 * time.Second
)

// ErrRateLimitExhausted is matched by RateLimitExhaustedError.
var ErrRateLimitExhausted = errors.New("rate limit retries exhausted")

// RateLimitExhaustedError is returned when a call is still rate limited
// after every retry.
type RateLimitExhaustedError struct {
	Attempts int
	Err      error
}

func (e *RateLimitExhaustedError) Error() string {
	return fmt.Sprintf("still rate limited after %d attempts: %v", e.Attempts, e.Err)
}

func (e *RateLimitExhaustedError) Unwrap() error { return e.Err }

func (e *RateLimitExhaustedError) Is(target error) bool {
	return target == ErrRateLimitExhausted
}

// rateLimitSignatures are matched case-insensitively against error text.
var rateLimitSignatures = []string{
	"rate limit",
	"rate_limit",
	"ratelimit",
	"too many requests",
	"overloaded",
	"resource_exhausted",
	"status 429",
}

// IsRateLimit reports whether err looks like a provider rate limit.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var cerr *CallError
	if errors.As(err, &cerr) && cerr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, sig := range rateLimitSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Caller is anything that makes one soft-failing call; *Gateway is one.
type Caller interface {
	Call(ctx context.Context, cfg Config, req Request) *Result
}

// RetryPolicy configures a Retrier.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
}

// DefaultRetryPolicy returns 3 retries starting at 5s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay}
}

// Retrier retries rate-limited calls with exponential backoff
// (BaseDelay * 2^attempt). Any other failure is returned at once.
type Retrier struct {
	caller Caller
	policy RetryPolicy
	logger *slog.Logger
}

// NewRetrier wraps caller.
func NewRetrier(caller Caller, policy RetryPolicy, logger *slog.Logger) *Retrier {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{caller: caller, policy: policy, logger: logger}
}

// Policy returns the effective policy.
func (r *Retrier) Policy() RetryPolicy {
	return r.policy
}

// Call makes the call, retrying while the failure is a rate limit. It
// returns the last result together with a non-nil error when the call did
// not succeed; the error is a *RateLimitExhaustedError once retries run out.
func (r *Retrier) Call(ctx context.Context, cfg Config, req Request) (*Result, error) {
	var last *Result
	attempts := 0

	err := retry.Do(
		func() error {
			attempts++
			last = r.caller.Call(ctx, cfg, req)
			return last.Error()
		},
		retry.Context(ctx),
		retry.Attempts(uint(r.policy.MaxRetries+1)),
		retry.Delay(r.policy.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(IsRateLimit),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("provider rate limited, backing off",
				"provider", cfg.Provider, "attempt", n+1, "error", err)
		}),
	)

	if last == nil {
		last = &Result{Provider: cfg.Provider, Model: cfg.Model}
		if err != nil {
			last.ErrorMessage = err.Error()
		}
	}

	switch {
	case err == nil:
		return last, nil
	case ctx.Err() != nil:
		return last, ctx.Err()
	case IsRateLimit(err):
		return last, &RateLimitExhaustedError{Attempts: attempts, Err: err}
	default:
		return last, err
	}
}
