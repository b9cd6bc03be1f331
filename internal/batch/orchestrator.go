// Package batch drives a beats run: it selects scene windows, asks the
// provider about each one and writes the parsed answer back to the scene.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/analysis"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/llmcall"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/processed"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts/beats"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/providers"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/triplet"
)

// Defaults for Config.
const (
	DefaultInterIterationDelay = 2 * time.Second
	DefaultExpectedCallLatency = 20 * time.Second
)

// Config is the run configuration. It is read once when a run starts.
type Config struct {
	Provider               providers.Config
	ReadyStatuses          []string
	InterIterationDelay    time.Duration
	ExpectedCallLatency    time.Duration
	SuppressEmptyNeighbors bool
	// LockPath, when set, is held with an exclusive file lock for the
	// length of a run.
	LockPath string
}

// Caller makes a provider call with retries. *providers.Retrier is one.
type Caller interface {
	Call(ctx context.Context, cfg providers.Config, req providers.Request) (*providers.Result, error)
}

// Validator checks a provider configuration without calling it.
// *providers.Gateway is one.
type Validator interface {
	Validate(cfg providers.Config) *providers.CallError
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Source    scene.Source
	Mutator   scene.Mutator
	Caller    Caller
	Validator Validator
	Prompts   *beats.Builder
	Processed processed.Set
	Progress  Progress
	Logger    *slog.Logger
}

// Request is what a user asks for.
type Request struct {
	Mode  selection.Mode `json:"mode" yaml:"mode"`
	Group string         `json:"group,omitempty" yaml:"group,omitempty"`
}

// Estimate is the pre-run cost of a plan.
type Estimate struct {
	Calls       int           `json:"calls" yaml:"calls"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
	InputTokens int           `json:"input_tokens" yaml:"input_tokens"`
}

// Plan is a confirmed selection, ready to run.
type Plan struct {
	Mode     selection.Mode    `json:"mode" yaml:"mode"`
	Group    string            `json:"group,omitempty" yaml:"group,omitempty"`
	Total    int               `json:"total" yaml:"total"`
	Estimate Estimate          `json:"estimate" yaml:"estimate"`
	Triplets []triplet.Triplet `json:"-" yaml:"-"`
}

// Summary is the outcome of a run.
type Summary struct {
	State        State          `json:"state" yaml:"state"`
	Mode         selection.Mode `json:"mode" yaml:"mode"`
	Group        string         `json:"group,omitempty" yaml:"group,omitempty"`
	Total        int            `json:"total" yaml:"total"`
	Processed    int            `json:"processed" yaml:"processed"`
	SuccessCount int            `json:"success_count" yaml:"success_count"`
	ErrorCount   int            `json:"error_count" yaml:"error_count"`
	Remaining    int            `json:"remaining" yaml:"remaining"`
	Errors       []UnitError    `json:"errors,omitempty" yaml:"errors,omitempty"`
	Message      string         `json:"message" yaml:"message"`
	ResumeHint   string         `json:"resume_hint,omitempty" yaml:"resume_hint,omitempty"`
	Elapsed      time.Duration  `json:"elapsed" yaml:"elapsed"`
}

// Orchestrator runs one batch at a time.
type Orchestrator struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	mu      sync.Mutex
	state   State
	lastReq *Request

	aborted atomic.Bool

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Source == nil || deps.Mutator == nil || deps.Caller == nil {
		return nil, fmt.Errorf("batch: source, mutator and caller are required")
	}
	if deps.Prompts == nil || deps.Processed == nil {
		return nil, fmt.Errorf("batch: prompts and processed set are required")
	}
	if deps.Progress == nil {
		deps.Progress = nopProgress{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.InterIterationDelay < 0 {
		cfg.InterIterationDelay = 0
	}
	if cfg.ExpectedCallLatency <= 0 {
		cfg.ExpectedCallLatency = DefaultExpectedCallLatency
	}
	return &Orchestrator{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		state:  StateIdle,
		now:    time.Now,
		sleep:  sleepContext,
	}, nil
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Abort asks a running batch to stop. The current call finishes but its
// result is not written.
func (o *Orchestrator) Abort() {
	o.aborted.Store(true)
}

func (o *Orchestrator) abortRequested(ctx context.Context) bool {
	return o.aborted.Load() || ctx.Err() != nil
}

// Filter returns the selection filter a request runs with. view may be nil.
func (o *Orchestrator) Filter(req Request, view selection.Membership) selection.Filter {
	return selection.Filter{
		ReadyStatuses: o.cfg.ReadyStatuses,
		Processed:     view,
		Group:         req.Group,
		Triplets:      triplet.Options{SuppressEmpty: o.cfg.SuppressEmptyNeighbors},
	}
}

// Confirm selects the triplets req would process and estimates the cost.
// A provider configuration problem moves the orchestrator to Failed.
func (o *Orchestrator) Confirm(ctx context.Context, req Request) (*Plan, error) {
	o.mu.Lock()
	if o.state == StateRunning {
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: a run is in progress", ErrInvalidState)
	}
	o.state = StateConfirming
	r := req
	o.lastReq = &r
	o.mu.Unlock()
	o.aborted.Store(false)

	if o.deps.Validator != nil {
		if cerr := o.deps.Validator.Validate(o.cfg.Provider); cerr != nil {
			o.setState(StateFailed)
			return nil, cerr
		}
	}

	units, err := o.deps.Source.Load(ctx)
	if err != nil {
		o.setState(StateFailed)
		return nil, fmt.Errorf("load scenes: %w", err)
	}
	view, err := processed.Snapshot(ctx, o.deps.Processed)
	if err != nil {
		o.setState(StateFailed)
		return nil, fmt.Errorf("load processed set: %w", err)
	}

	sel := o.Filter(req, view).Select(req.Mode, units)
	plan := &Plan{
		Mode:     req.Mode,
		Group:    req.Group,
		Total:    len(sel.Triplets),
		Triplets: sel.Triplets,
	}
	plan.Estimate = o.estimate(sel.Triplets)

	o.logger.Info("batch confirmed",
		"mode", req.Mode, "group", req.Group, "triplets", plan.Total,
		"estimated_duration", plan.Estimate.Duration)
	return plan, nil
}

// estimate approximates input tokens at four characters per token.
func (o *Orchestrator) estimate(ts []triplet.Triplet) Estimate {
	est := Estimate{
		Calls:    len(ts),
		Duration: time.Duration(len(ts)) * (o.cfg.ExpectedCallLatency + o.cfg.InterIterationDelay),
	}
	for _, t := range ts {
		req, err := o.deps.Prompts.Build(t)
		if err != nil {
			continue
		}
		est.InputTokens += (len(req.System) + len(req.User)) / 4
	}
	return est
}

// Resume confirms the previous request again. Smart mode skips every
// window the earlier run completed.
func (o *Orchestrator) Resume(ctx context.Context) (*Plan, error) {
	o.mu.Lock()
	last := o.lastReq
	state := o.state
	o.mu.Unlock()

	if last == nil || !state.Terminal() {
		return nil, fmt.Errorf("%w: nothing to resume from %s", ErrInvalidState, state)
	}
	return o.Confirm(ctx, *last)
}

// Run processes plan. It returns an error only when the run could not
// start; per-scene failures are reported in the summary.
func (o *Orchestrator) Run(ctx context.Context, plan *Plan) (*Summary, error) {
	o.mu.Lock()
	if o.state != StateConfirming || plan == nil {
		state := o.state
		o.mu.Unlock()
		return nil, fmt.Errorf("%w: run requires a confirmed plan (state %s)", ErrInvalidState, state)
	}
	o.state = StateRunning
	o.mu.Unlock()

	if o.cfg.LockPath != "" {
		lock := flock.New(o.cfg.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			o.setState(StateFailed)
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		if !ok {
			o.setState(StateFailed)
			return nil, fmt.Errorf("%w (lock %s)", ErrLocked, o.cfg.LockPath)
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				o.logger.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	start := o.now()
	sum := &Summary{Mode: plan.Mode, Group: plan.Group, Total: plan.Total}
	final := StateCompleted

	o.logger.Info("batch started", "mode", plan.Mode, "group", plan.Group, "total", plan.Total)

loop:
	for i, t := range plan.Triplets {
		if o.abortRequested(ctx) {
			final = StateAborted
			break
		}

		label := triplet.Label(t)
		err := o.process(ctx, plan, t)

		switch {
		case err == nil:
			sum.Processed++
		case errors.Is(err, errTracker):
			sum.Processed++
			o.recordError(sum, t, label, err)
			final = StateFailed
			break loop
		case errors.Is(err, errAborted), o.abortRequested(ctx):
			final = StateAborted
			break loop
		case errors.Is(err, providers.ErrRateLimitExhausted):
			o.logger.Error("rate limit retries exhausted", "scene", t.Current.Number(), "error", err)
			final = StateAborted
			sum.Message = "The provider kept rate limiting requests after every retry."
			break loop
		default:
			sum.Processed++
			o.recordError(sum, t, label, err)
		}

		o.deps.Progress.Progress(sum.Processed, plan.Total, label)

		if i < len(plan.Triplets)-1 && o.cfg.InterIterationDelay > 0 {
			// A cancelled delay is picked up by the abort check.
			_ = o.sleep(ctx, o.cfg.InterIterationDelay)
		}
	}

	o.finish(sum, final, start)
	o.setState(final)
	o.logger.Info("batch finished",
		"state", final, "processed", sum.Processed, "errors", sum.ErrorCount,
		"remaining", sum.Remaining, "elapsed", sum.Elapsed)
	return sum, nil
}

func (o *Orchestrator) recordError(sum *Summary, t triplet.Triplet, label string, err error) {
	ue := UnitError{Scene: t.Current.Number(), Label: label, Message: err.Error(), Err: err}
	sum.ErrorCount++
	sum.Errors = append(sum.Errors, ue)
	o.logger.Warn("scene failed", "scene", ue.Scene, "error", err)
	o.deps.Progress.Error(ue.Error())
}

func (o *Orchestrator) finish(sum *Summary, final State, start time.Time) {
	sum.State = final
	sum.SuccessCount = sum.Processed - sum.ErrorCount
	sum.Remaining = sum.Total - sum.Processed
	sum.Elapsed = o.now().Sub(start)

	status := fmt.Sprintf("%d of %d scenes processed, %d failed", sum.Processed, sum.Total, sum.ErrorCount)
	switch final {
	case StateCompleted:
		sum.Message = "Run complete: " + status + "."
	case StateAborted:
		if sum.Message == "" {
			sum.Message = "Run aborted."
		}
		sum.Message += fmt.Sprintf(" %s; %d remaining.", status, sum.Remaining)
		sum.ResumeHint = fmt.Sprintf("Resume later with mode %q; scenes already written are skipped in smart mode.", resumeMode(sum.Mode))
	case StateFailed:
		sum.Message = "Run failed: the processed set could not be updated. " + status + "."
		sum.ResumeHint = "Check the processed set database, then rerun in smart mode."
	}
}

func resumeMode(m selection.Mode) selection.Mode {
	if m == selection.ModeFlagged {
		return selection.ModeSmart
	}
	return m
}

// process handles one triplet: prompt, call, parse, write, record.
func (o *Orchestrator) process(ctx context.Context, plan *Plan, t triplet.Triplet) error {
	num := t.Current.Number()

	prompt, err := o.deps.Prompts.Build(t)
	if err != nil {
		return fmt.Errorf("build prompt: %w", err)
	}

	res, err := o.deps.Caller.Call(ctx, o.cfg.Provider, providers.Request{
		System: prompt.System,
		User:   prompt.User,
		Labels: map[string]string{
			llmcall.LabelScene:      num,
			llmcall.LabelTriplet:    triplet.Label(t),
			llmcall.LabelMode:       string(plan.Mode),
			llmcall.LabelGroup:      plan.Group,
			llmcall.LabelPromptKey:  beats.UserPromptKey,
			llmcall.LabelPromptHash: prompt.Hash,
		},
	})
	if err != nil {
		return err
	}

	parsed, ok := analysis.Parse(res.Text)
	if !ok {
		return fmt.Errorf("%w: scene %s: expected previous, current and next sections", ErrParse, num)
	}

	if o.abortRequested(ctx) {
		return errAborted
	}

	model := res.Model
	if model == "" {
		model = o.cfg.Provider.Model
	}
	now := o.now()
	err = o.deps.Mutator.Mutate(ctx, t.Current.ID, func(old scene.Metadata) (scene.Metadata, error) {
		return analysis.Write(old, *parsed, model, now), nil
	})
	if err != nil {
		return fmt.Errorf("%w: scene %s: %w", ErrWrite, num, err)
	}

	// The note is written; record it even if the run is being cancelled.
	key := triplet.KeyFor(t, plan.Group)
	if err := o.deps.Processed.Add(context.WithoutCancel(ctx), key); err != nil {
		return fmt.Errorf("%w: %s: %w", errTracker, key, err)
	}
	o.logger.Debug("scene written", "scene", num, "key", key, "model", model)
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
