package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/batch"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/config"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/home"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/llmcall"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/processed"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/prompts/beats"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/providers"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/scene"
)

// app holds everything a command needs, built from flags and config.
type app struct {
	home     *home.Dir
	cfgMgr   *config.Manager
	cfg      *config.Config
	logger   *slog.Logger
	vault    *scene.Vault
	set      *processed.SQLiteSet
	resolver *prompts.Resolver
	gateway  *providers.Gateway
	provider providers.Config
}

// providerOverrides are set by commands that accept --provider/--model.
type providerOverrides struct {
	provider string
	model    string
}

func loadApp(ctx context.Context, ov providerOverrides) (*app, error) {
	h, err := home.New(homeDir)
	if err != nil {
		return nil, err
	}
	if err := h.EnsureExists(); err != nil {
		return nil, err
	}

	mgr, err := config.NewManager(cfgFile, h.Path())
	if err != nil {
		return nil, err
	}
	cfg := mgr.Get()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := newLogger(cfg.Logging.Level)

	root := cfg.Vault.Root
	if vaultRoot != "" {
		root = vaultRoot
	}
	vault, err := scene.NewVault(scene.VaultConfig{Root: root, SceneClass: cfg.Vault.SceneClass, Logger: logger})
	if err != nil {
		return nil, err
	}

	set, err := processed.OpenSQLite(ctx, h.ProcessedDBPath())
	if err != nil {
		return nil, err
	}

	resolver := prompts.NewResolver(h.PromptsDir(), logger)
	beats.RegisterPrompts(resolver)

	opts := []providers.GatewayOption{providers.WithLogger(logger)}
	if cfg.Logging.Transcripts {
		opts = append(opts, providers.WithObserver(llmcall.NewRecorder(h.TranscriptsDir(), logger)))
	}
	gateway := providers.NewGateway(providers.NewDefaultRegistry(nil), opts...)

	pc := cfg.ProviderConfig(ov.provider)
	if ov.model != "" {
		pc.Model = ov.model
	}

	return &app{
		home:     h,
		cfgMgr:   mgr,
		cfg:      cfg,
		logger:   logger,
		vault:    vault,
		set:      set,
		resolver: resolver,
		gateway:  gateway,
		provider: pc,
	}, nil
}

func (a *app) Close() {
	if err := a.set.Close(); err != nil {
		a.logger.Warn("failed to close processed set", "error", err)
	}
}

// orchestrator wires a batch orchestrator reporting to progress.
func (a *app) orchestrator(progress batch.Progress) (*batch.Orchestrator, error) {
	builder, err := beats.NewBuilder(a.resolver)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}
	return batch.New(batch.Config{
		Provider:               a.provider,
		ReadyStatuses:          a.cfg.Batch.ReadyStatuses,
		InterIterationDelay:    a.cfg.Batch.InterIterationDelay,
		ExpectedCallLatency:    a.cfg.Batch.ExpectedCallLatency,
		SuppressEmptyNeighbors: a.cfg.Batch.SuppressEmptyNeighbors,
		LockPath:               a.home.LockPath(),
	}, batch.Deps{
		Source:    a.vault,
		Mutator:   a.vault,
		Caller:    providers.NewRetrier(a.gateway, a.cfg.RetryPolicy(), a.logger),
		Validator: a.gateway,
		Prompts:   builder,
		Processed: a.set,
		Progress:  progress,
		Logger:    a.logger,
	})
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
	return logger
}
