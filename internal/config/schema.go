package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/providers"
	"github.com/EricRhysTaylor/Radial-Timeline-sub003/internal/selection"
)

// Config holds beats configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Provider  string                 `mapstructure:"provider" yaml:"provider"`
	Providers map[string]ProviderCfg `mapstructure:"providers" yaml:"providers"`
	Vault     VaultCfg               `mapstructure:"vault" yaml:"vault"`
	Batch     BatchCfg               `mapstructure:"batch" yaml:"batch"`
	Logging   LoggingCfg             `mapstructure:"logging" yaml:"logging"`
}

// ProviderCfg configures one AI provider.
type ProviderCfg struct {
	APIKey            string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model             string `mapstructure:"model" yaml:"model"`
	MaxTokens         int    `mapstructure:"max_tokens" yaml:"max_tokens"`
	BaseURL           string `mapstructure:"base_url" yaml:"base_url,omitempty"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"` // 0 = unlimited
}

// VaultCfg locates the manuscript.
type VaultCfg struct {
	Root       string `mapstructure:"root" yaml:"root"`
	SceneClass string `mapstructure:"scene_class" yaml:"scene_class"`
}

// BatchCfg tunes a run.
type BatchCfg struct {
	Mode                   string        `mapstructure:"mode" yaml:"mode"`
	ReadyStatuses          []string      `mapstructure:"ready_statuses" yaml:"ready_statuses"`
	InterIterationDelay    time.Duration `mapstructure:"inter_iteration_delay" yaml:"inter_iteration_delay"`
	MaxRetries             int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryBaseDelay         time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	ExpectedCallLatency    time.Duration `mapstructure:"expected_call_latency" yaml:"expected_call_latency"`
	SuppressEmptyNeighbors bool          `mapstructure:"suppress_empty_neighbors" yaml:"suppress_empty_neighbors"`
}

// LoggingCfg controls log output.
type LoggingCfg struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Transcripts bool   `mapstructure:"transcripts" yaml:"transcripts"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	cfg := &Config{Providers: make(map[string]ProviderCfg)}
	for _, e := range DefaultEntries() {
		cfg.set(e.Key, e.Value)
	}
	return cfg
}

// set applies one dotted default key. Unknown keys are ignored.
func (c *Config) set(key string, value any) {
	parts := strings.Split(key, ".")
	switch {
	case key == "provider":
		c.Provider = value.(string)
	case parts[0] == "providers" && len(parts) == 3:
		p := c.Providers[parts[1]]
		switch parts[2] {
		case "api_key":
			p.APIKey = value.(string)
		case "model":
			p.Model = value.(string)
		case "max_tokens":
			p.MaxTokens = value.(int)
		case "timeout_seconds":
			p.TimeoutSeconds = value.(int)
		case "requests_per_minute":
			p.RequestsPerMinute = value.(int)
		}
		c.Providers[parts[1]] = p
	case key == "vault.root":
		c.Vault.Root = value.(string)
	case key == "vault.scene_class":
		c.Vault.SceneClass = value.(string)
	case key == "batch.mode":
		c.Batch.Mode = value.(string)
	case key == "batch.ready_statuses":
		c.Batch.ReadyStatuses = append([]string(nil), value.([]string)...)
	case key == "batch.inter_iteration_delay":
		c.Batch.InterIterationDelay = value.(time.Duration)
	case key == "batch.max_retries":
		c.Batch.MaxRetries = value.(int)
	case key == "batch.retry_base_delay":
		c.Batch.RetryBaseDelay = value.(time.Duration)
	case key == "batch.expected_call_latency":
		c.Batch.ExpectedCallLatency = value.(time.Duration)
	case key == "batch.suppress_empty_neighbors":
		c.Batch.SuppressEmptyNeighbors = value.(bool)
	case key == "logging.level":
		c.Logging.Level = value.(string)
	case key == "logging.transcripts":
		c.Logging.Transcripts = value.(bool)
	}
}

// envFallbacks are consulted when a provider's api_key resolves empty.
var envFallbacks = map[string]string{
	providers.ProviderAnthropic: "ANTHROPIC_API_KEY",
	providers.ProviderOpenAI:    "OPENAI_API_KEY",
	providers.ProviderGemini:    "GEMINI_API_KEY",
}

// ProviderConfig returns the call configuration for the named provider, or
// the active provider when name is empty. API keys are resolved from the
// environment.
func (c *Config) ProviderConfig(name string) providers.Config {
	if name == "" {
		name = c.Provider
	}
	name = strings.ToLower(strings.TrimSpace(name))
	p := c.Providers[name]

	key := ResolveEnvVars(p.APIKey)
	if key == "" {
		if env, ok := envFallbacks[name]; ok {
			key = ResolveEnvVars("${" + env + "}")
		}
	}
	model := p.Model
	if model == "" {
		model = providers.DefaultModels[name]
	}
	return providers.Config{
		Provider:          name,
		Model:             model,
		APIKey:            key,
		MaxTokens:         p.MaxTokens,
		BaseURL:           p.BaseURL,
		Timeout:           time.Duration(p.TimeoutSeconds) * time.Second,
		RequestsPerMinute: p.RequestsPerMinute,
	}
}

// RetryPolicy returns the retry settings.
func (c *Config) RetryPolicy() providers.RetryPolicy {
	return providers.RetryPolicy{MaxRetries: c.Batch.MaxRetries, BaseDelay: c.Batch.RetryBaseDelay}
}

// Validate checks values a run depends on. Credentials are checked later,
// by the provider gateway.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return fmt.Errorf("provider is not set")
	}
	if _, err := selection.ParseMode(c.Batch.Mode); err != nil {
		return fmt.Errorf("batch.mode: %w", err)
	}
	if c.Batch.InterIterationDelay < 0 || c.Batch.RetryBaseDelay < 0 {
		return fmt.Errorf("batch delays must not be negative")
	}
	if c.Batch.MaxRetries < 0 {
		return fmt.Errorf("batch.max_retries must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}
