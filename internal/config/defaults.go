package config

import "time"

// Entry is one documented configuration key and its default.
type Entry struct {
	Key         string
	Value       any
	Description string
}

// DefaultEntries returns the default configuration entries. They seed
// viper's defaults and document the keys in generated config files.
func DefaultEntries() []Entry {
	return []Entry{
		{
			Key:         "provider",
			Value:       "anthropic",
			Description: "Active AI provider: anthropic, openai, gemini or mock",
		},

		// ===================
		// Providers
		// ===================

		{Key: "providers.anthropic.api_key", Value: "${ANTHROPIC_API_KEY}", Description: "Anthropic API key (uses environment variable)"},
		{Key: "providers.anthropic.model", Value: "claude-sonnet-4-5-20250929", Description: "Anthropic model; aliases such as sonnet are canonicalized"},
		{Key: "providers.anthropic.max_tokens", Value: 4000, Description: "Response token limit"},
		{Key: "providers.anthropic.timeout_seconds", Value: 180, Description: "HTTP timeout in seconds"},
		{Key: "providers.anthropic.requests_per_minute", Value: 0, Description: "Client-side request cap (0 = unlimited)"},

		{Key: "providers.openai.api_key", Value: "${OPENAI_API_KEY}", Description: "OpenAI API key (uses environment variable)"},
		{Key: "providers.openai.model", Value: "gpt-4o-mini", Description: "OpenAI model"},
		{Key: "providers.openai.max_tokens", Value: 4000, Description: "Response token limit"},
		{Key: "providers.openai.timeout_seconds", Value: 180, Description: "HTTP timeout in seconds"},
		{Key: "providers.openai.requests_per_minute", Value: 0, Description: "Client-side request cap (0 = unlimited)"},

		{Key: "providers.gemini.api_key", Value: "${GEMINI_API_KEY}", Description: "Gemini API key (uses environment variable)"},
		{Key: "providers.gemini.model", Value: "gemini-2.5-flash", Description: "Gemini model"},
		{Key: "providers.gemini.max_tokens", Value: 4000, Description: "Response token limit"},
		{Key: "providers.gemini.timeout_seconds", Value: 180, Description: "HTTP timeout in seconds"},
		{Key: "providers.gemini.requests_per_minute", Value: 0, Description: "Client-side request cap (0 = unlimited)"},

		// ===================
		// Vault
		// ===================

		{Key: "vault.root", Value: ".", Description: "Folder holding the scene notes"},
		{Key: "vault.scene_class", Value: "Scene", Description: "Frontmatter Class value that marks a scene"},

		// ===================
		// Batch
		// ===================

		{Key: "batch.mode", Value: "smart", Description: "Default mode: force-all, unprocessed, flagged or smart"},
		{Key: "batch.ready_statuses", Value: []string{"Complete"}, Description: "Status values that make a scene eligible"},
		{Key: "batch.inter_iteration_delay", Value: 2 * time.Second, Description: "Pause between scenes"},
		{Key: "batch.max_retries", Value: 3, Description: "Retries after a rate-limited call"},
		{Key: "batch.retry_base_delay", Value: 5 * time.Second, Description: "First backoff delay; doubles on each retry"},
		{Key: "batch.expected_call_latency", Value: 20 * time.Second, Description: "Per-call latency used for time estimates"},
		{Key: "batch.suppress_empty_neighbors", Value: false, Description: "Treat neighbors without words as absent"},

		// ===================
		// Logging
		// ===================

		{Key: "logging.level", Value: "info", Description: "Log level: debug, info, warn or error"},
		{Key: "logging.transcripts", Value: false, Description: "Write a markdown transcript of every provider call"},
	}
}

// DefaultFor returns the default value of key.
func DefaultFor(key string) (any, bool) {
	for _, e := range DefaultEntries() {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}
