package providers

import "strings"

// Provider ids.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
)

// DefaultModels is the model used when a provider config names none.
var DefaultModels = map[string]string{
	ProviderAnthropic: "claude-sonnet-4-5-20250929",
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderGemini:    "gemini-2.5-flash",
	ProviderMock:      "mock-model",
}

// modelAliases maps legacy and shorthand model ids to one canonical id per
// provider. Keys are lower-case.
var modelAliases = map[string]map[string]string{
	ProviderAnthropic: {
		"sonnet":                   "claude-sonnet-4-5-20250929",
		"claude-sonnet-4-5":        "claude-sonnet-4-5-20250929",
		"claude-sonnet-4-5-latest": "claude-sonnet-4-5-20250929",
		"claude-sonnet-4-0":        "claude-sonnet-4-20250514",
		"claude-sonnet-4":          "claude-sonnet-4-20250514",
		"claude-3-7-sonnet-latest": "claude-3-7-sonnet-20250219",
		"claude-3-5-sonnet-latest": "claude-3-5-sonnet-20241022",
		"claude-3-5-sonnet":        "claude-3-5-sonnet-20241022",
		"opus":                     "claude-opus-4-1-20250805",
		"claude-opus-4-1":          "claude-opus-4-1-20250805",
		"claude-opus-4-0":          "claude-opus-4-20250514",
		"claude-opus-4":            "claude-opus-4-20250514",
		"haiku":                    "claude-3-5-haiku-20241022",
		"claude-3-5-haiku-latest":  "claude-3-5-haiku-20241022",
	},
	ProviderOpenAI: {
		"gpt4o":              "gpt-4o",
		"gpt-4o-latest":      "gpt-4o",
		"chatgpt-4o-latest":  "gpt-4o",
		"gpt-4o-mini-latest": "gpt-4o-mini",
		"gpt4.1":             "gpt-4.1",
		"gpt-4.1-latest":     "gpt-4.1",
		"gpt5":               "gpt-5",
		"gpt-5-latest":       "gpt-5",
	},
	ProviderGemini: {
		"gemini-pro":                     "gemini-2.5-pro",
		"gemini-pro-latest":              "gemini-2.5-pro",
		"gemini-1.5-pro-latest":          "gemini-2.5-pro",
		"gemini-2.5-pro-preview-06-05":   "gemini-2.5-pro",
		"gemini-2.5-pro-preview-05-06":   "gemini-2.5-pro",
		"gemini-flash":                   "gemini-2.5-flash",
		"gemini-flash-latest":            "gemini-2.5-flash",
		"gemini-1.5-flash-latest":        "gemini-2.5-flash",
		"gemini-2.5-flash-preview-05-20": "gemini-2.5-flash",
	},
}

// CanonicalModel returns the canonical id for model under provider.
// Unknown ids pass through trimmed; an empty model stays empty.
func CanonicalModel(provider, model string) string {
	m := strings.TrimSpace(model)
	if m == "" {
		return ""
	}
	if aliases, ok := modelAliases[strings.ToLower(provider)]; ok {
		if canonical, ok := aliases[strings.ToLower(m)]; ok {
			return canonical
		}
	}
	return m
}
