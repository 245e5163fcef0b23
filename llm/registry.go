// LLM Provider registry - parsing, construction, and display-name lookup.
//
// Quick Start:
//
//	provider, err := llm.ProviderOpenRouter.FromEnv()
//	provider, err := llm.ProviderDeepSeek.APIKey("sk-...")

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenRouter is the OpenRouter aggregation provider.
	ProviderOpenRouter ProviderType = iota
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenRouter:
		return "openrouter"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// DefaultModel returns the default model for this provider.
func (p ProviderType) DefaultModel() string {
	switch p {
	case ProviderOpenRouter:
		return "anthropic/claude-sonnet-4"
	case ProviderDeepSeek:
		return "deepseek-chat"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderGemini:
		return "gemini-3-flash"
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openrouter":
		return ProviderOpenRouter, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// APIKey constructs the provider with an explicit API key.
func (p ProviderType) APIKey(key string) (Provider, error) {
	switch p {
	case ProviderOpenRouter:
		return NewOpenRouterProvider(key), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(key), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(key), nil
	case ProviderGemini:
		return NewGeminiProvider(key), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", p)
	}
}

// FromEnv constructs the provider, reading the API key from the environment.
func (p ProviderType) FromEnv() (Provider, error) {
	envVar := p.EnvVar()
	apiKey := os.Getenv(envVar)
	if apiKey == "" {
		return nil, fmt.Errorf("%s: %s environment variable not set", p, envVar)
	}
	return p.APIKey(apiKey)
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	return []string{"openrouter", "deepseek", "anthropic", "gemini"}
}

// displayNames maps known model IDs to their display names.
var displayNames = map[string]string{
	"anthropic/claude-sonnet-4":   "Claude Sonnet 4",
	"anthropic/claude-opus-4.5":   "Claude Opus 4.5",
	"openai/gpt-5.2":              "GPT-5.2",
	"openai/gpt-4o":               "GPT-4o",
	"google/gemini-3-pro":         "Gemini 3 Pro",
	"google/gemini-3-flash":       "Gemini 3 Flash",
	"meta-llama/llama-4-maverick": "Llama 4 Maverick",
	"mistralai/mistral-large":     "Mistral Large",
	"deepseek/deepseek-chat":      "DeepSeek Chat",
	"deepseek-chat":               "DeepSeek Chat",
	"deepseek-reasoner":           "DeepSeek Reasoner",
	"deepseek-coder":              "DeepSeek Coder",
	"claude-opus-4-5-20251101":    "Claude Opus 4.5",
	"claude-sonnet-4-20250514":    "Claude Sonnet 4",
	"claude-haiku-4-20250514":     "Claude Haiku 4",
	"gemini-3-pro":                "Gemini 3 Pro",
	"gemini-3-flash":              "Gemini 3 Flash",
	"gemini-2.0-flash":            "Gemini 2.0 Flash",
}

// DisplayName returns the human-readable name for a model ref. Unknown
// refs fall back to the ref itself with any provider prefix trimmed, so
// labels stay readable for models the catalog has never seen.
func DisplayName(model string) string {
	if name, ok := displayNames[model]; ok {
		return name
	}
	if i := strings.LastIndex(model, "/"); i >= 0 && i+1 < len(model) {
		return model[i+1:]
	}
	return model
}
