package llm

import "testing"

func TestParseProviderType(t *testing.T) {
	cases := map[string]ProviderType{
		"openrouter": ProviderOpenRouter,
		"deepseek":   ProviderDeepSeek,
		"anthropic":  ProviderAnthropic,
		"claude":     ProviderAnthropic,
		"gemini":     ProviderGemini,
		"google":     ProviderGemini,
		"OpenRouter": ProviderOpenRouter,
	}
	for input, want := range cases {
		got, err := ParseProviderType(input)
		if err != nil {
			t.Errorf("ParseProviderType(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseProviderType(%q) = %v, want %v", input, got, want)
		}
	}

	if _, err := ParseProviderType("llamacpp"); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestProviderTypeRoundTrip(t *testing.T) {
	for _, name := range SupportedProviders() {
		p, err := ParseProviderType(name)
		if err != nil {
			t.Errorf("supported provider %q failed to parse: %v", name, err)
			continue
		}
		if p.String() != name {
			t.Errorf("%q round-tripped to %q", name, p.String())
		}
		if p.EnvVar() == "" {
			t.Errorf("%q has no API key env var", name)
		}
		if p.DefaultModel() == "" {
			t.Errorf("%q has no default model", name)
		}
	}
}

func TestFromEnvRequiresKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "")
	if _, err := ProviderOpenRouter.FromEnv(); err == nil {
		t.Error("expected error when the API key env var is unset")
	}

	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	provider, err := ProviderOpenRouter.FromEnv()
	if err != nil {
		t.Fatalf("FromEnv failed: %v", err)
	}
	if provider.Name() != "openrouter" {
		t.Errorf("unexpected provider name %q", provider.Name())
	}
}

func TestDisplayName(t *testing.T) {
	cases := map[string]string{
		"anthropic/claude-sonnet-4": "Claude Sonnet 4",
		"openai/gpt-4o":             "GPT-4o",
		"deepseek-chat":             "DeepSeek Chat",
		// Unknown refs fall back to the ref with the prefix trimmed.
		"somelab/brand-new-model": "brand-new-model",
		"unprefixed-model":        "unprefixed-model",
	}
	for model, want := range cases {
		if got := DisplayName(model); got != want {
			t.Errorf("DisplayName(%q) = %q, want %q", model, got, want)
		}
	}
}
