// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Single chat-completions endpoint; no listing endpoint exists,
//   so the model catalog is static configuration

package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// deepseekCatalog is the curated model catalog. DeepSeek exposes no
// listing endpoint, so the catalog ships with the binary.
var deepseekCatalog = []ModelInfo{
	{ID: "deepseek-chat", DisplayName: "DeepSeek Chat"},
	{ID: "deepseek-reasoner", DisplayName: "DeepSeek Reasoner"},
	{ID: "deepseek-coder", DisplayName: "DeepSeek Coder"},
}

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	client *openai.Client
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(apiKey string) *DeepSeekProvider {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = deepseekBaseURL

	return &DeepSeekProvider{
		client: openai.NewClientWithConfig(config),
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// Complete sends a chat completion request.
func (p *DeepSeekProvider) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat completion failed: %w", err)
	}

	text := ""
	if len(resp.Choices) > 0 {
		text = resp.Choices[0].Message.Content
	}

	usage := &TokenUsage{
		PromptTokens:     uint32(resp.Usage.PromptTokens),
		CompletionTokens: uint32(resp.Usage.CompletionTokens),
		TotalTokens:      uint32(resp.Usage.TotalTokens),
	}

	return Response{Text: text, Usage: usage}, nil
}

// ListModels returns the static curated catalog.
func (p *DeepSeekProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models := make([]ModelInfo, len(deepseekCatalog))
	copy(models, deepseekCatalog)
	return models, nil
}

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
