// Package llm provides shared data models for LLM providers.
package llm

// Message roles understood by every provider.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a chat message with role and content.
// An ordered sequence of messages is the literal prompt history sent
// to the provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system message.
func SystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// UserMessage creates a user message.
func UserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// AssistantMessage creates an assistant message.
func AssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}

// Request is the logical completion request every provider receives.
// Providers translate it to their own wire format; streaming is never
// requested (responses are replayed incrementally by the streaming
// presenter instead).
type Request struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

// Response is a normalized completion response.
type Response struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage contains token usage statistics, when the provider reports them.
type TokenUsage struct {
	PromptTokens     uint32
	CompletionTokens uint32
	TotalTokens      uint32
}

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
