// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Provider-specific error handling
//
// Providers are pure, stateless translators of a Request into text or a
// typed failure. Retry, caching, and rate limiting are composed around
// them by higher layers, never inside them.

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Complete sends a chat completion request.
	Complete(ctx context.Context, req Request) (Response, error)

	// ListModels returns the models this provider can serve.
	// Providers without a listing endpoint return their static catalog.
	ListModels(ctx context.Context) ([]ModelInfo, error)
}
