// Typed API errors and one-shot failure categorization.
//
// Categorization happens once, at the gateway boundary, by inspecting the
// failure's HTTP status and message. Everything above the gateway works
// with the category; the raw provider message is always preserved.

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorCategory classifies an API failure.
type ErrorCategory string

const (
	CategoryNetwork        ErrorCategory = "network"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryRateLimit      ErrorCategory = "rate_limit"
	CategoryTimeout        ErrorCategory = "timeout"
	CategoryBilling        ErrorCategory = "billing"
	CategoryModelError     ErrorCategory = "model_error"
	CategoryUnknown        ErrorCategory = "unknown"
)

// UserMessage returns the human-readable message shown for a failed turn.
func (c ErrorCategory) UserMessage() string {
	switch c {
	case CategoryNetwork:
		return "Network error: could not reach the provider. Check your connection and try again."
	case CategoryAuthentication:
		return "Authentication failed: the API key was rejected. Check your provider credentials."
	case CategoryRateLimit:
		return "Rate limited: the provider is throttling requests. Wait a moment and try again."
	case CategoryTimeout:
		return "The request timed out. The provider may be overloaded; try again."
	case CategoryBilling:
		return "Billing error: the provider reports exhausted quota or credits."
	case CategoryModelError:
		return "The provider rejected the request for the selected model."
	default:
		return "An unexpected error occurred while contacting the provider."
	}
}

// APIError is a categorized provider failure with the raw message preserved.
type APIError struct {
	Provider   string
	StatusCode int // 0 when no HTTP status applies
	Category   ErrorCategory
	Message    string
	Err        error // underlying error, for unwrapping
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d)", e.Provider, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying error.
func (e *APIError) Unwrap() error {
	return e.Err
}

// Categorize classifies an error from a provider call. The returned
// *APIError carries the raw message; if err is already an *APIError it is
// returned unchanged so categorization runs at most once.
func Categorize(provider string, err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	status, message := extractStatus(err)

	category := categoryForStatus(status)
	if category == CategoryUnknown {
		category = categoryForMessage(err, message)
	}

	return &APIError{
		Provider:   provider,
		StatusCode: status,
		Category:   category,
		Message:    message,
		Err:        err,
	}
}

// extractStatus pulls an HTTP status and structured message out of the
// SDK-specific error types. Falls back to a generic "HTTP error <status>"
// message when the body carried no parseable message.
func extractStatus(err error) (int, string) {
	var oaiAPIErr *openai.APIError
	if errors.As(err, &oaiAPIErr) {
		msg := oaiAPIErr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP error %d", oaiAPIErr.HTTPStatusCode)
		}
		return oaiAPIErr.HTTPStatusCode, msg
	}

	var oaiReqErr *openai.RequestError
	if errors.As(err, &oaiReqErr) {
		return oaiReqErr.HTTPStatusCode, fmt.Sprintf("HTTP error %d", oaiReqErr.HTTPStatusCode)
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode, antErr.Error()
	}

	var genErr genai.APIError
	if errors.As(err, &genErr) {
		msg := genErr.Message
		if msg == "" {
			msg = fmt.Sprintf("HTTP error %d", genErr.Code)
		}
		return genErr.Code, msg
	}

	return 0, err.Error()
}

func categoryForStatus(status int) ErrorCategory {
	switch status {
	case 401, 403:
		return CategoryAuthentication
	case 429:
		return CategoryRateLimit
	case 402:
		return CategoryBilling
	case 400, 404, 422:
		return CategoryModelError
	}
	return CategoryUnknown
}

func categoryForMessage(err error, message string) ErrorCategory {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return CategoryTimeout
		}
		return CategoryNetwork
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "quota") ||
		strings.Contains(lower, "billing") ||
		strings.Contains(lower, "insufficient credit"):
		return CategoryBilling
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out"):
		return CategoryTimeout
	case strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "connection reset"):
		return CategoryNetwork
	case strings.Contains(lower, "model"):
		return CategoryModelError
	}
	return CategoryUnknown
}
