package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

func TestCategorizeByStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCategory
	}{
		{401, CategoryAuthentication},
		{403, CategoryAuthentication},
		{429, CategoryRateLimit},
		{402, CategoryBilling},
		{400, CategoryModelError},
		{404, CategoryModelError},
		{422, CategoryModelError},
	}

	for _, tc := range cases {
		err := &openai.APIError{HTTPStatusCode: tc.status, Message: "provider says no"}
		got := Categorize("openrouter", err)
		if got.Category != tc.want {
			t.Errorf("status %d: got %s, want %s", tc.status, got.Category, tc.want)
		}
		if got.StatusCode != tc.status {
			t.Errorf("status %d not preserved, got %d", tc.status, got.StatusCode)
		}
		if got.Message != "provider says no" {
			t.Errorf("raw message not preserved: %q", got.Message)
		}
	}
}

func TestCategorizeFallbackMessageForEmptyBody(t *testing.T) {
	err := &openai.RequestError{HTTPStatusCode: 500, Err: errors.New("internal")}
	got := Categorize("openrouter", err)
	if got.Message != "HTTP error 500" {
		t.Errorf("expected generic fallback message, got %q", got.Message)
	}
}

func TestCategorizeGenaiError(t *testing.T) {
	err := genai.APIError{Code: 429, Message: "resource exhausted"}
	got := Categorize("gemini", err)
	if got.Category != CategoryRateLimit {
		t.Errorf("expected rate limit, got %s", got.Category)
	}
}

func TestCategorizeDeadlineExceeded(t *testing.T) {
	err := fmt.Errorf("call failed: %w", context.DeadlineExceeded)
	got := Categorize("deepseek", err)
	if got.Category != CategoryTimeout {
		t.Errorf("expected timeout, got %s", got.Category)
	}
}

func TestCategorizeByMessageHeuristics(t *testing.T) {
	cases := []struct {
		message string
		want    ErrorCategory
	}{
		{"you have exceeded your quota", CategoryBilling},
		{"insufficient credit balance", CategoryBilling},
		{"request timed out upstream", CategoryTimeout},
		{"dial tcp: connection refused", CategoryNetwork},
		{"no such host", CategoryNetwork},
		{"model not available in this region", CategoryModelError},
		{"something inexplicable", CategoryUnknown},
	}

	for _, tc := range cases {
		got := Categorize("openrouter", errors.New(tc.message))
		if got.Category != tc.want {
			t.Errorf("%q: got %s, want %s", tc.message, got.Category, tc.want)
		}
	}
}

func TestCategorizeIdempotent(t *testing.T) {
	original := Categorize("openrouter", errors.New("boom"))
	wrapped := fmt.Errorf("while calling: %w", original)

	again := Categorize("other", wrapped)
	if again != original {
		t.Error("expected the existing *APIError returned unchanged")
	}
}

func TestAPIErrorFormatting(t *testing.T) {
	withStatus := &APIError{Provider: "openrouter", StatusCode: 429, Category: CategoryRateLimit, Message: "slow down"}
	if withStatus.Error() != "openrouter: slow down (HTTP 429)" {
		t.Errorf("unexpected message: %q", withStatus.Error())
	}

	withoutStatus := &APIError{Provider: "deepseek", Category: CategoryNetwork, Message: "unreachable"}
	if withoutStatus.Error() != "deepseek: unreachable" {
		t.Errorf("unexpected message: %q", withoutStatus.Error())
	}
}

func TestAPIErrorUnwrap(t *testing.T) {
	inner := errors.New("root cause")
	err := Categorize("openrouter", fmt.Errorf("wrapped: %w", inner))
	if !errors.Is(err, inner) {
		t.Error("expected the underlying error reachable via errors.Is")
	}
}

func TestUserMessagesAreDistinct(t *testing.T) {
	categories := []ErrorCategory{
		CategoryNetwork, CategoryAuthentication, CategoryRateLimit,
		CategoryTimeout, CategoryBilling, CategoryModelError, CategoryUnknown,
	}
	seen := map[string]ErrorCategory{}
	for _, c := range categories {
		msg := c.UserMessage()
		if msg == "" {
			t.Errorf("%s has no user message", c)
		}
		if prev, dup := seen[msg]; dup {
			t.Errorf("%s and %s share a user message", c, prev)
		}
		seen[msg] = c
	}
}
