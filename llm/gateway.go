// Gateway - bounded, categorized access to a single provider.

package llm

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultCallTimeout is the hard per-call deadline applied by the gateway.
const DefaultCallTimeout = 30 * time.Second

// Gateway wraps a Provider with a hard per-call timeout and error
// categorization. It does not retry, cache, or queue - those are composed
// around it by higher layers.
type Gateway struct {
	provider Provider
	timeout  time.Duration
}

// NewGateway creates a gateway over the given provider with the default
// 30-second call timeout.
func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider, timeout: DefaultCallTimeout}
}

// WithTimeout overrides the per-call timeout.
func (g *Gateway) WithTimeout(timeout time.Duration) *Gateway {
	g.timeout = timeout
	return g
}

// Provider returns the underlying provider.
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Call sends one completion request. On failure it returns a categorized
// *APIError; a call that exceeds the gateway timeout fails with
// CategoryTimeout. Caller cancellation propagates as context.Canceled so
// an aborted turn is distinguishable from a provider failure.
func (g *Gateway) Call(ctx context.Context, req Request) (Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.provider.Complete(callCtx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
			return Response{}, ctx.Err()
		}
		if callCtx.Err() == context.DeadlineExceeded {
			return Response{}, &APIError{
				Provider: g.provider.Name(),
				Category: CategoryTimeout,
				Message:  fmt.Sprintf("request exceeded the %s call deadline", g.timeout),
				Err:      err,
			}
		}
		return Response{}, Categorize(g.provider.Name(), err)
	}
	return resp, nil
}

// ListModels returns the provider's model catalog.
func (g *Gateway) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models, err := g.provider.ListModels(ctx)
	if err != nil {
		return nil, Categorize(g.provider.Name(), err)
	}
	return models, nil
}
