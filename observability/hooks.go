package observability

import (
	"context"
	"time"
)

// Hooks provides optional callbacks for logging and metrics without
// introducing dependencies in the core library. All functions are optional.
type Hooks struct {
	// Logf logs a structured message with a severity level and key-value fields.
	Logf func(ctx context.Context, level string, msg string, fields map[string]any)

	// OnRequest is called before a backend request is sent.
	OnRequest func(ctx context.Context, provider string, model string, meta map[string]any)
	// OnResponse is called after a backend response (or stream start) is received.
	OnResponse func(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any)
	// OnRetry is called when a non-streaming request is retried.
	OnRetry func(ctx context.Context, provider string, model string, attempt int, err error)
}

// SafeLog logs if Logf is configured.
func (h *Hooks) SafeLog(ctx context.Context, level string, msg string, fields map[string]any) {
	if h != nil && h.Logf != nil {
		h.Logf(ctx, level, msg, fields)
	}
}

// SafeRequest invokes OnRequest if configured.
func (h *Hooks) SafeRequest(ctx context.Context, provider string, model string, meta map[string]any) {
	if h != nil && h.OnRequest != nil {
		h.OnRequest(ctx, provider, model, meta)
	}
}

// SafeResponse invokes OnResponse if configured.
func (h *Hooks) SafeResponse(ctx context.Context, provider string, model string, latency time.Duration, meta map[string]any) {
	if h != nil && h.OnResponse != nil {
		h.OnResponse(ctx, provider, model, latency, meta)
	}
}

// SafeRetry invokes OnRetry if configured.
func (h *Hooks) SafeRetry(ctx context.Context, provider string, model string, attempt int, err error) {
	if h != nil && h.OnRetry != nil {
		h.OnRetry(ctx, provider, model, attempt, err)
	}
}
