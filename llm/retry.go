package llm

import (
	"context"
	"time"
)

// Retrier performs bounded exponential backoff retries for a function.
// Backends use it for non-streaming Chat calls only.
type Retrier struct {
	cfg RetryConfig
}

// NewRetrier creates a Retrier with the given config, filling zero
// values from DefaultRetryConfig.
func NewRetrier(cfg RetryConfig) *Retrier {
	def := DefaultRetryConfig()
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = def.BackoffFactor
	}
	return &Retrier{cfg: cfg}
}

// Do runs fn and retries on error up to MaxRetries with exponential
// backoff, respecting context cancellation between attempts.
func (r *Retrier) Do(ctx context.Context, fn func() error) error {
	delay := r.cfg.InitialDelay
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt >= r.cfg.MaxRetries {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay = time.Duration(float64(delay) * r.cfg.BackoffFactor)
		if delay > r.cfg.MaxDelay || delay < 0 {
			delay = r.cfg.MaxDelay
		}
	}
}
