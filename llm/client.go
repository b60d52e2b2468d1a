package llm

import (
	"context"
	"time"
)

// Roles used in chat requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Client is the backend-agnostic interface to an inference service.
type Client interface {
	// Chat performs a single non-streaming request.
	Chat(ctx context.Context, req *ChatRequest) (*Response, error)
	// ChatStream issues a streaming request and returns a pull-based
	// delta stream. Completion refreshes always go through this path.
	ChatStream(ctx context.Context, req *ChatRequest) (Stream, error)
	Model() string
}

// Message is a single role/content turn in a chat request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Options carries generation parameters understood by most backends.
type Options struct {
	// NumPredict bounds the number of generated tokens. Zero means
	// backend default.
	NumPredict int `json:"num_predict,omitempty"`
	// Temperature of sampling; zero means backend default.
	Temperature float64 `json:"temperature,omitempty"`
	// Stop sequences that terminate generation.
	Stop []string `json:"stop,omitempty"`
}

// ChatRequest is the normalized request sent to a backend. It is built
// fresh per completion refresh and never mutated afterwards.
type ChatRequest struct {
	Model     string    `json:"model,omitempty"`
	Messages  []Message `json:"messages"`
	Stream    bool      `json:"stream"`
	KeepAlive string    `json:"keep_alive,omitempty"`
	Options   Options   `json:"options"`
}

// Response is the normalized non-streaming backend response.
type Response struct {
	Content      string `json:"content"`
	Provider     string `json:"provider,omitempty"`
	Model        string `json:"model,omitempty"`
	FinishReason string `json:"finish_reason,omitempty"`
}

// RetryConfig controls retry behavior for non-streaming requests.
// Streaming completion refreshes are never retried; a failed refresh is
// simply superseded by the next one.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
}

// DefaultRetryConfig returns sane defaults for backend retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  1 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}
