// Package openai implements llm.Client over the official OpenAI SDK.
// It also serves OpenAI-compatible local servers (LM Studio, vLLM,
// llama.cpp) via Config.BaseURL.
package openai

import (
	"context"
	"net/http"
	"time"

	base "github.com/Vityacv/editpredict/llm"
	"github.com/Vityacv/editpredict/observability"
	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// Client implements llm.Client for the OpenAI chat completions API.
type Client struct {
	client  oa.Client
	cfg     Config
	retrier *base.Retrier
}

// Config configures the OpenAI client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	// Timeout applies to non-streaming Chat calls only.
	Timeout time.Duration
	Retry   base.RetryConfig
	Hooks   *observability.Hooks
}

// NewClient creates an OpenAI client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	// Streaming requests must not be cut short by a client timeout;
	// the non-streaming path bounds itself via context instead.
	opts := []option.RequestOption{option.WithHTTPClient(&http.Client{})}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	c := oa.NewClient(opts...)
	return &Client{client: c, cfg: cfg, retrier: base.NewRetrier(cfg.Retry)}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

func (c *Client) params(req *base.ChatRequest) oa.ChatCompletionNewParams {
	params := oa.ChatCompletionNewParams{Messages: toOAMessages(req)}
	if m := pickModel(req, c.cfg.Model); m != "" {
		params.Model = shared.ChatModel(m)
	}
	maxTokens := req.Options.NumPredict
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens > 0 {
		params.MaxTokens = oa.Int(int64(maxTokens))
	}
	temp := req.Options.Temperature
	if temp == 0 {
		temp = c.cfg.Temperature
	}
	if temp > 0 {
		params.Temperature = oa.Float(temp)
	}
	return params
}

// Chat performs a single non-streaming request, with retries.
func (c *Client) Chat(ctx context.Context, req *base.ChatRequest) (*base.Response, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeRequest(ctx, "openai", model, map[string]any{"operation": "chat"})
	start := time.Now()
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	var resp *oa.ChatCompletion
	err := c.retrier.Do(ctx, func() error {
		r, err := c.client.Chat.Completions.New(ctx, c.params(req))
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	c.cfg.Hooks.SafeResponse(ctx, "openai", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return fromOAResponse(resp), nil
}

// ChatStream implements backend-neutral delta streaming. No retry.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeRequest(ctx, "openai", model, map[string]any{"operation": "chat_stream"})
	s := c.client.Chat.Completions.NewStreaming(ctx, c.params(req))
	return &oaStreamWrapper{inner: s, provider: "openai", model: model}, nil
}

// oaStreamCore matches the subset of the OpenAI stream API we use.
type oaStreamCore interface {
	Next() bool
	Current() oa.ChatCompletionChunk
	Err() error
	Close() error
}

type oaStreamWrapper struct {
	inner    oaStreamCore
	provider string
	model    string
	closed   bool
}

func (w *oaStreamWrapper) Recv(ctx context.Context) (base.Delta, error) {
	if w.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	for {
		if err := ctx.Err(); err != nil {
			w.Close()
			return base.Delta{}, err
		}
		if !w.inner.Next() {
			if err := w.inner.Err(); err != nil {
				w.Close()
				return base.Delta{}, err
			}
			w.closed = true
			return base.Delta{Type: base.DeltaTypeDone, Provider: w.provider, Model: w.model}, nil
		}
		ev := w.inner.Current()
		for _, ch := range ev.Choices {
			if ch.Delta.Content != "" {
				return base.Delta{
					Type:     base.DeltaTypeText,
					Role:     base.RoleAssistant,
					Text:     ch.Delta.Content,
					Provider: w.provider,
					Model:    w.model,
				}, nil
			}
		}
		// Event without content, keep pulling.
	}
}

func (w *oaStreamWrapper) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.inner.Close()
}

func toOAMessages(req *base.ChatRequest) []oa.ChatCompletionMessageParamUnion {
	msgs := make([]oa.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case base.RoleSystem:
			msgs = append(msgs, oa.ChatCompletionMessageParamUnion{OfSystem: &oa.ChatCompletionSystemMessageParam{Content: oa.ChatCompletionSystemMessageParamContentUnion{OfString: oa.String(m.Content)}}})
		case base.RoleAssistant:
			msgs = append(msgs, oa.ChatCompletionMessageParamUnion{OfAssistant: &oa.ChatCompletionAssistantMessageParam{Content: oa.ChatCompletionAssistantMessageParamContentUnion{OfString: oa.String(m.Content)}}})
		default:
			msgs = append(msgs, oa.ChatCompletionMessageParamUnion{OfUser: &oa.ChatCompletionUserMessageParam{Content: oa.ChatCompletionUserMessageParamContentUnion{OfString: oa.String(m.Content)}}})
		}
	}
	return msgs
}

func fromOAResponse(r *oa.ChatCompletion) *base.Response {
	if r == nil || len(r.Choices) == 0 {
		return &base.Response{Provider: "openai"}
	}
	choice := r.Choices[0]
	return &base.Response{
		Content:      choice.Message.Content,
		Provider:     "openai",
		Model:        string(r.Model),
		FinishReason: string(choice.FinishReason),
	}
}

func pickModel(req *base.ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return fallback
}
