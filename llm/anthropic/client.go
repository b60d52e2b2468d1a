// Package anthropic implements llm.Client for the Anthropic Messages API.
package anthropic

import (
	"context"
	"net/http"
	"time"

	base "github.com/Vityacv/editpredict/llm"
	"github.com/Vityacv/editpredict/observability"
	anth "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Client implements llm.Client for Anthropic Claude.
type Client struct {
	client  anth.Client
	cfg     Config
	retrier *base.Retrier
}

// Config configures the Anthropic client.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Retry       base.RetryConfig
	Hooks       *observability.Hooks
}

// NewClient creates an Anthropic client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}))
	}
	c := anth.NewClient(opts...)
	return &Client{client: c, cfg: cfg, retrier: base.NewRetrier(cfg.Retry)}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// Chat performs a single non-streaming request, with retries.
func (c *Client) Chat(ctx context.Context, req *base.ChatRequest) (*base.Response, error) {
	model := pickModel(req, c.cfg.Model)
	c.cfg.Hooks.SafeRequest(ctx, "anthropic", model, map[string]any{"operation": "chat"})
	start := time.Now()
	var out *anth.Message
	err := c.retrier.Do(ctx, func() error {
		resp, err := c.client.Messages.New(ctx, toAnthParams(req, c.cfg))
		if err != nil {
			return err
		}
		out = resp
		return nil
	})
	c.cfg.Hooks.SafeResponse(ctx, "anthropic", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return fromAnthMessage(out), nil
}

// ChatStream satisfies llm.Stream consumers with a single Chat call
// emitting one text delta followed by done. The Messages API has true
// streaming; funneling through Chat keeps this backend minimal since
// completion refreshes accumulate the whole response anyway.
func (c *Client) ChatStream(ctx context.Context, req *base.ChatRequest) (base.Stream, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return nil, err
	}
	text := ""
	if resp != nil {
		text = resp.Content
	}
	return &anthStaticStream{text: text, model: c.Model()}, nil
}

type anthStaticStream struct {
	emitted bool
	closed  bool
	text    string
	model   string
}

func (s *anthStaticStream) Recv(ctx context.Context) (base.Delta, error) {
	if s.closed {
		return base.Delta{}, base.ErrStreamClosed
	}
	if !s.emitted && s.text != "" {
		s.emitted = true
		return base.Delta{Type: base.DeltaTypeText, Role: base.RoleAssistant, Text: s.text, Provider: "anthropic", Model: s.model}, nil
	}
	s.closed = true
	return base.Delta{Type: base.DeltaTypeDone, Provider: "anthropic", Model: s.model}, nil
}

func (s *anthStaticStream) Close() error { s.closed = true; return nil }

func toAnthParams(req *base.ChatRequest, cfg Config) anth.MessageNewParams {
	// The Messages API takes the system prompt out of band.
	var system string
	msgs := make([]anth.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case base.RoleSystem:
			system = m.Content
		case base.RoleAssistant:
			msgs = append(msgs, anth.MessageParam{
				Role: anth.MessageParamRoleAssistant,
				Content: []anth.ContentBlockParamUnion{{
					OfText: &anth.TextBlockParam{Text: m.Content},
				}},
			})
		default:
			msgs = append(msgs, anth.MessageParam{
				Role: anth.MessageParamRoleUser,
				Content: []anth.ContentBlockParamUnion{{
					OfText: &anth.TextBlockParam{Text: m.Content},
				}},
			})
		}
	}
	maxTokens := req.Options.NumPredict
	if maxTokens == 0 {
		maxTokens = cfg.MaxTokens
	}
	params := anth.MessageNewParams{
		Messages:  msgs,
		MaxTokens: int64(maxTokens),
		Model:     anth.Model(pickModel(req, cfg.Model)),
	}
	if system != "" {
		params.System = []anth.TextBlockParam{{Text: system}}
	}
	temp := req.Options.Temperature
	if temp == 0 {
		temp = cfg.Temperature
	}
	if temp > 0 {
		params.Temperature = anth.Float(temp)
	}
	return params
}

func fromAnthMessage(m *anth.Message) *base.Response {
	if m == nil {
		return &base.Response{Provider: "anthropic"}
	}
	var content string
	for _, c := range m.Content {
		if c.Text != "" {
			content += c.Text
		}
	}
	return &base.Response{
		Content:  content,
		Provider: "anthropic",
		Model:    string(m.Model),
	}
}

func pickModel(req *base.ChatRequest, fallback string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	return fallback
}
