// Package ollama implements llm.Client against the Ollama chat API.
// Responses stream as newline-delimited JSON, one chat fragment per line.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Vityacv/editpredict/llm"
	"github.com/Vityacv/editpredict/observability"
)

// DefaultBaseURL is the local Ollama endpoint used when none is configured.
const DefaultBaseURL = "http://localhost:11434"

// DefaultKeepAlive keeps the model loaded between completion requests.
const DefaultKeepAlive = "5m"

// ErrUnavailable wraps connection-level failures reaching the service.
var ErrUnavailable = errors.New("ollama service unavailable")

// APIError is a non-200 response from the Ollama API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ollama api error (status %d): %s", e.StatusCode, e.Message)
}

// Config configures the Ollama client.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	KeepAlive string
	// Timeout applies to non-streaming Chat calls only. Streaming
	// requests have no deadline; an abandoned stream is simply ignored.
	Timeout time.Duration
	Retry   llm.RetryConfig
	Hooks   *observability.Hooks
	// HTTPClient overrides the default transport, mainly for tests.
	HTTPClient *http.Client
}

// Client implements llm.Client for the Ollama chat API.
type Client struct {
	httpClient *http.Client
	cfg        Config
	retrier    *llm.Retrier
}

// NewClient creates an Ollama client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("ollama: model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}
	hc := cfg.HTTPClient
	if hc == nil {
		// No client-level timeout: it would cut streaming bodies short.
		hc = &http.Client{}
	}
	return &Client{httpClient: hc, cfg: cfg, retrier: llm.NewRetrier(cfg.Retry)}, nil
}

func (c *Client) Model() string { return c.cfg.Model }

// chatMessage mirrors the wire shape of an Ollama chat message.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	NumPredict  int      `json:"num_predict,omitempty"`
	Temperature float64  `json:"temperature,omitempty"`
	Stop        []string `json:"stop,omitempty"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	KeepAlive string        `json:"keep_alive,omitempty"`
	Options   *chatOptions  `json:"options,omitempty"`
}

// chatResponse is one NDJSON line of a streamed response, or the whole
// body of a non-streaming one.
type chatResponse struct {
	Model      string      `json:"model"`
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason,omitempty"`
	Error      string      `json:"error,omitempty"`
}

func (c *Client) toWire(req *llm.ChatRequest, stream bool) chatRequest {
	msgs := make([]chatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, chatMessage{Role: m.Role, Content: m.Content})
	}
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	keepAlive := req.KeepAlive
	if keepAlive == "" {
		keepAlive = c.cfg.KeepAlive
	}
	wire := chatRequest{
		Model:     model,
		Messages:  msgs,
		Stream:    stream,
		KeepAlive: keepAlive,
	}
	if req.Options.NumPredict != 0 || req.Options.Temperature != 0 || len(req.Options.Stop) > 0 {
		wire.Options = &chatOptions{
			NumPredict:  req.Options.NumPredict,
			Temperature: req.Options.Temperature,
			Stop:        req.Options.Stop,
		}
	}
	return wire
}

func (c *Client) post(ctx context.Context, wire chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ollama: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if wire.Stream {
		httpReq.Header.Set("Accept", "application/x-ndjson")
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		msg := string(body)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return resp, nil
}

// Chat performs a single non-streaming request, with retries.
func (c *Client) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	c.cfg.Hooks.SafeRequest(ctx, "ollama", model, map[string]any{"operation": "chat"})
	start := time.Now()
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	var out chatResponse
	attempt := 0
	err := c.retrier.Do(ctx, func() error {
		if attempt > 0 {
			c.cfg.Hooks.SafeRetry(ctx, "ollama", model, attempt, nil)
		}
		attempt++
		resp, err := c.post(ctx, c.toWire(req, false))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return fmt.Errorf("ollama: decode response: %w", err)
		}
		if out.Error != "" {
			return &APIError{StatusCode: http.StatusOK, Message: out.Error}
		}
		return nil
	})
	c.cfg.Hooks.SafeResponse(ctx, "ollama", model, time.Since(start), map[string]any{"operation": "chat", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return &llm.Response{
		Content:      out.Message.Content,
		Provider:     "ollama",
		Model:        out.Model,
		FinishReason: out.DoneReason,
	}, nil
}

// ChatStream issues a streaming request. The returned stream yields one
// text delta per NDJSON line and a done delta when generation finishes.
// No retry: a failed refresh is superseded by the next one.
func (c *Client) ChatStream(ctx context.Context, req *llm.ChatRequest) (llm.Stream, error) {
	model := req.Model
	if model == "" {
		model = c.cfg.Model
	}
	c.cfg.Hooks.SafeRequest(ctx, "ollama", model, map[string]any{"operation": "chat_stream"})
	start := time.Now()
	resp, err := c.post(ctx, c.toWire(req, true))
	c.cfg.Hooks.SafeResponse(ctx, "ollama", model, time.Since(start), map[string]any{"operation": "chat_stream", "error": err != nil})
	if err != nil {
		return nil, err
	}
	return &chatStream{body: resp.Body, reader: bufio.NewReader(resp.Body), model: model}, nil
}

type chatStream struct {
	body   io.ReadCloser
	reader *bufio.Reader
	model  string
	// pendingDone is set when the final line carried both content and
	// the done flag; the done delta is delivered on the next Recv.
	pendingDone bool
	closed      bool
}

func (s *chatStream) Recv(ctx context.Context) (llm.Delta, error) {
	if s.closed {
		return llm.Delta{}, llm.ErrStreamClosed
	}
	if s.pendingDone {
		return s.done(), nil
	}
	for {
		if err := ctx.Err(); err != nil {
			s.Close()
			return llm.Delta{}, err
		}
		line, err := s.reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			s.Close()
			return llm.Delta{}, fmt.Errorf("ollama: read stream: %w", err)
		}
		atEOF := err == io.EOF

		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var resp chatResponse
			if jsonErr := json.Unmarshal(line, &resp); jsonErr != nil {
				// Tolerate stray non-JSON lines.
				if atEOF {
					return s.done(), nil
				}
				continue
			}
			if resp.Error != "" {
				s.Close()
				return llm.Delta{}, fmt.Errorf("ollama: stream error: %s", resp.Error)
			}
			if resp.Message.Content != "" {
				if resp.Done {
					s.pendingDone = true
				}
				return llm.Delta{
					Type:     llm.DeltaTypeText,
					Role:     resp.Message.Role,
					Text:     resp.Message.Content,
					Provider: "ollama",
					Model:    s.model,
				}, nil
			}
			if resp.Done {
				return s.done(), nil
			}
		}
		if atEOF {
			// Stream exhaustion counts as completion.
			return s.done(), nil
		}
	}
}

func (s *chatStream) done() llm.Delta {
	s.Close()
	return llm.Delta{Type: llm.DeltaTypeDone, Provider: "ollama", Model: s.model}
}

func (s *chatStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
