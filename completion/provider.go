package completion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Vityacv/editpredict/document"
	"github.com/Vityacv/editpredict/llm"
	"github.com/Vityacv/editpredict/observability"
)

// DebounceTimeout is how long a debounced refresh waits before issuing
// its request, so rapid consecutive keystrokes collapse to one call.
const DebounceTimeout = 75 * time.Millisecond

// MaxPredictTokens bounds the number of generated tokens per completion.
const MaxPredictTokens = 256

// Direction selects the previous or next candidate when cycling.
type Direction int

const (
	DirectionPrev Direction = iota
	DirectionNext
)

// Prediction is a single insertable edit: replace [Start, End) with
// Text. Start equals End for a pure insertion at the cursor.
type Prediction struct {
	Start document.Anchor
	End   document.Anchor
	Text  string
}

// Provider is the capability contract exposed to the host editor.
type Provider interface {
	IsEnabled() bool
	IsRefreshing() bool
	// Refresh starts a new completion request for the cursor position,
	// superseding any in-flight one.
	Refresh(buf document.Buffer, cursor document.Anchor, debounce bool)
	// Cycle moves between candidates; providers holding a single
	// candidate treat it as a no-op.
	Cycle(buf document.Buffer, cursor document.Anchor, dir Direction)
	Accept()
	Discard()
	// Suggest returns the stored prediction iff it was computed for
	// exactly this buffer and cursor.
	Suggest(buf document.Buffer, cursor document.Anchor) (Prediction, bool)
}

// StreamingProvider implements Provider on top of a streaming llm.Client.
//
// At most one refresh task is live at a time: starting a new refresh
// bumps a generation counter, and a task whose generation is no longer
// current discards its own result instead of committing. That is the
// whole cancellation model — best-effort abandonment, no cancel signal
// is sent to the transport.
type StreamingProvider struct {
	client   llm.Client
	cfg      Config
	hooks    *observability.Hooks
	debounce time.Duration

	mu         sync.Mutex
	generation uint64 // most recent refresh
	pending    uint64 // generation of the in-flight task, 0 when none
	prediction *Prediction
	bufferKey  document.BufferID
	cursorKey  document.Anchor
	hasKey     bool
}

// Option configures a StreamingProvider.
type Option func(*StreamingProvider)

// WithHooks attaches observability hooks.
func WithHooks(h *observability.Hooks) Option {
	return func(p *StreamingProvider) { p.hooks = h }
}

// WithDebounce overrides the debounce delay, mainly for tests.
func WithDebounce(d time.Duration) Option {
	return func(p *StreamingProvider) { p.debounce = d }
}

// NewStreamingProvider creates a provider using the given client and
// configuration. The configuration is read once here; an unset model
// disables the provider without error.
func NewStreamingProvider(client llm.Client, cfg Config, opts ...Option) *StreamingProvider {
	p := &StreamingProvider{
		client:   client,
		cfg:      cfg,
		debounce: DebounceTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsEnabled reports whether a model is configured.
func (p *StreamingProvider) IsEnabled() bool { return p.cfg.Enabled() }

// IsRefreshing reports whether a refresh task is in flight.
func (p *StreamingProvider) IsRefreshing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pending != 0
}

// Refresh starts a new completion request. The text window and request
// are captured synchronously, before any debounce wait, so the prompt
// always reflects the caller's buffer and cursor at call time. The
// stored prediction is cleared immediately: consumers see no suggestion
// while recomputation is in flight.
func (p *StreamingProvider) Refresh(buf document.Buffer, cursor document.Anchor, debounce bool) {
	if !p.cfg.Enabled() {
		p.mu.Lock()
		p.clearLocked()
		p.mu.Unlock()
		return
	}

	window := CollectWindow(buf, cursor)
	req := &llm.ChatRequest{
		Model:    p.cfg.Model,
		Messages: BuildMessages(window, p.cfg.Model),
		Stream:   true,
		Options:  llm.Options{NumPredict: MaxPredictTokens},
	}
	bufferID := buf.ID()

	p.mu.Lock()
	p.clearLocked()
	p.generation++
	gen := p.generation
	p.pending = gen
	p.mu.Unlock()

	go p.run(gen, req, window, bufferID, cursor, debounce)
}

// run is the body of one refresh task.
func (p *StreamingProvider) run(gen uint64, req *llm.ChatRequest, window TextWindow, bufferID document.BufferID, cursor document.Anchor, debounce bool) {
	ctx := context.Background()

	if debounce {
		time.Sleep(p.debounce)
		if p.superseded(gen) {
			return
		}
	}

	stream, err := p.client.ChatStream(ctx, req)
	if err != nil {
		p.hooks.SafeLog(ctx, "warn", "completion request failed", map[string]any{"model": req.Model, "error": err.Error()})
		p.release(gen)
		return
	}
	defer stream.Close()

	var accumulated strings.Builder
	for {
		delta, err := stream.Recv(ctx)
		if err != nil {
			if errors.Is(err, llm.ErrStreamClosed) {
				break
			}
			p.hooks.SafeLog(ctx, "warn", "completion stream failed", map[string]any{"model": req.Model, "error": err.Error()})
			p.release(gen)
			return
		}
		if delta.Done() {
			break
		}
		if delta.Type == llm.DeltaTypeText && (delta.Role == "" || delta.Role == llm.RoleAssistant) {
			accumulated.WriteString(delta.Text)
		}
		if p.superseded(gen) {
			return
		}
	}

	cleaned := Clean(accumulated.String(), window.Prefix, window.Suffix, SupportsFIM(p.cfg.Model))
	p.commit(gen, bufferID, cursor, cleaned)
}

// commit installs the result of a refresh task, unless a newer refresh
// has superseded it. Empty cleaned text is not a suggestion.
func (p *StreamingProvider) commit(gen uint64, bufferID document.BufferID, cursor document.Anchor, cleaned string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation != gen {
		// A later refresh owns the state now; drop this result.
		return
	}
	if p.pending == gen {
		p.pending = 0
	}
	if strings.TrimSpace(cleaned) == "" {
		p.clearLocked()
		return
	}
	p.prediction = &Prediction{Start: cursor, End: cursor, Text: cleaned}
	p.bufferKey = bufferID
	p.cursorKey = cursor
	p.hasKey = true
}

// release clears the in-flight slot after a failed task. State stays
// clear: the next keystroke naturally triggers a new attempt.
func (p *StreamingProvider) release(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pending == gen {
		p.pending = 0
	}
}

func (p *StreamingProvider) superseded(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation != gen
}

func (p *StreamingProvider) clearLocked() {
	p.prediction = nil
	p.bufferKey = 0
	p.cursorKey = document.Anchor{}
	p.hasKey = false
}

// Cycle is a no-op: this provider holds a single candidate at a time.
func (p *StreamingProvider) Cycle(document.Buffer, document.Anchor, Direction) {}

// Accept clears the stored prediction. Materializing the edit into the
// document is the host's responsibility.
func (p *StreamingProvider) Accept() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// Discard clears the stored prediction.
func (p *StreamingProvider) Discard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clearLocked()
}

// Suggest returns the stored prediction iff both the buffer identity and
// the cursor anchor match the keys it was computed for. Any cursor move
// or buffer switch makes a stored prediction unservable without timers.
func (p *StreamingProvider) Suggest(buf document.Buffer, cursor document.Anchor) (Prediction, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prediction == nil || !p.hasKey {
		return Prediction{}, false
	}
	if p.bufferKey != buf.ID() || p.cursorKey != cursor {
		return Prediction{}, false
	}
	return *p.prediction, true
}
