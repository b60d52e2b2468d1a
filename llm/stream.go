package llm

import (
	"context"
	"errors"
)

// DeltaType identifies the kind of streaming event emitted by a backend.
type DeltaType string

const (
	DeltaTypeText DeltaType = "text"
	DeltaTypeDone DeltaType = "done"
)

// Delta is a backend-neutral streaming event: one assistant content
// fragment, or the terminal done marker. Deltas arrive in order; the
// consumer concatenates text fragments and stops at the first done.
type Delta struct {
	Type DeltaType `json:"type"`
	// Role of the message the fragment belongs to, normally RoleAssistant.
	Role string `json:"role,omitempty"`
	Text string `json:"text,omitempty"`
	// Provider/model are optional hints for observability.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
}

// Done reports whether this delta terminates the stream.
func (d Delta) Done() bool { return d.Type == DeltaTypeDone }

// Stream provides a pull-based API over backend event streams.
// Implementations return (Delta{Type: DeltaTypeDone}, nil) when the
// response is complete, and a non-nil error only for transport or
// payload failures distinguishable from normal stream end.
type Stream interface {
	Recv(ctx context.Context) (Delta, error)
	Close() error
}

// ErrStreamClosed indicates Recv was called after Close or terminal event.
var ErrStreamClosed = errors.New("stream closed")
