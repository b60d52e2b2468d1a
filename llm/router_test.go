package llm

import (
	"context"
	"testing"
)

type recordingClient struct {
	name string
	reqs []*ChatRequest
}

func (c *recordingClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	c.reqs = append(c.reqs, req)
	return &Response{Provider: c.name}, nil
}

func (c *recordingClient) ChatStream(ctx context.Context, req *ChatRequest) (Stream, error) {
	c.reqs = append(c.reqs, req)
	return nil, ErrStreamClosed
}

func (c *recordingClient) Model() string { return c.name }

func TestStaticPolicyRoutesByModel(t *testing.T) {
	def := &recordingClient{name: "default"}
	special := &recordingClient{name: "special"}
	router := NewRouterClient(StaticPolicy{
		Default: def,
		ByModel: map[string]Client{"gpt-4o-mini": special},
	})

	resp, err := router.Chat(context.Background(), &ChatRequest{Model: "gpt-4o-mini"})
	if err != nil || resp.Provider != "special" {
		t.Fatalf("expected the mapped client, got %+v, %v", resp, err)
	}
	resp, err = router.Chat(context.Background(), &ChatRequest{Model: "llama3"})
	if err != nil || resp.Provider != "default" {
		t.Fatalf("unmapped model must fall back to default, got %+v, %v", resp, err)
	}
	resp, err = router.Chat(context.Background(), &ChatRequest{})
	if err != nil || resp.Provider != "default" {
		t.Fatalf("empty model must use default, got %+v, %v", resp, err)
	}
}

func TestStaticPolicyNoDefault(t *testing.T) {
	router := NewRouterClient(StaticPolicy{})
	if _, err := router.Chat(context.Background(), &ChatRequest{Model: "x"}); err == nil {
		t.Error("routing without a default must fail")
	}
	if _, err := router.ChatStream(context.Background(), &ChatRequest{}); err == nil {
		t.Error("routing without a default must fail")
	}
}

type overridePolicy struct {
	target Client
	model  string
}

func (p overridePolicy) Select(*ChatRequest) (Client, string, error) {
	return p.target, p.model, nil
}

func TestRouterDoesNotMutateCallerRequest(t *testing.T) {
	def := &recordingClient{name: "default"}
	router := NewRouterClient(overridePolicy{target: def, model: "forced"})

	req := &ChatRequest{Model: "original", Messages: []Message{{Role: RoleUser, Content: "hi"}}}
	if _, err := router.Chat(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if req.Model != "original" {
		t.Errorf("caller request mutated: model = %q", req.Model)
	}
	if len(def.reqs) != 1 || def.reqs[0].Model != "forced" {
		t.Errorf("delegate saw %+v, want model override", def.reqs)
	}
}
