package llm

import (
	"context"
	"errors"
)

// RoutePolicy decides which backend serves a given request. The model
// identity in the request selects both the endpoint and the credentials.
type RoutePolicy interface {
	// Select returns the target client and optional model override.
	Select(req *ChatRequest) (Client, string, error)
}

// StaticPolicy routes by req.Model if present, otherwise uses Default.
type StaticPolicy struct {
	Default Client
	ByModel map[string]Client
}

// Select picks a client based on explicit model or defaults.
func (p StaticPolicy) Select(req *ChatRequest) (Client, string, error) {
	if req != nil && req.Model != "" {
		if c, ok := p.ByModel[req.Model]; ok && c != nil {
			return c, req.Model, nil
		}
		if p.Default != nil {
			return p.Default, req.Model, nil
		}
		return nil, "", errors.New("no default client configured")
	}
	if p.Default == nil {
		return nil, "", errors.New("no default client configured")
	}
	return p.Default, "", nil
}

// RouterClient implements Client and delegates via RoutePolicy.
type RouterClient struct {
	policy RoutePolicy
}

// NewRouterClient creates a router client with the given policy.
func NewRouterClient(policy RoutePolicy) *RouterClient {
	return &RouterClient{policy: policy}
}

// Chat delegates to the selected client.
func (r *RouterClient) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	c, req, err := r.route(req)
	if err != nil {
		return nil, err
	}
	return c.Chat(ctx, req)
}

// ChatStream delegates to the selected client.
func (r *RouterClient) ChatStream(ctx context.Context, req *ChatRequest) (Stream, error) {
	c, req, err := r.route(req)
	if err != nil {
		return nil, err
	}
	return c.ChatStream(ctx, req)
}

func (r *RouterClient) route(req *ChatRequest) (Client, *ChatRequest, error) {
	c, modelOverride, err := r.policy.Select(req)
	if err != nil {
		return nil, nil, err
	}
	if modelOverride != "" && req.Model != modelOverride {
		// Shallow clone to avoid mutating caller's struct.
		clone := *req
		clone.Model = modelOverride
		req = &clone
	}
	return c, req, nil
}

// Model returns an identifier for this client.
func (r *RouterClient) Model() string { return "router" }
