package api

import (
	"context"
	"net/http"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// SaveFlow persists the flow of the assistant.
func (c *Client) SaveFlow(ctx context.Context, req domain.SaveFlowRequest) error {
	if req.Nodes == nil {
		req.Nodes = []domain.Node{}
	}
	if req.Edges == nil {
		req.Edges = []domain.Edge{}
	}
	return c.do(ctx, http.MethodPost, "/flow/save", nil, req, nil)
}

// GetFlowRaw returns the saved flow exactly as the backend sent it,
// so that malformed collections can be repaired by graph.Store.LoadJSON.
func (c *Client) GetFlowRaw(ctx context.Context) ([]byte, error) {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, "/flow/get", nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// GetFlow returns the saved flow of the assistant.
func (c *Client) GetFlow(ctx context.Context) (domain.SavedFlow, error) {
	var out domain.SavedFlow
	if err := c.do(ctx, http.MethodGet, "/flow/get", nil, nil, &out); err != nil {
		return domain.SavedFlow{}, err
	}
	return out, nil
}
