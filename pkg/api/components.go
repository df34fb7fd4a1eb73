package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// ComponentFilter narrows a component listing.
type ComponentFilter struct {
	Limit    int
	NodeType domain.NodeType
}

// ListComponents returns library components visible to the assistant.
func (c *Client) ListComponents(ctx context.Context, filter ComponentFilter) ([]domain.Component, error) {
	query := url.Values{}
	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.NodeType != "" {
		query.Set("node_type", string(filter.NodeType))
	}

	var out []domain.Component
	if err := c.getList(ctx, "/templates/component/list", query, "components", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComponent stores a component. Callers publish through components.Library,
// which sanitizes the configuration first.
func (c *Client) CreateComponent(ctx context.Context, comp domain.Component) (domain.Component, error) {
	var out domain.Component
	if err := c.do(ctx, http.MethodPost, "/templates/component/create", nil, comp, &out); err != nil {
		return domain.Component{}, err
	}
	return out, nil
}

// DeleteComponent removes a component.
func (c *Client) DeleteComponent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/templates/component/"+url.PathEscape(id), nil, nil, nil)
}
