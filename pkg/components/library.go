// Package components manages the shared library of reusable node configurations.
package components

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/api"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/sanitize"
)

// Backend is the component REST surface.
type Backend interface {
	ListComponents(ctx context.Context, filter api.ComponentFilter) ([]domain.Component, error)
	CreateComponent(ctx context.Context, comp domain.Component) (domain.Component, error)
	DeleteComponent(ctx context.Context, id string) error
}

// Library publishes and lists components.
type Library struct {
	backend   Backend
	sanitizer *sanitize.Sanitizer
	logger    *slog.Logger
}

// Option configures a Library.
type Option func(*Library)

// WithSanitizer shares a sanitizer (and its registered secrets) with the library.
func WithSanitizer(s *sanitize.Sanitizer) Option {
	return func(l *Library) {
		l.sanitizer = s
	}
}

// WithLogger sets the library logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Library) {
		l.logger = logger
	}
}

// NewLibrary creates a Library over backend.
func NewLibrary(backend Backend, opts ...Option) *Library {
	l := &Library{
		backend:   backend,
		sanitizer: sanitize.New(),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Published is the outcome of Publish.
type Published struct {
	Component domain.Component
	Sanitized bool
	Warning   domain.SanitizationWarning
}

// Publish stores node as a component. The configuration always passes through
// the sanitizer first, so public components never carry credential references.
func (l *Library) Publish(ctx context.Context, node domain.Node, name, description string, tags []string, public bool) (Published, error) {
	if strings.TrimSpace(name) == "" {
		name = node.Data.Label
	}
	if strings.TrimSpace(name) == "" {
		return Published{}, domain.NewValidationError("name", "name is required")
	}
	if !node.Type.Valid() {
		return Published{}, &domain.ValidationError{Field: "node_type", Reason: "unknown node type", Value: string(node.Type)}
	}

	res := l.sanitizer.Sanitize(sanitize.Input{
		NodeType:    node.Type,
		Name:        name,
		Description: description,
		Config:      node.Data.Config,
		Tags:        tags,
		IsPublic:    public,
	})

	created, err := l.backend.CreateComponent(ctx, res.Component)
	if err != nil {
		return Published{}, fmt.Errorf("publish component %q: %w", name, err)
	}
	if len(res.Warning.RemovedPaths) > 0 {
		l.logger.Info("component published without credential fields", "component_id", created.ComponentID, "removed", res.Warning.RemovedPaths)
	}
	return Published{Component: created, Sanitized: res.Sanitized, Warning: res.Warning}, nil
}

// List returns library components, optionally filtered by node type.
func (l *Library) List(ctx context.Context, nodeType domain.NodeType, limit int) ([]domain.Component, error) {
	return l.backend.ListComponents(ctx, api.ComponentFilter{Limit: limit, NodeType: nodeType})
}

// Delete removes a component.
func (l *Library) Delete(ctx context.Context, id string) error {
	return l.backend.DeleteComponent(ctx, id)
}

// Instantiate turns a component into a new node at pos.
func Instantiate(comp domain.Component, id string, pos domain.Position) domain.Node {
	return domain.Node{
		ID:       id,
		Type:     comp.NodeType,
		Position: pos,
		Data: domain.NodeData{
			Label:  comp.Name,
			Config: domain.CloneMap(comp.Config),
		},
	}
}
