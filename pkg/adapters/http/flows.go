package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// SaveFlow handles POST /flow/save.
func (s *Server) SaveFlow(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	var req domain.SaveFlowRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Nodes == nil {
		req.Nodes = []domain.Node{}
	}
	if req.Edges == nil {
		req.Edges = []domain.Edge{}
	}

	saved := domain.SavedFlow{
		Name:     req.Name,
		FlowData: domain.Document{Nodes: req.Nodes, Edges: req.Edges, EntryNodeID: req.EntryNodeID},
	}
	err := s.withLock(r.Context(), assistantID, func(ctx context.Context) error {
		return s.observe("save_flow", s.repo.SaveFlow(ctx, assistantID, saved))
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info("flow saved", "assistant_id", assistantID, "name", req.Name, "nodes", len(req.Nodes), "edges", len(req.Edges))
	s.Streams.Publish(assistantID, Event{Type: "flow_saved", Message: req.Name})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "name": req.Name})
}

// GetFlow handles GET /flow/get.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	saved, err := s.repo.GetFlow(r.Context(), assistantID)
	if err := s.observe("get_flow", err); err != nil {
		s.fail(w, r, fmt.Errorf("flow of %s: %w", assistantID, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// withLock runs fn while holding the assistant's write lock.
func (s *Server) withLock(ctx context.Context, assistantID string, fn func(context.Context) error) error {
	return s.locks.WithLock(ctx, "assistant:"+assistantID, fn)
}
