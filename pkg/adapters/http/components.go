package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// ListComponents handles GET /templates/component/list.
func (s *Server) ListComponents(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}

	var q ports.ComponentQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, &domain.ValidationError{Field: "limit", Reason: "limit must be a non-negative integer", Value: raw})
			return
		}
		q.Limit = n
	}
	if raw := r.URL.Query().Get("node_type"); raw != "" {
		t, err := domain.ParseNodeType(raw)
		if err != nil {
			s.fail(w, r, &domain.ValidationError{Field: "node_type", Reason: err.Error(), Value: raw})
			return
		}
		q.NodeType = t
	}

	list, err := s.repo.ListComponents(r.Context(), assistantID, q)
	if err := s.observe("list_components", err); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateComponent handles POST /templates/component/create.
// Public components are sanitized again: the server does not trust the client to have done it.
func (s *Server) CreateComponent(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	var comp domain.Component
	if !s.decode(w, r, &comp) {
		return
	}

	comp.Name = strings.TrimSpace(comp.Name)
	if comp.Name == "" {
		s.fail(w, r, domain.NewValidationError("name", "name is required"))
		return
	}
	if !comp.NodeType.Valid() {
		s.fail(w, r, &domain.ValidationError{Field: "node_type", Reason: fmt.Sprintf("unknown node type %q", comp.NodeType), Value: comp.NodeType})
		return
	}
	if comp.Config == nil {
		comp.Config = map[string]any{}
	}
	if comp.IsPublic {
		cleaned, removed := s.sanitizer.Config(comp.Config)
		if len(removed) > 0 {
			s.logger.Warn("public component arrived with credential fields",
				"assistant_id", assistantID, "name", comp.Name, "removed", removed)
		}
		comp.Config = cleaned
	}
	comp.Tags = domain.NormalizeTags(comp.Tags)
	comp.ComponentID = ""
	comp.UsageCount = 0
	comp.Rating = 0

	created, err := s.repo.CreateComponent(r.Context(), assistantID, comp)
	if err := s.observe("create_component", err); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteComponent handles DELETE /templates/component/{id}.
func (s *Server) DeleteComponent(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.repo.DeleteComponent(r.Context(), assistantID, id)
	if err := s.observe("delete_component", err); err != nil {
		s.fail(w, r, fmt.Errorf("component %s: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
