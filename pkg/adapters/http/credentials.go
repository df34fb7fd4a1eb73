package http

import (
	"fmt"
	"net/http"

	"github.com/aretw0/flowstudio/pkg/credentials"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// redacted returns the view of cred that leaves the server: live data replaced by data_redacted.
func redacted(cred domain.Credential) domain.Credential {
	cred.DataRedacted = credentials.Redact(cred.Data)
	cred.Data = nil
	return cred
}

// ListCredentials handles GET /credentials.
func (s *Server) ListCredentials(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	list, err := s.repo.ListCredentials(r.Context(), assistantID)
	if err := s.observe("list_credentials", err); err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]domain.Credential, 0, len(list))
	for _, c := range list {
		out = append(out, redacted(c))
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateCredential handles POST /credentials.
func (s *Server) CreateCredential(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	var req domain.CreateCredentialRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := credentials.Validate(req); err != nil {
		s.fail(w, r, err)
		return
	}

	created, err := s.repo.CreateCredential(r.Context(), assistantID, domain.Credential{
		Name: req.Name,
		Type: req.Type,
		Data: req.Data,
	})
	if err := s.observe("create_credential", err); err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("credential created", "assistant_id", assistantID, "id", created.ID, "type", created.Type)
	writeJSON(w, http.StatusCreated, redacted(created))
}

// DeleteCredential handles DELETE /credentials/{id}.
func (s *Server) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.repo.DeleteCredential(r.Context(), id)
	if err := s.observe("delete_credential", err); err != nil {
		s.fail(w, r, fmt.Errorf("credential %s: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
