package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// GetWebhook handles GET /triggers/webhook.
// The webhook is enabled when the saved flow has a webhook trigger node.
func (s *Server) GetWebhook(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}

	hook := domain.Webhook{URL: s.publicURL + "/triggers/webhook/" + url.PathEscape(assistantID)}
	flow, err := s.loadFlow(r.Context(), assistantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		s.fail(w, r, err)
		return
	}
	if node, found := webhookNode(flow); found {
		hook.Enabled = true
		if cfg, err := node.TypedConfig(); err == nil {
			hook.Path = cfg.(domain.TriggerConfig).WebhookPath
		}
	}
	writeJSON(w, http.StatusOK, hook)
}

// TestWebhook handles POST /triggers/webhook/test: the payload is recorded, not executed.
func (s *Server) TestWebhook(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	payload := map[string]any{}
	if r.ContentLength != 0 && !s.decode(w, r, &payload) {
		return
	}

	entry := domain.TriggerLog{
		ID:          uuid.NewString(),
		TriggerType: "webhook",
		Status:      "success",
		Message:     fmt.Sprintf("test payload with %d key(s)", len(payload)),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.observe("append_log", s.repo.AppendLog(r.Context(), assistantID, entry)); err != nil {
		s.fail(w, r, err)
		return
	}
	s.Streams.Publish(assistantID, Event{Type: "trigger", Message: entry.Message})
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"log_id":  entry.ID,
		"message": entry.Message,
	})
}

// CreateSchedule handles POST /triggers/schedule.
func (s *Server) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	var req domain.ScheduleRequest
	if !s.decode(w, r, &req) {
		return
	}
	if err := validateCron(req.Cron); err != nil {
		s.fail(w, r, err)
		return
	}

	var created domain.Schedule
	err := s.withLock(r.Context(), assistantID, func(ctx context.Context) error {
		var err error
		created, err = s.repo.CreateSchedule(ctx, assistantID, domain.Schedule{
			Cron:   strings.Join(strings.Fields(req.Cron), " "),
			NodeID: req.NodeID,
		})
		if err := s.observe("create_schedule", err); err != nil {
			return err
		}
		return s.observe("append_log", s.repo.AppendLog(ctx, assistantID, domain.TriggerLog{
			TriggerType: "schedule",
			Status:      "registered",
			Message:     created.Cron,
		}))
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteSchedule handles DELETE /triggers/schedule/{id}.
func (s *Server) DeleteSchedule(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.repo.DeleteSchedule(r.Context(), assistantID, id)
	if err := s.observe("delete_schedule", err); err != nil {
		s.fail(w, r, fmt.Errorf("schedule %s: %w", id, err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// TriggerLogs handles GET /triggers/logs.
func (s *Server) TriggerLogs(w http.ResponseWriter, r *http.Request) {
	assistantID, ok := s.assistant(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, &domain.ValidationError{Field: "limit", Reason: "limit must be a non-negative integer", Value: raw})
			return
		}
		limit = n
	}

	logs, err := s.repo.Logs(r.Context(), assistantID, limit)
	if err := s.observe("list_logs", err); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// validateCron checks the shape of a five-field cron expression.
func validateCron(expr string) error {
	fields := strings.Fields(expr)
	if len(fields) == 0 {
		return domain.NewValidationError("cron", "cron expression is required")
	}
	if len(fields) != 5 {
		return &domain.ValidationError{Field: "cron", Reason: fmt.Sprintf("expected 5 fields, got %d", len(fields)), Value: expr}
	}
	for _, f := range fields {
		if strings.Trim(f, "0123456789*/,-") != "" {
			return &domain.ValidationError{Field: "cron", Reason: fmt.Sprintf("invalid field %q", f), Value: expr}
		}
	}
	return nil
}

func webhookNode(flow domain.Flow) (domain.Node, bool) {
	for _, n := range flow.Nodes {
		if n.Type != domain.NodeTypeTrigger {
			continue
		}
		cfg, err := n.TypedConfig()
		if err != nil {
			continue
		}
		if cfg.(domain.TriggerConfig).TriggerType == "webhook" {
			return n, true
		}
	}
	return domain.Node{}, false
}
