package domain

import "time"

// Webhook describes the inbound URL that starts the flow.
type Webhook struct {
	URL     string `json:"url"`
	Path    string `json:"path,omitempty"`
	Enabled bool   `json:"enabled"`
}

// ScheduleRequest registers a cron schedule for the flow.
type ScheduleRequest struct {
	Cron   string         `json:"cron"`
	NodeID string         `json:"node_id,omitempty"`
	Input  map[string]any `json:"input,omitempty"`
}

// Schedule is a registered cron schedule.
type Schedule struct {
	ID        string    `json:"id"`
	Cron      string    `json:"cron"`
	NodeID    string    `json:"node_id,omitempty"`
	NextRunAt time.Time `json:"next_run_at,omitzero"`
}

// TriggerLog is one recorded trigger invocation.
type TriggerLog struct {
	ID          string    `json:"id"`
	TriggerType string    `json:"trigger_type"`
	Status      string    `json:"status"`
	Message     string    `json:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
