package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// GetWebhook returns the webhook trigger of the assistant.
func (c *Client) GetWebhook(ctx context.Context) (domain.Webhook, error) {
	var out domain.Webhook
	if err := c.do(ctx, http.MethodGet, "/triggers/webhook", nil, nil, &out); err != nil {
		return domain.Webhook{}, err
	}
	return out, nil
}

// TestWebhook fires the webhook with payload and returns the backend's answer.
func (c *Client) TestWebhook(ctx context.Context, payload map[string]any) (map[string]any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	var out map[string]any
	if err := c.do(ctx, http.MethodPost, "/triggers/webhook/test", nil, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateSchedule registers a cron schedule.
func (c *Client) CreateSchedule(ctx context.Context, req domain.ScheduleRequest) (domain.Schedule, error) {
	if req.Cron == "" {
		return domain.Schedule{}, domain.NewValidationError("cron", "cron expression is required")
	}
	var out domain.Schedule
	if err := c.do(ctx, http.MethodPost, "/triggers/schedule", nil, req, &out); err != nil {
		return domain.Schedule{}, err
	}
	return out, nil
}

// DeleteSchedule removes a cron schedule.
func (c *Client) DeleteSchedule(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/triggers/schedule/"+url.PathEscape(id), nil, nil, nil)
}

// TriggerLogs returns the most recent trigger invocations.
func (c *Client) TriggerLogs(ctx context.Context, limit int) ([]domain.TriggerLog, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var out []domain.TriggerLog
	if err := c.getList(ctx, "/triggers/logs", query, "logs", &out); err != nil {
		return nil, err
	}
	return out, nil
}
