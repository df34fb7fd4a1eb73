package api

import (
	"context"
	"net/http"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// Chat asks the backend to generate or amend a flow.
func (c *Client) Chat(ctx context.Context, req domain.ChatRequest) (domain.ChatResponse, error) {
	if req.Message == "" {
		return domain.ChatResponse{}, domain.NewValidationError("message", "message is required")
	}
	var out domain.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chatbot/chat", nil, req, &out); err != nil {
		return domain.ChatResponse{}, err
	}
	return out, nil
}

// ClearChatSession forgets the conversation of sessionID.
func (c *Client) ClearChatSession(ctx context.Context, sessionID string) error {
	body := map[string]string{"session_id": sessionID}
	return c.do(ctx, http.MethodPost, "/chatbot/clear-session", nil, body, nil)
}
