package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed for the client to send its start request.
	startWait = 30 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024
)

// Execute handles GET /ws/execute: one connection carries one dry run.
//
// The client sends a single start request; the server walks the assistant's
// saved flow and streams protocol messages, then closes normally. Closing
// the connection from the client cancels the walk.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(startWait))

	send := func(m execution.Message) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(m)
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug("execute: no start request", "err", err)
		return
	}
	var req execution.StartRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Type != execution.TypeStart {
		_ = send(execution.Message{Type: execution.TypeError, Message: "expected a start request"})
		s.closeNormally(conn)
		return
	}
	if req.AssistantID == "" {
		req.AssistantID = r.URL.Query().Get("assistant_id")
	}
	if req.AssistantID == "" {
		_ = send(execution.Message{Type: execution.TypeError, Message: "assistant_id is required"})
		s.closeNormally(conn)
		return
	}

	flow, err := s.loadFlow(r.Context(), req.AssistantID)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, domain.ErrNotFound) {
			msg = fmt.Sprintf("assistant %s has no saved flow", req.AssistantID)
		}
		_ = send(execution.Message{Type: execution.TypeError, Message: msg})
		s.closeNormally(conn)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Any inbound frame after the start request is ignored; a read error means the client left.
	_ = conn.SetReadDeadline(time.Time{})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	s.logger.Info("dry run started", "assistant_id", req.AssistantID, "entry_node_id", req.EntryNodeID)
	if err := s.simulator.Run(ctx, flow, req, send); err != nil {
		s.logger.Info("dry run aborted", "assistant_id", req.AssistantID, "err", err)
		return
	}
	s.closeNormally(conn)
}

func (s *Server) closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
		s.logger.Debug("close frame not sent", "err", err)
	}
}
