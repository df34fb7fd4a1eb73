package http

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// chatSessions counts the turns of each conversation.
type chatSessions struct {
	mu    sync.Mutex
	turns map[string]int
}

func newChatSessions() *chatSessions {
	return &chatSessions{turns: make(map[string]int)}
}

func (c *chatSessions) next(id string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns[id]++
	return c.turns[id]
}

func (c *chatSessions) clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.turns, id)
}

// Chat handles POST /chatbot/chat.
//
// The dev backend has no language model: it reviews the current flow and
// answers with a markdown summary plus suggestions, returning the flow unchanged.
func (s *Server) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.fail(w, r, domain.NewValidationError("message", "message is required"))
		return
	}
	turn := s.chats.next(req.SessionID)

	resp := domain.ChatResponse{
		Success:     true,
		Flow:        req.CurrentFlow,
		Warnings:    []string{},
		Suggestions: []string{},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Flow review (turn %d)\n\n", turn)
	fmt.Fprintf(&b, "> %s\n\n", req.Message)
	if req.CurrentFlow == nil || len(req.CurrentFlow.Nodes) == 0 {
		b.WriteString("The canvas is empty.\n")
		resp.Suggestions = append(resp.Suggestions, "Add a start node to begin the flow.")
		resp.Explanation = b.String()
		writeJSON(w, http.StatusOK, resp)
		return
	}

	doc := req.CurrentFlow
	flow := domain.Flow{Nodes: doc.Nodes, Edges: doc.Edges}
	fmt.Fprintf(&b, "- **%d** node(s), **%d** edge(s)\n", len(doc.Nodes), len(doc.Edges))
	if entry, err := flow.ResolveEntryNode(); err == nil {
		fmt.Fprintf(&b, "- runs start at `%s` (%s)\n", entry.ID, entry.Type)
		if !entry.Type.IsEntry() {
			resp.Suggestions = append(resp.Suggestions, "Add a start or trigger node so runs have an explicit entry point.")
		}
	}

	for _, e := range doc.Edges {
		if !flow.HasNode(e.Source) || !flow.HasNode(e.Target) {
			resp.Warnings = append(resp.Warnings, fmt.Sprintf("edge %s references a missing node", e.ID))
		}
	}
	for _, n := range doc.Nodes {
		if n.Type == domain.NodeTypeConditional && len(flow.Outgoing(n.ID)) < 2 {
			resp.Suggestions = append(resp.Suggestions, fmt.Sprintf("Connect both branches of conditional %s.", n.ID))
		}
	}
	resp.Explanation = b.String()
	writeJSON(w, http.StatusOK, resp)
}

// ClearChatSession handles POST /chatbot/clear-session.
func (s *Server) ClearChatSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.chats.clear(body.SessionID)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
