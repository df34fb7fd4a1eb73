package execution

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// Protocol message types.
const (
	TypeStart        = "start"
	TypeInfo         = "info"
	TypeNodeStart    = "node_start"
	TypeNodeComplete = "node_complete"
	TypeChunk        = "chunk"
	TypeError        = "error"
	TypeNodeError    = "node_error"
	TypeComplete     = "complete"
)

// StartRequest is the only message a client sends.
type StartRequest struct {
	Type        string         `json:"type"`
	Input       map[string]any `json:"input"`
	AssistantID string         `json:"assistant_id"`
	EntryNodeID string         `json:"entry_node_id,omitempty"`
}

// Message is one inbound protocol message.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Content string `json:"content,omitempty"`
	NodeID  string `json:"node_id,omitempty"`
	Success *bool  `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Outcome of a classified message.
type Outcome int

const (
	// Ongoing messages only produce a console line.
	Ongoing Outcome = iota
	// Succeeded ends the run as Completed.
	Succeeded
	// Aborted ends the run as Failed.
	Aborted
)

// Classify maps a message to a console line kind, its text and its effect on the run.
//
//	info, node_start, node_complete -> info
//	chunk                           -> chunk
//	node_error                      -> error (the run goes on)
//	error                           -> error, run fails
//	complete                        -> info, run completes (fails when success is false)
//
// Unknown types are logged as info.
func Classify(m Message) (domain.ConsoleKind, string, Outcome) {
	switch m.Type {
	case TypeChunk:
		return domain.ConsoleChunk, firstNonEmpty(m.Content, m.Message), Ongoing
	case TypeNodeStart:
		return domain.ConsoleInfo, withNode(m.NodeID, firstNonEmpty(m.Message, "started")), Ongoing
	case TypeNodeComplete:
		return domain.ConsoleInfo, withNode(m.NodeID, firstNonEmpty(m.Message, "completed")), Ongoing
	case TypeNodeError:
		return domain.ConsoleError, withNode(m.NodeID, firstNonEmpty(m.Message, m.Error, "failed")), Ongoing
	case TypeError:
		return domain.ConsoleError, withNode(m.NodeID, firstNonEmpty(m.Message, m.Error, "execution failed")), Aborted
	case TypeComplete:
		if m.Success != nil && !*m.Success {
			return domain.ConsoleError, firstNonEmpty(m.Message, m.Error, "execution failed"), Aborted
		}
		return domain.ConsoleInfo, firstNonEmpty(m.Message, "execution completed"), Succeeded
	case TypeInfo:
		return domain.ConsoleInfo, withNode(m.NodeID, firstNonEmpty(m.Message, m.Content)), Ongoing
	default:
		return domain.ConsoleInfo, withNode(m.NodeID, firstNonEmpty(m.Message, m.Content, m.Type)), Ongoing
	}
}

// Decode parses one raw frame.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("malformed message: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("malformed message: missing type")
	}
	return m, nil
}

func withNode(nodeID, text string) string {
	if nodeID == "" {
		return text
	}
	return fmt.Sprintf("[%s] %s", nodeID, text)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
