package domain

import "fmt"

// NodeType is the discriminant of the node configuration union.
type NodeType string

const (
	// NodeTypeStart marks a manual entry point.
	NodeTypeStart NodeType = "start"
	// NodeTypeTrigger marks an entry point fired by a webhook or a schedule.
	NodeTypeTrigger NodeType = "trigger"
	// NodeTypeHTTP performs an HTTP request.
	NodeTypeHTTP NodeType = "http"
	// NodeTypeLLM calls a language model.
	NodeTypeLLM NodeType = "llm"
	// NodeTypeTransform reshapes the current payload with an expression.
	NodeTypeTransform NodeType = "transform"
	// NodeTypeConditional branches on an expression.
	NodeTypeConditional NodeType = "conditional"
	// NodeTypeParallel fans out to all its targets.
	NodeTypeParallel NodeType = "parallel"
	// NodeTypeWait delays execution.
	NodeTypeWait NodeType = "wait"
	// NodeTypeSubflow runs another flow.
	NodeTypeSubflow NodeType = "subflow"
)

// NodeTypes lists every known node type, in palette order.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeTrigger,
	NodeTypeHTTP,
	NodeTypeLLM,
	NodeTypeTransform,
	NodeTypeConditional,
	NodeTypeParallel,
	NodeTypeWait,
	NodeTypeSubflow,
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsEntry reports whether nodes of this type may start a run.
func (t NodeType) IsEntry() bool {
	return t == NodeTypeStart || t == NodeTypeTrigger
}

// ParseNodeType converts a raw string into a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	t := NodeType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown node type %q", s)
	}
	return t, nil
}

// Position is the canvas coordinate of a node.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeData holds the user-editable part of a node.
type NodeData struct {
	Label string `json:"label" yaml:"label"`

	// Config is the raw configuration. Only the fields of the type's schema are read
	// (see Node.TypedConfig); unknown keys are kept so that they round-trip untouched.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Node represents a typed step of a flow.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     NodeType `json:"type" yaml:"type"`
	Position Position `json:"position" yaml:"position"`
	Data     NodeData `json:"data" yaml:"data"`
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Data.Config = CloneMap(n.Data.Config)
	return out
}

// TypedConfig decodes the raw configuration into the variant selected by the node type.
func (n Node) TypedConfig() (NodeConfig, error) {
	return DecodeConfig(n.Type, n.Data.Config)
}

// CloneMap deep-copies a JSON-like map (nested maps and slices are copied, scalars shared).
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out
	case []string:
		return append([]string(nil), val...)
	default:
		return v
	}
}
