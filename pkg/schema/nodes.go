package schema

import (
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
)

var nodeSchemas = map[domain.NodeType]Schema{
	domain.NodeTypeStart: {
		"input_schema": Optional(Map()),
	},
	domain.NodeTypeTrigger: {
		"trigger_type": Enum("webhook", "schedule"),
		"cron":         Optional(String()),
		"webhook_path": Optional(String()),
	},
	domain.NodeTypeHTTP: {
		"url":           String(),
		"method":        Optional(Enum("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD")),
		"headers":       Optional(Map()),
		"timeout":       Optional(Int()),
		"credential_id": Optional(String()),
	},
	domain.NodeTypeLLM: {
		"model":         String(),
		"prompt":        String(),
		"provider":      Optional(String()),
		"system_prompt": Optional(String()),
		"temperature":   Optional(Float()),
		"max_tokens":    Optional(Int()),
		"stream":        Optional(Bool()),
		"credential_id": Optional(String()),
		"connector_id":  Optional(String()),
	},
	domain.NodeTypeTransform: {
		"expression": String(),
	},
	domain.NodeTypeConditional: {
		"condition": String(),
	},
	domain.NodeTypeParallel: {
		"wait_all": Optional(Bool()),
	},
	domain.NodeTypeWait: {
		"seconds": Float(),
	},
	domain.NodeTypeSubflow: {
		"flow_id": String(),
		"input":   Optional(Map()),
	},
}

// ForNodeType returns the configuration schema of a node type.
func ForNodeType(t domain.NodeType) (Schema, bool) {
	s, ok := nodeSchemas[t]
	return s, ok
}

// ValidateNode checks the node's configuration against the schema of its type.
func ValidateNode(n domain.Node) error {
	s, ok := ForNodeType(n.Type)
	if !ok {
		return &domain.ValidationError{Field: "type", Reason: fmt.Sprintf("unknown node type %q", n.Type), Value: string(n.Type)}
	}
	if err := Validate(s, n.Data.Config); err != nil {
		return fmt.Errorf("node %s: %w", n.ID, err)
	}
	return nil
}

// Describe returns the schema as a key -> type name map, e.g. {"url": "string", "timeout": "int?"}.
func Describe(s Schema) map[string]string {
	out := make(map[string]string, len(s))
	for k, t := range s {
		out[k] = t.Name()
	}
	return out
}
