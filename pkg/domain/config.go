package domain

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// NodeConfig is the strongly-typed configuration of a node.
// Exactly one variant exists per NodeType.
type NodeConfig interface {
	NodeType() NodeType
}

// StartConfig configures a manual entry point.
type StartConfig struct {
	InputSchema map[string]any `mapstructure:"input_schema,omitempty"`
}

// TriggerConfig configures an automatic entry point.
type TriggerConfig struct {
	TriggerType string `mapstructure:"trigger_type,omitempty"` // "webhook" or "schedule"
	Cron        string `mapstructure:"cron,omitempty"`
	WebhookPath string `mapstructure:"webhook_path,omitempty"`
}

// HTTPConfig configures an HTTP request step.
type HTTPConfig struct {
	Method         string            `mapstructure:"method,omitempty"`
	URL            string            `mapstructure:"url,omitempty"`
	Headers        map[string]string `mapstructure:"headers,omitempty"`
	Body           any               `mapstructure:"body,omitempty"`
	CredentialID   string            `mapstructure:"credential_id,omitempty"`
	TimeoutSeconds int               `mapstructure:"timeout,omitempty"`
}

// LLMConfig configures a language model call.
type LLMConfig struct {
	Provider     string  `mapstructure:"provider,omitempty"`
	Model        string  `mapstructure:"model,omitempty"`
	Prompt       string  `mapstructure:"prompt,omitempty"`
	SystemPrompt string  `mapstructure:"system_prompt,omitempty"`
	Temperature  float64 `mapstructure:"temperature,omitempty"`
	MaxTokens    int     `mapstructure:"max_tokens,omitempty"`
	Stream       bool    `mapstructure:"stream,omitempty"`
	CredentialID string  `mapstructure:"credential_id,omitempty"`
	ConnectorID  string  `mapstructure:"connector_id,omitempty"`
}

// TransformConfig reshapes the payload with an expression.
type TransformConfig struct {
	Expression string `mapstructure:"expression,omitempty"`
}

// ConditionalConfig branches on an expression evaluated against the payload.
// Outgoing edges are selected by their SourceHandle ("true" or "false").
type ConditionalConfig struct {
	Condition string `mapstructure:"condition,omitempty"`
}

// ParallelConfig fans out to every outgoing edge.
type ParallelConfig struct {
	WaitAll bool `mapstructure:"wait_all,omitempty"`
}

// WaitConfig delays execution.
type WaitConfig struct {
	Seconds float64 `mapstructure:"seconds,omitempty"`
}

// Duration returns the configured delay.
func (c WaitConfig) Duration() time.Duration {
	return time.Duration(c.Seconds * float64(time.Second))
}

// SubflowConfig runs another flow.
type SubflowConfig struct {
	FlowID string         `mapstructure:"flow_id,omitempty"`
	Input  map[string]any `mapstructure:"input,omitempty"`
}

func (StartConfig) NodeType() NodeType       { return NodeTypeStart }
func (TriggerConfig) NodeType() NodeType     { return NodeTypeTrigger }
func (HTTPConfig) NodeType() NodeType        { return NodeTypeHTTP }
func (LLMConfig) NodeType() NodeType         { return NodeTypeLLM }
func (TransformConfig) NodeType() NodeType   { return NodeTypeTransform }
func (ConditionalConfig) NodeType() NodeType { return NodeTypeConditional }
func (ParallelConfig) NodeType() NodeType    { return NodeTypeParallel }
func (WaitConfig) NodeType() NodeType        { return NodeTypeWait }
func (SubflowConfig) NodeType() NodeType     { return NodeTypeSubflow }

// newConfig returns a pointer to the zero variant for t.
func newConfig(t NodeType) (any, error) {
	switch t {
	case NodeTypeStart:
		return &StartConfig{}, nil
	case NodeTypeTrigger:
		return &TriggerConfig{}, nil
	case NodeTypeHTTP:
		return &HTTPConfig{}, nil
	case NodeTypeLLM:
		return &LLMConfig{}, nil
	case NodeTypeTransform:
		return &TransformConfig{}, nil
	case NodeTypeConditional:
		return &ConditionalConfig{}, nil
	case NodeTypeParallel:
		return &ParallelConfig{}, nil
	case NodeTypeWait:
		return &WaitConfig{}, nil
	case NodeTypeSubflow:
		return &SubflowConfig{}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", t)
	}
}

// DecodeConfig decodes a raw configuration map into the variant for t.
// Unknown keys are ignored; scalar types are coerced where lossless (e.g. "30" -> 30).
func DecodeConfig(t NodeType, raw map[string]any) (NodeConfig, error) {
	target, err := newConfig(t)
	if err != nil {
		return nil, err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}

	// Return the variant by value so type switches match on the plain struct.
	switch c := target.(type) {
	case *StartConfig:
		return *c, nil
	case *TriggerConfig:
		return *c, nil
	case *HTTPConfig:
		return *c, nil
	case *LLMConfig:
		return *c, nil
	case *TransformConfig:
		return *c, nil
	case *ConditionalConfig:
		return *c, nil
	case *ParallelConfig:
		return *c, nil
	case *WaitConfig:
		return *c, nil
	case *SubflowConfig:
		return *c, nil
	}
	return nil, fmt.Errorf("unknown node type %q", t)
}

// EncodeConfig converts a typed configuration back to its raw map form.
func EncodeConfig(cfg NodeConfig) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(cfg, &out); err != nil {
		return nil, fmt.Errorf("encode %s config: %w", cfg.NodeType(), err)
	}
	return out, nil
}
