package dsl

import (
	"fmt"

	"github.com/aretw0/flowstudio/pkg/domain"
)

type link struct {
	target string
	handle string
}

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.Node
	links   []link
	placed  bool
	builder *Builder
}

// Config sets the node type from cfg and merges its encoded fields into the configuration.
// An encoding failure is reported by Builder.Build.
func (n *NodeBuilder) Config(cfg domain.NodeConfig) *NodeBuilder {
	n.node.Type = cfg.NodeType()
	raw, err := domain.EncodeConfig(cfg)
	if err != nil {
		n.builder.errs = append(n.builder.errs, fmt.Errorf("node %s: %w", n.node.ID, err))
		return n
	}
	for k, v := range raw {
		n.node.Data.Config[k] = v
	}
	return n
}

// Label sets the display label.
func (n *NodeBuilder) Label(label string) *NodeBuilder {
	n.node.Data.Label = label
	return n
}

// At places the node on the canvas. Unplaced nodes are laid out by distance from the entry.
func (n *NodeBuilder) At(x, y float64) *NodeBuilder {
	n.node.Position = domain.Position{X: x, Y: y}
	n.placed = true
	return n
}

// Set writes a raw configuration value.
func (n *NodeBuilder) Set(key string, value any) *NodeBuilder {
	n.node.Data.Config[key] = value
	return n
}

// Start marks the node as a manual entry point.
func (n *NodeBuilder) Start() *NodeBuilder {
	return n.Config(domain.StartConfig{})
}

// Webhook marks the node as a webhook trigger listening on path.
func (n *NodeBuilder) Webhook(path string) *NodeBuilder {
	return n.Config(domain.TriggerConfig{TriggerType: "webhook", WebhookPath: path})
}

// Schedule marks the node as a cron trigger.
func (n *NodeBuilder) Schedule(cron string) *NodeBuilder {
	return n.Config(domain.TriggerConfig{TriggerType: "schedule", Cron: cron})
}

// HTTP configures an HTTP request step.
func (n *NodeBuilder) HTTP(method, url string) *NodeBuilder {
	return n.Config(domain.HTTPConfig{Method: method, URL: url})
}

// Header adds a request header to an HTTP step.
func (n *NodeBuilder) Header(key, value string) *NodeBuilder {
	headers, _ := n.node.Data.Config[domain.KeyHeaders].(map[string]any)
	if headers == nil {
		headers = make(map[string]any)
		if typed, ok := n.node.Data.Config[domain.KeyHeaders].(map[string]string); ok {
			for k, v := range typed {
				headers[k] = v
			}
		}
	}
	headers[key] = value
	n.node.Data.Config[domain.KeyHeaders] = headers
	return n
}

// Credential references a stored credential by id.
func (n *NodeBuilder) Credential(id string) *NodeBuilder {
	return n.Set("credential_id", id)
}

// LLM configures a language model call.
func (n *NodeBuilder) LLM(provider, model, prompt string) *NodeBuilder {
	return n.Config(domain.LLMConfig{Provider: provider, Model: model, Prompt: prompt})
}

// Transform reshapes the payload with a JMESPath expression.
func (n *NodeBuilder) Transform(expression string) *NodeBuilder {
	return n.Config(domain.TransformConfig{Expression: expression})
}

// Conditional branches on a JMESPath condition. Use Then and Else for the branches.
func (n *NodeBuilder) Conditional(condition string) *NodeBuilder {
	return n.Config(domain.ConditionalConfig{Condition: condition})
}

// Parallel fans out to every outgoing edge.
func (n *NodeBuilder) Parallel(waitAll bool) *NodeBuilder {
	return n.Config(domain.ParallelConfig{WaitAll: waitAll})
}

// Wait delays execution.
func (n *NodeBuilder) Wait(seconds float64) *NodeBuilder {
	return n.Config(domain.WaitConfig{Seconds: seconds})
}

// Subflow runs another flow.
func (n *NodeBuilder) Subflow(flowID string) *NodeBuilder {
	return n.Config(domain.SubflowConfig{FlowID: flowID})
}

// Go adds an unconditional edge to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	n.links = append(n.links, link{target: target})
	return n
}

// Branch adds an edge leaving through a named output handle.
func (n *NodeBuilder) Branch(handle, target string) *NodeBuilder {
	n.links = append(n.links, link{target: target, handle: handle})
	return n
}

// Then is the edge taken when a conditional is true.
func (n *NodeBuilder) Then(target string) *NodeBuilder {
	return n.Branch("true", target)
}

// Else is the edge taken when a conditional is false.
func (n *NodeBuilder) Else(target string) *NodeBuilder {
	return n.Branch("false", target)
}

// Build returns a copy of the underlying domain.Node.
func (n *NodeBuilder) Build() domain.Node {
	return n.node.Clone()
}
