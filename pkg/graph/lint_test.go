package graph_test

import (
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/graph"
	"github.com/stretchr/testify/assert"
)

func messages(r graph.Report) []string {
	out := make([]string, 0, len(r.Issues))
	for _, i := range r.Issues {
		out = append(out, i.String())
	}
	return out
}

func TestLint_CleanFlow(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			{ID: "s", Type: domain.NodeTypeStart},
			{ID: "h", Type: domain.NodeTypeHTTP, Data: domain.NodeData{Config: map[string]any{"url": "https://x"}}},
		},
		Edges: []domain.Edge{{ID: "e1", Source: "s", Target: "h"}},
	}
	r := graph.Lint(flow)
	assert.True(t, r.OK())
	assert.Empty(t, r.Issues, messages(r))
}

func TestLint_Empty(t *testing.T) {
	r := graph.Lint(domain.Flow{})
	assert.True(t, r.OK())
	assert.Equal(t, 1, r.Count(graph.SeverityWarning))
}

func TestLint_Findings(t *testing.T) {
	flow := domain.Flow{
		EntryNodeID: "h",
		Nodes: []domain.Node{
			{ID: "s", Type: domain.NodeTypeStart},
			{ID: "h", Type: domain.NodeTypeHTTP},
			{ID: "c", Type: domain.NodeTypeConditional, Data: domain.NodeData{Config: map[string]any{"condition": "a"}}},
			{ID: "island", Type: domain.NodeTypeWait, Data: domain.NodeData{Config: map[string]any{"seconds": 1}}},
			{ID: "s", Type: domain.NodeTypeStart},
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "s", Target: "c"},
			{ID: "e2", Source: "c", Target: "h"},
			{ID: "e3", Source: "c", Target: "ghost"},
		},
	}
	r := graph.Lint(flow)
	got := messages(r)

	assert.False(t, r.OK())
	assert.Contains(t, got, "error: node s: duplicate node id")
	assert.Contains(t, got, "error: node h: url: required")
	assert.Contains(t, got, `error: edge e3: target "ghost" does not exist`)
	assert.Contains(t, got, "error: node h: entry node must be a start or trigger node, got http")
	assert.Contains(t, got, "warning: edge e2: leaves conditional c without a true/false handle and is never taken")
	assert.Contains(t, got, "warning: node island: unreachable from any entry point")
}

func TestLint_NoEntryType(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			{ID: "w", Type: domain.NodeTypeWait, Data: domain.NodeData{Config: map[string]any{"seconds": 1}}},
		},
	}
	r := graph.Lint(flow)
	assert.True(t, r.OK())
	assert.Contains(t, messages(r), "warning: no start or trigger node; runs begin at w")
}
