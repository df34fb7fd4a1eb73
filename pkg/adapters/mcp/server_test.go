package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFlow = `{
  "nodes": [
    {"id": "s", "type": "start", "data": {"label": "Start"}},
    {"id": "c", "type": "conditional", "data": {"label": "Check", "config": {"condition": "input.ok"}}},
    {"id": "y", "type": "http", "data": {"label": "Yes", "config": {"url": "https://yes"}}},
    {"id": "n", "type": "http", "data": {"label": "No", "config": {"url": "https://no"}}}
  ],
  "edges": [
    {"id": "e1", "source": "s", "target": "c"},
    {"id": "e2", "source": "c", "target": "y", "sourceHandle": "true"},
    {"id": "e3", "source": "c", "target": "n", "sourceHandle": "false"}
  ]
}`

func TestEvaluate(t *testing.T) {
	s := NewServer()
	res, err := s.handleEvaluate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"expression": "output.status == `200`",
		"document":   `{"output": {"status": 200}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, true, res.Result)
	assert.True(t, res.Truthy)

	_, err = s.handleEvaluate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"expression": "output.[",
	})
	var ee *domain.EvaluationError
	assert.ErrorAs(t, err, &ee)
}

func TestSanitize(t *testing.T) {
	s := NewServer()
	res, err := s.handleSanitize(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"config": `{"url": "https://x", "credential_id": "c1"}`,
	})
	require.NoError(t, err)
	assert.True(t, res.Sanitized)
	assert.Equal(t, []string{"credential_id"}, res.RemovedPaths)
	assert.NotContains(t, res.Config, "credential_id")

	res, err = s.handleSanitize(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"config": `{"credential_id": "c1"}`,
		"public": false,
	})
	require.NoError(t, err)
	assert.False(t, res.Sanitized)
	assert.Equal(t, "c1", res.Config["credential_id"])
	assert.Empty(t, res.RemovedPaths)

	_, err = s.handleSanitize(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"config": "[1]"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := NewServer()
	report, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"flow": sampleFlow})
	require.NoError(t, err)
	assert.True(t, report.OK())

	_, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"flow": `{"nodes": []}`})
	assert.Error(t, err)
}

func TestDryRun(t *testing.T) {
	s := NewServer()
	res, err := s.handleDryRun(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"flow":  sampleFlow,
		"input": `{"ok": false}`,
	})
	require.NoError(t, err)

	var started []string
	for _, m := range res.Messages {
		if m.Type == execution.TypeNodeStart {
			started = append(started, m.NodeID)
		}
	}
	assert.Equal(t, []string{"s", "c", "n"}, started)
	assert.Equal(t, execution.TypeComplete, res.Messages[len(res.Messages)-1].Type)
}

func TestNodeTypes(t *testing.T) {
	types := nodeTypes()
	require.Len(t, types, len(domain.NodeTypes))
	for _, info := range types {
		if info.Type == domain.NodeTypeHTTP {
			assert.Equal(t, "string", info.Config["url"])
			assert.False(t, info.Entry)
		}
		if info.Type == domain.NodeTypeStart {
			assert.True(t, info.Entry)
		}
	}
}
