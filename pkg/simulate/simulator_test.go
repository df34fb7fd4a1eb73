package simulate_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/aretw0/flowstudio/pkg/simulate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, t domain.NodeType, cfg map[string]any) domain.Node {
	return domain.Node{ID: id, Type: t, Data: domain.NodeData{Label: id, Config: cfg}}
}

func collect(t *testing.T, flow domain.Flow, req execution.StartRequest, opts ...simulate.Option) []execution.Message {
	t.Helper()
	var got []execution.Message
	err := simulate.New(opts...).Run(context.Background(), flow, req, func(m execution.Message) error {
		got = append(got, m)
		return nil
	})
	require.NoError(t, err)
	return got
}

func visitedNodes(msgs []execution.Message) []string {
	var out []string
	for _, m := range msgs {
		if m.Type == execution.TypeNodeStart {
			out = append(out, m.NodeID)
		}
	}
	return out
}

func branchFlow() domain.Flow {
	return domain.Flow{
		Name: "branching",
		Nodes: []domain.Node{
			node("start", domain.NodeTypeStart, nil),
			node("shape", domain.NodeTypeTransform, map[string]any{"expression": "{status: input.code}"}),
			node("check", domain.NodeTypeConditional, map[string]any{"condition": "output.status == `200`"}),
			node("ok", domain.NodeTypeLLM, map[string]any{"model": "gpt-4o", "prompt": "summarize"}),
			node("ko", domain.NodeTypeHTTP, map[string]any{"url": "https://alerts.example.com", "method": "post"}),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "shape"},
			{ID: "e2", Source: "shape", Target: "check"},
			{ID: "e3", Source: "check", Target: "ok", SourceHandle: "true"},
			{ID: "e4", Source: "check", Target: "ko", SourceHandle: "false"},
		},
	}
}

func TestRun_FollowsTrueBranch(t *testing.T) {
	msgs := collect(t, branchFlow(), execution.StartRequest{Input: map[string]any{"code": 200}})

	assert.Equal(t, []string{"start", "shape", "check", "ok"}, visitedNodes(msgs))

	last := msgs[len(msgs)-1]
	assert.Equal(t, execution.TypeComplete, last.Type)
	require.NotNil(t, last.Success)
	assert.True(t, *last.Success)

	var chunk *execution.Message
	for i := range msgs {
		if msgs[i].Type == execution.TypeChunk {
			chunk = &msgs[i]
		}
	}
	require.NotNil(t, chunk)
	assert.Equal(t, "ok", chunk.NodeID)
	assert.Contains(t, chunk.Content, "gpt-4o")
}

func TestRun_FollowsFalseBranch(t *testing.T) {
	msgs := collect(t, branchFlow(), execution.StartRequest{Input: map[string]any{"code": 500}})

	assert.Equal(t, []string{"start", "shape", "check", "ko"}, visitedNodes(msgs))

	found := false
	for _, m := range msgs {
		if m.NodeID == "ko" && m.Type == execution.TypeInfo {
			assert.Equal(t, "would call POST https://alerts.example.com", m.Message)
			found = true
		}
	}
	assert.True(t, found)
}

func TestRun_EntryOverride(t *testing.T) {
	msgs := collect(t, branchFlow(), execution.StartRequest{EntryNodeID: "ok"})
	assert.Equal(t, []string{"ok"}, visitedNodes(msgs))
}

func TestRun_UnknownEntry(t *testing.T) {
	msgs := collect(t, branchFlow(), execution.StartRequest{EntryNodeID: "ghost"})
	require.Len(t, msgs, 1)
	assert.Equal(t, execution.TypeError, msgs[0].Type)
	assert.Contains(t, msgs[0].Message, "ghost")
}

func TestRun_EmptyFlow(t *testing.T) {
	msgs := collect(t, domain.Flow{}, execution.StartRequest{})
	require.Len(t, msgs, 1)
	assert.Equal(t, execution.TypeError, msgs[0].Type)
	assert.Equal(t, domain.ErrNoEntryNode.Error(), msgs[0].Message)
}

func TestRun_NodeErrorEndsBranchOnly(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			node("start", domain.NodeTypeStart, nil),
			node("fan", domain.NodeTypeParallel, nil),
			node("bad", domain.NodeTypeTransform, map[string]any{"expression": "output.["}),
			node("after-bad", domain.NodeTypeWait, map[string]any{"seconds": 1}),
			node("good", domain.NodeTypeWait, map[string]any{"seconds": 2}),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "start", Target: "fan"},
			{ID: "e2", Source: "fan", Target: "bad"},
			{ID: "e3", Source: "fan", Target: "good"},
			{ID: "e4", Source: "bad", Target: "after-bad"},
		},
	}
	msgs := collect(t, flow, execution.StartRequest{})

	assert.Equal(t, []string{"start", "fan", "bad", "good"}, visitedNodes(msgs))

	var nodeErrors int
	for _, m := range msgs {
		if m.Type == execution.TypeNodeError {
			nodeErrors++
			assert.Equal(t, "bad", m.NodeID)
		}
	}
	assert.Equal(t, 1, nodeErrors)

	last := msgs[len(msgs)-1]
	assert.Equal(t, execution.TypeComplete, last.Type)
	assert.Contains(t, last.Message, "1 failed")
}

func TestRun_CycleVisitsOnce(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			node("a", domain.NodeTypeStart, nil),
			node("b", domain.NodeTypeWait, map[string]any{"seconds": 1}),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "a"},
		},
	}
	msgs := collect(t, flow, execution.StartRequest{})
	assert.Equal(t, []string{"a", "b"}, visitedNodes(msgs))
}

func TestRun_StepLimit(t *testing.T) {
	flow := domain.Flow{
		Nodes: []domain.Node{
			node("a", domain.NodeTypeStart, nil),
			node("b", domain.NodeTypeWait, nil),
			node("c", domain.NodeTypeWait, nil),
		},
		Edges: []domain.Edge{
			{ID: "e1", Source: "a", Target: "b"},
			{ID: "e2", Source: "b", Target: "c"},
		},
	}
	msgs := collect(t, flow, execution.StartRequest{}, simulate.WithMaxSteps(2))
	last := msgs[len(msgs)-1]
	assert.Equal(t, execution.TypeError, last.Type)
	assert.Contains(t, last.Message, simulate.ErrStepLimit.Error())
}

func TestRun_EmitErrorAborts(t *testing.T) {
	boom := errors.New("client gone")
	calls := 0
	err := simulate.New().Run(context.Background(), branchFlow(), execution.StartRequest{}, func(execution.Message) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var got []execution.Message
	err := simulate.New().Run(ctx, branchFlow(), execution.StartRequest{}, func(m execution.Message) error {
		got = append(got, m)
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	for _, m := range got {
		assert.NotEqual(t, execution.TypeComplete, m.Type)
	}
}
