package flowstudio_test

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/flowstudio"
	flowhttp "github.com/aretw0/flowstudio/pkg/adapters/http"
	"github.com/aretw0/flowstudio/pkg/adapters/memory"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(t *testing.T, assistantID string) *flowstudio.Session {
	t.Helper()
	srv := httptest.NewServer(flowhttp.NewHandler(memory.NewStore()))
	t.Cleanup(srv.Close)
	return openSession(t, srv.URL, assistantID)
}

func openSession(t *testing.T, url, assistantID string) *flowstudio.Session {
	t.Helper()
	sess, err := flowstudio.NewSession(url,
		flowstudio.WithAssistantID(assistantID),
		flowstudio.WithSyncDelay(time.Hour),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })
	return sess
}

func sampleFlow() ([]domain.Node, []domain.Edge) {
	nodes := []domain.Node{
		{ID: "start", Type: domain.NodeTypeStart, Data: domain.NodeData{Label: "Start"}},
		{ID: "call", Type: domain.NodeTypeHTTP, Data: domain.NodeData{Label: "Call", Config: map[string]any{"url": "https://example.com", "method": "POST"}}},
	}
	edges := []domain.Edge{{ID: "e1", Source: "start", Target: "call"}}
	return nodes, edges
}

func TestSession_OpenWithoutSavedFlow(t *testing.T) {
	sess := newSession(t, "fresh")

	require.NoError(t, sess.Open(context.Background()))
	assert.Empty(t, sess.Store.Nodes())
	assert.Empty(t, sess.Store.Edges())
}

func TestSession_SaveFlushesPendingProposals(t *testing.T) {
	srv := httptest.NewServer(flowhttp.NewHandler(memory.NewStore()))
	t.Cleanup(srv.Close)
	ctx := context.Background()

	editor := openSession(t, srv.URL, "a1")
	nodes, edges := sampleFlow()
	editor.Syncer.ProposeNodes(nodes)
	editor.Syncer.ProposeEdges(edges)
	assert.True(t, editor.Syncer.Pending())

	require.NoError(t, editor.Save(ctx))
	assert.False(t, editor.Syncer.Pending())

	viewer := openSession(t, srv.URL, "a1")
	require.NoError(t, viewer.Open(ctx))
	require.Len(t, viewer.Store.Nodes(), 2)
	assert.Equal(t, "call", viewer.Store.Nodes()[1].ID)
	require.Len(t, viewer.Store.Edges(), 1)
}

func TestSession_ImportExport(t *testing.T) {
	sess := newSession(t, "a1")

	doc := `
nodes:
  - id: start
    type: start
    position: {x: 0, y: 0}
    data: {label: Start}
  - id: t1
    type: transform
    position: {x: 200, y: 0}
    data:
      label: Pick
      config: {expression: input.city}
edges:
  - {id: e1, source: start, target: t1}
`
	require.NoError(t, sess.Import([]byte(doc), flowstudio.FormatYAML))
	require.Len(t, sess.Store.Nodes(), 2)

	out, err := sess.Export(flowstudio.FormatJSON)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"expression": "input.city"`)

	err = sess.Import([]byte(`{"nodes": "oops", "edges": []}`), flowstudio.FormatJSON)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, sess.Store.Nodes(), 2, "invalid import leaves the store untouched")
}

func TestSession_ImportFile(t *testing.T) {
	sess := newSession(t, "a1")

	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"nodes": [{"id": "s", "type": "start", "position": {"x": 0, "y": 0}, "data": {"label": "S"}}], "edges": []}`), 0o600))
	require.NoError(t, sess.ImportFile(path))
	assert.Len(t, sess.Store.Nodes(), 1)

	assert.Equal(t, flowstudio.FormatYAML, flowstudio.FormatFromPath("x.YML"))
	assert.Equal(t, flowstudio.FormatJSON, flowstudio.FormatFromPath("x.txt"))
}

func TestSession_NewRunDryRun(t *testing.T) {
	sess := newSession(t, "a1")
	ctx := context.Background()

	nodes, edges := sampleFlow()
	sess.Store.SetNodes(nodes)
	sess.Store.SetEdges(edges)
	require.NoError(t, sess.Save(ctx))

	run := sess.NewRun()
	require.NoError(t, run.Connect(ctx))
	require.NoError(t, run.Start(ctx, map[string]any{"city": "Lisbon"}))

	select {
	case <-run.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish")
	}
	assert.Equal(t, execution.Completed, run.State())

	var text []string
	for _, line := range sess.Store.Console() {
		text = append(text, line.Text)
	}
	assert.Contains(t, strings.Join(text, "\n"), "would call POST https://example.com")
}

func TestSession_CredentialSecretsReachSanitizer(t *testing.T) {
	sess := newSession(t, "a1")
	ctx := context.Background()

	_, err := sess.Credentials.Create(ctx, domain.CreateCredentialRequest{
		Name: "Upstream",
		Type: domain.CredentialBearer,
		Data: map[string]any{"token": "sk-live-abcdef123456"},
	})
	require.NoError(t, err)

	node := domain.Node{
		ID:   "call",
		Type: domain.NodeTypeHTTP,
		Data: domain.NodeData{Label: "Call", Config: map[string]any{
			"url": "https://example.com",
			"headers": map[string]any{
				"X-Upstream": "Bearer sk-live-abcdef123456",
				"Accept":     "application/json",
			},
		}},
	}
	published, err := sess.Components.Publish(ctx, node, "", "", nil, true)
	require.NoError(t, err)
	assert.True(t, published.Sanitized)
	assert.Contains(t, published.Warning.RemovedPaths, "headers.X-Upstream")

	headers, ok := published.Component.Config["headers"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, headers, "X-Upstream")
	assert.Equal(t, "application/json", headers["Accept"])
}

func TestSession_RunStartAppliesPendingProposals(t *testing.T) {
	sess := newSession(t, "a1")
	ctx := context.Background()

	run := sess.NewRun()
	nodes, edges := sampleFlow()
	sess.Syncer.ProposeNodes(nodes)
	sess.Syncer.ProposeEdges(edges)
	require.True(t, sess.Syncer.Pending())

	require.NoError(t, run.Connect(ctx))
	require.NoError(t, run.Start(ctx, nil))
	t.Cleanup(func() { _ = run.Cancel() })

	assert.False(t, sess.Syncer.Pending())
	assert.Len(t, sess.Store.Nodes(), 2)
	console := sess.Store.Console()
	require.NotEmpty(t, console)
	assert.Equal(t, "starting run at Start (start)", console[0].Text)
}
