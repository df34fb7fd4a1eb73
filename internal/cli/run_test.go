package cli_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/flowstudio/internal/cli"
	"github.com/aretw0/flowstudio/internal/config"
	flowhttp "github.com/aretw0/flowstudio/pkg/adapters/http"
	"github.com/aretw0/flowstudio/pkg/adapters/memory"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flowDoc = `{
  "nodes": [
    {"id": "start", "type": "start", "position": {"x": 0, "y": 0}, "data": {"label": "Start"}},
    {"id": "call", "type": "http", "position": {"x": 200, "y": 0}, "data": {"label": "Call", "config": {"url": "https://example.com"}}}
  ],
  "edges": [{"id": "e1", "source": "start", "target": "call"}]
}`

func newApp(t *testing.T, assistantID string) *cli.App {
	t.Helper()
	srv := httptest.NewServer(flowhttp.NewHandler(memory.NewStore()))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.APIURL = srv.URL
	cfg.AssistantID = assistantID
	cfg.LogLevel = "error"
	app, err := cli.NewApp(cfg)
	require.NoError(t, err)
	return app
}

func TestRunFlow_FromFile(t *testing.T) {
	app := newApp(t, "a1")
	sess, err := app.Session()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "flow.json")
	require.NoError(t, os.WriteFile(path, []byte(flowDoc), 0o600))

	var out bytes.Buffer
	state, err := cli.RunFlow(context.Background(), sess, cli.RunOptions{
		File:    path,
		Out:     &out,
		Mermaid: true,
	})
	require.NoError(t, err)
	assert.Equal(t, execution.Completed, state)

	text := out.String()
	assert.Contains(t, text, "would call GET https://example.com")
	assert.Contains(t, text, "dry run completed")
	assert.Contains(t, text, "✔ Execution completed")
	assert.Contains(t, text, "graph TD")
	assert.Contains(t, text, "class call visited")
}

func TestRunFlow_NoSavedFlow(t *testing.T) {
	app := newApp(t, "empty")
	sess, err := app.Session()
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = cli.RunFlow(context.Background(), sess, cli.RunOptions{Out: &out})
	assert.Error(t, err, "an empty flow has no entry node")
}

func TestApp_SessionRequiresAssistant(t *testing.T) {
	app := newApp(t, "")
	_, err := app.Session()
	assert.ErrorIs(t, err, cli.ErrNoAssistant)
}

func TestApp_OpenBackendMemory(t *testing.T) {
	app := newApp(t, "a1")
	backend, err := app.OpenBackend(context.Background())
	require.NoError(t, err)
	defer backend.Close()

	assert.Equal(t, "memory", backend.Name)
	assert.NotNil(t, backend.Repo)
	assert.NotNil(t, backend.Locker)
}

func TestApp_OpenBackendEncrypted(t *testing.T) {
	app := newApp(t, "a1")
	app.Config.Serve.EncryptionKey = base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("k"), 32))
	backend, err := app.OpenBackend(context.Background())
	require.NoError(t, err)
	defer backend.Close()

	ctx := context.Background()
	_, err = backend.Repo.CreateCredential(ctx, "a1", domain.Credential{
		Name: "t", Type: domain.CredentialBearer, Data: map[string]any{"token": "sk-1"},
	})
	require.NoError(t, err)
	list, err := backend.Repo.ListCredentials(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "sk-1", list[0].Data["token"])

	app.Config.Serve.EncryptionKey = "c2hvcnQ="
	_, err = app.OpenBackend(ctx)
	assert.ErrorContains(t, err, "serve.encryption_key")
}
