package components

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/flowstudio/pkg/api"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/sanitize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	created []domain.Component
	fail    error
}

func (b *fakeBackend) ListComponents(ctx context.Context, filter api.ComponentFilter) ([]domain.Component, error) {
	var out []domain.Component
	for _, c := range b.created {
		if filter.NodeType == "" || c.NodeType == filter.NodeType {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *fakeBackend) CreateComponent(ctx context.Context, comp domain.Component) (domain.Component, error) {
	if b.fail != nil {
		return domain.Component{}, b.fail
	}
	comp.ComponentID = "comp-1"
	b.created = append(b.created, comp)
	return comp, nil
}

func (b *fakeBackend) DeleteComponent(ctx context.Context, id string) error { return nil }

func httpNode() domain.Node {
	return domain.Node{
		ID:   "h1",
		Type: domain.NodeTypeHTTP,
		Data: domain.NodeData{
			Label: "Fetch",
			Config: map[string]any{
				"url":           "https://api.example.com",
				"credential_id": "cred-9",
				"headers":       map[string]any{"Authorization": "Bearer sk-1", "Accept": "*/*"},
			},
		},
	}
}

func TestPublish_PublicIsSanitized(t *testing.T) {
	backend := &fakeBackend{}
	s := sanitize.New()
	s.RegisterSecret("sk-1")
	lib := NewLibrary(backend, WithSanitizer(s))

	node := httpNode()
	pub, err := lib.Publish(context.Background(), node, "", "desc", []string{"b", "a"}, true)
	require.NoError(t, err)

	require.Len(t, backend.created, 1)
	sent := backend.created[0]
	assert.Equal(t, "Fetch", sent.Name)
	assert.NotContains(t, sent.Config, "credential_id")
	assert.Equal(t, map[string]any{"Accept": "*/*"}, sent.Config["headers"])
	assert.Equal(t, []string{"a", "b"}, sent.Tags)

	assert.True(t, pub.Sanitized)
	assert.Equal(t, []string{"credential_id", "headers.Authorization"}, pub.Warning.RemovedPaths)
	assert.Equal(t, "cred-9", node.Data.Config["credential_id"], "node must not be mutated")
}

func TestPublish_PrivateKeepsConfig(t *testing.T) {
	backend := &fakeBackend{}
	lib := NewLibrary(backend)

	pub, err := lib.Publish(context.Background(), httpNode(), "Mine", "", nil, false)
	require.NoError(t, err)
	assert.False(t, pub.Sanitized)
	assert.Equal(t, "cred-9", backend.created[0].Config["credential_id"])
}

func TestPublish_Errors(t *testing.T) {
	lib := NewLibrary(&fakeBackend{})
	node := httpNode()
	node.Data.Label = ""

	_, err := lib.Publish(context.Background(), node, " ", "", nil, true)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)

	node.Type = "bogus"
	_, err = lib.Publish(context.Background(), node, "x", "", nil, true)
	require.ErrorAs(t, err, &ve)

	boom := errors.New("boom")
	lib = NewLibrary(&fakeBackend{fail: boom})
	_, err = lib.Publish(context.Background(), httpNode(), "x", "", nil, true)
	assert.ErrorIs(t, err, boom)
}

func TestListAndInstantiate(t *testing.T) {
	backend := &fakeBackend{}
	lib := NewLibrary(backend)
	_, err := lib.Publish(context.Background(), httpNode(), "x", "", nil, true)
	require.NoError(t, err)

	list, err := lib.List(context.Background(), domain.NodeTypeHTTP, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n := Instantiate(list[0], "new-1", domain.Position{X: 5})
	assert.Equal(t, domain.NodeTypeHTTP, n.Type)
	assert.Equal(t, "x", n.Data.Label)
	assert.Equal(t, "https://api.example.com", n.Data.Config["url"])

	assert.NoError(t, lib.Delete(context.Background(), "comp-1"))
}
