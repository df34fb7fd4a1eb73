package credentials

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	records   map[string]domain.Credential
	order     []string
	listCalls int
	creates   int
	failList  error
}

func newFakeBackend(creds ...domain.Credential) *fakeBackend {
	b := &fakeBackend{records: map[string]domain.Credential{}}
	for _, c := range creds {
		b.records[c.ID] = c
		b.order = append(b.order, c.ID)
	}
	return b
}

func (b *fakeBackend) ListCredentials(ctx context.Context) ([]domain.Credential, error) {
	b.listCalls++
	if b.failList != nil {
		return nil, b.failList
	}
	var out []domain.Credential
	for _, id := range b.order {
		if c, ok := b.records[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (b *fakeBackend) CreateCredential(ctx context.Context, req domain.CreateCredentialRequest) (domain.Credential, error) {
	b.creates++
	c := domain.Credential{ID: fmt.Sprintf("cred-%d", b.creates), Name: req.Name, Type: req.Type}
	b.records[c.ID] = c
	b.order = append(b.order, c.ID)
	return c, nil
}

func (b *fakeBackend) DeleteCredential(ctx context.Context, id string) error {
	if _, ok := b.records[id]; !ok {
		return &domain.TransportError{Op: "DELETE /credentials/" + id, StatusCode: 404, Err: domain.ErrNotFound}
	}
	delete(b.records, id)
	return nil
}

type sinkRecorder struct{ got []map[string]any }

func (s *sinkRecorder) RegisterSecrets(data map[string]any) { s.got = append(s.got, data) }

func TestRegistry_ListIsCached(t *testing.T) {
	backend := newFakeBackend(domain.Credential{ID: "a", Name: "A", Type: domain.CredentialBearer})
	r := NewRegistry(backend)
	ctx := context.Background()

	first, err := r.List(ctx)
	require.NoError(t, err)
	second, err := r.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.listCalls)

	c, err := r.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", c.Name)
	_, err = r.Get(ctx, "zzz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegistry_CreateInvalidatesCache(t *testing.T) {
	backend := newFakeBackend()
	sink := &sinkRecorder{}
	r := NewRegistry(backend, WithSecretSink(sink))
	ctx := context.Background()

	_, err := r.List(ctx)
	require.NoError(t, err)

	created, err := r.Create(ctx, domain.CreateCredentialRequest{
		Name: "OpenAI",
		Type: domain.CredentialBearer,
		Data: map[string]any{"token": "sk-123"},
	})
	require.NoError(t, err)

	list, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 2, backend.listCalls)
	require.Len(t, sink.got, 1)
	assert.Equal(t, "sk-123", sink.got[0]["token"])
}

func TestRegistry_CreateValidatesBeforeNetwork(t *testing.T) {
	backend := newFakeBackend()
	r := NewRegistry(backend)

	_, err := r.Create(context.Background(), domain.CreateCredentialRequest{
		Name: "Key",
		Type: domain.CredentialAPIKey,
		Data: map[string]any{"key_name": "X-API-Key"},
	})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "key_value", ve.Field)
	assert.Equal(t, 0, backend.creates)
}

func TestRegistry_DoubleDelete(t *testing.T) {
	backend := newFakeBackend(
		domain.Credential{ID: "a", Name: "A", Type: domain.CredentialBearer},
		domain.Credential{ID: "b", Name: "B", Type: domain.CredentialBearer},
	)
	r := NewRegistry(backend)
	ctx := context.Background()

	_, err := r.List(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, "a"))
	list, _ := r.List(ctx)
	assert.Len(t, list, 1)

	err = r.Delete(ctx, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	list, _ = r.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, 1, backend.listCalls)
}

func TestRegistry_ListErrorNotCached(t *testing.T) {
	backend := newFakeBackend()
	backend.failList = errors.New("boom")
	r := NewRegistry(backend)

	_, err := r.List(context.Background())
	require.Error(t, err)

	backend.failList = nil
	_, err = r.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, backend.listCalls)
}
