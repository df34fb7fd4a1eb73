// Package credentials validates and caches the credential records owned by the backend.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/patrickmn/go-cache"
)

const listKey = "credentials"

// Backend is the credential REST surface the registry reads through.
type Backend interface {
	ListCredentials(ctx context.Context) ([]domain.Credential, error)
	CreateCredential(ctx context.Context, req domain.CreateCredentialRequest) (domain.Credential, error)
	DeleteCredential(ctx context.Context, id string) error
}

// SecretSink learns secret values as credentials are created.
// The component sanitizer implements it.
type SecretSink interface {
	RegisterSecrets(data map[string]any)
}

// Registry is a read-through cache in front of a Backend.
type Registry struct {
	backend Backend
	cache   *cache.Cache
	secrets SecretSink
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithSecretSink forwards the data of every created credential to sink.
func WithSecretSink(sink SecretSink) Option {
	return func(r *Registry) {
		r.secrets = sink
	}
}

// WithTTL bounds how long a fetched list is served from cache.
// The default keeps it until the next create or delete.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = cache.New(ttl, 2*ttl)
	}
}

// NewRegistry creates a Registry over backend.
func NewRegistry(backend Backend, opts ...Option) *Registry {
	r := &Registry{
		backend: backend,
		cache:   cache.New(cache.NoExpiration, 0),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the credentials, fetching them only when the cache is empty.
func (r *Registry) List(ctx context.Context) ([]domain.Credential, error) {
	if cached, ok := r.cache.Get(listKey); ok {
		return copyList(cached.([]domain.Credential)), nil
	}

	list, err := r.backend.ListCredentials(ctx)
	if err != nil {
		return nil, err
	}
	r.cache.SetDefault(listKey, copyList(list))
	return list, nil
}

// Get returns one credential from the (cached) list.
func (r *Registry) Get(ctx context.Context, id string) (domain.Credential, error) {
	list, err := r.List(ctx)
	if err != nil {
		return domain.Credential{}, err
	}
	for _, c := range list {
		if c.ID == id {
			return c, nil
		}
	}
	return domain.Credential{}, fmt.Errorf("credential %s: %w", id, domain.ErrNotFound)
}

// Create validates req locally and creates it on the backend.
// Validation failures never reach the network.
func (r *Registry) Create(ctx context.Context, req domain.CreateCredentialRequest) (domain.Credential, error) {
	if err := Validate(req); err != nil {
		return domain.Credential{}, err
	}

	created, err := r.backend.CreateCredential(ctx, req)
	if err != nil {
		return domain.Credential{}, err
	}
	r.cache.Delete(listKey)

	if r.secrets != nil {
		r.secrets.RegisterSecrets(req.Data)
	}
	r.logger.Info("credential created", "id", created.ID, "type", created.Type)
	return created, nil
}

// Delete removes a credential. On success, or when the backend reports it as
// already gone, the entry is dropped from the cache. Any error is returned.
func (r *Registry) Delete(ctx context.Context, id string) error {
	err := r.backend.DeleteCredential(ctx, id)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	r.removeCached(id)
	if err != nil {
		r.logger.Warn("credential already deleted", "id", id)
		return err
	}
	return nil
}

// Invalidate drops the cached list.
func (r *Registry) Invalidate() {
	r.cache.Delete(listKey)
}

func (r *Registry) removeCached(id string) {
	cached, ok := r.cache.Get(listKey)
	if !ok {
		return
	}
	list := cached.([]domain.Credential)
	kept := make([]domain.Credential, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	r.cache.SetDefault(listKey, kept)
}

func copyList(list []domain.Credential) []domain.Credential {
	return append([]domain.Credential{}, list...)
}
