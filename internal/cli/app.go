// Package cli holds the wiring shared by the flowstudio commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/internal/config"
	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/internal/metrics"
	"github.com/aretw0/flowstudio/pkg/adapters/memory"
	"github.com/aretw0/flowstudio/pkg/adapters/redis"
	"github.com/aretw0/flowstudio/pkg/persistence/middleware"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/aretw0/flowstudio/pkg/sanitize"
)

// ErrNoAssistant is returned by commands that need an assistant and got none.
var ErrNoAssistant = errors.New("assistant id is required (--assistant or " + config.EnvAssistantID + ")")

// App is the resolved process configuration plus the objects built from it.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Metrics *metrics.Collector
}

// NewApp builds the logger and metrics collector for cfg.
func NewApp(cfg config.Config) (*App, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return &App{
		Config:  cfg,
		Logger:  logging.New(level),
		Metrics: metrics.New(),
	}, nil
}

// SanitizerOptions turns the configured deny-list into sanitizer options.
func (a *App) SanitizerOptions() []sanitize.Option {
	opts := []sanitize.Option{sanitize.WithLogger(a.Logger)}
	if len(a.Config.Sanitize.DenyKeys) > 0 {
		opts = append(opts, sanitize.WithDenyKeys(a.Config.Sanitize.DenyKeys...))
	}
	if len(a.Config.Sanitize.DenyPatterns) > 0 {
		opts = append(opts, sanitize.WithDenyPatterns(a.Config.Sanitize.DenyPatterns...))
	}
	return opts
}

// Session opens a client session against the configured backend.
func (a *App) Session(opts ...flowstudio.Option) (*flowstudio.Session, error) {
	if a.Config.AssistantID == "" {
		return nil, ErrNoAssistant
	}
	base := []flowstudio.Option{
		flowstudio.WithAssistantID(a.Config.AssistantID),
		flowstudio.WithLogger(a.Logger),
		flowstudio.WithMetrics(a.Metrics),
		flowstudio.WithSanitizerOptions(a.SanitizerOptions()...),
	}
	return flowstudio.NewSession(a.Config.APIURL, append(base, opts...)...)
}

// Backend is the repository and locker the dev server runs on.
type Backend struct {
	Name   string
	Repo   ports.Repository
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenBackend connects the repository selected by serve.backend.
// A redis backend is pinged before it is returned. With serve.encryption_key
// set, credential data is encrypted before it reaches the repository.
func (a *App) OpenBackend(ctx context.Context) (*Backend, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	mws, err := a.repositoryMiddleware()
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	b.Repo = middleware.Chain(b.Repo, mws...)
	return b, nil
}

func (a *App) repositoryMiddleware() ([]middleware.Middleware, error) {
	sc := a.Config.Serve
	if sc.EncryptionKey == "" {
		return nil, nil
	}
	active, err := middleware.DecodeKey(sc.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("serve.encryption_key: %w", err)
	}
	cfg := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range sc.FallbackKeys {
		key, err := middleware.DecodeKey(k)
		if err != nil {
			return nil, fmt.Errorf("serve.fallback_keys[%d]: %w", i, err)
		}
		cfg.FallbackKeys = append(cfg.FallbackKeys, key)
	}
	enc, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		return nil, err
	}
	a.Logger.Info("Credential encryption enabled", "fallback_keys", len(cfg.FallbackKeys))
	return []middleware.Middleware{enc}, nil
}

func (a *App) openBackend(ctx context.Context) (*Backend, error) {
	switch a.Config.Serve.Backend {
	case "redis":
		rc := a.Config.Serve.Redis
		store := redis.New(rc.Addr, rc.Password, rc.DB,
			redis.WithPrefix(rc.Prefix),
			redis.WithTTL(time.Duration(rc.FlowTTL)),
		)
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("redis at %s: %w", rc.Addr, err)
		}
		return &Backend{Name: "redis", Repo: store, Locker: store.Locker(), Close: store.Close}, nil
	default:
		return &Backend{
			Name:   "memory",
			Repo:   memory.NewStore(),
			Locker: memory.NewLocker(),
			Close:  func() error { return nil },
		}, nil
	}
}
