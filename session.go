package flowstudio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/internal/metrics"
	"github.com/aretw0/flowstudio/pkg/api"
	"github.com/aretw0/flowstudio/pkg/components"
	"github.com/aretw0/flowstudio/pkg/credentials"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/aretw0/flowstudio/pkg/graph"
	"github.com/aretw0/flowstudio/pkg/sanitize"
)

// Format is a document encoding for Import and Export.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension. Unknown extensions mean JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Session is one editing session against a backend.
// It owns the graph store and everything that reads from or writes into it.
type Session struct {
	Store       *graph.Store
	Syncer      *graph.Syncer
	Client      *api.Client
	Credentials *credentials.Registry
	Components  *components.Library
	Sanitizer   *sanitize.Sanitizer

	assistantID string
	dialer      execution.Dialer
	metrics     *metrics.Collector
	logger      *slog.Logger
	syncDelay   time.Duration
	apiOpts     []api.Option
	sanitizeOps []sanitize.Option
}

// Option configures a Session.
type Option func(*Session)

// WithAssistantID scopes the session to an assistant.
func WithAssistantID(id string) Option {
	return func(s *Session) {
		s.assistantID = id
	}
}

// WithLogger sets the logger shared by every component of the session.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMetrics records runs and console lines of the session's controllers.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithDialer replaces the WebSocket dialer used by NewRun.
func WithDialer(d execution.Dialer) Option {
	return func(s *Session) {
		s.dialer = d
	}
}

// WithSyncDelay sets the debounce delay of the Syncer.
func WithSyncDelay(d time.Duration) Option {
	return func(s *Session) {
		s.syncDelay = d
	}
}

// WithAPIOptions passes extra options to the REST client.
func WithAPIOptions(opts ...api.Option) Option {
	return func(s *Session) {
		s.apiOpts = append(s.apiOpts, opts...)
	}
}

// WithSanitizerOptions extends the component sanitizer (deny keys, patterns).
func WithSanitizerOptions(opts ...sanitize.Option) Option {
	return func(s *Session) {
		s.sanitizeOps = append(s.sanitizeOps, opts...)
	}
}

// NewSession wires a session against the backend at baseURL.
func NewSession(baseURL string, opts ...Option) (*Session, error) {
	s := &Session{
		logger:    logging.NewNop(),
		dialer:    execution.NewWebSocketDialer(),
		syncDelay: graph.DefaultSyncDelay,
	}
	for _, opt := range opts {
		opt(s)
	}

	client, err := api.New(baseURL, append([]api.Option{
		api.WithAssistantID(s.assistantID),
		api.WithLogger(s.logger),
	}, s.apiOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create api client: %w", err)
	}

	s.Client = client
	s.Store = graph.NewStore(graph.WithLogger(s.logger))
	s.Syncer = graph.NewSyncer(s.Store, graph.WithDelay(s.syncDelay))
	s.Sanitizer = sanitize.New(append([]sanitize.Option{sanitize.WithLogger(s.logger)}, s.sanitizeOps...)...)
	s.Credentials = credentials.NewRegistry(client,
		credentials.WithSecretSink(s.Sanitizer),
		credentials.WithLogger(s.logger),
	)
	s.Components = components.NewLibrary(client,
		components.WithSanitizer(s.Sanitizer),
		components.WithLogger(s.logger),
	)
	return s, nil
}

// AssistantID returns the assistant the session is scoped to.
func (s *Session) AssistantID() string {
	return s.assistantID
}

// Open loads the assistant's saved flow into the store.
// An assistant without a saved flow leaves the store empty and is not an error.
func (s *Session) Open(ctx context.Context) error {
	raw, err := s.Client.GetFlowRaw(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Info("no saved flow, starting empty", "assistant_id", s.assistantID)
		s.Store.Replace(domain.Flow{})
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}
	if err := s.Store.LoadJSON(raw); err != nil {
		return fmt.Errorf("failed to load flow: %w", err)
	}
	for _, d := range s.Store.Diagnostics() {
		s.logger.Warn("flow repaired on load", "diagnostic", d.Message)
	}
	return nil
}

// Save applies pending canvas proposals and persists the flow.
func (s *Session) Save(ctx context.Context) error {
	s.Syncer.Flush()
	if err := s.Client.SaveFlow(ctx, s.Store.SaveRequest()); err != nil {
		return fmt.Errorf("failed to save flow: %w", err)
	}
	return nil
}

// Import replaces nodes and edges with an exported document.
// The store is untouched when the document is invalid.
func (s *Session) Import(raw []byte, format Format) error {
	s.Syncer.Stop()
	if format == FormatYAML {
		return s.Store.ImportYAML(raw)
	}
	return s.Store.ImportJSON(bytes.TrimSpace(raw))
}

// ImportFile is Import for a file, with the format taken from its extension.
func (s *Session) ImportFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return s.Import(raw, FormatFromPath(path))
}

// Export returns the current {nodes, edges} document.
func (s *Session) Export(format Format) ([]byte, error) {
	s.Syncer.Flush()
	if format == FormatYAML {
		return s.Store.ExportYAML()
	}
	return s.Store.Export()
}

// NewRun creates a controller that executes the store's flow.
// Pending canvas proposals are applied now and again on every Start.
// Extra options override the session defaults.
func (s *Session) NewRun(opts ...execution.Option) *execution.Controller {
	s.Syncer.Flush()
	base := []execution.Option{
		execution.WithBeforeStart(s.Syncer.Flush),
		execution.WithDialer(s.dialer),
		execution.WithAssistantID(s.assistantID),
		execution.WithLogger(s.logger),
	}
	if s.metrics != nil {
		base = append(base, execution.WithMetrics(s.metrics))
	}
	return execution.NewController(s.Store, s.Client.ExecuteURL(), append(base, opts...)...)
}

// Close discards pending proposals.
func (s *Session) Close() error {
	s.Syncer.Stop()
	return nil
}
