package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/flowstudio"
	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/internal/metrics"
	"github.com/aretw0/flowstudio/pkg/adapters/memory"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/keylock"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/aretw0/flowstudio/pkg/sanitize"
	"github.com/aretw0/flowstudio/pkg/simulate"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

// lockTTL bounds how long one write may hold an assistant's lock.
const lockTTL = 5 * time.Second

// Server is the flowstudio dev backend.
// It serves the REST surface consumed by pkg/api and a dry-run /ws/execute endpoint.
type Server struct {
	repo      ports.Repository
	locker    ports.DistributedLocker
	locks     *keylock.Manager
	sanitizer *sanitize.Sanitizer
	simulator *simulate.Simulator
	metrics   *metrics.Collector
	backend   string
	publicURL string
	origins   []string
	logger    *slog.Logger

	Streams  *StreamManager
	chats    *chatSessions
	upgrader websocket.Upgrader
}

type Option func(*Server)

// WithLocker sets the locker serializing writes per assistant.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Server) {
		s.locker = l
	}
}

// WithSanitizer sets the sanitizer re-applied to public components.
func WithSanitizer(san *sanitize.Sanitizer) Option {
	return func(s *Server) {
		s.sanitizer = san
	}
}

// WithSimulator sets the dry-run executor.
func WithSimulator(sim *simulate.Simulator) Option {
	return func(s *Server) {
		s.simulator = sim
	}
}

// WithMetrics enables request and repository metrics and serves them on /metrics.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = c
	}
}

// WithBackendName labels repository metrics (e.g. "memory", "redis").
func WithBackendName(name string) Option {
	return func(s *Server) {
		s.backend = name
	}
}

// WithPublicURL sets the externally reachable base URL used in webhook URLs.
func WithPublicURL(u string) Option {
	return func(s *Server) {
		s.publicURL = strings.TrimRight(u, "/")
	}
}

// WithAllowedOrigins restricts CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New creates a dev backend over repo.
func New(repo ports.Repository, opts ...Option) *Server {
	s := &Server{
		repo:      repo,
		backend:   "memory",
		publicURL: "http://localhost:8000",
		origins:   []string{"*"},
		logger:    logging.NewNop(),
		chats:     newChatSessions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = memory.NewLocker()
	}
	s.locks = keylock.NewManager(
		keylock.WithLocker(s.locker),
		keylock.WithTTL(lockTTL),
		keylock.WithLogger(s.logger),
	)
	if s.sanitizer == nil {
		s.sanitizer = sanitize.New(sanitize.WithLogger(s.logger))
	}
	if s.simulator == nil {
		s.simulator = simulate.New(simulate.WithLogger(s.logger))
	}
	s.Streams = NewStreamManager(s.logger)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// Dev server: any origin may open a run.
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	return s
}

// NewHandler creates a new HTTP handler for the dev backend.
func NewHandler(repo ports.Repository, opts ...Option) http.Handler {
	return New(repo, opts...).Handler()
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.observeRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/credentials", func(r chi.Router) {
		r.Get("/", s.ListCredentials)
		r.Post("/", s.CreateCredential)
		r.Delete("/{id}", s.DeleteCredential)
	})
	r.Route("/templates/component", func(r chi.Router) {
		r.Get("/list", s.ListComponents)
		r.Post("/create", s.CreateComponent)
		r.Delete("/{id}", s.DeleteComponent)
	})
	r.Route("/flow", func(r chi.Router) {
		r.Post("/save", s.SaveFlow)
		r.Get("/get", s.GetFlow)
	})
	r.Route("/triggers", func(r chi.Router) {
		r.Get("/webhook", s.GetWebhook)
		r.Post("/webhook/test", s.TestWebhook)
		r.Post("/schedule", s.CreateSchedule)
		r.Delete("/schedule/{id}", s.DeleteSchedule)
		r.Get("/logs", s.TriggerLogs)
	})
	r.Route("/chatbot", func(r chi.Router) {
		r.Post("/chat", s.Chat)
		r.Post("/clear-session", s.ClearChatSession)
	})
	r.Get("/ws/execute", s.Execute)
	r.Get("/events", s.SubscribeEvents)

	return r
}

// observeRequests logs every request and feeds the request metrics.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, strconv.Itoa(status), elapsed)
		}
		s.logger.Debug("request served",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":     "flowstudio-dev",
		"version": strings.TrimSpace(flowstudio.Version),
		"backend": s.backend,
	})
}

// observe records the outcome of a repository call and returns err unchanged.
func (s *Server) observe(op string, err error) error {
	if s.metrics != nil {
		s.metrics.ObserveRepo(s.backend, op, err)
	}
	return err
}

// assistant returns the assistant_id query parameter, failing the request when missing.
func (s *Server) assistant(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.URL.Query().Get("assistant_id"))
	if id == "" {
		s.fail(w, r, domain.NewValidationError("assistant_id", "assistant_id is required"))
		return "", false
	}
	return id, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.fail(w, r, &domain.ValidationError{Field: "body", Reason: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

// fail maps err to a status code and writes {"detail": message}.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
