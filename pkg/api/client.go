package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/sony/gobreaker"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// maxErrorBody bounds how much of an error response is kept in the error message.
const maxErrorBody = 512

// Client talks to the backend REST surface.
type Client struct {
	baseURL     *url.URL
	assistantID string
	httpClient  *http.Client
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithAssistantID scopes every call to an assistant.
func WithAssistantID(id string) Option {
	return func(c *Client) {
		c.assistantID = id
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(settings gobreaker.Settings) Option {
	return func(c *Client) {
		c.breaker = gobreaker.NewCircuitBreaker(withSuccessRule(settings))
	}
}

// DefaultBreakerSettings trips after five consecutive backend failures and
// probes again after thirty seconds.
func DefaultBreakerSettings(logger *slog.Logger) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        "flowstudio-api",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	}
}

// withSuccessRule makes client errors (4xx) count as successes: they say
// nothing about the backend's health.
func withSuccessRule(s gobreaker.Settings) gobreaker.Settings {
	s.IsSuccessful = func(err error) bool {
		if err == nil {
			return true
		}
		var te *domain.TransportError
		return errors.As(err, &te) && te.StatusCode >= 400 && te.StatusCode < 500
	}
	return s
}

// New creates a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		c.breaker = gobreaker.NewCircuitBreaker(withSuccessRule(DefaultBreakerSettings(c.logger)))
	}
	return c, nil
}

// AssistantID returns the assistant the client is scoped to.
func (c *Client) AssistantID() string {
	return c.assistantID
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// ExecuteURL returns the WebSocket URL of the execution endpoint.
func (c *Client) ExecuteURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/execute"
	return u.String()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query == nil {
		query = url.Values{}
	}
	if c.assistantID != "" && query.Get("assistant_id") == "" {
		query.Set("assistant_id", c.assistantID)
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, op, method, c.endpoint(path, query), body, out)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &domain.TransportError{Op: op, Err: err}
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("api call", "op", op, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: statusError(resp)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if raw, ok := out.(*[]byte); ok {
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: err}
		}
		*raw = b
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &domain.TransportError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// statusError extracts the backend's message ({"detail": ...} or {"error": ...}) when present.
func statusError(resp *http.Response) error {
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var body struct {
		Detail  any    `json:"detail"`
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Detail != nil:
			return fmt.Errorf("%v", body.Detail)
		case body.Error != "":
			return errors.New(body.Error)
		case body.Message != "":
			return errors.New(body.Message)
		}
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return errors.New(text)
	}
	return errors.New(http.StatusText(resp.StatusCode))
}

// decodeList accepts either a bare array or an object wrapping it under key.
func decodeList[T any](raw []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return []T{}, nil
	}
	if err := json.Unmarshal(inner, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (c *Client) getList(ctx context.Context, path string, query url.Values, key string, out any) error {
	var raw []byte
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return err
	}
	var err error
	switch dst := out.(type) {
	case *[]domain.Credential:
		*dst, err = decodeList[domain.Credential](raw, key)
	case *[]domain.Component:
		*dst, err = decodeList[domain.Component](raw, key)
	case *[]domain.TriggerLog:
		*dst, err = decodeList[domain.TriggerLog](raw, key)
	default:
		err = fmt.Errorf("unsupported list type %T", out)
	}
	if err != nil {
		return &domain.TransportError{Op: "GET " + path, StatusCode: http.StatusOK, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
