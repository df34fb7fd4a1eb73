// Package sanitize strips secrets from node configurations before they are shared.
package sanitize

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
)

// DefaultDenyKeys are removed from every public configuration, at any depth.
var DefaultDenyKeys = []string{
	domain.KeyCredentialID,
	domain.KeyConnectorID,
	"api_key",
	"token",
	"password",
	"access_token",
	"refresh_token",
}

// Input describes a node configuration about to be published.
type Input struct {
	NodeType    domain.NodeType
	Name        string
	Description string
	Config      map[string]any
	Tags        []string
	IsPublic    bool
}

// Result is the shareable component derived from an Input.
type Result struct {
	Component domain.Component
	// Sanitized is true when the public sanitization pass ran.
	Sanitized bool
	Warning   domain.SanitizationWarning
}

// Sanitizer removes credential references and secret values from configurations.
// It is safe for concurrent use.
type Sanitizer struct {
	mu       sync.RWMutex
	denyKeys map[string]struct{}
	patterns []*regexp.Regexp
	secrets  map[string]struct{}
	logger   *slog.Logger
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithDenyKeys extends the deny-list with extra keys (case-insensitive).
func WithDenyKeys(keys ...string) Option {
	return func(s *Sanitizer) {
		for _, k := range keys {
			s.denyKeys[strings.ToLower(k)] = struct{}{}
		}
	}
}

// WithDenyPatterns removes every key matching one of the regular expressions.
// It panics if a pattern does not compile.
func WithDenyPatterns(patterns ...string) Option {
	return func(s *Sanitizer) {
		for _, p := range patterns {
			s.patterns = append(s.patterns, regexp.MustCompile(p))
		}
	}
}

// WithLogger sets the sanitizer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sanitizer) {
		s.logger = logger
	}
}

// New creates a Sanitizer with the default deny-list.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{
		denyKeys: make(map[string]struct{}, len(DefaultDenyKeys)),
		secrets:  make(map[string]struct{}),
		logger:   logging.NewNop(),
	}
	for _, k := range DefaultDenyKeys {
		s.denyKeys[k] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterSecret marks value as secret: header entries carrying it are removed.
func (s *Sanitizer) RegisterSecret(value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.secrets[value] = struct{}{}
}

// RegisterSecrets registers every string value of data.
func (s *Sanitizer) RegisterSecrets(data map[string]any) {
	for _, v := range data {
		switch val := v.(type) {
		case string:
			s.RegisterSecret(val)
		case map[string]any:
			s.RegisterSecrets(val)
		}
	}
}

// Sanitize derives a component from in. The input is never mutated.
//
// Private components keep a verbatim copy of the configuration. Public components
// lose every deny-listed key and every header whose value is a registered secret.
func (s *Sanitizer) Sanitize(in Input) Result {
	comp := domain.Component{
		Name:        in.Name,
		Description: in.Description,
		NodeType:    in.NodeType,
		Tags:        domain.NormalizeTags(in.Tags),
		IsPublic:    in.IsPublic,
	}

	if !in.IsPublic {
		comp.Config = domain.CloneMap(in.Config)
		if comp.Config == nil {
			comp.Config = map[string]any{}
		}
		return Result{Component: comp}
	}

	cfg, removed := s.Config(in.Config)
	comp.Config = cfg
	if len(removed) > 0 {
		s.logger.Info("removed credential fields from public component", "name", in.Name, "paths", removed)
	}
	return Result{
		Component: comp,
		Sanitized: true,
		Warning:   domain.SanitizationWarning{RemovedPaths: removed},
	}
}

// Config returns a sanitized deep copy of cfg and the sorted paths that were removed.
func (s *Sanitizer) Config(cfg map[string]any) (map[string]any, []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var removed []string
	out := s.cleanMap(cfg, "", &removed)
	if out == nil {
		out = map[string]any{}
	}
	sort.Strings(removed)
	return out, removed
}

// IsClean reports whether cfg has nothing the public pass would remove.
func (s *Sanitizer) IsClean(cfg map[string]any) bool {
	_, removed := s.Config(cfg)
	return len(removed) == 0
}

func (s *Sanitizer) denied(key string) bool {
	if _, ok := s.denyKeys[strings.ToLower(key)]; ok {
		return true
	}
	for _, p := range s.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (s *Sanitizer) secret(value any) bool {
	str, ok := value.(string)
	if !ok {
		return false
	}
	if _, ok := s.secrets[str]; ok {
		return true
	}
	// "Bearer <token>" and similar schemes
	if _, rest, found := strings.Cut(str, " "); found {
		_, ok := s.secrets[strings.TrimSpace(rest)]
		return ok
	}
	return false
}

func (s *Sanitizer) cleanMap(m map[string]any, prefix string, removed *[]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		path := join(prefix, k)
		if s.denied(k) {
			*removed = append(*removed, path)
			continue
		}
		var (
			clean any
			keep  bool
		)
		if strings.EqualFold(k, domain.KeyHeaders) {
			clean, keep = s.cleanHeaders(v, path, removed)
		} else {
			clean, keep = s.cleanValue(v, path, removed)
		}
		if keep {
			out[k] = clean
		}
	}
	return out
}

// cleanValue copies v into the JSON value model while stripping denied keys.
// Typed containers are normalized first so nothing escapes the walk by type.
func (s *Sanitizer) cleanValue(v any, path string, removed *[]string) (any, bool) {
	switch val := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return val, true
	case map[string]any:
		return s.cleanMap(val, path, removed), true
	case []any:
		out := make([]any, 0, len(val))
		for i, item := range val {
			if clean, keep := s.cleanValue(item, fmt.Sprintf("%s[%d]", path, i), removed); keep {
				out = append(out, clean)
			}
		}
		return out, true
	}

	generic, err := jsonValue(v)
	if err != nil {
		s.logger.Warn("dropping unserializable config value", "path", path, "error", err)
		*removed = append(*removed, path)
		return nil, false
	}
	return s.cleanValue(generic, path, removed)
}

func (s *Sanitizer) cleanHeaders(v any, path string, removed *[]string) (any, bool) {
	headers, ok := v.(map[string]any)
	if !ok {
		generic, err := jsonValue(v)
		if err != nil {
			return s.cleanValue(v, path, removed)
		}
		if headers, ok = generic.(map[string]any); !ok {
			return s.cleanValue(generic, path, removed)
		}
	}

	out := make(map[string]any, len(headers))
	for k, hv := range headers {
		hpath := join(path, k)
		if s.denied(k) || s.secret(hv) {
			*removed = append(*removed, hpath)
			continue
		}
		if clean, keep := s.cleanValue(hv, hpath, removed); keep {
			out[k] = clean
		}
	}
	return out, true
}

// jsonValue converts v to the map[string]any / []any form encoding/json produces.
func jsonValue(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

var std = New()

// Component sanitizes in with the shared default Sanitizer.
func Component(in Input) Result {
	return std.Sanitize(in)
}
