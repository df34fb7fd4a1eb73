package expression

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/jmespath/go-jmespath"
	"github.com/patrickmn/go-cache"
)

const (
	// DefaultCacheSize bounds the number of compiled expressions kept in memory.
	DefaultCacheSize = 256
	// DefaultCacheTTL is how long an unused compiled expression stays cached.
	DefaultCacheTTL = 10 * time.Minute
)

// Evaluator compiles and runs expressions. It is safe for concurrent use.
type Evaluator struct {
	compiled  *cache.Cache
	cacheSize int
	logger    *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithCacheSize bounds the compiled-expression cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(e *Evaluator) {
		e.cacheSize = n
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		cacheSize: DefaultCacheSize,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.compiled = cache.New(DefaultCacheTTL, 2*DefaultCacheTTL)
	return e
}

// Evaluate runs expr against doc and returns the result in the JSON value model.
// Both parse and runtime failures are reported as *domain.EvaluationError.
func (e *Evaluator) Evaluate(expr string, doc any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &domain.EvaluationError{Expression: expr, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	normalized, err := normalize(doc)
	if err != nil {
		return nil, &domain.EvaluationError{Expression: expr, Message: err.Error()}
	}
	return e.search(expr, normalized)
}

// EvaluateJSON runs expr against a raw JSON document.
func (e *Evaluator) EvaluateJSON(expr string, raw []byte) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &domain.EvaluationError{Expression: expr, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, &domain.EvaluationError{Expression: expr, Message: fmt.Sprintf("invalid JSON document: %v", err)}
	}
	return e.search(expr, doc)
}

// EvaluateBool runs expr against doc and reduces the result with JMESPath truthiness.
func (e *Evaluator) EvaluateBool(expr string, doc any) (bool, error) {
	res, err := e.Evaluate(expr, doc)
	if err != nil {
		return false, err
	}
	return Truthy(res), nil
}

// Compile checks that expr parses, without evaluating it.
func (e *Evaluator) Compile(expr string) error {
	_, err := e.compile(expr)
	return err
}

// compiled is a parsed expression. ordered marks expressions whose ordering
// comparisons were rewritten to enforce typed operands.
type compiled struct {
	query   *jmespath.JMESPath
	ordered bool
}

func (e *Evaluator) search(expr string, doc any) (any, error) {
	c, err := e.compile(expr)
	if err != nil {
		return nil, err
	}
	res, err := c.query.Search(doc)
	if err != nil {
		msg := err.Error()
		if c.ordered && strings.Contains(msg, sortTypeError) {
			msg = "type mismatch in comparison: ordering needs two numbers or two strings"
		}
		return nil, &domain.EvaluationError{Expression: expr, Message: msg}
	}
	return res, nil
}

func (e *Evaluator) compile(expr string) (*compiled, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &domain.EvaluationError{Expression: expr, Message: "expression is empty"}
	}

	if e.cacheSize > 0 {
		if c, ok := e.compiled.Get(expr); ok {
			return c.(*compiled), nil
		}
	}

	query, err := jmespath.Compile(expr)
	if err != nil {
		return nil, &domain.EvaluationError{Expression: expr, Message: syntaxMessage(err)}
	}
	rewritten, ordered, err := rewriteOrdering(expr)
	if err != nil {
		return nil, &domain.EvaluationError{Expression: expr, Message: fmt.Sprintf("unsupported comparison: %v", err)}
	}
	if ordered {
		if query, err = jmespath.Compile(rewritten); err != nil {
			return nil, &domain.EvaluationError{Expression: expr, Message: fmt.Sprintf("unsupported comparison: %v", err)}
		}
	}
	c := &compiled{query: query, ordered: ordered}

	if e.cacheSize > 0 {
		if e.compiled.ItemCount() >= e.cacheSize {
			e.logger.Debug("expression cache full, flushing", "size", e.cacheSize)
			e.compiled.Flush()
		}
		e.compiled.SetDefault(expr, c)
	}
	return c, nil
}

func syntaxMessage(err error) string {
	var syn jmespath.SyntaxError
	if errors.As(err, &syn) {
		return fmt.Sprintf("syntax error: %s\n%s", syn.Error(), syn.HighlightLocation())
	}
	return err.Error()
}

// normalize converts doc into the JSON value model through a JSON round trip.
func normalize(doc any) (any, error) {
	switch v := doc.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return decode(v)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not JSON-serializable: %w", err)
	}
	return decode(raw)
}

func decode(raw []byte) (any, error) {
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("invalid JSON document: %w", err)
	}
	return out, nil
}

// Truthy reports whether v is true under JMESPath rules.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
