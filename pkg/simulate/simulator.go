package simulate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/execution"
	"github.com/aretw0/flowstudio/pkg/expression"
)

// DefaultMaxSteps bounds a walk over a cyclic flow.
const DefaultMaxSteps = 100

// Emit delivers one protocol message. A non-nil error aborts the walk.
type Emit func(execution.Message) error

// Simulator performs dry runs.
type Simulator struct {
	evaluator *expression.Evaluator
	maxSteps  int
	logger    *slog.Logger
}

type Option func(*Simulator)

// WithEvaluator sets the evaluator used for conditional and transform nodes.
func WithEvaluator(e *expression.Evaluator) Option {
	return func(s *Simulator) {
		s.evaluator = e
	}
}

// WithMaxSteps sets the maximum number of node visits.
func WithMaxSteps(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.maxSteps = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = logger
	}
}

// New creates a Simulator.
func New(opts ...Option) *Simulator {
	s := &Simulator{
		maxSteps: DefaultMaxSteps,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.evaluator == nil {
		s.evaluator = expression.New(expression.WithLogger(s.logger))
	}
	return s
}

// ErrStepLimit is reported when a walk visits more nodes than allowed.
var ErrStepLimit = errors.New("step limit reached")

// Run walks flow from the requested entry node and emits protocol messages.
//
// The payload seen by expressions is {"input": <start input>, "output": <last transform result>}.
// Node failures are reported as node_error and end their branch; the run still completes.
// Run returns ctx.Err() when cancelled, without a complete message.
func (s *Simulator) Run(ctx context.Context, flow domain.Flow, req execution.StartRequest, emit Emit) error {
	entry, err := s.entry(flow, req.EntryNodeID)
	if err != nil {
		return emit(execution.Message{Type: execution.TypeError, Message: err.Error()})
	}

	name := flow.Name
	if name == "" {
		name = "untitled flow"
	}
	if err := emit(execution.Message{Type: execution.TypeInfo, Message: fmt.Sprintf("dry run of %s from %s", name, entry.ID)}); err != nil {
		return err
	}

	w := &walk{
		sim:     s,
		flow:    flow,
		emit:    emit,
		payload: map[string]any{"input": nonNilMap(req.Input), "output": nil},
		visited: make(map[string]bool),
	}

	queue := []string{entry.ID}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		id := queue[0]
		queue = queue[1:]
		if w.visited[id] {
			continue
		}
		if w.steps >= s.maxSteps {
			return emit(execution.Message{Type: execution.TypeError, Message: fmt.Sprintf("%v after %d nodes", ErrStepLimit, w.steps)})
		}
		node, ok := flow.Node(id)
		if !ok {
			continue
		}

		next, err := w.visit(node)
		if err != nil {
			return err
		}
		queue = append(queue, next...)
	}

	success := true
	s.logger.Debug("dry run finished", "flow", name, "visited", w.steps, "node_errors", w.failures)
	return emit(execution.Message{
		Type:    execution.TypeComplete,
		Message: fmt.Sprintf("dry run completed: %d node(s) visited, %d failed", w.steps, w.failures),
		Success: &success,
	})
}

func (s *Simulator) entry(flow domain.Flow, requested string) (domain.Node, error) {
	if requested != "" {
		if n, ok := flow.Node(requested); ok {
			return n, nil
		}
		return domain.Node{}, fmt.Errorf("entry node %q not found", requested)
	}
	return flow.ResolveEntryNode()
}

type walk struct {
	sim      *Simulator
	flow     domain.Flow
	emit     Emit
	payload  map[string]any
	visited  map[string]bool
	steps    int
	failures int
}

// visit reports one node and returns the ids of the nodes to visit next.
func (w *walk) visit(node domain.Node) ([]string, error) {
	w.visited[node.ID] = true
	w.steps++

	label := node.Data.Label
	if label == "" {
		label = string(node.Type)
	}
	if err := w.emit(execution.Message{Type: execution.TypeNodeStart, NodeID: node.ID, Message: label}); err != nil {
		return nil, err
	}

	cfg, err := node.TypedConfig()
	if err != nil {
		return nil, w.fail(node, err)
	}

	var (
		next   []string
		report []execution.Message
	)
	switch c := cfg.(type) {
	case domain.StartConfig:
		report = append(report, w.info(node, "input received"))
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.TriggerConfig:
		report = append(report, w.info(node, describeTrigger(c)))
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.HTTPConfig:
		method := strings.ToUpper(c.Method)
		if method == "" {
			method = "GET"
		}
		report = append(report, w.info(node, fmt.Sprintf("would call %s %s", method, c.URL)))
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.LLMConfig:
		model := c.Model
		if c.Provider != "" {
			model = c.Provider + "/" + model
		}
		report = append(report, execution.Message{
			Type:    execution.TypeChunk,
			NodeID:  node.ID,
			Content: fmt.Sprintf("would prompt %s with: %s", model, c.Prompt),
		})
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.TransformConfig:
		out, err := w.sim.evaluator.Evaluate(c.Expression, w.payload)
		if err != nil {
			return nil, w.fail(node, err)
		}
		w.payload["output"] = out
		report = append(report, w.info(node, "output = "+compact(out)))
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.ConditionalConfig:
		ok, err := w.sim.evaluator.EvaluateBool(c.Condition, w.payload)
		if err != nil {
			return nil, w.fail(node, err)
		}
		branch := "false"
		if ok {
			branch = "true"
		}
		report = append(report, w.info(node, fmt.Sprintf("condition %s is %s", c.Condition, branch)))
		next = targets(w.flow.Outgoing(node.ID), branch)
	case domain.ParallelConfig:
		next = targets(w.flow.Outgoing(node.ID), "")
		report = append(report, w.info(node, fmt.Sprintf("fanning out to %d branch(es)", len(next))))
	case domain.WaitConfig:
		report = append(report, w.info(node, fmt.Sprintf("would wait %s", c.Duration())))
		next = targets(w.flow.Outgoing(node.ID), "")
	case domain.SubflowConfig:
		report = append(report, w.info(node, fmt.Sprintf("would run subflow %s", c.FlowID)))
		next = targets(w.flow.Outgoing(node.ID), "")
	}

	for _, m := range report {
		if err := w.emit(m); err != nil {
			return nil, err
		}
	}
	if err := w.emit(execution.Message{Type: execution.TypeNodeComplete, NodeID: node.ID}); err != nil {
		return nil, err
	}
	return next, nil
}

func (w *walk) info(node domain.Node, text string) execution.Message {
	return execution.Message{Type: execution.TypeInfo, NodeID: node.ID, Message: text}
}

// fail reports a node error; the returned error is only set when emitting failed.
func (w *walk) fail(node domain.Node, cause error) error {
	w.failures++
	w.sim.logger.Debug("dry run node failed", "node", node.ID, "err", cause)
	return w.emit(execution.Message{Type: execution.TypeNodeError, NodeID: node.ID, Message: cause.Error()})
}

// targets returns the edge targets, keeping only the edges leaving through handle when set.
func targets(edges []domain.Edge, handle string) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		if handle != "" && e.SourceHandle != handle {
			continue
		}
		out = append(out, e.Target)
	}
	return out
}

func describeTrigger(c domain.TriggerConfig) string {
	switch c.TriggerType {
	case "schedule":
		return fmt.Sprintf("fired by schedule %q", c.Cron)
	case "webhook":
		return fmt.Sprintf("fired by webhook %s", c.WebhookPath)
	default:
		return "fired manually"
	}
}

func compact(v any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
