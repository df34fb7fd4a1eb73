package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/internal/metrics"
	"github.com/aretw0/flowstudio/pkg/domain"
)

// Store is the part of graph.Store a controller needs.
type Store interface {
	Snapshot() domain.Flow
	AppendConsole(lines ...domain.ConsoleLine)
}

// EventKind discriminates Event.
type EventKind string

const (
	EventState        EventKind = "state"
	EventConsole      EventKind = "console"
	EventNotification EventKind = "notification"
)

// Event is emitted for every state change, console line and notification.
type Event struct {
	Kind         EventKind
	From, To     State
	Line         domain.ConsoleLine
	Notification domain.Notification
}

// Controller runs one flow at a time against the executor.
type Controller struct {
	store       Store
	dialer      Dialer
	url         string
	assistantID string
	metrics     *metrics.Collector
	logger      *slog.Logger
	beforeStart func()

	mu        sync.Mutex
	state     State
	transport Transport
	closing   bool   // set when we close the transport ourselves
	attempt   uint64 // bumped by every Connect and Cancel
	done      chan struct{}

	events        chan Event
	notifications chan domain.Notification
}

// Option configures a Controller.
type Option func(*Controller)

// WithDialer replaces the WebSocket dialer.
func WithDialer(d Dialer) Option {
	return func(c *Controller) {
		c.dialer = d
	}
}

// WithAssistantID sets the assistant sent with every start request.
func WithAssistantID(id string) Option {
	return func(c *Controller) {
		c.assistantID = id
	}
}

// WithMetrics records run outcomes and console lines.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger sets the controller logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithBeforeStart runs fn at the top of every Start, before the flow is
// snapshotted. Editors use it to apply pending canvas changes.
func WithBeforeStart(fn func()) Option {
	return func(c *Controller) {
		c.beforeStart = fn
	}
}

// WithBuffer sets the capacity of the event and notification channels.
func WithBuffer(n int) Option {
	return func(c *Controller) {
		c.events = make(chan Event, n)
		c.notifications = make(chan domain.Notification, n)
	}
}

// NewController creates a controller that executes the flow held by store on the executor at url.
func NewController(store Store, url string, opts ...Option) *Controller {
	c := &Controller{
		store:         store,
		url:           url,
		dialer:        NewWebSocketDialer(),
		logger:        logging.NewNop(),
		events:        make(chan Event, 256),
		notifications: make(chan domain.Notification, 64),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Events returns the event stream. Events are dropped when nobody keeps up.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Notifications returns user-facing outcomes and errors.
func (c *Controller) Notifications() <-chan domain.Notification {
	return c.notifications
}

// Done is closed when the current connection ends: the run reached a terminal
// state, the transport dropped, or the run was cancelled.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Connect opens the transport. On failure the controller moves to Failed;
// it never retries.
func (c *Controller) Connect(ctx context.Context) error {
	c.mu.Lock()
	if err := c.transitionLocked(Connecting); err != nil {
		c.mu.Unlock()
		return err
	}
	c.closing = false
	c.done = make(chan struct{})
	c.attempt++
	gen := c.attempt
	c.mu.Unlock()

	t, err := c.dialer.Dial(ctx, c.url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.attempt != gen || c.state != Connecting {
		// Cancelled while dialing, possibly followed by a newer Connect.
		if t != nil {
			_ = t.Close()
		}
		return fmt.Errorf("connect: %w", context.Canceled)
	}
	if err != nil {
		terr := &domain.TransportError{Op: "connect " + c.url, Err: err}
		c.appendLocked(domain.ConsoleError, "connection failed: "+err.Error())
		c.notifyLocked(domain.NotifyError, "Could not connect to the executor", terr)
		c.countRunLocked("rejected")
		_ = c.transitionLocked(Failed)
		c.finishLocked()
		return terr
	}

	c.transport = t
	_ = c.transitionLocked(Connected)
	c.logger.Debug("executor connected", "url", c.url)

	go c.readLoop(t)
	return nil
}

// Start sends the start request for the current flow. The entry node is
// resolved from a store snapshot; when none qualifies, nothing is sent and the
// state does not change.
func (c *Controller) Start(ctx context.Context, input map[string]any) error {
	if c.beforeStart != nil {
		c.beforeStart()
	}

	c.mu.Lock()
	if c.state != Connected {
		err := transitionError(c.state, Running)
		c.mu.Unlock()
		return err
	}

	flow := c.store.Snapshot()
	entry, err := flow.ResolveEntryNode()
	if err != nil {
		c.notifyLocked(domain.NotifyError, "Add a start or trigger node before running", err)
		c.mu.Unlock()
		return err
	}
	if input == nil {
		input = map[string]any{}
	}

	t := c.transport
	_ = c.transitionLocked(Running)
	if c.metrics != nil {
		c.metrics.ActiveRuns.Inc()
	}
	c.appendLocked(domain.ConsoleInfo, fmt.Sprintf("starting run at %s", describe(entry)))
	c.mu.Unlock()

	req := StartRequest{
		Type:        TypeStart,
		Input:       input,
		AssistantID: c.assistantID,
		EntryNodeID: entry.ID,
	}
	if err := t.Send(ctx, req); err != nil {
		terr := &domain.TransportError{Op: "send start", Err: err}

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.state == Running {
			c.appendLocked(domain.ConsoleError, "could not send start request: "+err.Error())
			c.notifyLocked(domain.NotifyError, "Run could not be started", terr)
			c.endRunLocked(Failed, "failed")
			c.closeTransportLocked()
		}
		return terr
	}
	return nil
}

// Cancel closes the transport before a terminal message arrives. The
// controller returns to Idle and exactly one error line is appended.
func (c *Controller) Cancel() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Connecting, Connected, Running:
	default:
		return transitionError(c.state, Idle)
	}

	wasRunning := c.state == Running
	c.attempt++
	c.closeTransportLocked()
	c.appendLocked(domain.ConsoleError, "execution cancelled")
	c.notifyLocked(domain.NotifyWarning, "Execution cancelled", nil)
	if wasRunning {
		c.endRunLocked(Idle, "cancelled")
	} else {
		_ = c.transitionLocked(Idle)
		c.finishLocked()
	}
	return nil
}

// Reset returns a finished controller to Idle and releases the transport.
func (c *Controller) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Terminal() {
		return transitionError(c.state, Idle)
	}
	c.closeTransportLocked()
	return c.transitionLocked(Idle)
}

func (c *Controller) readLoop(t Transport) {
	for {
		raw, err := t.Receive()
		if err != nil {
			c.handleClosed(t, err)
			return
		}
		c.handleFrame(t, raw)
	}
}

func (c *Controller) handleFrame(t Transport, raw []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != t || c.closing {
		return
	}

	msg, err := Decode(raw)
	if err != nil {
		c.logger.Warn("dropping executor frame", "error", err)
		c.appendLocked(domain.ConsoleError, err.Error())
		return
	}

	kind, text, outcome := Classify(msg)
	c.appendLocked(kind, text)

	if c.state != Running {
		return
	}
	switch outcome {
	case Succeeded:
		c.notifyLocked(domain.NotifySuccess, "Execution completed", nil)
		c.endRunLocked(Completed, "completed")
	case Aborted:
		c.notifyLocked(domain.NotifyError, "Execution failed: "+text, errors.New(text))
		c.endRunLocked(Failed, "failed")
	}
}

func (c *Controller) handleClosed(t Transport, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transport != t || c.closing {
		return
	}

	switch c.state {
	case Running:
		reason := "connection closed before the run finished"
		if !IsNormalClose(err) {
			reason = fmt.Sprintf("%s: %v", reason, err)
		}
		c.appendLocked(domain.ConsoleError, reason)
		c.notifyLocked(domain.NotifyError, "Connection to the executor was lost", &domain.TransportError{Op: "receive", Err: err})
		c.endRunLocked(Failed, "failed")
	case Connected:
		c.appendLocked(domain.ConsoleError, "connection closed")
		c.notifyLocked(domain.NotifyError, "Connection to the executor was lost", &domain.TransportError{Op: "receive", Err: err})
		_ = c.transitionLocked(Failed)
		c.finishLocked()
	default:
		// Server closing after a terminal message.
		c.logger.Debug("executor closed connection", "state", c.state.String())
	}
}

// endRunLocked leaves Running for to.
func (c *Controller) endRunLocked(to State, outcome string) {
	if err := c.transitionLocked(to); err != nil {
		c.logger.Error("unexpected transition", "error", err)
		return
	}
	c.countRunLocked(outcome)
	if c.metrics != nil {
		c.metrics.ActiveRuns.Dec()
	}
	c.finishLocked()
}

func (c *Controller) finishLocked() {
	select {
	case <-c.done:
	default:
		close(c.done)
	}
}

func (c *Controller) closeTransportLocked() {
	if c.transport == nil {
		return
	}
	c.closing = true
	if err := c.transport.Close(); err != nil {
		c.logger.Debug("transport close", "error", err)
	}
	c.transport = nil
}

func (c *Controller) transitionLocked(to State) error {
	from := c.state
	if !CanTransition(from, to) {
		return transitionError(from, to)
	}
	c.state = to
	c.logger.Debug("execution state", "from", from.String(), "to", to.String())
	c.emitLocked(Event{Kind: EventState, From: from, To: to})
	return nil
}

func (c *Controller) appendLocked(kind domain.ConsoleKind, text string) {
	line := domain.NewConsoleLine(kind, text)
	c.store.AppendConsole(line)
	if c.metrics != nil {
		c.metrics.ConsoleLines.WithLabelValues(string(kind)).Inc()
	}
	c.emitLocked(Event{Kind: EventConsole, Line: line})
}

func (c *Controller) notifyLocked(level domain.NotificationLevel, msg string, err error) {
	n := domain.NewNotification(level, msg, err)
	select {
	case c.notifications <- n:
	default:
		c.logger.Warn("notification buffer full, dropping", "message", msg)
	}
	c.emitLocked(Event{Kind: EventNotification, Notification: n})
}

func (c *Controller) emitLocked(e Event) {
	select {
	case c.events <- e:
	default:
	}
}

func (c *Controller) countRunLocked(outcome string) {
	if c.metrics != nil {
		c.metrics.Runs.WithLabelValues(outcome).Inc()
	}
}

func describe(n domain.Node) string {
	if n.Data.Label != "" {
		return fmt.Sprintf("%s (%s)", n.Data.Label, n.ID)
	}
	return n.ID
}
