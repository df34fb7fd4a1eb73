package graph

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/flowstudio/internal/logging"
	"github.com/aretw0/flowstudio/pkg/domain"
)

const maxDiagnostics = 100

// ChangeKind identifies the part of the store a mutation touched.
type ChangeKind string

const (
	ChangeNodes     ChangeKind = "nodes"
	ChangeEdges     ChangeKind = "edges"
	ChangeFlow      ChangeKind = "flow"
	ChangeSelection ChangeKind = "selection"
	ChangeConsole   ChangeKind = "console"
)

// Change is delivered to subscribers after a mutation.
type Change struct {
	Kind ChangeKind
}

// Diagnostic records input the store repaired or rejected instead of failing.
type Diagnostic struct {
	Time    time.Time
	Message string
}

// FlowPatch updates flow metadata. Nil fields are left untouched.
// An empty EntryNodeID clears the pinned entry node.
type FlowPatch struct {
	Name        *string
	EntryNodeID *string
}

// Store is the in-memory state of one flow being edited. It is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	flow        domain.Flow
	selection   string
	console     []domain.ConsoleLine
	diagnostics []Diagnostic

	consoleLimit int
	subBuffer    int
	logger       *slog.Logger

	subMu sync.RWMutex
	subs  map[chan Change]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithConsoleLimit bounds the console; the oldest lines are evicted first.
// Zero (the default) keeps every line.
func WithConsoleLimit(n int) Option {
	return func(s *Store) {
		s.consoleLimit = n
	}
}

// WithSubscriberBuffer sets the channel size handed out by Subscribe.
func WithSubscriberBuffer(n int) Option {
	return func(s *Store) {
		s.subBuffer = n
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		flow:      domain.Flow{Nodes: []domain.Node{}, Edges: []domain.Edge{}},
		subBuffer: 16,
		logger:    logging.NewNop(),
		subs:      make(map[chan Change]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNodes replaces the node list.
// Duplicate ids are dropped, and edges, selection or entry that referenced a removed node are cleared.
func (s *Store) SetNodes(nodes []domain.Node) {
	s.mu.Lock()
	changes := s.setNodesLocked(nodes)
	s.mu.Unlock()

	s.notify(changes...)
}

func (s *Store) setNodesLocked(nodes []domain.Node) []ChangeKind {
	seen := make(map[string]struct{}, len(nodes))
	clean := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if _, dup := seen[n.ID]; dup {
			s.diagnoseLocked(fmt.Sprintf("duplicate node id %q dropped", n.ID))
			continue
		}
		seen[n.ID] = struct{}{}
		clean = append(clean, n.Clone())
	}
	s.flow.Nodes = clean

	changes := []ChangeKind{ChangeNodes}

	if pruned := s.pruneEdgesLocked(s.flow.Edges); len(pruned) != len(s.flow.Edges) {
		s.flow.Edges = pruned
		changes = append(changes, ChangeEdges)
	}
	if s.selection != "" {
		if _, ok := seen[s.selection]; !ok {
			s.selection = ""
			changes = append(changes, ChangeSelection)
		}
	}
	if s.flow.EntryNodeID != "" {
		if _, ok := seen[s.flow.EntryNodeID]; !ok {
			s.flow.EntryNodeID = ""
			changes = append(changes, ChangeFlow)
		}
	}
	return changes
}

// SetEdges replaces the edge list, dropping edges whose endpoints do not exist
// and normalizing their style.
func (s *Store) SetEdges(edges []domain.Edge) {
	s.mu.Lock()
	s.flow.Edges = s.pruneEdgesLocked(edges)
	s.mu.Unlock()

	s.notify(ChangeEdges)
}

func (s *Store) pruneEdgesLocked(edges []domain.Edge) []domain.Edge {
	ids := make(map[string]struct{}, len(s.flow.Nodes))
	for _, n := range s.flow.Nodes {
		ids[n.ID] = struct{}{}
	}

	out := make([]domain.Edge, 0, len(edges))
	for _, e := range edges {
		_, okSource := ids[e.Source]
		_, okTarget := ids[e.Target]
		if !okSource || !okTarget {
			s.logger.Debug("dropping dangling edge", "edge_id", e.ID, "source", e.Source, "target", e.Target)
			s.diagnoseLocked(fmt.Sprintf("dangling edge %q (%s -> %s) dropped", e.ID, e.Source, e.Target))
			continue
		}
		out = append(out, e.Normalized())
	}
	return out
}

// SetFlow updates flow metadata.
// An entry node that does not reference a start or trigger node is rejected
// with a *domain.ValidationError and nothing changes.
func (s *Store) SetFlow(patch FlowPatch) error {
	s.mu.Lock()
	var changed bool
	if patch.EntryNodeID != nil && *patch.EntryNodeID != "" {
		n, ok := s.flow.Node(*patch.EntryNodeID)
		if !ok {
			s.mu.Unlock()
			return &domain.ValidationError{Field: "entryNodeId", Reason: "node does not exist", Value: *patch.EntryNodeID}
		}
		if !n.Type.IsEntry() {
			s.mu.Unlock()
			return &domain.ValidationError{Field: "entryNodeId", Reason: fmt.Sprintf("node type %s cannot start a run", n.Type), Value: *patch.EntryNodeID}
		}
	}
	if patch.Name != nil && *patch.Name != s.flow.Name {
		s.flow.Name = *patch.Name
		changed = true
	}
	if patch.EntryNodeID != nil && *patch.EntryNodeID != s.flow.EntryNodeID {
		s.flow.EntryNodeID = *patch.EntryNodeID
		changed = true
	}
	s.mu.Unlock()

	if changed {
		s.notify(ChangeFlow)
	}
	return nil
}

// SetSelection selects a node. Selecting an unknown id (or "") clears the selection.
func (s *Store) SetSelection(id string) {
	s.mu.Lock()
	if !s.flow.HasNode(id) {
		id = ""
	}
	changed := s.selection != id
	s.selection = id
	s.mu.Unlock()

	if changed {
		s.notify(ChangeSelection)
	}
}

// AppendConsole appends lines in the given order.
func (s *Store) AppendConsole(lines ...domain.ConsoleLine) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	s.console = append(s.console, lines...)
	if s.consoleLimit > 0 && len(s.console) > s.consoleLimit {
		evict := len(s.console) - s.consoleLimit
		s.console = append([]domain.ConsoleLine(nil), s.console[evict:]...)
	}
	s.mu.Unlock()

	s.notify(ChangeConsole)
}

// ClearConsole removes every console line.
func (s *Store) ClearConsole() {
	s.mu.Lock()
	s.console = nil
	s.mu.Unlock()

	s.notify(ChangeConsole)
}

// Replace swaps the whole flow, as when a saved flow is opened.
// The selection is cleared; the console is kept.
func (s *Store) Replace(flow domain.Flow) {
	s.mu.Lock()
	prev := s.flow.Clone()

	s.flow.Name = flow.Name
	s.flow.EntryNodeID = flow.EntryNodeID
	s.flow.Edges = nil
	s.setNodesLocked(flow.Nodes)
	s.flow.Edges = s.pruneEdgesLocked(flow.Edges)
	if s.flow.EntryNodeID != "" {
		if n, ok := s.flow.Node(s.flow.EntryNodeID); !ok || !n.Type.IsEntry() {
			s.diagnoseLocked(fmt.Sprintf("entry node %q is not a start or trigger node, cleared", s.flow.EntryNodeID))
			s.flow.EntryNodeID = ""
		}
	}
	hadSelection := s.selection != ""
	s.selection = ""
	next := s.flow.Clone()
	s.mu.Unlock()

	var changes []ChangeKind
	diff := domain.Diff(&prev, &next)
	if diff.NodesChanged() {
		changes = append(changes, ChangeNodes)
	}
	if diff.EdgesChanged() {
		changes = append(changes, ChangeEdges)
	}
	if diff != nil && (diff.NameChanged || diff.EntryChanged) {
		changes = append(changes, ChangeFlow)
	}
	if hadSelection {
		changes = append(changes, ChangeSelection)
	}
	s.notify(changes...)
}

// UpdateNodeConfig replaces the configuration of one node.
func (s *Store) UpdateNodeConfig(id string, config map[string]any) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	s.flow.Nodes[idx].Data.Config = domain.CloneMap(config)
	s.mu.Unlock()

	s.notify(ChangeNodes)
	return nil
}

// UpdateNodeLabel renames one node.
func (s *Store) UpdateNodeLabel(id, label string) error {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	s.flow.Nodes[idx].Data.Label = label
	s.mu.Unlock()

	s.notify(ChangeNodes)
	return nil
}

func (s *Store) indexLocked(id string) int {
	for i, n := range s.flow.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Snapshot returns a deep copy of the flow.
func (s *Store) Snapshot() domain.Flow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flow.Clone()
}

// Nodes returns a deep copy of the node list.
func (s *Store) Nodes() []domain.Node {
	return s.Snapshot().Nodes
}

// Edges returns a copy of the edge list.
func (s *Store) Edges() []domain.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Edge, len(s.flow.Edges))
	for i, e := range s.flow.Edges {
		out[i] = e.Clone()
	}
	return out
}

// Selection returns the selected node id, if any.
func (s *Store) Selection() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection, s.selection != ""
}

// SelectedNode returns a copy of the selected node, if any.
func (s *Store) SelectedNode() (domain.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selection == "" {
		return domain.Node{}, false
	}
	n, ok := s.flow.Node(s.selection)
	return n.Clone(), ok
}

// Console returns a copy of the console lines in arrival order.
func (s *Store) Console() []domain.ConsoleLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ConsoleLine{}, s.console...)
}

// Diagnostics returns the most recent repairs and rejections, oldest first.
func (s *Store) Diagnostics() []Diagnostic {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Diagnostic{}, s.diagnostics...)
}

func (s *Store) diagnose(msg string) {
	s.mu.Lock()
	s.diagnoseLocked(msg)
	s.mu.Unlock()
}

func (s *Store) diagnoseLocked(msg string) {
	s.logger.Warn("graph diagnostic", "message", msg)
	s.diagnostics = append(s.diagnostics, Diagnostic{Time: time.Now(), Message: msg})
	if len(s.diagnostics) > maxDiagnostics {
		s.diagnostics = s.diagnostics[len(s.diagnostics)-maxDiagnostics:]
	}
}

// Subscribe returns a channel of change notifications and a function to stop them.
// Notifications are dropped for a subscriber whose buffer is full.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	ch := make(chan Change, s.subBuffer)
	s.subs[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, ch)
			close(ch)
		})
	}
}

func (s *Store) notify(kinds ...ChangeKind) {
	if len(kinds) == 0 {
		return
	}
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for ch := range s.subs {
		for _, k := range kinds {
			select {
			case ch <- Change{Kind: k}:
			default:
				s.logger.Debug("subscriber buffer full, dropping change", "kind", k)
			}
		}
	}
}
