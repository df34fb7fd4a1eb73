package graph

import (
	"sync"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
)

// DefaultSyncDelay is how long the Syncer waits for proposals to settle.
const DefaultSyncDelay = 300 * time.Millisecond

// Syncer debounces node and edge proposals from a visual editor.
// Only the latest proposal of each kind is applied once the delay elapses
// without further proposals. Flush applies pending proposals immediately.
type Syncer struct {
	store *Store
	delay time.Duration

	mu           sync.Mutex
	pendingNodes []domain.Node
	pendingEdges []domain.Edge
	hasNodes     bool
	hasEdges     bool
	timer        *time.Timer
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

// WithDelay sets the debounce delay.
func WithDelay(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		s.delay = d
	}
}

// NewSyncer creates a Syncer that applies proposals to store.
func NewSyncer(store *Store, opts ...SyncerOption) *Syncer {
	s := &Syncer{
		store: store,
		delay: DefaultSyncDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProposeNodes schedules nodes to replace the store's node list.
func (s *Syncer) ProposeNodes(nodes []domain.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingNodes = cloneNodes(nodes)
	s.hasNodes = true
	s.scheduleLocked()
}

// ProposeEdges schedules edges to replace the store's edge list.
func (s *Syncer) ProposeEdges(edges []domain.Edge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingEdges = append([]domain.Edge(nil), edges...)
	s.hasEdges = true
	s.scheduleLocked()
}

func (s *Syncer) scheduleLocked() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.Flush)
}

// Pending reports whether proposals are waiting to be applied.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasNodes || s.hasEdges
}

// Flush applies pending proposals now. Nodes are applied before edges so that
// edges to freshly added nodes are kept.
func (s *Syncer) Flush() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	nodes, hasNodes := s.pendingNodes, s.hasNodes
	edges, hasEdges := s.pendingEdges, s.hasEdges
	s.pendingNodes, s.pendingEdges = nil, nil
	s.hasNodes, s.hasEdges = false, false
	s.mu.Unlock()

	if hasNodes {
		s.store.SetNodes(nodes)
	}
	if hasEdges {
		s.store.SetEdges(edges)
	}
}

// Stop discards pending proposals.
func (s *Syncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pendingNodes, s.pendingEdges = nil, nil
	s.hasNodes, s.hasEdges = false, false
}

func cloneNodes(nodes []domain.Node) []domain.Node {
	out := make([]domain.Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.Clone()
	}
	return out
}
