package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/google/uuid"
)

// Store implements ports.Repository in memory.
// Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	flows       map[string]domain.SavedFlow
	credentials []ownedCredential
	components  []ownedComponent
	schedules   map[string][]domain.Schedule
	logs        map[string][]domain.TriggerLog
}

type ownedCredential struct {
	assistantID string
	cred        domain.Credential
}

type ownedComponent struct {
	assistantID string
	comp        domain.Component
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		flows:     make(map[string]domain.SavedFlow),
		schedules: make(map[string][]domain.Schedule),
		logs:      make(map[string][]domain.TriggerLog),
	}
}

// SaveFlow persists the flow in memory.
func (s *Store) SaveFlow(ctx context.Context, assistantID string, flow domain.SavedFlow) error {
	copied := cloneSavedFlow(flow)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.flows[assistantID] = copied
	return nil
}

// GetFlow retrieves the flow from memory.
func (s *Store) GetFlow(ctx context.Context, assistantID string) (domain.SavedFlow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	flow, ok := s.flows[assistantID]
	if !ok {
		return domain.SavedFlow{}, domain.ErrNotFound
	}
	// Copy on read so callers cannot mutate the stored flow.
	return cloneSavedFlow(flow), nil
}

// ListAssistants returns the assistants with a saved flow, sorted.
func (s *Store) ListAssistants(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.flows))
	for id := range s.flows {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreateCredential(ctx context.Context, assistantID string, cred domain.Credential) (domain.Credential, error) {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	cred.Data = domain.CloneMap(cred.Data)
	cred.DataRedacted = nil

	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentials = append(s.credentials, ownedCredential{assistantID: assistantID, cred: cred})

	out := cred
	out.Data = domain.CloneMap(cred.Data)
	return out, nil
}

func (s *Store) ListCredentials(ctx context.Context, assistantID string) ([]domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Credential{}
	for _, oc := range s.credentials {
		if oc.assistantID != assistantID {
			continue
		}
		c := oc.cred
		c.Data = domain.CloneMap(c.Data)
		out = append(out, c)
	}
	return out, nil
}

func (s *Store) DeleteCredential(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, oc := range s.credentials {
		if oc.cred.ID == id {
			s.credentials = append(s.credentials[:i], s.credentials[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) CreateComponent(ctx context.Context, assistantID string, comp domain.Component) (domain.Component, error) {
	if comp.ComponentID == "" {
		comp.ComponentID = uuid.NewString()
	}
	if comp.CreatedAt.IsZero() {
		comp.CreatedAt = time.Now().UTC()
	}
	comp = cloneComponent(comp)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, ownedComponent{assistantID: assistantID, comp: comp})
	return cloneComponent(comp), nil
}

func (s *Store) ListComponents(ctx context.Context, assistantID string, q ports.ComponentQuery) ([]domain.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Component{}
	// Newest first: components are appended in creation order.
	for i := len(s.components) - 1; i >= 0; i-- {
		oc := s.components[i]
		if oc.assistantID != assistantID && !oc.comp.IsPublic {
			continue
		}
		if q.NodeType != "" && oc.comp.NodeType != q.NodeType {
			continue
		}
		out = append(out, cloneComponent(oc.comp))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (s *Store) DeleteComponent(ctx context.Context, assistantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, oc := range s.components {
		if oc.comp.ComponentID == id && oc.assistantID == assistantID {
			s.components = append(s.components[:i], s.components[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) CreateSchedule(ctx context.Context, assistantID string, sched domain.Schedule) (domain.Schedule, error) {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules[assistantID] = append(s.schedules[assistantID], sched)
	return sched, nil
}

func (s *Store) ListSchedules(ctx context.Context, assistantID string) ([]domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Schedule{}, s.schedules[assistantID]...), nil
}

func (s *Store) DeleteSchedule(ctx context.Context, assistantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.schedules[assistantID]
	for i, sched := range list {
		if sched.ID == id {
			s.schedules[assistantID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *Store) AppendLog(ctx context.Context, assistantID string, log domain.TriggerLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[assistantID] = append(s.logs[assistantID], log)
	return nil
}

func (s *Store) Logs(ctx context.Context, assistantID string, limit int) ([]domain.TriggerLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.logs[assistantID]
	out := []domain.TriggerLog{}
	for i := len(list) - 1; i >= 0; i-- {
		out = append(out, list[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func cloneSavedFlow(f domain.SavedFlow) domain.SavedFlow {
	flow := domain.Flow{Nodes: f.FlowData.Nodes, Edges: f.FlowData.Edges, EntryNodeID: f.FlowData.EntryNodeID}.Clone()
	return domain.SavedFlow{Name: f.Name, FlowData: flow.Document()}
}

func cloneComponent(c domain.Component) domain.Component {
	c.Config = domain.CloneMap(c.Config)
	c.Tags = append([]string(nil), c.Tags...)
	return c
}
