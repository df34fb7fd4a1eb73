package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "flowstudio:"

// DefaultLogLimit caps the trigger log list of each assistant.
const DefaultLogLimit = 500

// Store implements ports.Repository using Redis.
//
// Layout (relative to the prefix):
//
//	flow:<assistant>          JSON saved flow, expires after the TTL
//	flows                     ZSET index of assistants, scored by expiry
//	credentials:<assistant>   HASH id -> JSON credential
//	credential-owner          HASH id -> assistant
//	components                HASH id -> JSON owned component
//	schedules:<assistant>     LIST of JSON schedules
//	logs:<assistant>          LIST of JSON trigger logs, newest first
type Store struct {
	client   *backend.Client
	prefix   string
	ttl      time.Duration
	logLimit int64
}

type Option func(*Store)

// WithTTL sets the expiration for saved flows.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithLogLimit sets how many trigger logs are kept per assistant.
func WithLogLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.logLimit = int64(n)
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client:   client,
		prefix:   DefaultPrefix,
		ttl:      0, // No expiration by default
		logLimit: DefaultLogLimit,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Locker returns a distributed locker sharing the store's client and prefix.
func (s *Store) Locker() *Locker {
	return NewLocker(s.client, s.prefix)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) flowKey(assistantID string) string { return s.prefix + "flow:" + assistantID }
func (s *Store) flowIndexKey() string              { return s.prefix + "flows" }
func (s *Store) credentialsKey(assistantID string) string {
	return s.prefix + "credentials:" + assistantID
}
func (s *Store) credentialOwnerKey() string { return s.prefix + "credential-owner" }
func (s *Store) componentsKey() string      { return s.prefix + "components" }
func (s *Store) schedulesKey(assistantID string) string {
	return s.prefix + "schedules:" + assistantID
}
func (s *Store) logsKey(assistantID string) string { return s.prefix + "logs:" + assistantID }

// SaveFlow persists the flow to Redis.
func (s *Store) SaveFlow(ctx context.Context, assistantID string, flow domain.SavedFlow) error {
	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal flow: %w", err)
	}

	pipe := s.client.Pipeline()

	// Use 0 for no expiration if ttl is not set.
	pipe.Set(ctx, s.flowKey(assistantID), data, s.ttl)

	// Score = Now + TTL. If TTL = 0, Score = +Inf (approx).
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = 4102444800 // 2100-01-01
	}
	pipe.ZAdd(ctx, s.flowIndexKey(), backend.Z{
		Score:  score,
		Member: assistantID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save flow to redis: %w", err)
	}
	return nil
}

// GetFlow retrieves the flow from Redis.
func (s *Store) GetFlow(ctx context.Context, assistantID string) (domain.SavedFlow, error) {
	val, err := s.client.Get(ctx, s.flowKey(assistantID)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.SavedFlow{}, domain.ErrNotFound
		}
		return domain.SavedFlow{}, fmt.Errorf("failed to get flow from redis: %w", err)
	}

	var flow domain.SavedFlow
	if err := json.Unmarshal([]byte(val), &flow); err != nil {
		return domain.SavedFlow{}, fmt.Errorf("failed to unmarshal flow: %w", err)
	}
	return flow, nil
}

// ListAssistants returns the assistants whose flow has not expired.
// Expired entries are pruned lazily from the index.
func (s *Store) ListAssistants(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())

	err := s.client.ZRemRangeByScore(ctx, s.flowIndexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired flows: %w", err)
	}

	assistants, err := s.client.ZRange(ctx, s.flowIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list flows: %w", err)
	}
	return assistants, nil
}

func (s *Store) CreateCredential(ctx context.Context, assistantID string, cred domain.Credential) (domain.Credential, error) {
	if cred.ID == "" {
		cred.ID = uuid.NewString()
	}
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}
	cred.DataRedacted = nil

	data, err := json.Marshal(cred)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("failed to marshal credential: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.credentialsKey(assistantID), cred.ID, data)
	pipe.HSet(ctx, s.credentialOwnerKey(), cred.ID, assistantID)
	if _, err := pipe.Exec(ctx); err != nil {
		return domain.Credential{}, fmt.Errorf("failed to save credential to redis: %w", err)
	}
	return cred, nil
}

func (s *Store) ListCredentials(ctx context.Context, assistantID string) ([]domain.Credential, error) {
	vals, err := s.client.HGetAll(ctx, s.credentialsKey(assistantID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	out := make([]domain.Credential, 0, len(vals))
	for id, raw := range vals {
		var cred domain.Credential
		if err := json.Unmarshal([]byte(raw), &cred); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credential %s: %w", id, err)
		}
		out = append(out, cred)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) DeleteCredential(ctx context.Context, id string) error {
	owner, err := s.client.HGet(ctx, s.credentialOwnerKey(), id).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to resolve credential owner: %w", err)
	}

	pipe := s.client.TxPipeline()
	del := pipe.HDel(ctx, s.credentialsKey(owner), id)
	pipe.HDel(ctx, s.credentialOwnerKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ownedComponent is the stored form of a component.
type ownedComponent struct {
	AssistantID string           `json:"assistant_id"`
	Component   domain.Component `json:"component"`
}

func (s *Store) CreateComponent(ctx context.Context, assistantID string, comp domain.Component) (domain.Component, error) {
	if comp.ComponentID == "" {
		comp.ComponentID = uuid.NewString()
	}
	if comp.CreatedAt.IsZero() {
		comp.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(ownedComponent{AssistantID: assistantID, Component: comp})
	if err != nil {
		return domain.Component{}, fmt.Errorf("failed to marshal component: %w", err)
	}
	if err := s.client.HSet(ctx, s.componentsKey(), comp.ComponentID, data).Err(); err != nil {
		return domain.Component{}, fmt.Errorf("failed to save component to redis: %w", err)
	}
	return comp, nil
}

func (s *Store) ListComponents(ctx context.Context, assistantID string, q ports.ComponentQuery) ([]domain.Component, error) {
	vals, err := s.client.HGetAll(ctx, s.componentsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}

	out := make([]domain.Component, 0, len(vals))
	for id, raw := range vals {
		var oc ownedComponent
		if err := json.Unmarshal([]byte(raw), &oc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal component %s: %w", id, err)
		}
		if oc.AssistantID != assistantID && !oc.Component.IsPublic {
			continue
		}
		if q.NodeType != "" && oc.Component.NodeType != q.NodeType {
			continue
		}
		out = append(out, oc.Component)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ComponentID < out[j].ComponentID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) DeleteComponent(ctx context.Context, assistantID, id string) error {
	raw, err := s.client.HGet(ctx, s.componentsKey(), id).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to get component: %w", err)
	}

	var oc ownedComponent
	if err := json.Unmarshal([]byte(raw), &oc); err != nil {
		return fmt.Errorf("failed to unmarshal component %s: %w", id, err)
	}
	if oc.AssistantID != assistantID {
		return domain.ErrNotFound
	}
	n, err := s.client.HDel(ctx, s.componentsKey(), id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete component: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CreateSchedule(ctx context.Context, assistantID string, sched domain.Schedule) (domain.Schedule, error) {
	if sched.ID == "" {
		sched.ID = uuid.NewString()
	}
	data, err := json.Marshal(sched)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("failed to marshal schedule: %w", err)
	}
	if err := s.client.RPush(ctx, s.schedulesKey(assistantID), data).Err(); err != nil {
		return domain.Schedule{}, fmt.Errorf("failed to save schedule to redis: %w", err)
	}
	return sched, nil
}

func (s *Store) ListSchedules(ctx context.Context, assistantID string) ([]domain.Schedule, error) {
	raws, err := s.client.LRange(ctx, s.schedulesKey(assistantID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return decodeAll[domain.Schedule](raws, "schedule")
}

func (s *Store) DeleteSchedule(ctx context.Context, assistantID, id string) error {
	raws, err := s.client.LRange(ctx, s.schedulesKey(assistantID), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, raw := range raws {
		var sched domain.Schedule
		if err := json.Unmarshal([]byte(raw), &sched); err != nil {
			continue
		}
		if sched.ID != id {
			continue
		}
		n, err := s.client.LRem(ctx, s.schedulesKey(assistantID), 1, raw).Result()
		if err != nil {
			return fmt.Errorf("failed to delete schedule: %w", err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
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
	data, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal trigger log: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.LPush(ctx, s.logsKey(assistantID), data)
	pipe.LTrim(ctx, s.logsKey(assistantID), 0, s.logLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append trigger log: %w", err)
	}
	return nil
}

func (s *Store) Logs(ctx context.Context, assistantID string, limit int) ([]domain.TriggerLog, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raws, err := s.client.LRange(ctx, s.logsKey(assistantID), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read trigger logs: %w", err)
	}
	return decodeAll[domain.TriggerLog](raws, "trigger log")
}

func decodeAll[T any](raws []string, what string) ([]T, error) {
	out := make([]T, 0, len(raws))
	for i, raw := range raws {
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s %d: %w", what, i, err)
		}
		out = append(out, v)
	}
	return out, nil
}
