package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/flowstudio/pkg/adapters/redis"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunRepositoryContract(t, redis.NewFromClient(client))
}

func TestRedisLocker_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunLockerContract(t, redis.NewFromClient(client).Locker())
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	err := store.SaveFlow(ctx, "a-ttl", domain.SavedFlow{Name: "short lived"})
	require.NoError(t, err)

	assistants, err := store.ListAssistants(ctx)
	require.NoError(t, err)
	assert.Contains(t, assistants, "a-ttl")

	mr.FastForward(2 * time.Second)

	_, err = store.GetFlow(ctx, "a-ttl")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// The index is pruned against the wall clock, not miniredis time.
	time.Sleep(1200 * time.Millisecond)

	assistants, err = store.ListAssistants(ctx)
	require.NoError(t, err)
	assert.Empty(t, assistants)
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := setup(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.SaveFlow(ctx, "a1", domain.SavedFlow{Name: "x"}))
	_, err := store.CreateCredential(ctx, "a1", domain.Credential{Name: "k", Type: domain.CredentialAPIKey, Data: map[string]any{"key_name": "X", "key_value": "v"}})
	require.NoError(t, err)

	assert.True(t, mr.Exists("custom:app:flow:a1"), "Expected flow key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:flows"), "Expected index with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:credentials:a1"))
	assert.True(t, mr.Exists("custom:app:credential-owner"))
}

func TestRedisStore_LogLimit(t *testing.T) {
	_, client := setup(t)

	store := redis.NewFromClient(client, redis.WithLogLimit(2))
	ctx := context.Background()

	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, store.AppendLog(ctx, "a1", domain.TriggerLog{ID: id, TriggerType: "webhook", Status: "ok"}))
	}
	logs, err := store.Logs(ctx, "a1", 0)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "3", logs[0].ID)
	assert.Equal(t, "2", logs[1].ID)
}

func TestRedisLocker_ReleaseOnlyOwnToken(t *testing.T) {
	mr, client := setup(t)
	locker := redis.NewLocker(client, "t:")
	ctx := context.Background()

	unlock, err := locker.Lock(ctx, "k", 100*time.Millisecond)
	require.NoError(t, err)

	// Lease lapses and someone else takes it.
	mr.FastForward(200 * time.Millisecond)
	unlock2, err := locker.Lock(ctx, "k", time.Second)
	require.NoError(t, err)

	// The stale holder must not release the new lease.
	require.NoError(t, unlock(ctx))
	assert.True(t, mr.Exists("t:lock:k"))

	require.NoError(t, unlock2(ctx))
	assert.False(t, mr.Exists("t:lock:k"))
}
