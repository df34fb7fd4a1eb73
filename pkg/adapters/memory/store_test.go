package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowstudio/pkg/adapters/memory"
	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/aretw0/flowstudio/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	ports.RunRepositoryContract(t, memory.NewStore())
}

func TestMemoryLocker_Contract(t *testing.T) {
	ports.RunLockerContract(t, memory.NewLocker())
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	flow := domain.SavedFlow{
		Name: "iso",
		FlowData: domain.Document{
			Nodes: []domain.Node{{ID: "h", Type: domain.NodeTypeHTTP, Data: domain.NodeData{Config: map[string]any{"url": "https://a"}}}},
			Edges: []domain.Edge{},
		},
	}
	require.NoError(t, store.SaveFlow(ctx, "a1", flow))

	// Mutating the caller's copy must not leak into the store.
	flow.FlowData.Nodes[0].Data.Config["url"] = "https://mutated"

	loaded, err := store.GetFlow(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://a", loaded.FlowData.Nodes[0].Data.Config["url"])

	loaded.FlowData.Nodes[0].Data.Config["url"] = "https://again"
	again, err := store.GetFlow(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "https://a", again.FlowData.Nodes[0].Data.Config["url"])
}

func TestMemoryLocker_Expires(t *testing.T) {
	locker := memory.NewLocker()
	ctx := context.Background()

	_, err := locker.Lock(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)

	// Never released; the second caller gets it once the lease lapses.
	waitCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlock, err := locker.Lock(waitCtx, "k", time.Second)
	require.NoError(t, err)
	assert.NoError(t, unlock(ctx))
}
