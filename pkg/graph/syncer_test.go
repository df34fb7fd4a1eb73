package graph

import (
	"testing"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncer_AppliesOnlyLatest(t *testing.T) {
	s := NewStore()
	changes, unsubscribe := s.Subscribe()
	defer unsubscribe()

	syncer := NewSyncer(s, WithDelay(20*time.Millisecond))
	syncer.ProposeNodes([]domain.Node{node("a", domain.NodeTypeStart)})
	syncer.ProposeNodes([]domain.Node{node("a", domain.NodeTypeStart), node("b", domain.NodeTypeHTTP)})

	require.Eventually(t, func() bool { return len(s.Nodes()) == 2 }, time.Second, 5*time.Millisecond)
	assert.False(t, syncer.Pending())

	assert.Equal(t, ChangeNodes, (<-changes).Kind)
	assert.Len(t, changes, 0, "intermediate proposal must not be applied")
}

func TestSyncer_FlushAppliesNodesBeforeEdges(t *testing.T) {
	s := NewStore()
	syncer := NewSyncer(s, WithDelay(time.Hour))

	syncer.ProposeEdges([]domain.Edge{edge("e", "a", "b")})
	syncer.ProposeNodes([]domain.Node{node("a", domain.NodeTypeStart), node("b", domain.NodeTypeHTTP)})
	assert.True(t, syncer.Pending())
	assert.Empty(t, s.Nodes())

	syncer.Flush()
	assert.Len(t, s.Nodes(), 2)
	assert.Len(t, s.Edges(), 1)
	assert.False(t, syncer.Pending())
}

func TestSyncer_Stop(t *testing.T) {
	s := NewStore()
	syncer := NewSyncer(s, WithDelay(10*time.Millisecond))
	syncer.ProposeNodes([]domain.Node{node("a", domain.NodeTypeStart)})
	syncer.Stop()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, s.Nodes())
}
