package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/flowstudio/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRepositoryContract runs a suite of tests to verify that a Repository
// implementation adheres to the defined interface contract.
func RunRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	assistant := "contract-" + time.Now().Format("20060102150405.000000")

	t.Run("Flow Save and Get", func(t *testing.T) {
		_, err := repo.GetFlow(ctx, assistant)
		assert.ErrorIs(t, err, domain.ErrNotFound)

		flow := domain.SavedFlow{
			Name: "demo",
			FlowData: domain.Document{
				Nodes:       []domain.Node{{ID: "s", Type: domain.NodeTypeStart, Data: domain.NodeData{Label: "Start"}}},
				Edges:       []domain.Edge{},
				EntryNodeID: "s",
			},
		}
		require.NoError(t, repo.SaveFlow(ctx, assistant, flow))

		loaded, err := repo.GetFlow(ctx, assistant)
		require.NoError(t, err)
		assert.Equal(t, flow.Name, loaded.Name)
		require.Len(t, loaded.FlowData.Nodes, 1)
		assert.Equal(t, "Start", loaded.FlowData.Nodes[0].Data.Label)
		assert.Equal(t, "s", loaded.FlowData.EntryNodeID)

		flow.Name = "renamed"
		require.NoError(t, repo.SaveFlow(ctx, assistant, flow))
		loaded, err = repo.GetFlow(ctx, assistant)
		require.NoError(t, err)
		assert.Equal(t, "renamed", loaded.Name)

		assistants, err := repo.ListAssistants(ctx)
		require.NoError(t, err)
		assert.Contains(t, assistants, assistant)
	})

	t.Run("Credentials", func(t *testing.T) {
		created, err := repo.CreateCredential(ctx, assistant, domain.Credential{
			Name: "OpenAI",
			Type: domain.CredentialBearer,
			Data: map[string]any{"token": "sk-1"},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.False(t, created.CreatedAt.IsZero())

		list, err := repo.ListCredentials(ctx, assistant)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "sk-1", list[0].Data["token"])

		other, err := repo.ListCredentials(ctx, assistant+"-other")
		require.NoError(t, err)
		assert.Empty(t, other)

		require.NoError(t, repo.DeleteCredential(ctx, created.ID))
		assert.ErrorIs(t, repo.DeleteCredential(ctx, created.ID), domain.ErrNotFound)

		list, err = repo.ListCredentials(ctx, assistant)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("Components", func(t *testing.T) {
		other := assistant + "-other"
		mine, err := repo.CreateComponent(ctx, assistant, domain.Component{Name: "mine", NodeType: domain.NodeTypeHTTP, Config: map[string]any{}})
		require.NoError(t, err)
		assert.NotEmpty(t, mine.ComponentID)

		_, err = repo.CreateComponent(ctx, other, domain.Component{Name: "shared", NodeType: domain.NodeTypeLLM, IsPublic: true, Config: map[string]any{}})
		require.NoError(t, err)
		_, err = repo.CreateComponent(ctx, other, domain.Component{Name: "hidden", NodeType: domain.NodeTypeHTTP, Config: map[string]any{}})
		require.NoError(t, err)

		visible, err := repo.ListComponents(ctx, assistant, ComponentQuery{})
		require.NoError(t, err)
		names := make([]string, 0, len(visible))
		for _, c := range visible {
			names = append(names, c.Name)
		}
		assert.Contains(t, names, "mine")
		assert.Contains(t, names, "shared")
		assert.NotContains(t, names, "hidden")

		onlyHTTP, err := repo.ListComponents(ctx, assistant, ComponentQuery{NodeType: domain.NodeTypeHTTP})
		require.NoError(t, err)
		for _, c := range onlyHTTP {
			assert.Equal(t, domain.NodeTypeHTTP, c.NodeType)
		}

		limited, err := repo.ListComponents(ctx, assistant, ComponentQuery{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)

		assert.ErrorIs(t, repo.DeleteComponent(ctx, other, mine.ComponentID), domain.ErrNotFound)
		require.NoError(t, repo.DeleteComponent(ctx, assistant, mine.ComponentID))
		assert.ErrorIs(t, repo.DeleteComponent(ctx, assistant, mine.ComponentID), domain.ErrNotFound)
	})

	t.Run("Schedules and Logs", func(t *testing.T) {
		s, err := repo.CreateSchedule(ctx, assistant, domain.Schedule{Cron: "*/5 * * * *"})
		require.NoError(t, err)
		assert.NotEmpty(t, s.ID)

		list, err := repo.ListSchedules(ctx, assistant)
		require.NoError(t, err)
		require.Len(t, list, 1)

		require.NoError(t, repo.DeleteSchedule(ctx, assistant, s.ID))
		assert.ErrorIs(t, repo.DeleteSchedule(ctx, assistant, s.ID), domain.ErrNotFound)

		for _, id := range []string{"l1", "l2", "l3"} {
			require.NoError(t, repo.AppendLog(ctx, assistant, domain.TriggerLog{ID: id, TriggerType: "webhook", Status: "ok"}))
		}
		logs, err := repo.Logs(ctx, assistant, 2)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "l3", logs[0].ID)
		assert.Equal(t, "l2", logs[1].ID)

		all, err := repo.Logs(ctx, assistant, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

// RunLockerContract verifies mutual exclusion of a DistributedLocker.
func RunLockerContract(t *testing.T, locker DistributedLocker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("150405.000000")

	t.Run("Mutual Exclusion", func(t *testing.T) {
		var mu sync.Mutex
		inside := 0
		maxInside := 0

		var wg sync.WaitGroup
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock, err := locker.Lock(ctx, key, 5*time.Second)
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				time.Sleep(10 * time.Millisecond)

				mu.Lock()
				inside--
				mu.Unlock()
				assert.NoError(t, unlock(ctx))
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, maxInside)
	})

	t.Run("Context Cancel", func(t *testing.T) {
		unlock, err := locker.Lock(ctx, key, 5*time.Second)
		require.NoError(t, err)
		defer func() { _ = unlock(ctx) }()

		short, cancel := context.WithTimeout(ctx, 150*time.Millisecond)
		defer cancel()
		_, err = locker.Lock(short, key, time.Second)
		assert.Error(t, err)
	})
}
