package tests

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cohort/pkg/domain"
	"github.com/aretw0/cohort/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(personID string, at time.Time) domain.Snapshot {
	entered := at.Add(-48 * time.Hour)
	exited := at.Add(-24 * time.Hour)
	return domain.Snapshot{
		PersonID: personID,
		Time:     at,
		Modules: map[string]domain.ModuleSnapshot{
			"Appendicitis": {
				Completed: false,
				Trail: []domain.StateRecord{
					{Name: "Incubation", Kind: "Delay", Entered: &exited},
					{Name: "Initial", Kind: "Initial", Entered: &entered, Exited: &exited},
				},
			},
		},
	}
}

// SnapshotStoreContractTest verifies that an adapter complies with ports.SnapshotStore.
func SnapshotStoreContractTest(t *testing.T, store ports.SnapshotStore) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC)
	prefix := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-load"
		want := snapshot(id, at)
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, id, got.PersonID)
		assert.True(t, want.Time.Equal(got.Time))
		require.Contains(t, got.Modules, "Appendicitis")
		assert.Equal(t, "Incubation", got.Modules["Appendicitis"].Current())
		require.Len(t, got.Modules["Appendicitis"].Trail, 2)
		assert.Nil(t, got.Modules["Appendicitis"].Trail[0].Exited)
		require.NotNil(t, got.Modules["Appendicitis"].Trail[1].Exited)
		assert.True(t, at.Add(-24*time.Hour).Equal(*got.Modules["Appendicitis"].Trail[1].Exited))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		id := prefix + "-replace"
		require.NoError(t, store.Save(ctx, snapshot(id, at)))

		later := snapshot(id, at.AddDate(0, 1, 0))
		later.Modules["Appendicitis"] = domain.ModuleSnapshot{Completed: true}
		require.NoError(t, store.Save(ctx, later))

		got, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.True(t, got.Modules["Appendicitis"].Completed)
		assert.True(t, later.Time.Equal(got.Time))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, prefix+"-missing")
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, snapshot(id, at)))
		require.NoError(t, store.Delete(ctx, id))

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")
		assert.NoError(t, store.Delete(ctx, id), "deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		id1, id2 := prefix+"-list-1", prefix+"-list-2"
		require.NoError(t, store.Save(ctx, snapshot(id2, at)))
		require.NoError(t, store.Save(ctx, snapshot(id1, at)))
		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
		assert.IsNonDecreasing(t, ids)
	})
}
