package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/posting-assistant/internal/dialogue"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func TestMemoryStore_CRUD(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, store.Put(ctx, dialogue.NewState("s1", epoch)))
	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.Equal(t, dialogue.PhaseAwaitingFirstInput, got.Phase)
	assert.Equal(t, 1, store.Len())

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "s1"))
}

func TestMemoryStore_EvictIdle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	old := dialogue.NewState("old", epoch)
	fresh := dialogue.NewState("fresh", epoch)
	fresh.UpdatedAt = epoch.Add(2 * time.Hour)
	require.NoError(t, store.Put(ctx, old))
	require.NoError(t, store.Put(ctx, fresh))

	evicted := store.EvictIdle(epoch.Add(time.Hour), nil)
	assert.Equal(t, []string{"old"}, evicted)
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, "fresh")
	assert.NoError(t, err)
}

func TestMemoryStore_EvictIdleKeepsBusy(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, dialogue.NewState("busy", epoch)))
	require.NoError(t, store.Put(ctx, dialogue.NewState("idle", epoch)))

	busy := func(id string) bool { return id == "busy" }
	evicted := store.EvictIdle(epoch.Add(time.Hour), busy)
	assert.Equal(t, []string{"idle"}, evicted)

	_, err := store.Get(ctx, "busy")
	assert.NoError(t, err)
}
