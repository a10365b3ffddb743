package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriaid/errorz"
	"agriaid/models"
)

func TestMemStoreCreateAssignsIDAndTime(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	id, err := st.CreateQuestion(ctx, models.Question{Title: "t", Content: "c"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)
	assert.Equal(t, id, snap[0].ID)
	assert.False(t, snap[0].CreatedAt.IsZero())
	assert.NotNil(t, snap[0].Answers)
	assert.NotNil(t, snap[0].LikedBy)
}

func TestMemStoreUpdateUnknownID(t *testing.T) {
	st := NewMemStore()
	err := st.UpdateQuestion(context.Background(), "ghost", Update{IncLikes: 1})
	assert.ErrorIs(t, err, errorz.ErrNotFound)
}

// Snapshots are isolated copies: mutating one must not leak into the store.
func TestMemStoreSnapshotIsolation(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	id, err := st.CreateQuestion(ctx, models.Question{Title: "t"})
	require.NoError(t, err)
	require.NoError(t, st.UpdateQuestion(ctx, id, Update{AddLikedBy: []string{"alice"}}))

	snap, err := st.Snapshot(ctx)
	require.NoError(t, err)
	snap[0].Title = "tampered"
	snap[0].LikedBy[0] = "mallory"

	fresh, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t", fresh[0].Title)
	assert.Equal(t, []string{"alice"}, fresh[0].LikedBy)
}

func TestMemStoreWatchSignalsOnWrites(t *testing.T) {
	st := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := st.Watch(ctx)
	require.NoError(t, err)

	id, err := st.CreateQuestion(ctx, models.Question{Title: "t"})
	require.NoError(t, err)
	awaitSignal(t, changes)

	require.NoError(t, st.UpdateQuestion(ctx, id, Update{IncLikes: 1}))
	awaitSignal(t, changes)
}

func TestMemStoreWatchClosesWithContext(t *testing.T) {
	st := NewMemStore()
	ctx, cancel := context.WithCancel(context.Background())

	changes, err := st.Watch(ctx)
	require.NoError(t, err)

	cancel()
	awaitClose(t, changes)

	// a later write must not panic on the removed watcher
	_, err = st.CreateQuestion(context.Background(), models.Question{Title: "t"})
	assert.NoError(t, err)
}

func TestMemStoreDropWatchers(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	changes, err := st.Watch(ctx)
	require.NoError(t, err)

	st.DropWatchers()
	awaitClose(t, changes)
}

func TestMemStoreHoldServerTime(t *testing.T) {
	st := NewMemStore()
	ctx := context.Background()

	st.HoldServerTime()
	id, err := st.CreateQuestion(ctx, models.Question{Title: "t"})
	require.NoError(t, err)

	snap, _ := st.Snapshot(ctx)
	assert.True(t, snap[0].CreatedAt.IsZero())

	st.ReleaseServerTime()
	snap, _ = st.Snapshot(ctx)
	assert.False(t, snap[0].CreatedAt.IsZero())
	assert.Equal(t, id, snap[0].ID)
}

func awaitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		require.True(t, ok, "watch channel closed unexpectedly")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for change signal")
	}
}

func awaitClose(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for watch channel to close")
		}
	}
}
