package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryMergeWrite(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("creates missing document", func(t *testing.T) {
		err := m.MergeWrite(ctx, "users/alice", Doc{"online": true})
		require.NoError(t, err)

		snap, err := m.GetDoc(ctx, "users/alice")
		require.NoError(t, err)
		require.True(t, snap.Exists)
		assert.Equal(t, true, snap.Data["online"])
	})

	t.Run("preserves untouched fields", func(t *testing.T) {
		require.NoError(t, m.MergeWrite(ctx, "users/bob", Doc{"name": "Bob", "online": true}))
		require.NoError(t, m.MergeWrite(ctx, "users/bob", Doc{"online": false}))

		snap, err := m.GetDoc(ctx, "users/bob")
		require.NoError(t, err)
		assert.Equal(t, "Bob", snap.Data["name"])
		assert.Equal(t, false, snap.Data["online"])
	})

	t.Run("merges nested maps key by key", func(t *testing.T) {
		path := "groupChannels/g1/messages/m1"
		require.NoError(t, m.MergeWrite(ctx, path, Doc{"seenBy": map[string]bool{"alice": true}}))
		require.NoError(t, m.MergeWrite(ctx, path, Doc{"seenBy": map[string]bool{"bob": true}}))

		snap, err := m.GetDoc(ctx, path)
		require.NoError(t, err)
		seenBy, ok := snap.Data["seenBy"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, true, seenBy["alice"])
		assert.Equal(t, true, seenBy["bob"])
	})

	t.Run("rejects collection-level path", func(t *testing.T) {
		err := m.MergeWrite(ctx, "users", Doc{"x": 1})
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestMemoryAppend(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	t.Run("assigns distinct ids and increasing createdAt", func(t *testing.T) {
		id1, err := m.Append(ctx, "logs", Doc{"n": 1})
		require.NoError(t, err)
		id2, err := m.Append(ctx, "logs", Doc{"n": 2})
		require.NoError(t, err)
		assert.NotEqual(t, id1, id2)

		snap, err := m.GetCollection(ctx, "logs")
		require.NoError(t, err)
		require.Len(t, snap.Entries, 2)
		assert.Equal(t, id1, snap.Entries[0].ID)
		assert.Equal(t, id2, snap.Entries[1].ID)
		assert.True(t, snap.Entries[0].CreatedAt.Before(snap.Entries[1].CreatedAt))
	})

	t.Run("injects createdAt into the document", func(t *testing.T) {
		id, err := m.Append(ctx, "logs", Doc{"n": 3})
		require.NoError(t, err)

		snap, err := m.GetDoc(ctx, ChildPath("logs", id))
		require.NoError(t, err)
		_, ok := snap.Data["createdAt"].(time.Time)
		assert.True(t, ok)
	})

	t.Run("rejects empty path", func(t *testing.T) {
		_, err := m.Append(ctx, "", Doc{"n": 4})
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestMemorySubscribeDoc(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.SubscribeDoc(ctx, "users/alice")
	require.NoError(t, err)
	defer sub.Cancel()

	// Initial snapshot reports absence.
	snap := <-sub.Snapshots()
	assert.False(t, snap.Exists)

	require.NoError(t, m.MergeWrite(ctx, "users/alice", Doc{"online": true}))
	snap = <-sub.Snapshots()
	require.True(t, snap.Exists)
	assert.Equal(t, true, snap.Data["online"])
}

func TestMemorySubscribeCollection(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.SubscribeCollection(ctx, "logs")
	require.NoError(t, err)
	defer sub.Cancel()

	snap := <-sub.Snapshots()
	assert.Empty(t, snap.Entries)

	_, err = m.Append(ctx, "logs", Doc{"n": 1})
	require.NoError(t, err)
	snap = <-sub.Snapshots()
	require.Len(t, snap.Entries, 1)
}

func TestMemorySubscriptionCancel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.SubscribeDoc(ctx, "users/alice")
	require.NoError(t, err)

	sub.Cancel()
	sub.Cancel() // idempotent

	// The channel is drained and closed after cancellation.
	for range sub.Snapshots() {
	}

	// A write after cancel must not panic on the removed subscriber.
	require.NoError(t, m.MergeWrite(ctx, "users/alice", Doc{"online": true}))
}

func TestMemorySubscriptionContext(t *testing.T) {
	m := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())

	sub, err := m.SubscribeDoc(ctx, "users/alice")
	require.NoError(t, err)

	cancel()

	// Context cancellation closes the snapshot stream.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-sub.Snapshots():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("snapshot channel not closed after context cancel")
		}
	}
}

func TestMemorySnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.MergeWrite(ctx, "users/alice", Doc{"tags": map[string]bool{"a": true}}))

	snap, err := m.GetDoc(ctx, "users/alice")
	require.NoError(t, err)

	// Mutating a snapshot must not leak into the store.
	tags := snap.Data["tags"].(map[string]any)
	tags["b"] = true

	again, err := m.GetDoc(ctx, "users/alice")
	require.NoError(t, err)
	_, leaked := again.Data["tags"].(map[string]any)["b"]
	assert.False(t, leaked)
}
