package typing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/store"
)

func TestSetTyping(t *testing.T) {
	ctx := context.Background()
	path := store.DirectTypingPath("alice_bob")

	t.Run("no-op without an identity", func(t *testing.T) {
		m := store.NewMemory()
		c := NewCoordinator(m, zap.NewNop())
		require.NoError(t, c.SetTyping(ctx, path, "", true))

		snap, err := m.GetDoc(ctx, path)
		require.NoError(t, err)
		assert.False(t, snap.Exists)
	})

	t.Run("each participant owns one key", func(t *testing.T) {
		m := store.NewMemory()
		c := NewCoordinator(m, zap.NewNop())

		require.NoError(t, c.SetTyping(ctx, path, "alice", true))
		require.NoError(t, c.SetTyping(ctx, path, "bob", true))
		require.NoError(t, c.SetTyping(ctx, path, "alice", false))

		snap, err := m.GetDoc(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, false, snap.Data["alice"])
		assert.Equal(t, true, snap.Data["bob"])
	})
}

func TestWatch(t *testing.T) {
	ctx := context.Background()
	path := store.DirectTypingPath("alice_bob")

	m := store.NewMemory()
	c := NewCoordinator(m, zap.NewNop())

	w, err := c.Watch(ctx, path, "alice")
	require.NoError(t, err)
	defer w.Cancel()

	// Initial state: nobody typing.
	typers := recvTypers(t, w.C)
	assert.Empty(t, typers)

	// The viewer's own typing is excluded from their view.
	require.NoError(t, c.SetTyping(ctx, path, "alice", true))
	require.NoError(t, c.SetTyping(ctx, path, "bob", true))

	deadline := time.After(2 * time.Second)
	for {
		typers = recvTypersDeadline(t, w.C, deadline)
		if len(typers) == 1 {
			assert.Equal(t, []string{"bob"}, typers)
			break
		}
	}

	// Peer stops typing.
	require.NoError(t, c.SetTyping(ctx, path, "bob", false))
	for {
		typers = recvTypersDeadline(t, w.C, deadline)
		if len(typers) == 0 {
			break
		}
	}
}

func recvTypers(t *testing.T, ch <-chan []string) []string {
	t.Helper()
	return recvTypersDeadline(t, ch, time.After(2*time.Second))
}

func recvTypersDeadline(t *testing.T, ch <-chan []string, deadline <-chan time.Time) []string {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("watch closed unexpectedly")
		}
		return v
	case <-deadline:
		t.Fatal("timed out waiting for typing update")
		return nil
	}
}
