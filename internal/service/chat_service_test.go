package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/presence"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

func newServiceFixture(t *testing.T) (*store.Memory, ChatService) {
	t.Helper()
	m := store.NewMemory()
	logger := zap.NewNop()
	svc := NewChatService(
		m,
		presence.NewTracker(m, logger),
		typing.NewCoordinator(m, logger),
		directory.NewDirectory(m, logger),
		logger,
	)
	return m, svc
}

func TestIdentityAbsenceIsSilent(t *testing.T) {
	ctx := context.Background()
	m, svc := newServiceFixture(t)
	none := model.Identity{}

	require.NoError(t, svc.SignIn(ctx, none))
	require.NoError(t, svc.SignOut(ctx, none))
	require.NoError(t, svc.SendDirect(ctx, none, "bob", "hi"))
	require.NoError(t, svc.SendGroup(ctx, none, "g1", "hi"))
	require.NoError(t, svc.SetTyping(ctx, none, directory.SelectGroup("g1"), true))

	// None of the no-ops may leave a trace in the store.
	users, err := m.GetCollection(ctx, store.UsersCollection)
	require.NoError(t, err)
	assert.Empty(t, users.Entries)

	groups, err := m.GetCollection(ctx, store.GroupsCollection)
	require.NoError(t, err)
	assert.Empty(t, groups.Entries)
}

func TestCreateGroupWithoutIdentity(t *testing.T) {
	ctx := context.Background()
	_, svc := newServiceFixture(t)

	_, err := svc.CreateGroup(ctx, model.Identity{}, "Team", []string{"bob"})
	assert.ErrorIs(t, err, directory.ErrNoCreator)
}

func TestSignInUpsertsProfile(t *testing.T) {
	ctx := context.Background()
	m, svc := newServiceFixture(t)

	id := model.Identity{ID: "alice", Name: "Alice", Email: "alice@example.com"}
	require.NoError(t, svc.SignIn(ctx, id))

	snap, err := m.GetDoc(ctx, store.UserPath("alice"))
	require.NoError(t, err)
	require.True(t, snap.Exists)
	assert.Equal(t, true, snap.Data["online"])
	assert.Equal(t, "Alice", snap.Data["name"])

	require.NoError(t, svc.SignOut(ctx, id))
	snap, err = m.GetDoc(ctx, store.UserPath("alice"))
	require.NoError(t, err)
	assert.Equal(t, false, snap.Data["online"])
}

func TestSendDirectEndToEnd(t *testing.T) {
	ctx := context.Background()
	_, svc := newServiceFixture(t)

	alice := model.Identity{ID: "alice"}
	require.NoError(t, svc.SendDirect(ctx, alice, "bob", "hello"))

	msgs, err := svc.DirectMessages(ctx, model.Identity{ID: "bob"}, "alice")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
	assert.Equal(t, "alice", msgs[0].SenderID)
}

func TestSendGroupRequiresMembership(t *testing.T) {
	ctx := context.Background()
	_, svc := newServiceFixture(t)

	alice := model.Identity{ID: "alice"}
	groupID, err := svc.CreateGroup(ctx, alice, "Team", []string{"bob"})
	require.NoError(t, err)

	require.NoError(t, svc.SendGroup(ctx, alice, groupID, "welcome"))

	err = svc.SendGroup(ctx, model.Identity{ID: "mallory"}, groupID, "hi")
	assert.ErrorIs(t, err, channel.ErrNotMember)

	msgs, err := svc.GroupMessages(ctx, alice, groupID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestSetTypingDispatch(t *testing.T) {
	ctx := context.Background()
	m, svc := newServiceFixture(t)

	t.Run("direct channel", func(t *testing.T) {
		sel := directory.SelectPeer("alice", "bob")
		require.NoError(t, svc.SetTyping(ctx, model.Identity{ID: "alice"}, sel, true))

		snap, err := m.GetDoc(ctx, store.DirectTypingPath(sel.ChannelID))
		require.NoError(t, err)
		assert.Equal(t, true, snap.Data["alice"])
	})

	t.Run("group channel gated on membership", func(t *testing.T) {
		groupID, err := svc.CreateGroup(ctx, model.Identity{ID: "alice"}, "Team", nil)
		require.NoError(t, err)

		sel := directory.SelectGroup(groupID)
		err = svc.SetTyping(ctx, model.Identity{ID: "mallory"}, sel, true)
		assert.ErrorIs(t, err, channel.ErrNotMember)

		require.NoError(t, svc.SetTyping(ctx, model.Identity{ID: "alice"}, sel, true))
		snap, err := m.GetDoc(ctx, store.GroupTypingPath(groupID))
		require.NoError(t, err)
		assert.Equal(t, true, snap.Data["alice"])
	})
}
