package event

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/store"
)

func TestMake(t *testing.T) {
	ev := Make(EventTyping, "alice_bob", TypingPayload{Typers: []string{"bob"}})
	assert.Equal(t, EventTyping, ev.Event)
	assert.Equal(t, "alice_bob", ev.ChannelID)

	var p TypingPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &p))
	assert.Equal(t, []string{"bob"}, p.Typers)
}

func TestCodeOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{channel.ErrEmptyMessage, CodeInvalidArgument},
		{directory.ErrEmptyGroupName, CodeInvalidArgument},
		{directory.ErrNoCreator, CodeInvalidArgument},
		{store.ErrInvalidPath, CodeInvalidArgument},
		{channel.ErrNotMember, CodePermissionDenied},
		{channel.ErrGroupNotFound, CodeNotFound},
		{store.ErrNotFound, CodeNotFound},
		{errors.New("connection reset"), CodeUnavailable},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CodeOf(tc.err), tc.err.Error())
	}
}
