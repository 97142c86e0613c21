package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDirectMessageReceipt(t *testing.T) {
	msg := DirectMessage{SenderID: "alice"}

	t.Run("only the sender gets a glyph", func(t *testing.T) {
		assert.Equal(t, ReceiptSent, msg.Receipt("alice"))
		assert.Equal(t, "", msg.Receipt("bob"))
	})

	t.Run("double check once seen", func(t *testing.T) {
		seen := msg
		seen.Seen = true
		assert.Equal(t, ReceiptSeen, seen.Receipt("alice"))
		assert.Equal(t, "", seen.Receipt("bob"))
	})
}

func TestGroupMessageSeenLabel(t *testing.T) {
	t.Run("fresh message reads Sent", func(t *testing.T) {
		msg := GroupMessage{SenderID: "alice", SeenBy: map[string]bool{"alice": true}}
		assert.Equal(t, 0, msg.SeenCount())
		assert.Equal(t, "Sent", msg.SeenLabel())
	})

	t.Run("count excludes the sender", func(t *testing.T) {
		msg := GroupMessage{SenderID: "alice", SeenBy: map[string]bool{
			"alice": true,
			"bob":   true,
			"carol": true,
		}}
		assert.Equal(t, 2, msg.SeenCount())
		assert.Equal(t, "Seen by 2", msg.SeenLabel())
	})

	t.Run("false entries do not count", func(t *testing.T) {
		msg := GroupMessage{SenderID: "alice", SeenBy: map[string]bool{
			"alice": true,
			"bob":   false,
		}}
		assert.Equal(t, "Sent", msg.SeenLabel())
	})

	t.Run("nil map is safe", func(t *testing.T) {
		msg := GroupMessage{SenderID: "alice"}
		assert.Equal(t, 0, msg.SeenCount())
		assert.False(t, msg.SeenByUser("bob"))
	})
}

func TestMessageTimeLabel(t *testing.T) {
	t.Run("empty before the store assigns createdAt", func(t *testing.T) {
		assert.Equal(t, "", DirectMessage{}.TimeLabel())
		assert.Equal(t, "", GroupMessage{}.TimeLabel())
	})

	t.Run("clock time once assigned", func(t *testing.T) {
		ts := time.Date(2024, 5, 10, 9, 5, 0, 0, time.Local)
		assert.Equal(t, "09:05", DirectMessage{CreatedAt: ts}.TimeLabel())
		assert.Equal(t, "09:05", GroupMessage{CreatedAt: ts}.TimeLabel())
	})
}

func TestTypingStatus(t *testing.T) {
	status := TypingStatus{"alice": true, "bob": true, "carol": false}

	t.Run("active typers exclude self, sorted", func(t *testing.T) {
		assert.Equal(t, []string{"bob"}, status.ActiveTypers("alice"))
		assert.Equal(t, []string{"alice", "bob"}, status.ActiveTypers("dave"))
	})

	t.Run("peer typing flag", func(t *testing.T) {
		assert.True(t, status.PeerTyping("alice"))
		assert.False(t, TypingStatus{"alice": true}.PeerTyping("alice"))
	})
}
