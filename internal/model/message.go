package model

import (
	"strconv"
	"time"

	"github.com/Deepakk2104/Zync/internal/store"
)

// Read receipt glyphs rendered next to the sender's own messages.
// Single check: delivered, not yet seen. Double check: seen.
const (
	ReceiptSent = "✓"
	ReceiptSeen = "✓✓"
)

// DirectMessage is one entry of a 1:1 channel's append-only log.
// The single seen flag is flipped false to true exactly once, by the
// non-sender, and never reverts.
type DirectMessage struct {
	ID        string    `json:"id"`
	Text      string    `json:"text" bson:"text" firestore:"text"`
	SenderID  string    `json:"senderId" bson:"senderId" firestore:"senderId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	Seen      bool      `json:"seen" bson:"seen" firestore:"seen"`
}

// DirectMessageFields is the append payload for a new direct message.
// The store assigns createdAt.
func DirectMessageFields(senderID, text string) store.Doc {
	return store.Doc{
		"text":     text,
		"senderId": senderID,
		"seen":     false,
	}
}

func DirectMessageFromEntry(e store.Entry) DirectMessage {
	return DirectMessage{
		ID:        e.ID,
		Text:      docString(e.Data, "text"),
		SenderID:  docString(e.Data, "senderId"),
		CreatedAt: docTime(e.Data, "createdAt"),
		Seen:      docBool(e.Data, "seen"),
	}
}

// TimeLabel renders the clock time shown next to a message bubble.
func (m DirectMessage) TimeLabel() string {
	if m.CreatedAt.IsZero() {
		return ""
	}
	return m.CreatedAt.Local().Format("15:04")
}

// Receipt returns the glyph for the viewer, or "" for messages the
// viewer did not send: only the sender's own messages carry one.
func (m DirectMessage) Receipt(viewerID string) string {
	if m.SenderID != viewerID {
		return ""
	}
	if m.Seen {
		return ReceiptSeen
	}
	return ReceiptSent
}

// GroupMessage is one entry of a group channel's log. SeenBy is a
// monotone set: the sender is included at creation and every
// non-sender member unions themselves in on first observation.
type GroupMessage struct {
	ID        string          `json:"id"`
	Text      string          `json:"text" bson:"text" firestore:"text"`
	SenderID  string          `json:"senderId" bson:"senderId" firestore:"senderId"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt" firestore:"createdAt"`
	SeenBy    map[string]bool `json:"seenBy" bson:"seenBy" firestore:"seenBy"`
}

func GroupMessageFields(senderID, text string) store.Doc {
	return store.Doc{
		"text":     text,
		"senderId": senderID,
		"seenBy":   map[string]bool{senderID: true},
	}
}

func GroupMessageFromEntry(e store.Entry) GroupMessage {
	return GroupMessage{
		ID:        e.ID,
		Text:      docString(e.Data, "text"),
		SenderID:  docString(e.Data, "senderId"),
		CreatedAt: docTime(e.Data, "createdAt"),
		SeenBy:    docBoolMap(e.Data, "seenBy"),
	}
}

func (m GroupMessage) TimeLabel() string {
	if m.CreatedAt.IsZero() {
		return ""
	}
	return m.CreatedAt.Local().Format("15:04")
}

func (m GroupMessage) SeenByUser(userID string) bool {
	return m.SeenBy[userID]
}

// SeenCount excludes the sender from the displayed count.
func (m GroupMessage) SeenCount() int {
	n := 0
	for _, seen := range m.SeenBy {
		if seen {
			n++
		}
	}
	if n > 0 {
		n--
	}
	return n
}

// SeenLabel reads "Sent" until someone besides the sender has seen
// the message.
func (m GroupMessage) SeenLabel() string {
	if n := m.SeenCount(); n > 0 {
		return "Seen by " + strconv.Itoa(n)
	}
	return "Sent"
}
