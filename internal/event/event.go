package event

import (
	"encoding/json"
	"time"

	"github.com/Deepakk2104/Zync/internal/model"
)

// Client to server events.
const (
	EventSend      = "send"
	EventSetTyping = "set_typing"
)

// Server to client events, each carrying the latest full-state view
// derived from one store subscription. There is no ordering guarantee
// between different event kinds, mirroring the store's lack of
// cross-path ordering.
const (
	EventMessages  = "messages"
	EventTyping    = "typing"
	EventPresence  = "presence"
	EventGroupInfo = "group_info"
	EventError     = "error"
)

type WsEvent struct {
	Event     string          `json:"event"`
	ChannelID string          `json:"channelId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type SendPayload struct {
	Text string `json:"text"`
}

type SetTypingPayload struct {
	IsTyping bool `json:"isTyping"`
}

// MessagesPayload is the full ordered log; exactly one of the two
// slices is set depending on the channel kind.
type MessagesPayload struct {
	Direct []model.DirectMessage `json:"direct,omitempty"`
	Group  []model.GroupMessage  `json:"group,omitempty"`
}

type TypingPayload struct {
	Typers []string `json:"typers"`
}

type PresencePayload struct {
	UserID   string    `json:"userId"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"lastSeen"`
	Status   string    `json:"status"`
}

type GroupInfoPayload struct {
	Group model.Group `json:"group"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Make wraps a payload into the wire envelope. Marshal failures of
// our own payload types cannot happen at runtime and are swallowed
// into an error event.
func Make(kind, channelID string, payload any) WsEvent {
	raw, err := json.Marshal(payload)
	if err != nil {
		raw, _ = json.Marshal(ErrorPayload{Code: "INTERNAL", Message: err.Error()})
		return WsEvent{Event: EventError, ChannelID: channelID, Payload: raw}
	}
	return WsEvent{Event: kind, ChannelID: channelID, Payload: raw}
}
