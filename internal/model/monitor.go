package model

// MonitorResponse is the hub health snapshot served to operators.
type MonitorResponse struct {
	Status      string       `json:"status"`
	Connections int          `json:"connections"`
	Rooms       RoomStats    `json:"rooms"`
	Clients     []ClientInfo `json:"clients"`
}

type RoomStats struct {
	TotalRooms  int        `json:"total_rooms"`
	RoomDetails []RoomInfo `json:"room_details"`
}

type RoomInfo struct {
	ChannelID string   `json:"channel_id"`
	Viewers   int      `json:"viewers"`
	UserIDs   []string `json:"user_ids"`
}

type ClientInfo struct {
	ClientID  string `json:"client_id"`
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
	Kind      string `json:"kind"`
}
