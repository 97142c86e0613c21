package hub

import (
	"github.com/Deepakk2104/Zync/internal/model"
)

// MonitorService provides methods to gather hub statistics
type MonitorService struct {
	hub *Hub
}

// NewMonitorService creates a new monitor service
func NewMonitorService(hub *Hub) *MonitorService {
	return &MonitorService{hub: hub}
}

// GetStats gathers and returns all hub statistics
func (ms *MonitorService) GetStats() model.MonitorResponse {
	ms.hub.mu.RLock()
	defer ms.hub.mu.RUnlock()

	rooms := model.RoomStats{
		RoomDetails: make([]model.RoomInfo, 0, len(ms.hub.rooms)),
	}
	clients := make([]model.ClientInfo, 0)

	for channelID, room := range ms.hub.rooms {
		userIDs := make([]string, 0, len(room))
		for _, client := range room {
			userIDs = append(userIDs, client.identity.ID)
			clients = append(clients, model.ClientInfo{
				ClientID:  client.ID,
				UserID:    client.identity.ID,
				ChannelID: channelID,
				Kind:      string(client.selection.Kind),
			})
		}

		rooms.RoomDetails = append(rooms.RoomDetails, model.RoomInfo{
			ChannelID: channelID,
			Viewers:   len(room),
			UserIDs:   userIDs,
		})
		rooms.TotalRooms++
	}

	status := "healthy"
	if len(clients) == 0 {
		status = "idle"
	}

	return model.MonitorResponse{
		Status:      status,
		Connections: len(clients),
		Rooms:       rooms,
		Clients:     clients,
	}
}
