package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/event"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/presence"
	"github.com/Deepakk2104/Zync/internal/service"
	"github.com/Deepakk2104/Zync/internal/store"
	"github.com/Deepakk2104/Zync/internal/typing"
)

type inboundMessage struct {
	event  event.WsEvent
	client *Client
}

// Hub owns every live websocket session. Each connected client binds
// one identity to one selected channel; the hub opens that client's
// store subscriptions (messages, typing, peer presence or group
// info), forwards snapshots to the socket, and releases every
// subscription when the client goes away.
type Hub struct {
	service  service.ChatService
	store    store.Store
	presence *presence.Tracker
	typing   *typing.Coordinator
	logger   *zap.Logger

	mu    sync.RWMutex
	rooms map[string]map[string]*Client // channel id -> client id -> client

	register   chan *Client
	unregister chan *Client
	inbound    chan inboundMessage

	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

func NewHub(
	svc service.ChatService,
	s store.Store,
	p *presence.Tracker,
	t *typing.Coordinator,
	logger *zap.Logger,
) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		service:    svc,
		store:      s,
		presence:   p,
		typing:     t,
		logger:     logger,
		rooms:      make(map[string]map[string]*Client),
		register:   make(chan *Client, 1024),
		unregister: make(chan *Client, 1024),
		inbound:    make(chan inboundMessage, 4096),
		ctx:        ctx,
		cancel:     cancel,
	}

	go h.run()

	for i := 0; i < workerPoolSize; i++ {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			for {
				select {
				case <-h.ctx.Done():
					return
				case in, ok := <-h.inbound:
					if !ok {
						return
					}
					h.handleEvent(in.event, in.client)
				}
			}
		}()
	}

	return h
}

func (h *Hub) run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		}
	}
}

// handleEvent dispatches one client-originated event. Validation and
// authorization failures are reflected back as error events; they
// never tear the connection down.
func (h *Hub) handleEvent(ev event.WsEvent, c *Client) {
	ctx, cancel := context.WithTimeout(h.ctx, opTimeout)
	defer cancel()

	switch ev.Event {
	case event.EventSend:
		var p event.SendPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.logger.Warn("malformed send payload", zap.String("client_id", c.ID), zap.Error(err))
			return
		}
		var err error
		if c.selection.Kind == directory.KindGroup {
			err = h.service.SendGroup(ctx, c.identity, c.selection.ChannelID, p.Text)
		} else {
			err = h.service.SendDirect(ctx, c.identity, c.peerID, p.Text)
		}
		if err != nil {
			c.SendError(err)
		}

	case event.EventSetTyping:
		var p event.SetTypingPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			h.logger.Warn("malformed typing payload", zap.String("client_id", c.ID), zap.Error(err))
			return
		}
		if err := h.service.SetTyping(ctx, c.identity, c.selection, p.IsTyping); err != nil {
			c.SendError(err)
		}

	default:
		h.logger.Warn("unknown event type", zap.String("event", ev.Event))
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	room, ok := h.rooms[c.selection.ChannelID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[c.selection.ChannelID] = room
	}
	room[c.ID] = c
	h.mu.Unlock()

	// A session start marks the identity online.
	if err := h.presence.SetPresence(h.ctx, c.identity.ID, true); err != nil {
		h.logger.Warn("online mark failed", zap.String("user_id", c.identity.ID), zap.Error(err))
	}

	c.startWatches()

	h.logger.Info("client registered",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.identity.ID),
		zap.String("channel_id", c.selection.ChannelID),
	)
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if room, ok := h.rooms[c.selection.ChannelID]; ok {
		delete(room, c.ID)
		if len(room) == 0 {
			delete(h.rooms, c.selection.ChannelID)
		}
	}
	h.mu.Unlock()

	c.Close()

	// Best-effort offline mark; an abrupt disconnect that loses this
	// write just leaves lastSeen stale until the next session.
	ctx, cancel := context.WithTimeout(context.Background(), unregisterTimeout)
	defer cancel()
	if err := h.presence.SetPresence(ctx, c.identity.ID, false); err != nil {
		h.logger.Warn("offline mark failed", zap.String("user_id", c.identity.ID), zap.Error(err))
	}

	h.logger.Info("client removed",
		zap.String("client_id", c.ID),
		zap.String("user_id", c.identity.ID),
		zap.String("channel_id", c.selection.ChannelID),
	)
}

// Stop is idempotent: both the server shutdown sequence and the
// container teardown call it.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.cancel()

		h.mu.RLock()
		for _, room := range h.rooms {
			for _, client := range room {
				client.Close()
			}
		}
		h.mu.RUnlock()

		close(h.inbound)
		h.wg.Wait()
	})
}

var websocketUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and registers a client bound to the
// given identity and channel selection. peerID is required for direct
// channels and ignored for groups.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, id model.Identity, sel directory.Selection, peerID string) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	RegisterClient(id, sel, peerID, conn, h)
}
