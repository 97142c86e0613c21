package hub

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Deepakk2104/Zync/internal/channel"
	"github.com/Deepakk2104/Zync/internal/directory"
	"github.com/Deepakk2104/Zync/internal/event"
	"github.com/Deepakk2104/Zync/internal/model"
	"github.com/Deepakk2104/Zync/internal/presence"
)

var (
	// tuning parameters
	writeWait          = 10 * time.Second    // time allowed to write a message to the peer
	pongWait           = 20 * time.Second    // time allowed to read the next pong message
	pingInterval       = (pongWait * 9) / 10 // send pings with this period
	maxMessageSize     = 64 * 1024           // max inbound message size
	sendBufSize        = 256                 // per-connection outbound buffer size
	workerPoolSize     = 16                  // workers processing inbound events
	sendTimeout        = 2 * time.Second     // timeout for enqueuing outbound events
	opTimeout          = 10 * time.Second    // timeout for store operations behind an event
	kickOnFull         = true                // disconnect client when egress is full
	registerTimeout    = 5 * time.Second
	unregisterTimeout  = 5 * time.Second
	inboundSendTimeout = 500 * time.Millisecond
)

// Client is one websocket session: an identity looking at one
// channel. Its context scopes every store subscription opened for it,
// so closing the client releases all of them.
type Client struct {
	ID        string
	identity  model.Identity
	selection directory.Selection
	peerID    string

	conn    *websocket.Conn
	manager *Hub
	egress  chan event.WsEvent

	cancel         context.CancelFunc
	ctx            context.Context
	once           sync.Once
	connClosed     chan struct{}
	connClosedOnce sync.Once
	closed         bool
	closedMu       sync.RWMutex
}

// RegisterClient creates a client for an upgraded connection and
// hands it to the hub.
func RegisterClient(id model.Identity, sel directory.Selection, peerID string, conn *websocket.Conn, h *Hub) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		ID:         uuid.New().String(),
		identity:   id,
		selection:  sel,
		peerID:     peerID,
		conn:       conn,
		manager:    h,
		egress:     make(chan event.WsEvent, sendBufSize),
		cancel:     cancel,
		ctx:        ctx,
		connClosed: make(chan struct{}),
	}

	select {
	case h.register <- client:
		go client.ReadMessages()
		go client.WriteMessages()
		return client
	case <-time.After(registerTimeout):
		h.logger.Warn("client registration timed out", zap.String("client_id", client.ID))
		cancel()
		conn.Close()
		return nil
	}
}

// startWatches opens the store subscriptions backing this client's
// view and forwards their snapshots to the socket. Called by the hub
// once the client is registered.
func (c *Client) startWatches() {
	h := c.manager

	if c.selection.Kind == directory.KindGroup {
		g := channel.NewGroup(h.store, h.typing, h.logger, c.identity.ID, c.selection.ChannelID)

		// The group record itself is watched regardless of
		// membership, so a non-member still renders the read-only
		// header.
		if w, err := g.WatchInfo(c.ctx); err != nil {
			c.SendError(err)
		} else {
			go c.forwardGroupInfo(w)
		}

		feed, err := g.Observe(c.ctx)
		if err != nil {
			c.SendError(err)
			return
		}
		go c.forwardGroupMessages(feed)

		if w, err := g.WatchTyping(c.ctx); err != nil {
			c.SendError(err)
		} else {
			go c.forwardTyping(w.C)
		}
		return
	}

	d := channel.NewDirect(h.store, h.typing, h.logger, c.identity.ID, c.peerID)

	feed, err := d.Observe(c.ctx)
	if err != nil {
		c.SendError(err)
		return
	}
	go c.forwardDirectMessages(feed)

	if w, err := d.WatchTyping(c.ctx); err != nil {
		c.SendError(err)
	} else {
		go c.forwardTyping(w.C)
	}

	if w, err := h.presence.WatchUser(c.ctx, c.peerID); err != nil {
		c.SendError(err)
	} else {
		go c.forwardPresence(w)
	}
}

func (c *Client) forwardDirectMessages(feed *channel.Feed) {
	for msgs := range feed.C {
		c.SafeSend(event.Make(event.EventMessages, c.selection.ChannelID, event.MessagesPayload{Direct: msgs}), sendTimeout)
	}
}

func (c *Client) forwardGroupMessages(feed *channel.GroupFeed) {
	for msgs := range feed.C {
		c.SafeSend(event.Make(event.EventMessages, c.selection.ChannelID, event.MessagesPayload{Group: msgs}), sendTimeout)
	}
}

func (c *Client) forwardTyping(ch <-chan []string) {
	for typers := range ch {
		c.SafeSend(event.Make(event.EventTyping, c.selection.ChannelID, event.TypingPayload{Typers: typers}), sendTimeout)
	}
}

func (c *Client) forwardGroupInfo(w *channel.InfoWatch) {
	for info := range w.C {
		c.SafeSend(event.Make(event.EventGroupInfo, c.selection.ChannelID, event.GroupInfoPayload{Group: info}), sendTimeout)
	}
}

func (c *Client) forwardPresence(w *presence.UserWatch) {
	for u := range w.C {
		c.SafeSend(event.Make(event.EventPresence, c.selection.ChannelID, event.PresencePayload{
			UserID:   u.ID,
			Online:   u.Online,
			LastSeen: u.LastSeen,
			Status:   presence.StatusLine(u, time.Now()),
		}), sendTimeout)
	}
}

func (c *Client) ReadMessages() {
	defer func() {
		select {
		case c.manager.unregister <- c:
		case <-time.After(unregisterTimeout):
			c.manager.logger.Warn("client unregister timed out", zap.String("client_id", c.ID))
		}
		c.Close()
	}()

	c.conn.SetReadLimit(int64(maxMessageSize))
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(c.pongHandler)

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
			var ev event.WsEvent
			if err := c.conn.ReadJSON(&ev); err != nil {
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure,
					websocket.CloseGoingAway,
					websocket.CloseAbnormalClosure,
				) {
					return
				}
				if ne, ok := err.(net.Error); ok && ne.Timeout() {
					c.manager.logger.Info("client timed out", zap.String("client_id", c.ID))
					return
				}
				c.manager.logger.Warn("client read failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}

			select {
			case c.manager.inbound <- inboundMessage{client: c, event: ev}:
			case <-time.After(inboundSendTimeout):
				c.manager.logger.Warn("inbound queue full, dropping client", zap.String("client_id", c.ID))
				c.cancel()
				c.conn.Close()
			case <-c.ctx.Done():
				return
			}
		}
	}
}

func (c *Client) WriteMessages() {
	ticker := time.NewTicker(pingInterval)

	defer func() {
		ticker.Stop()
		c.Close()
		_ = c.conn.Close()
		c.connClosedOnce.Do(func() { close(c.connClosed) })
	}()

	for {
		select {
		case <-c.ctx.Done():
			_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		case ev := <-c.egress:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				c.manager.logger.Warn("client write failed", zap.String("client_id", c.ID), zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *Client) pongHandler(string) error {
	return c.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// SafeSend enqueues an event unless the client is closed or the
// egress stays full past the timeout.
func (c *Client) SafeSend(ev event.WsEvent, timeout time.Duration) bool {
	if c.IsClosed() {
		return false
	}
	select {
	case <-c.ctx.Done():
		return false
	case c.egress <- ev:
		return true
	case <-time.After(timeout):
		if kickOnFull {
			select {
			case c.manager.unregister <- c:
			default:
			}
		}
		return false
	}
}

func (c *Client) SendError(err error) {
	c.SafeSend(event.Make(event.EventError, c.selection.ChannelID, event.ErrorPayload{
		Code:    event.CodeOf(err),
		Message: err.Error(),
	}), sendTimeout)
}

// Close tears the session down via context cancellation. The egress
// channel is never closed, so a concurrent SafeSend can at worst
// buffer an event nobody will drain.
func (c *Client) Close() {
	c.once.Do(func() {
		c.closedMu.Lock()
		c.closed = true
		c.closedMu.Unlock()

		c.cancel()

		go func() {
			select {
			case <-c.connClosed:
			case <-time.After(5 * time.Second):
				_ = c.conn.Close()
			}
		}()
	})
}

func (c *Client) IsClosed() bool {
	c.closedMu.RLock()
	defer c.closedMu.RUnlock()
	return c.closed
}
