package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prathoseraaj/papit/backend/internal/events"
	"github.com/prathoseraaj/papit/backend/internal/room"
)

const (
	presenceTTL = 600 * time.Second
	// well inside presenceTTL so a live member never hits its expireAt
	presenceRefresh = presenceTTL / 3
)

// Conn binds one user to one room for the lifetime of a websocket.
type Conn struct {
	ws     *websocket.Conn
	m      *Manager
	roomID string
	user   room.User
	send   chan ServerMessage
}

func newConn(ws *websocket.Conn, m *Manager, roomID string, user room.User) *Conn {
	return &Conn{ws: ws, m: m, roomID: roomID, user: user, send: make(chan ServerMessage, 32)}
}

// enqueue never blocks: if the connection's send queue is full the message is
// dropped. Broadcasts are fire-and-forget with no retry.
func (c *Conn) enqueue(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
		log.Printf("send queue full, drop %s (room=%s user=%s)", msg.Type, c.roomID, c.user.ID)
	}
}

// readLoop runs until the transport reports closure. A malformed payload is
// logged and dropped; it never terminates the connection.
func (c *Conn) readLoop(ctx context.Context) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("read error (room=%s user=%s): %v", c.roomID, c.user.ID, err)
			}
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("drop malformed payload (room=%s user=%s): %v", c.roomID, c.user.ID, err)
			continue
		}
		switch msg.Type {
		case EventContentChanged:
			c.handleContent(ctx, msg)
		case EventCursorChanged:
			c.handleCursor(ctx, msg)
		default:
			log.Printf("ignore unknown event %q (room=%s user=%s)", msg.Type, c.roomID, c.user.ID)
		}
	}
}

func (c *Conn) handleContent(ctx context.Context, msg ClientMessage) {
	// Unconditional overwrite: the payload's userId is trusted as-is.
	c.m.registry.SetDocument(c.roomID, msg.Content)
	c.m.hub.RelayExcept(c.roomID, c, ServerMessage{
		Type:    EventContentChanged,
		Content: msg.Content,
		UserID:  msg.UserID,
	})
	if c.m.events != nil {
		c.m.events.TryEnqueue(events.RoomEvent{
			EventType:  events.EventContentChanged,
			RoomID:     c.roomID,
			UserID:     msg.UserID,
			Content:    msg.Content,
			OccurredAt: time.Now(),
		})
	}
}

func (c *Conn) handleCursor(ctx context.Context, msg ClientMessage) {
	if msg.Cursor == nil || msg.Cursor.From < 0 || msg.Cursor.To < 0 {
		log.Printf("drop malformed cursor (room=%s user=%s)", c.roomID, c.user.ID)
		return
	}
	c.m.registry.UpdateCursor(c.roomID, msg.UserID, *msg.Cursor)
	c.m.hub.RelayExcept(c.roomID, c, ServerMessage{
		Type:   EventCursorChanged,
		UserID: msg.UserID,
		Cursor: msg.Cursor,
	})
	if c.m.presence != nil {
		raw, err := json.Marshal(msg.Cursor)
		if err == nil {
			if err := c.m.presence.SetCursor(ctx, c.roomID, msg.UserID, raw, presenceTTL); err != nil {
				log.Printf("presence cursor mirror failed: %v", err)
			}
		}
	}
}

func (c *Conn) writeLoop() {
	for msg := range c.send {
		_ = c.ws.WriteJSON(msg)
	}
}
