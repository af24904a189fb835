package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/prathoseraaj/papit/backend/internal/cache"
	"github.com/prathoseraaj/papit/backend/internal/events"
	"github.com/prathoseraaj/papit/backend/internal/httpapi/middleware"
	"github.com/prathoseraaj/papit/backend/internal/room"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Sidecars are optional integrations. Either may be nil; the sync path never
// depends on them.
type Sidecars struct {
	Presence cache.PresenceCache
	Events   *events.Dispatcher
}

// Manager is the protocol boundary: it accepts connections, wires them into
// the registry and hub, and tears their state down on disconnect.
type Manager struct {
	hub      *Hub
	registry *room.Registry
	presence cache.PresenceCache
	events   *events.Dispatcher
}

func NewManager(hub *Hub, registry *room.Registry, side Sidecars) *Manager {
	return &Manager{hub: hub, registry: registry, presence: side.Presence, events: side.Events}
}

// refreshPresence re-adds the member on a ticker for as long as the
// connection lives, extending the mirror's logical TTL. The wire protocol has
// no client heartbeat, so an idle member would otherwise hit its expireAt and
// drop out of AliveMembers while still connected.
func (m *Manager) refreshPresence(roomID string, user room.User, stop <-chan struct{}) {
	ticker := time.NewTicker(presenceRefresh)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			if err := m.presence.AddMember(ctx, roomID, user, presenceTTL); err != nil {
				log.Printf("presence mirror refresh failed: %v", err)
			}
			cancel()
		case <-stop:
			return
		}
	}
}

// WebSocketConnect is the gin handler for /collab/ws. Identity is expected to
// have been resolved by middleware.Identify; a missing identity degrades to a
// generated anonymous user rather than rejecting the connection.
func (m *Manager) WebSocketConnect(c *gin.Context) {
	roomID := c.Query("room")
	if roomID == "" {
		roomID = "default"
	}
	user, ok := middleware.UserFrom(c)
	if !ok {
		user = middleware.AnonymousUser()
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v (origin=%s)", err, c.Request.Header.Get("Origin"))
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	conn := newConn(ws, m, roomID, user)
	go conn.writeLoop()

	// Snapshot goes to the new connection only, before it can observe any
	// relayed change; the member list goes to the whole room, newcomer
	// included.
	doc := m.registry.EnsureRoom(roomID)
	m.registry.AddMember(roomID, user)
	m.hub.Join(roomID, conn)
	conn.enqueue(ServerMessage{Type: EventInitContent, Content: doc})
	m.hub.BroadcastUsers(roomID, m.registry.Members(roomID))

	var stopRefresh chan struct{}
	if m.presence != nil {
		if err := m.presence.AddMember(ctx, roomID, user, presenceTTL); err != nil {
			log.Printf("presence mirror add failed: %v", err)
		}
		stopRefresh = make(chan struct{})
		go m.refreshPresence(roomID, user, stopRefresh)
	}
	if m.events != nil {
		m.events.TryEnqueue(events.RoomEvent{
			EventType:  events.EventMemberJoined,
			RoomID:     roomID,
			UserID:     user.ID,
			OccurredAt: time.Now(),
		})
	}

	conn.readLoop(ctx)

	if stopRefresh != nil {
		close(stopRefresh)
	}

	// Disconnect, graceful or not: membership is cleaned up, the document is
	// retained for whoever rejoins. Leave before close(send) so no broadcast
	// can still reach the dying queue.
	m.hub.Leave(roomID, conn)
	close(conn.send)
	m.registry.RemoveMember(roomID, user.ID)
	m.hub.BroadcastUsers(roomID, m.registry.Members(roomID))

	if m.presence != nil {
		// the request context is dead by now
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.presence.RemoveMember(cleanupCtx, roomID, user.ID); err != nil {
			log.Printf("presence mirror remove failed: %v", err)
		}
	}
	if m.events != nil {
		m.events.TryEnqueue(events.RoomEvent{
			EventType:  events.EventMemberLeft,
			RoomID:     roomID,
			UserID:     user.ID,
			OccurredAt: time.Now(),
		})
	}
}
