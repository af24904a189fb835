package ws

import (
	"sync"

	"github.com/prathoseraaj/papit/backend/internal/room"
)

// Hub tracks the live connections of each room and fans events out to them.
// It holds no membership truth of its own: the member lists it broadcasts
// always come from the room registry at call time.
type Hub struct {
	mu sync.RWMutex
	// roomID -> set of connections
	rooms map[string]map[*Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Conn]struct{})}
}

func (h *Hub) Join(roomID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Conn]struct{})
	}
	h.rooms[roomID][c] = struct{}{}
}

func (h *Hub) Leave(roomID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// RoomSize reports the number of live connections in the room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastUsers sends the member list to every connection in the room,
// including the one whose join or leave triggered the update.
func (h *Hub) BroadcastUsers(roomID string, members []room.User) {
	msg := ServerMessage{Type: EventUsersUpdated, Users: members}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		c.enqueue(msg)
	}
}

// RelayExcept delivers msg to every connection in the room except sender,
// at most once each. Enqueue is non-blocking, so a stalled recipient drops
// the event instead of stalling the room.
func (h *Hub) RelayExcept(roomID string, sender *Conn, msg ServerMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[roomID] {
		if c == sender {
			continue
		}
		c.enqueue(msg)
	}
}
