package ws

import (
	"github.com/prathoseraaj/papit/backend/internal/room"
)

// Event types shared by both directions of the protocol.
const (
	// server -> joining connection only
	EventInitContent = "init-content"
	// server -> all room members
	EventUsersUpdated = "users-updated"
	// both directions; relayed to all but the sender
	EventContentChanged = "content-changed"
	EventCursorChanged  = "cursor-changed"
)

// ClientMessage is the inbound envelope. UserID is whatever the client
// asserts; the gateway trusts it (see middleware.IdentityPolicy for where a
// stricter policy plugs in).
type ClientMessage struct {
	Type    string       `json:"type"`
	Content string       `json:"content,omitempty"`
	UserID  string       `json:"userId,omitempty"`
	Cursor  *room.Cursor `json:"cursor,omitempty"`
}

type ServerMessage struct {
	Type    string       `json:"type"`
	Content string       `json:"content,omitempty"`
	UserID  string       `json:"userId,omitempty"`
	Cursor  *room.Cursor `json:"cursor,omitempty"`
	Users   []room.User  `json:"users,omitempty"`
}
