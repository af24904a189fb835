package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/prathoseraaj/papit/backend/internal/cache"
	"github.com/prathoseraaj/papit/backend/internal/ws"
)

// PresenceHandler is a read-only operator view over the presence mirror:
// which members the mirror considers alive, their last mirrored cursor, and
// how many websocket connections this process holds for the room.
type PresenceHandler struct {
	hub      *ws.Hub
	presence cache.PresenceCache
}

func NewPresenceHandler(hub *ws.Hub, presence cache.PresenceCache) *PresenceHandler {
	return &PresenceHandler{hub: hub, presence: presence}
}

type presenceMember struct {
	UserID string          `json:"userId"`
	Name   string          `json:"name"`
	Cursor json.RawMessage `json:"cursor,omitempty"`
}

func (h *PresenceHandler) Room(c *gin.Context) {
	roomID := c.Param("room")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room missing"})
		return
	}
	alive, err := h.presence.AliveMembers(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "PRESENCE_READ_FAILED"})
		return
	}
	members := make([]presenceMember, 0, len(alive))
	for _, m := range alive {
		pm := presenceMember{UserID: m.UserID, Name: m.Name}
		// a missing cursor key just means the member never moved a cursor
		if raw, err := h.presence.GetCursor(c.Request.Context(), roomID, m.UserID); err == nil && len(raw) > 0 {
			pm.Cursor = raw
		}
		members = append(members, pm)
	}
	c.JSON(http.StatusOK, gin.H{
		"room":        roomID,
		"connections": h.hub.RoomSize(roomID),
		"members":     members,
	})
}
