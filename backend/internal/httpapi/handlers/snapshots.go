package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prathoseraaj/papit/backend/internal/events"
	"github.com/prathoseraaj/papit/backend/internal/room"
	"github.com/prathoseraaj/papit/backend/internal/store"
)

// SnapshotHandler exposes explicit save/load of a room's document. Saving
// copies the live in-memory content into MySQL; the sync protocol itself
// never touches the database.
type SnapshotHandler struct {
	registry  *room.Registry
	snapshots *store.SnapshotStore
	events    *events.Dispatcher
}

func NewSnapshotHandler(registry *room.Registry, snapshots *store.SnapshotStore, dispatcher *events.Dispatcher) *SnapshotHandler {
	return &SnapshotHandler{registry: registry, snapshots: snapshots, events: dispatcher}
}

func (h *SnapshotHandler) Save(c *gin.Context) {
	roomID := c.Param("room")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room missing"})
		return
	}
	content := h.registry.Document(roomID)
	if err := h.snapshots.Save(c.Request.Context(), roomID, content); err != nil {
		log.Printf("snapshot save failed (room=%s): %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SNAPSHOT_SAVE_FAILED"})
		return
	}
	if h.events != nil {
		// unlike the sync path, a REST caller can afford to wait for queue space
		evt := events.RoomEvent{
			EventType:  events.EventSnapshotSaved,
			RoomID:     roomID,
			OccurredAt: time.Now(),
		}
		if err := h.events.Enqueue(c.Request.Context(), evt); err != nil {
			log.Printf("snapshot audit event dropped (room=%s): %v", roomID, err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"room": roomID, "saved": true})
}

func (h *SnapshotHandler) Load(c *gin.Context) {
	roomID := c.Param("room")
	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room missing"})
		return
	}
	content, ok, err := h.snapshots.Load(c.Request.Context(), roomID)
	if err != nil {
		log.Printf("snapshot load failed (room=%s): %v", roomID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "SNAPSHOT_LOAD_FAILED"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no snapshot"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": roomID, "content": content})
}
