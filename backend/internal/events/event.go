package events

import "time"

const (
	EventContentChanged = "CONTENT_CHANGED"
	EventMemberJoined   = "MEMBER_JOINED"
	EventMemberLeft     = "MEMBER_LEFT"
	EventSnapshotSaved  = "SNAPSHOT_SAVED"
)

// RoomEvent is the audit record published for every room mutation. Delivery
// is best-effort: losing one never affects the sync path.
type RoomEvent struct {
	EventType  string    `json:"eventType"`
	RoomID     string    `json:"roomId"`
	UserID     string    `json:"userId,omitempty"`
	Content    string    `json:"content,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}
