package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prathoseraaj/papit/backend/internal/cache"
	"github.com/prathoseraaj/papit/backend/internal/room"
	"github.com/prathoseraaj/papit/backend/internal/ws"
)

// stubPresence serves canned mirror state so the handler can be tested
// without a Redis server.
type stubPresence struct {
	members map[string][]cache.Member
	cursors map[string][]byte
	err     error
}

func (s *stubPresence) AddMember(ctx context.Context, roomID string, u room.User, ttl time.Duration) error {
	return nil
}

func (s *stubPresence) RemoveMember(ctx context.Context, roomID, userID string) error {
	return nil
}

func (s *stubPresence) AliveMembers(ctx context.Context, roomID string) ([]cache.Member, error) {
	return s.members[roomID], s.err
}

func (s *stubPresence) SetCursor(ctx context.Context, roomID, userID string, jsonData []byte, ttl time.Duration) error {
	return nil
}

func (s *stubPresence) GetCursor(ctx context.Context, roomID, userID string) ([]byte, error) {
	if raw, ok := s.cursors[roomID+"/"+userID]; ok {
		return raw, nil
	}
	return nil, context.Canceled
}

func presenceRouter(p cache.PresenceCache) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewPresenceHandler(ws.NewHub(), p)
	r.GET("/collab/rooms/:room/presence", h.Room)
	return r
}

func TestPresenceEndpointListsMirror(t *testing.T) {
	stub := &stubPresence{
		members: map[string][]cache.Member{
			"doc-1": {{UserID: "a", Name: "Alice"}, {UserID: "b", Name: "Bob"}},
		},
		cursors: map[string][]byte{
			"doc-1/a": []byte(`{"from":3,"to":7}`),
		},
	}
	r := presenceRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/collab/rooms/doc-1/presence", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Room        string `json:"room"`
		Connections int    `json:"connections"`
		Members     []struct {
			UserID string          `json:"userId"`
			Name   string          `json:"name"`
			Cursor json.RawMessage `json:"cursor"`
		} `json:"members"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if body.Room != "doc-1" || body.Connections != 0 {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Members) != 2 {
		t.Fatalf("members = %+v, want 2", body.Members)
	}
	if body.Members[0].UserID != "a" || string(body.Members[0].Cursor) != `{"from":3,"to":7}` {
		t.Fatalf("member a = %+v", body.Members[0])
	}
	if body.Members[1].UserID != "b" || body.Members[1].Cursor != nil {
		t.Fatalf("member b should carry no cursor, got %+v", body.Members[1])
	}
}

func TestPresenceEndpointEmptyRoom(t *testing.T) {
	r := presenceRouter(&stubPresence{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/collab/rooms/empty/presence", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body struct {
		Members []json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if len(body.Members) != 0 {
		t.Fatalf("members = %v, want none", body.Members)
	}
}

func TestPresenceEndpointMirrorError(t *testing.T) {
	r := presenceRouter(&stubPresence{err: context.DeadlineExceeded})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/collab/rooms/doc-1/presence", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}
