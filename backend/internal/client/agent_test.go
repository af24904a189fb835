package client

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prathoseraaj/papit/backend/internal/httpapi/middleware"
	"github.com/prathoseraaj/papit/backend/internal/room"
	"github.com/prathoseraaj/papit/backend/internal/ws"
)

type cursorUpdate struct {
	userID string
	cur    room.Cursor
}

type fakeSurface struct {
	content chan string
	members chan []room.User
	cursors chan cursorUpdate
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		content: make(chan string, 16),
		members: make(chan []room.User, 16),
		cursors: make(chan cursorUpdate, 16),
	}
}

func (s *fakeSurface) SetContent(content string)    { s.content <- content }
func (s *fakeSurface) SetMembers(users []room.User) { s.members <- users }

func (s *fakeSurface) SetRemoteCursor(id string, cur room.Cursor) {
	s.cursors <- cursorUpdate{id, cur}
}

func newTestGateway(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager := ws.NewManager(ws.NewHub(), room.NewRegistry(), ws.Sidecars{})
	r := gin.New()
	r.GET("/collab/ws", middleware.Identify(middleware.ClientAsserted{}), manager.WebSocketConnect)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func recvString(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for content")
		return ""
	}
}

func startAgent(t *testing.T, srv *httptest.Server, roomID string, u room.User) (*Agent, *fakeSurface) {
	t.Helper()
	surface := newFakeSurface()
	ctx, cancel := context.WithCancel(context.Background())
	agent, err := Dial(ctx, srv.URL, roomID, u, surface)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	go func() { _ = agent.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		agent.Close()
	})
	return agent, surface
}

func TestAgentSyncsTwoParticipants(t *testing.T) {
	srv := newTestGateway(t)

	a, surfA := startAgent(t, srv, "r1", room.User{ID: "A", Name: "Alice"})
	if got := recvString(t, surfA.content); got != room.DefaultContent {
		t.Fatalf("A's join snapshot = %q, want default template", got)
	}

	_, surfB := startAgent(t, srv, "r1", room.User{ID: "B", Name: "Bob"})
	if got := recvString(t, surfB.content); got != room.DefaultContent {
		t.Fatalf("B's join snapshot = %q, want default template", got)
	}

	// membership converges to two entries
	waitMembers := func(s *fakeSurface, n int) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case users := <-s.members:
				if len(users) == n {
					return
				}
			case <-deadline:
				t.Fatalf("membership never reached %d", n)
			}
		}
	}
	waitMembers(surfA, 2)

	if err := a.PushContent("<p>hello from A</p>"); err != nil {
		t.Fatalf("push content: %v", err)
	}
	if got := recvString(t, surfB.content); got != "<p>hello from A</p>" {
		t.Fatalf("B applied %q", got)
	}

	if err := a.PushCursor(2, 5); err != nil {
		t.Fatalf("push cursor: %v", err)
	}
	select {
	case cu := <-surfB.cursors:
		if cu.userID != "A" || cu.cur.From != 2 || cu.cur.To != 5 {
			t.Fatalf("B saw cursor %+v", cu)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("B never saw A's cursor")
	}
}

func TestAgentLoopGuardSwallowsEcho(t *testing.T) {
	srv := newTestGateway(t)

	a, surfA := startAgent(t, srv, "r1", room.User{ID: "A", Name: "Alice"})
	recvString(t, surfA.content)
	b, surfB := startAgent(t, srv, "r1", room.User{ID: "B", Name: "Bob"})
	recvString(t, surfB.content)

	if err := a.PushContent("<p>v1</p>"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := recvString(t, surfB.content); got != "<p>v1</p>" {
		t.Fatalf("B applied %q", got)
	}

	// B's editor fires a change event while applying the remote content; the
	// guard must swallow exactly that one emission
	if err := b.PushContent("<p>v1</p>"); err != nil {
		t.Fatalf("echo push: %v", err)
	}
	select {
	case got := <-surfA.content:
		t.Fatalf("echo leaked back to A: %q", got)
	case <-time.After(150 * time.Millisecond):
	}

	// the next genuine local edit goes through
	if err := b.PushContent("<p>v2 from B</p>"); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got := recvString(t, surfA.content); got != "<p>v2 from B</p>" {
		t.Fatalf("A applied %q", got)
	}
}

func TestDialFillsIdentity(t *testing.T) {
	srv := newTestGateway(t)

	agent, surf := startAgent(t, srv, "r1", room.User{})
	recvString(t, surf.content)

	u := agent.User()
	if u.ID == "" || u.Name != "Anonymous" || u.Color == "" {
		t.Fatalf("session identity not filled in: %+v", u)
	}
	found := false
	for _, c := range palette {
		if c == u.Color {
			found = true
		}
	}
	if !found {
		t.Fatalf("color %q not from the palette", u.Color)
	}
}

func TestPromptName(t *testing.T) {
	var out strings.Builder
	if got := PromptName(strings.NewReader("  Alice \n"), &out); got != "Alice" {
		t.Fatalf("PromptName = %q", got)
	}
	if !strings.Contains(out.String(), "Display name") {
		t.Fatalf("prompt not written: %q", out.String())
	}
	if got := PromptName(strings.NewReader("\n"), &out); got != "Anonymous" {
		t.Fatalf("empty input = %q, want Anonymous", got)
	}
}
