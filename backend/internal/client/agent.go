package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/prathoseraaj/papit/backend/internal/room"
	"github.com/prathoseraaj/papit/backend/internal/ws"
)

// Surface is the local editing surface the agent bridges to the network. The
// agent calls it from its read goroutine; implementations marshal into their
// own UI thread as needed.
type Surface interface {
	// SetContent replaces the whole document with remotely authored content.
	SetContent(content string)
	// SetMembers replaces the room's member list.
	SetMembers(users []room.User)
	// SetRemoteCursor updates another participant's selection.
	SetRemoteCursor(userID string, cur room.Cursor)
}

// Agent is the participant side of the protocol: it emits locally authored
// edits and applies remote ones, breaking the echo loop in between.
type Agent struct {
	conn    *websocket.Conn
	user    room.User
	surface Surface

	// wmu serializes writes; gorilla allows one concurrent writer
	wmu sync.Mutex

	// the loop guard: applying remote content into the surface makes the
	// editor fire its own change event; that echo must not be re-broadcast
	mu          sync.Mutex
	suppress    bool
	lastApplied string
}

// PromptName blocks until the user enters a display name. The join handshake
// needs a name up front, so this deliberately happens before dialing.
func PromptName(in io.Reader, out io.Writer) string {
	fmt.Fprint(out, "Display name: ")
	sc := bufio.NewScanner(in)
	if sc.Scan() {
		if name := strings.TrimSpace(sc.Text()); name != "" {
			return name
		}
	}
	return "Anonymous"
}

// Dial connects to the gateway and binds user to roomID. Missing identity
// fields are filled in session-locally: a fresh id and a palette color.
func Dial(ctx context.Context, gatewayURL, roomID string, user room.User, surface Surface) (*Agent, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Name == "" {
		user.Name = "Anonymous"
	}
	if user.Color == "" {
		user.Color = PickColor()
	}

	u, err := url.Parse(gatewayURL)
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/collab/ws"
	}
	rawUser, err := json.Marshal(user)
	if err != nil {
		return nil, fmt.Errorf("encode user: %w", err)
	}
	q := u.Query()
	q.Set("room", roomID)
	q.Set("user", string(rawUser))
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u.String(), err)
	}
	return &Agent{conn: conn, user: user, surface: surface}, nil
}

func (a *Agent) User() room.User { return a.user }

// Run applies incoming events to the surface until the connection closes or
// ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			a.conn.Close()
		case <-done:
		}
	}()

	for {
		var msg ws.ServerMessage
		if err := a.conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		switch msg.Type {
		case ws.EventInitContent, ws.EventContentChanged:
			a.mu.Lock()
			a.suppress = true
			a.lastApplied = msg.Content
			a.mu.Unlock()
			a.surface.SetContent(msg.Content)
		case ws.EventUsersUpdated:
			a.surface.SetMembers(msg.Users)
		case ws.EventCursorChanged:
			if msg.Cursor != nil {
				a.surface.SetRemoteCursor(msg.UserID, *msg.Cursor)
			}
		default:
			log.Printf("ignore unknown event %q", msg.Type)
		}
	}
}

// PushContent emits the full current content. The one change event caused by
// the latest remote apply (same content, guard armed) is swallowed; any
// genuinely new content clears the guard and goes out.
func (a *Agent) PushContent(content string) error {
	a.mu.Lock()
	if a.suppress && content == a.lastApplied {
		a.suppress = false
		a.mu.Unlock()
		return nil
	}
	a.suppress = false
	a.mu.Unlock()
	return a.write(ws.ClientMessage{
		Type:    ws.EventContentChanged,
		Content: content,
		UserID:  a.user.ID,
	})
}

// PushCursor emits the local selection.
func (a *Agent) PushCursor(from, to int) error {
	return a.write(ws.ClientMessage{
		Type:   ws.EventCursorChanged,
		UserID: a.user.ID,
		Cursor: &room.Cursor{From: from, To: to},
	})
}

func (a *Agent) write(msg ws.ClientMessage) error {
	a.wmu.Lock()
	defer a.wmu.Unlock()
	return a.conn.WriteJSON(msg)
}

func (a *Agent) Close() error {
	return a.conn.Close()
}
