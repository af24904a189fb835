// Terminal participant for the collab server. Each line typed on stdin
// replaces the shared document (the protocol transmits full content), and
// remote edits, cursors and membership changes are printed as they arrive.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/prathoseraaj/papit/backend/internal/client"
	"github.com/prathoseraaj/papit/backend/internal/room"
)

type termSurface struct {
	agent *client.Agent
}

func (s *termSurface) SetContent(content string) {
	fmt.Printf("\n--- document ---\n%s\n----------------\n> ", content)
	// a rich editor fires its own change event when content is set
	// programmatically; emulate that so the agent's loop guard sees the echo
	if s.agent != nil {
		_ = s.agent.PushContent(content)
	}
}

func (s *termSurface) SetMembers(users []room.User) {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	fmt.Printf("\n[online: %s]\n> ", strings.Join(names, ", "))
}

func (s *termSurface) SetRemoteCursor(userID string, cur room.Cursor) {
	fmt.Printf("\n[%s moved cursor to %d..%d]\n> ", userID, cur.From, cur.To)
}

func main() {
	server := flag.String("server", "http://localhost:4000", "collab server base URL")
	roomID := flag.String("room", "default", "room to join")
	name := flag.String("name", "", "display name (prompted if empty)")
	flag.Parse()

	user := room.User{Name: *name}
	if user.Name == "" {
		user.Name = client.PromptName(os.Stdin, os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	surface := &termSurface{}
	agent, err := client.Dial(ctx, *server, *roomID, user, surface)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer agent.Close()
	surface.agent = agent

	go func() {
		if err := agent.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("connection closed: %v", err)
		}
		cancel()
	}()

	fmt.Printf("joined %q as %s (%s)\n> ", *roomID, agent.User().Name, agent.User().ID)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := sc.Text()
		if err := agent.PushContent(line); err != nil {
			log.Printf("push failed: %v", err)
			return
		}
		if err := agent.PushCursor(len(line), len(line)); err != nil {
			log.Printf("push cursor failed: %v", err)
			return
		}
		fmt.Print("> ")
	}
}
