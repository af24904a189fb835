package room

import (
	"testing"
	"time"
)

func TestEnsureRoomSeedsDefault(t *testing.T) {
	r := NewRegistry()
	if got := r.EnsureRoom("r1"); got != DefaultContent {
		t.Fatalf("EnsureRoom seeded %q, want default template", got)
	}
	if got := r.Document("r1"); got != DefaultContent {
		t.Fatalf("Document() = %q, want default template", got)
	}
}

func TestDocumentUnseenRoom(t *testing.T) {
	r := NewRegistry()
	if got := r.Document("never-joined"); got != DefaultContent {
		t.Fatalf("Document() on unseen room = %q, want default template", got)
	}
}

func TestSetDocumentLastWriteWins(t *testing.T) {
	r := NewRegistry()
	r.SetDocument("r1", "<p>first</p>")
	r.SetDocument("r1", "<p>second</p>")
	if got := r.Document("r1"); got != "<p>second</p>" {
		t.Fatalf("Document() = %q, want the last write", got)
	}
	// no merge: the first write is fully gone
	r.SetDocument("r1", "<p>third</p>")
	if got := r.Document("r1"); got != "<p>third</p>" {
		t.Fatalf("Document() = %q, want %q", got, "<p>third</p>")
	}
}

func TestWithSeed(t *testing.T) {
	r := NewRegistry(WithSeed(func(roomID string) (string, bool) {
		if roomID == "saved" {
			return "<p>restored</p>", true
		}
		return "", false
	}))
	if got := r.EnsureRoom("saved"); got != "<p>restored</p>" {
		t.Fatalf("seeded room = %q, want restored snapshot", got)
	}
	if got := r.EnsureRoom("fresh"); got != DefaultContent {
		t.Fatalf("unseeded room = %q, want default template", got)
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	r := NewRegistry()
	r.AddMember("r1", User{ID: "a", Name: "Alice"})
	r.AddMember("r1", User{ID: "b", Name: "Bob"})
	r.AddMember("r1", User{ID: "a", Name: "Alice again"})

	members := r.Members("r1")
	if len(members) != 2 {
		t.Fatalf("Members() = %d entries, want 2", len(members))
	}
	// join order preserved, and no id appears twice
	if members[0].ID != "a" || members[1].ID != "b" {
		t.Fatalf("Members() order = [%s %s], want [a b]", members[0].ID, members[1].ID)
	}
	if members[0].Name != "Alice" {
		t.Fatalf("re-join replaced the original entry: %q", members[0].Name)
	}
}

func TestRemoveMemberKeepsDocument(t *testing.T) {
	r := NewRegistry()
	r.AddMember("r1", User{ID: "a"})
	r.SetDocument("r1", "<p>hi</p>")
	r.RemoveMember("r1", "a")

	if got := len(r.Members("r1")); got != 0 {
		t.Fatalf("Members() = %d entries after removal, want 0", got)
	}
	if got := r.Document("r1"); got != "<p>hi</p>" {
		t.Fatalf("Document() = %q after last member left, want retained content", got)
	}
	// removing an absent member is a no-op
	r.RemoveMember("r1", "a")
	r.RemoveMember("never-joined", "a")
}

func TestUpdateCursor(t *testing.T) {
	r := NewRegistry()
	r.AddMember("r1", User{ID: "a"})
	r.UpdateCursor("r1", "a", Cursor{From: 3, To: 7})

	members := r.Members("r1")
	if members[0].Cursor == nil || members[0].Cursor.From != 3 || members[0].Cursor.To != 7 {
		t.Fatalf("cursor = %+v, want {3 7}", members[0].Cursor)
	}

	r.UpdateCursor("r1", "a", Cursor{From: 5, To: 5})
	if got := r.Members("r1")[0].Cursor; got.From != 5 || got.To != 5 {
		t.Fatalf("cursor = %+v after update, want {5 5}", got)
	}
}

func TestUpdateCursorUnknownMemberNoop(t *testing.T) {
	r := NewRegistry()
	r.AddMember("r1", User{ID: "a"})
	r.UpdateCursor("r1", "ghost", Cursor{From: 1, To: 2})
	r.UpdateCursor("no-room", "ghost", Cursor{From: 1, To: 2})

	members := r.Members("r1")
	if len(members) != 1 || members[0].Cursor != nil {
		t.Fatalf("unknown-member cursor update changed state: %+v", members)
	}
}

func TestMembersSnapshotIsolated(t *testing.T) {
	r := NewRegistry()
	r.AddMember("r1", User{ID: "a"})
	r.UpdateCursor("r1", "a", Cursor{From: 1, To: 1})

	snap := r.Members("r1")
	snap[0].ID = "mutated"
	snap[0].Cursor.From = 99

	fresh := r.Members("r1")
	if fresh[0].ID != "a" || fresh[0].Cursor.From != 1 {
		t.Fatalf("snapshot mutation leaked into registry: %+v", fresh[0])
	}
}

func TestSweepIdle(t *testing.T) {
	r := NewRegistry()
	r.EnsureRoom("empty")
	r.AddMember("occupied", User{ID: "a"})

	if n := r.SweepIdle(0); n != 1 {
		t.Fatalf("SweepIdle() = %d, want 1", n)
	}
	// the occupied room survived, the empty one is gone and reseeds
	if got := len(r.Members("occupied")); got != 1 {
		t.Fatalf("occupied room evicted")
	}
	r.SetDocument("empty", "<p>back</p>")
	if got := r.Document("empty"); got != "<p>back</p>" {
		t.Fatalf("evicted room did not recreate cleanly: %q", got)
	}

	// a positive maxIdle spares recently active rooms
	r.EnsureRoom("fresh-empty")
	if n := r.SweepIdle(time.Hour); n != 0 {
		t.Fatalf("SweepIdle(1h) = %d, want 0", n)
	}
}
