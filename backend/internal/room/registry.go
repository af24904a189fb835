package room

import (
	"sync"
	"time"
)

// SeedFunc supplies initial content for a room that has never been seen by
// this process. Returning false falls back to DefaultContent.
type SeedFunc func(roomID string) (string, bool)

type state struct {
	document string
	// join order preserved, unique by User.ID
	members      []User
	lastActivity time.Time
}

// Registry is the single source of truth for each room's last-known document
// and its member list. Document writes are unconditional overwrites (last
// writer wins); there is no version check and no merge. Rooms are never
// removed when the last member leaves, so the document survives until the
// process restarts or SweepIdle evicts it.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*state
	seed  SeedFunc
}

type Option func(*Registry)

// WithSeed consults fn before falling back to the default template when a
// room is created lazily.
func WithSeed(fn SeedFunc) Option {
	return func(r *Registry) { r.seed = fn }
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{rooms: make(map[string]*state)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// locked
func (r *Registry) ensure(roomID string) *state {
	st := r.rooms[roomID]
	if st == nil {
		content := DefaultContent
		if r.seed != nil {
			if seeded, ok := r.seed(roomID); ok {
				content = seeded
			}
		}
		st = &state{document: content}
		r.rooms[roomID] = st
	}
	st.lastActivity = time.Now()
	return st
}

// EnsureRoom creates the room if it does not exist yet and returns its
// current document. Never fails.
func (r *Registry) EnsureRoom(roomID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensure(roomID).document
}

// Document returns the last stored content, or the default template for a
// room this process has never seen.
func (r *Registry) Document(roomID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if st := r.rooms[roomID]; st != nil {
		return st.document
	}
	return DefaultContent
}

// SetDocument overwrites the room's content unconditionally.
func (r *Registry) SetDocument(roomID, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensure(roomID).document = content
}

// AddMember inserts the user unless a member with the same id is already
// present. Re-joining with the same id is a no-op.
func (r *Registry) AddMember(roomID string, u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.ensure(roomID)
	for _, m := range st.members {
		if m.ID == u.ID {
			return
		}
	}
	st.members = append(st.members, u)
}

// RemoveMember removes the member by id, keeping the document. No-op if the
// room or member is unknown.
func (r *Registry) RemoveMember(roomID, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.rooms[roomID]
	if st == nil {
		return
	}
	st.lastActivity = time.Now()
	for i, m := range st.members {
		if m.ID == userID {
			st.members = append(st.members[:i], st.members[i+1:]...)
			return
		}
	}
}

// UpdateCursor replaces the stored cursor for the member. Silently ignored
// when the member is not in the room.
func (r *Registry) UpdateCursor(roomID, userID string, cur Cursor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.rooms[roomID]
	if st == nil {
		return
	}
	st.lastActivity = time.Now()
	for i := range st.members {
		if st.members[i].ID == userID {
			c := cur
			st.members[i].Cursor = &c
			return
		}
	}
}

// Members returns a snapshot of the room's member list in join order. The
// returned slice is safe to hand to a broadcast.
func (r *Registry) Members(roomID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := r.rooms[roomID]
	if st == nil {
		return nil
	}
	out := make([]User, len(st.members))
	copy(out, st.members)
	for i := range out {
		if out[i].Cursor != nil {
			c := *out[i].Cursor
			out[i].Cursor = &c
		}
	}
	return out
}

// SweepIdle evicts rooms that have no members and have been inactive for at
// least maxIdle. It is an extension point: nothing in the server calls it
// unless the operator configures a sweep interval.
func (r *Registry) SweepIdle(maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, st := range r.rooms {
		if len(st.members) == 0 && time.Since(st.lastActivity) >= maxIdle {
			delete(r.rooms, id)
			evicted++
		}
	}
	return evicted
}
