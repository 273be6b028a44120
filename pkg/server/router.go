package server

import (
	"sort"
	"sync"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// Router is the session registry. It owns every live session and fans
// events out to them by scope: one user, everyone, a room, or a radio
// frequency.
type Router struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    worlddb.Store
	metrics  *Metrics
}

// NewRouter creates an empty registry over store.
func NewRouter(store worlddb.Store) *Router {
	return &Router{
		sessions: make(map[string]*Session),
		store:    store,
	}
}

func (r *Router) Add(s *Session) {
	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	r.metrics.connected(s.Kind)
}

func (r *Router) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *Router) Get(id string) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id]
}

// Sessions returns a snapshot of all sessions ordered by connect time.
func (r *Router) Sessions() []*Session {
	r.mu.RLock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].ConnTime.Equal(out[j].ConnTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].ConnTime.Before(out[j].ConnTime)
	})
	return out
}

// Bound returns the snapshot restricted to sessions with a user.
func (r *Router) Bound() []*Session {
	all := r.Sessions()
	out := all[:0]
	for _, s := range all {
		if s.User != nil {
			out = append(out, s)
		}
	}
	return out
}

func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CountByKind returns the number of sessions per transport.
func (r *Router) CountByKind() map[TransportKind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[TransportKind]int)
	for _, s := range r.sessions {
		counts[s.Kind]++
	}
	return counts
}

// ByUser returns the session bound to the named user, or nil.
func (r *Router) ByUser(name string) *Session {
	key := worlddb.FoldName(name)
	for _, s := range r.Sessions() {
		if s.User != nil && worlddb.FoldName(s.User.Name) == key {
			return s
		}
	}
	return nil
}

// deliver sends ev to s, dropping the session if its transport is gone.
func (r *Router) deliver(s *Session, ev events.Event) bool {
	if s.Receive(ev) {
		return true
	}
	r.Remove(s.ID)
	return false
}

// SendTo delivers ev to the named user if online.
func (r *Router) SendTo(user string, ev events.Event) bool {
	s := r.ByUser(user)
	if s == nil {
		return false
	}
	return r.deliver(s, ev)
}

// SendText delivers plain text to the named user if online.
func (r *Router) SendText(user, msg string) bool {
	return r.SendTo(user, events.Text(msg))
}

// BroadcastAll delivers ev to every bound session except ev.Exclude. It
// returns the number of sessions reached.
func (r *Router) BroadcastAll(ev events.Event) int {
	r.metrics.broadcast("all")
	n := 0
	for _, s := range r.Bound() {
		if s.User.Name == ev.Exclude {
			continue
		}
		if r.deliver(s, ev) {
			n++
		}
	}
	return n
}

// BroadcastRoom delivers ev to every bound session in room except
// ev.Exclude. Listeners of another language hear ev.Alt for speech.
func (r *Router) BroadcastRoom(room int, ev events.Event) int {
	r.metrics.broadcast("room")
	n := 0
	for _, s := range r.Bound() {
		if s.User.Room != room || s.User.Name == ev.Exclude {
			continue
		}
		if r.deliver(s, ev) {
			n++
		}
	}
	return n
}

// roomsWithUsers returns the set of room ids holding at least one bound user.
func (r *Router) roomsWithUsers() map[int]bool {
	occupied := make(map[int]bool)
	for _, s := range r.Bound() {
		occupied[s.User.Room] = true
	}
	return occupied
}
