package server

import (
	"log"
	"sync"
	"time"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/oob"
	"github.com/dennis-mud/dennis/pkg/worlddb"
	"github.com/google/uuid"
)

// TransportKind identifies how a session is connected.
type TransportKind int

const (
	TransportTelnet TransportKind = iota
	TransportWebSocket
)

func (k TransportKind) String() string {
	switch k {
	case TransportTelnet:
		return "telnet"
	case TransportWebSocket:
		return "websocket"
	default:
		return "unknown"
	}
}

// Transport carries finished text to one client. Encoding for the wire
// (line endings, escaping, compression) is the transport's business.
type Transport interface {
	WriteText(msg string) error
	Close() error
}

// Posture values.
const (
	PostureNone     = ""
	PostureSleeping = "sleeping"
)

// Session is one live connection, optionally bound to a user.
type Session struct {
	ID       string
	Kind     TransportKind
	Addr     string
	ConnTime time.Time
	LastCmd  time.Time
	CmdCount int

	// User is non-nil only between login and logout/disconnect.
	User *worlddb.User

	// Exits caches the exit names visible from the user's room.
	Exits []string

	Posture     string
	PostureItem int // item id the posture is taken on, 0 for none

	Caps *oob.Capabilities

	mu     sync.Mutex
	t      Transport
	closed bool
}

// NewSession creates a session over t.
func NewSession(kind TransportKind, addr string, t Transport) *Session {
	now := time.Now()
	return &Session{
		ID:       uuid.NewString(),
		Kind:     kind,
		Addr:     addr,
		ConnTime: now,
		LastCmd:  now,
		Caps:     oob.NewCapabilities(),
		t:        t,
	}
}

// Send writes a line of text. It returns false if the session is closed or
// the write failed; a failed write closes the session.
func (s *Session) Send(msg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if err := s.t.WriteText(msg); err != nil {
		log.Printf("[%s] write failed: %v", s.ID, err)
		s.closed = true
		s.t.Close()
		return false
	}
	return true
}

// Receive delivers an event, choosing the body for the user's language and
// applying colors when the user wants them.
func (s *Session) Receive(ev events.Event) bool {
	lang := ""
	if s.User != nil {
		lang = s.User.Lang
	}
	body := ev.BodyFor(lang)
	if s.WantsColor() {
		body = colorize(ev.Type, body)
	}
	return s.Send(body)
}

// Close shuts the transport. Later sends are skipped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.t.Close()
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Username returns the bound user's name, or "" when unbound.
func (s *Session) Username() string {
	if s.User == nil {
		return ""
	}
	return s.User.Name
}

// Nick returns the bound user's display name.
func (s *Session) Nick() string {
	if s.User == nil {
		return ""
	}
	return s.User.Nick
}

func (s *Session) Wizard() bool {
	return s.User != nil && s.User.Wizard
}

func (s *Session) Sleeping() bool {
	return s.Posture == PostureSleeping
}

// WantsColor reports whether colored output should be sent. Screen reader
// clients get plain text regardless of the user setting.
func (s *Session) WantsColor() bool {
	if s.User == nil || !s.User.Colors {
		return false
	}
	return s.Caps == nil || !s.Caps.ScreenReader
}
