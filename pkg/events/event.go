// Package events defines the transient messages the router delivers to
// sessions and the semantic types that decide how they are styled.
package events

// EventType classifies a message for styling and language handling.
type EventType int

const (
	EvText     EventType = iota // Plain directed or system text
	EvSay                       // In-room speech; subject to language substitution
	EvAnnounce                  // Server-wide announcement
	EvChat                      // Out-of-character global chat
	EvWhisper                   // Private message
	EvMove                      // Arrive/depart notices
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EvText:
		return "text"
	case EvSay:
		return "say"
	case EvAnnounce:
		return "announce"
	case EvChat:
		return "chat"
	case EvWhisper:
		return "whisper"
	case EvMove:
		return "move"
	default:
		return "unknown"
	}
}

// Event is one message on its way to one or more sessions. The scope
// (single user, room, everyone, frequency) is chosen by the router call
// that carries it. Events are never persisted.
type Event struct {
	Type    EventType
	Text    string // body
	Alt     string // body for listeners whose language differs from Lang
	Lang    string // language the body was spoken in
	Exclude string // username that must not receive the event
}

// Text builds a plain text event.
func Text(msg string) Event {
	return Event{Type: EvText, Text: msg}
}

// BodyFor returns the body a listener speaking lang should see.
func (e Event) BodyFor(lang string) string {
	if e.Type == EvSay && e.Alt != "" && lang != e.Lang {
		return e.Alt
	}
	return e.Text
}
