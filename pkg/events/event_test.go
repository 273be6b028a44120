package events

import "testing"

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		typ  EventType
		want string
	}{
		{EvText, "text"},
		{EvSay, "say"},
		{EvAnnounce, "announce"},
		{EvChat, "chat"},
		{EvWhisper, "whisper"},
		{EvMove, "move"},
		{EventType(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.typ, got, tt.want)
		}
	}
}

func TestBodyFor(t *testing.T) {
	say := Event{Type: EvSay, Text: "hello", Alt: "uryyb", Lang: "en"}
	tests := []struct {
		name string
		ev   Event
		lang string
		want string
	}{
		{"same language", say, "en", "hello"},
		{"other language", say, "fr", "uryyb"},
		{"no alternate", Event{Type: EvSay, Text: "hello", Lang: "en"}, "fr", "hello"},
		{"not speech", Event{Type: EvChat, Text: "hello", Alt: "uryyb", Lang: "en"}, "fr", "hello"},
	}
	for _, tt := range tests {
		if got := tt.ev.BodyFor(tt.lang); got != tt.want {
			t.Errorf("%s: BodyFor(%q) = %q, want %q", tt.name, tt.lang, got, tt.want)
		}
	}
}
