package server

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/muesli/termenv"
)

// Semantic colors, as ANSI 256-color indexes.
const (
	colorSay      = "14" // bright cyan
	colorAnnounce = "15" // bright white
	colorChat     = "10" // bright green
	colorWhisper  = "13" // magenta
	colorRoomName = "6"
	colorError    = "9"
)

var eventColors = map[events.EventType]string{
	events.EvSay:      colorSay,
	events.EvAnnounce: colorAnnounce,
	events.EvChat:     colorChat,
	events.EvWhisper:  colorWhisper,
}

// paint wraps msg in the foreground color and a reset.
func paint(color, msg string) string {
	p := termenv.ANSI256
	return p.String(msg).Foreground(p.Color(color)).String()
}

// colorize applies the semantic color for an event type. Unstyled types
// come back unchanged.
func colorize(t events.EventType, msg string) string {
	c, ok := eventColors[t]
	if !ok {
		return msg
	}
	return paint(c, msg)
}

// plain strips escape sequences for clients that cannot render them.
func plain(msg string) string {
	return ansi.Strip(msg)
}
