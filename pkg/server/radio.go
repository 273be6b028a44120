package server

import (
	"fmt"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// BroadcastFrequency delivers ev through every enabled radio tuned to freq:
// radios carried by online users speak into the carrier's room, and radios
// lying in an occupied room speak into that room. Each copy is wrapped as
// `<item> broadcasts: "<body>"`. A frequency of zero or below is off.
func (r *Router) BroadcastFrequency(freq int, ev events.Event) int {
	if freq <= 0 {
		return 0
	}
	r.metrics.broadcast("frequency")

	n := 0
	for _, s := range r.Bound() {
		for _, id := range s.User.Carried() {
			it := r.store.Item(id)
			if it == nil {
				log.Printf("ERROR: user %s carries nonexistent item %d", s.User.Name, id)
				continue
			}
			if tunedTo(it, freq) {
				n += r.BroadcastRoom(s.User.Room, radioEvent(it, ev))
			}
		}
	}

	occupied := r.roomsWithUsers()
	for _, room := range r.store.Rooms() {
		if !occupied[room.ID] {
			continue
		}
		for _, id := range room.Items {
			it := r.store.Item(id)
			if it == nil {
				log.Printf("ERROR: room %d references nonexistent item %d", room.ID, id)
				continue
			}
			if tunedTo(it, freq) {
				n += r.BroadcastRoom(room.ID, radioEvent(it, ev))
			}
		}
	}
	return n
}

func tunedTo(it *worlddb.Item, freq int) bool {
	return it.Radio.Enabled && it.Radio.Frequency == freq
}

func radioEvent(it *worlddb.Item, ev events.Event) events.Event {
	out := ev
	out.Text = fmt.Sprintf("%s broadcasts: \"%s\"", it.Name, ev.Text)
	if ev.Alt != "" {
		out.Alt = fmt.Sprintf("%s broadcasts: \"%s\"", it.Name, ev.Alt)
	}
	return out
}

// Cipher garbles text for listeners who do not share the speaker's
// language: a Vigenère shift over letters keyed by the language name.
// Case and non-letters are preserved. An empty key leaves text as is.
func Cipher(text, lang string) string {
	var key []int
	for _, r := range strings.ToLower(lang) {
		if r >= 'a' && r <= 'z' {
			key = append(key, int(r-'a'))
		}
	}
	if len(key) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	k := 0
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			r = 'a' + (r-'a'+rune(key[k%len(key)]))%26
			k++
		case r >= 'A' && r <= 'Z':
			r = 'A' + (r-'A'+rune(key[k%len(key)]))%26
			k++
		}
		b.WriteRune(r)
	}
	return b.String()
}

// heldRadio returns the first enabled radio in the user's hands.
func (g *Game) heldRadio(s *Session, cmd string) *worlddb.Item {
	for _, id := range s.User.Equipment {
		it := g.itemOrReport(s, cmd, id)
		if it != nil && it.Radio.Enabled {
			return it
		}
	}
	return nil
}

// itemName formats an item name for use in a sentence.
func itemName(name string) string {
	lower := strings.ToLower(name)
	for _, article := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, article) {
			return name
		}
	}
	return "the " + name
}

// capitalize upper-cases the first letter of msg.
func capitalize(msg string) string {
	r, size := utf8.DecodeRuneInString(msg)
	if size == 0 {
		return msg
	}
	return string(unicode.ToUpper(r)) + msg[size:]
}
