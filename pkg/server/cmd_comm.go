package server

import (
	"fmt"
	"strings"

	"github.com/dennis-mud/dennis/pkg/cmdargs"
	"github.com/dennis-mud/dennis/pkg/events"
)

func cmdSay(g *Game, s *Session, args []string) bool {
	if !g.check(s, "say", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	msg := strings.Join(args, " ")
	nick, lang := s.User.Nick, s.User.Lang

	s.Receive(events.Event{Type: events.EvSay, Text: fmt.Sprintf("You say, \"%s\"", msg)})
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvSay,
		Text:    fmt.Sprintf("%s says, \"%s\"", nick, msg),
		Alt:     fmt.Sprintf("%s says, \"%s\"", nick, Cipher(msg, lang)),
		Lang:    lang,
		Exclude: s.User.Name,
	})
	return true
}

func cmdChat(g *Game, s *Session, args []string) bool {
	if !g.check(s, "chat", args, need{online: true, args: atLeast(1)}) {
		return false
	}
	g.Router.BroadcastAll(events.Event{
		Type: events.EvChat,
		Text: fmt.Sprintf("(Chat) %s: %s", s.User.Nick, strings.Join(args, " ")),
	})
	return true
}

func cmdAnnounce(g *Game, s *Session, args []string) bool {
	if !g.check(s, "announce", args, need{wizard: true, args: atLeast(1)}) {
		return false
	}
	g.Announce("Announcement: " + strings.Join(args, " "))
	return true
}

func cmdWhisper(g *Game, s *Session, args []string) bool {
	if !g.check(s, "whisper", args, need{online: true, awake: true, args: atLeast(2)}) {
		return false
	}
	target := g.findRoomUser(s, "whisper", args[0])
	if target == nil {
		return false
	}
	if target == s {
		s.Send("whisper: You cannot whisper to yourself.")
		return false
	}
	msg := strings.Join(args[1:], " ")
	g.Router.SendTo(target.User.Name, events.Event{
		Type: events.EvWhisper,
		Text: fmt.Sprintf("%s whispers, \"%s\"", s.User.Nick, msg),
	})
	s.Receive(events.Event{
		Type: events.EvWhisper,
		Text: fmt.Sprintf("You whisper to %s, \"%s\"", target.User.Nick, msg),
	})
	return true
}

func cmdRadio(g *Game, s *Session, args []string) bool {
	if !g.check(s, "radio", args, need{online: true, args: atLeast(1)}) {
		return false
	}

	// A single number tunes the radio instead of talking into it.
	if len(args) == 1 && cmdargs.IsInt(args[0]) {
		freq, _ := cmdargs.Int(args[0])
		radio := g.heldRadio(s, "radio")
		if radio == nil {
			s.Send("You do not hold any radios to tune.")
			return false
		}
		if freq > g.Conf.MaxFreq {
			s.Send(fmt.Sprintf("The maximum frequency you can tune to is %d.", g.Conf.MaxFreq))
			return false
		}
		radio.Radio.Frequency = freq
		if freq <= 0 {
			s.Send(fmt.Sprintf("You turn %s off.", itemName(radio.Name)))
		} else {
			s.Send(fmt.Sprintf("You tune %s to the frequency %d.", itemName(radio.Name), freq))
		}
		g.saveItem(radio)
		return true
	}

	radio := g.heldRadio(s, "radio")
	if radio == nil {
		s.Send("You do not hold any radios to talk into.")
		return false
	}
	if radio.Radio.Frequency <= 0 {
		s.Send(capitalize(itemName(radio.Name)) + " is turned off.")
		return true
	}

	msg := strings.Join(args, " ")
	lang := s.User.Lang
	g.Router.BroadcastFrequency(radio.Radio.Frequency, events.Event{
		Type: events.EvSay,
		Text: msg,
		Alt:  Cipher(msg, lang),
		Lang: lang,
	})
	return true
}
