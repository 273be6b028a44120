package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dennis-mud/dennis/pkg/cmdargs"
	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// maxHeld is how many items a user can hold at once.
const maxHeld = 2

func cmdInventory(g *Game, s *Session, args []string) bool {
	if !g.check(s, "inventory", args, need{online: true, args: exactly(0)}) {
		return false
	}
	u := s.User

	if len(u.Equipment) == 0 {
		s.Send("inventory: You are not holding anything.")
	}
	for _, it := range g.items(s, "inventory", u.Equipment) {
		s.Send(fmt.Sprintf("You are holding %s.", itemName(it.Name)))
	}

	ids := slices.Clone(u.Inventory)
	slices.Sort(ids)
	count := 0
	for _, it := range g.items(s, "inventory", ids) {
		if s.Wizard() {
			s.Send(fmt.Sprintf("%s (%d)", it.Name, it.ID))
		} else {
			s.Send(it.Name)
		}
		count++
	}

	switch count {
	case 0:
		s.Send("inventory: Your inventory is empty.")
	case 1:
		s.Send("There is one item in your inventory.")
	default:
		s.Send(fmt.Sprintf("There are %d items in your inventory.", count))
	}
	return true
}

// maybeMeant hints at the command without a stray "item" keyword.
func maybeMeant(s *Session, cmd string, args []string) {
	if len(args) > 1 && strings.EqualFold(args[0], "item") {
		s.Send(fmt.Sprintf("%s: Maybe you meant \"%s %s\".", cmd, cmd, strings.Join(args[1:], " ")))
	}
}

func cmdHold(g *Game, s *Session, args []string) bool {
	if !g.check(s, "hold", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	u := s.User
	if len(u.Equipment) >= maxHeld {
		s.Send("Your hands are full.")
		return false
	}
	it := g.findItem(s, "hold", strings.Join(args, " "), u.Inventory)
	if it == nil {
		maybeMeant(s, "hold", args)
		return false
	}
	u.Inventory = worlddb.RemoveID(u.Inventory, it.ID)
	u.Equipment = append(u.Equipment, it.ID)
	g.saveUser(u)
	g.Router.BroadcastRoom(u.Room, events.Text(fmt.Sprintf("%s starts to hold %s.", u.Nick, itemName(it.Name))))
	return true
}

func cmdRemove(g *Game, s *Session, args []string) bool {
	if !g.check(s, "remove", args, need{online: true, args: atLeast(1)}) {
		return false
	}
	u := s.User
	it := g.findItem(s, "remove", strings.Join(args, " "), u.Equipment)
	if it == nil {
		maybeMeant(s, "remove", args)
		return false
	}
	u.Equipment = worlddb.RemoveID(u.Equipment, it.ID)
	if !slices.Contains(u.Inventory, it.ID) {
		u.Inventory = append(u.Inventory, it.ID)
	}
	g.saveUser(u)
	g.Router.BroadcastRoom(u.Room, events.Text(fmt.Sprintf("%s stops holding %s.", u.Nick, itemName(it.Name))))
	return true
}

func cmdGive(g *Game, s *Session, args []string) bool {
	if !g.check(s, "give", args, need{online: true, awake: true, args: atLeast(3)}) {
		return false
	}
	what, who, err := cmdargs.SplitKeyword(args, "to")
	if err != nil {
		s.Send("Usage: " + g.Shell.usageOf("give"))
		return false
	}

	target := g.findRoomUser(s, "give", who)
	if target == nil {
		return false
	}
	if target == s {
		s.Send("give: You already have that.")
		return false
	}
	it := g.findItem(s, "give", what, s.User.Inventory)
	if it == nil {
		maybeMeant(s, "give", strings.Fields(what))
		return false
	}
	if target.User.HasItem(it.ID) {
		s.Send("give: That user already has this item.")
		return false
	}

	// Owners keep their duplified items when giving copies away.
	if !it.Duplified || !worlddb.IsOwner(it.Owners, s.User.Name) {
		s.User.Inventory = worlddb.RemoveID(s.User.Inventory, it.ID)
	}
	target.User.Inventory = append(target.User.Inventory, it.ID)

	s.Send(fmt.Sprintf("You gave %s %s.", target.User.Nick, itemName(it.Name)))
	g.Router.SendText(target.User.Name, fmt.Sprintf("%s gave you %s.", s.User.Nick, itemName(it.Name)))
	g.saveUser(s.User)
	g.saveUser(target.User)
	return true
}

func cmdWrite(g *Game, s *Session, args []string) bool {
	if !g.check(s, "write", args, need{online: true, awake: true, args: atLeast(3)}) {
		return false
	}
	note, what, err := cmdargs.SplitKeyword(args, "on")
	if errors.Is(err, cmdargs.ErrKeywordRepeated) {
		s.Send("write: Use \"on\" only once, between the note and the item.")
		return false
	}
	if err != nil {
		s.Send("Usage: " + g.Shell.usageOf("write"))
		return false
	}

	it := g.findItem(s, "write", what, s.User.Equipment)
	if it == nil {
		return false
	}
	if it.Message != "" {
		s.Send("There is something written on that already.")
		return false
	}
	it.Message = note
	it.MLang = s.User.Lang
	g.saveItem(it)

	s.Send(fmt.Sprintf("You wrote %s on %s", note, itemName(it.Name)))
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    fmt.Sprintf("%s writes something on %s.", s.User.Nick, itemName(it.Name)),
		Exclude: s.User.Name,
	})
	return true
}

func cmdRead(g *Game, s *Session, args []string) bool {
	if !g.check(s, "read", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	it := g.findItem(s, "read", strings.Join(args, " "), s.User.Equipment)
	if it == nil {
		maybeMeant(s, "read", args)
		return false
	}
	if it.Message == "" {
		s.Send("There is nothing written on that.")
		return false
	}

	text := it.Message
	if it.MLang != "" && it.MLang != s.User.Lang {
		text = Cipher(text, it.MLang)
	}
	s.Send(fmt.Sprintf("You read '%s' on %s", text, itemName(it.Name)))
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    fmt.Sprintf("%s reads something on %s.", s.User.Nick, itemName(it.Name)),
		Exclude: s.User.Name,
	})
	return true
}
