package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dennis-mud/dennis/pkg/cmdargs"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

const noRoomDesc = "A room of void, a room of nothingness."

func cmdHelp(g *Game, s *Session, args []string) bool {
	return g.Shell.Help(s, strings.Join(args, " "))
}

func cmdUsage(g *Game, s *Session, args []string) bool {
	return g.Shell.Usage(s, strings.Join(args, " "))
}

func cmdLook(g *Game, s *Session, args []string) bool {
	if !g.check(s, "look", args, need{online: true, awake: true}) {
		return false
	}
	room := g.currentRoom(s, "look")
	if room == nil {
		return false
	}
	if len(args) == 0 {
		g.showRoom(s, room)
		return true
	}

	target := strings.ToLower(strings.Join(args, " "))
	if cmdargs.IsInt(target) {
		s.Send("look: Requires a name, not an ID.")
		return false
	}
	switch target {
	case "the":
		s.Send("look: Very funny.")
		return false
	case "self", "me", "myself":
		g.showSelf(s)
		return true
	}

	// Exits, items here and carried, then users, by exact name first.
	for _, e := range room.Exits {
		if (!e.Hidden || s.Wizard()) && strings.EqualFold(e.Name, target) {
			g.showExit(s, e)
			return true
		}
	}
	visible := g.visibleItems(s, room)
	for _, it := range visible {
		if strings.EqualFold(it.Name, target) || "the "+strings.ToLower(it.Name) == target {
			g.showItem(s, it)
			return true
		}
	}
	occupants := g.roomSessions(s, room.ID)
	for _, other := range occupants {
		if strings.EqualFold(other.User.Name, target) || strings.EqualFold(other.User.Nick, target) {
			g.showUser(s, other.User)
			return true
		}
	}

	// Then one partial match across all three.
	var names []string
	for _, e := range room.Exits {
		if !e.Hidden || s.Wizard() {
			names = append(names, e.Name)
		}
	}
	for _, it := range visible {
		names = append(names, it.Name)
	}
	for _, other := range occupants {
		names = append(names, other.User.Nick)
	}
	name, ok := g.matchPartial(s, "look", target, names, false, "thing here")
	if !ok {
		return false
	}
	return cmdLook(g, s, strings.Fields(name))
}

func (g *Game) showRoom(s *Session, room *worlddb.Room) {
	title := room.Name
	if s.WantsColor() {
		title = paint(colorRoomName, title)
	}
	if s.Wizard() {
		title = fmt.Sprintf("%s (ID: %d)", title, room.ID)
	}
	s.Send(title)
	if room.Desc != "" {
		s.Send(room.Desc)
	} else {
		s.Send(noRoomDesc)
	}

	var nicks []string
	for _, other := range g.roomSessions(s, room.ID) {
		nicks = append(nicks, other.User.Nick)
	}
	switch len(nicks) {
	case 0:
	case 1:
		s.Send("\n" + nicks[0] + " is here.")
	default:
		s.Send("\n" + joinEnglish(nicks) + " are here.")
	}

	var items []string
	for _, it := range g.roomItems(s, room) {
		if it.Hidden {
			items = append(items, it.Name+" (Hidden)")
		} else {
			items = append(items, it.Name)
		}
	}
	if len(items) > 0 {
		s.Send("Items: " + strings.Join(items, ", ") + ".")
	}

	exits := make([]string, 0, len(s.Exits))
	for _, e := range s.Exits {
		exits = append(exits, strings.ToLower(e))
	}
	if len(exits) > 0 {
		s.Send("You can go " + joinEnglish(exits) + " from here.")
	} else {
		s.Send("No exits in this room.")
	}
}

func (g *Game) showSelf(s *Session) {
	u := s.User
	s.Send(fmt.Sprintf("%s (%s)", u.Nick, u.Name))
	if u.Desc != "" {
		s.Send(u.Desc)
	}
	if u.Spirit > 0 && !u.Wizard {
		s.Send(fmt.Sprintf("Your current spirit seems to be at %d%%.", u.Spirit))
	} else if !u.Wizard {
		s.Send("Your spirit is completely depleted.")
	}
	if len(u.Equipment) > 0 {
		if it := g.itemOrReport(s, "look", u.Equipment[0]); it != nil {
			s.Send(fmt.Sprintf("\nYou are holding %s.", itemName(it.Name)))
		}
	}
	if s.Posture != PostureNone {
		s.Send(fmt.Sprintf("\nYou are %s.", s.Posture))
	}
}

func (g *Game) showItem(s *Session, it *worlddb.Item) {
	title := it.Name
	if s.Wizard() || worlddb.IsOwner(it.Owners, s.User.Name) {
		var attrs []string
		if it.Duplified {
			attrs = append(attrs, "[duplified]")
		}
		if it.Cursed.Enabled {
			attrs = append(attrs, "[cursed]")
		}
		if it.Hidden {
			attrs = append(attrs, "[hidden]")
		}
		if it.Radio.Enabled {
			attrs = append(attrs, fmt.Sprintf("[radio:%d]", it.Radio.Frequency))
		}
		if it.Telekey != 0 {
			attrs = append(attrs, fmt.Sprintf("[telekey:%d]", it.Telekey))
		}
		if len(attrs) > 0 {
			title += " " + strings.Join(attrs, " ")
		}
	}
	s.Send(title)
	if it.Desc != "" {
		s.Send(it.Desc)
	} else {
		s.Send("You see nothing special.")
	}
}

func (g *Game) showUser(s *Session, u *worlddb.User) {
	s.Send(fmt.Sprintf("%s (%s)", u.Nick, u.Name))
	if u.Desc != "" {
		s.Send(u.Desc)
	} else {
		s.Send(subject(u, "looks", "look") + " like an ordinary person.")
	}
	if other := g.Router.ByUser(u.Name); other != nil && other.Sleeping() {
		s.Send(subject(u, "is", "are") + " sleeping.")
	}
}

func (g *Game) showExit(s *Session, e worlddb.Exit) {
	dest := "somewhere unknown"
	if r := g.Store.Room(e.Dest); r != nil {
		dest = r.Name
	}
	s.Send(fmt.Sprintf("%s leads to %s.", e.Name, dest))
	if e.Desc != "" {
		s.Send(e.Desc)
	}
	if e.Locked {
		s.Send("It is locked.")
	}
}

// roomItems returns the room's items the viewer can see.
func (g *Game) roomItems(s *Session, room *worlddb.Room) []*worlddb.Item {
	var out []*worlddb.Item
	for _, it := range g.items(s, "look", room.Items) {
		if !it.Hidden || s.Wizard() {
			out = append(out, it)
		}
	}
	return out
}

// visibleItems returns the room's visible items followed by the viewer's
// carried items.
func (g *Game) visibleItems(s *Session, room *worlddb.Room) []*worlddb.Item {
	return append(g.roomItems(s, room), g.items(s, "look", s.User.Carried())...)
}

// roomSessions returns the visible users in a room, ghosts excluded.
func (g *Game) roomSessions(s *Session, room int) []*Session {
	var out []*Session
	for _, other := range g.Router.Bound() {
		if other.User.Room == room && (!other.User.Ghost || other == s) {
			out = append(out, other)
		}
	}
	return out
}

func cmdGo(g *Game, s *Session, args []string) bool {
	if !g.check(s, "go", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	room := g.currentRoom(s, "go")
	if room == nil {
		return false
	}

	g.RefreshExits(s)
	target := strings.Join(args, " ")
	var exit *worlddb.Exit
	for i := range room.Exits {
		e := &room.Exits[i]
		if strings.EqualFold(e.Name, target) && (!e.Hidden || s.Wizard()) {
			exit = e
			break
		}
	}
	if exit == nil {
		name, ok := g.matchPartial(s, "go", target, s.Exits, false, "exit")
		if !ok {
			return false
		}
		return cmdGo(g, s, strings.Fields(name))
	}

	if exit.Locked && !s.Wizard() && !worlddb.IsOwner(exit.Owners, s.User.Name) && !worlddb.IsOwner(room.Owners, s.User.Name) {
		s.Send("go: This exit is locked.")
		return false
	}

	nick := s.User.Nick
	if s.User.Ghost {
		nick = "Something"
	}
	if !g.relocate(s, exit.Dest, nick+" left the room through "+exit.Name+".", nick+" entered the room.") {
		s.Send(fmt.Sprintf("go: ERROR: The exit %s leads to a room that does not exist: %d", exit.Name, exit.Dest))
		return false
	}
	return cmdLook(g, s, nil)
}

func cmdMakeExit(g *Game, s *Session, args []string) bool {
	if !g.check(s, "make exit", args, need{online: true, awake: true, args: atLeast(2)}) {
		return false
	}
	dest, err := cmdargs.Int(args[0])
	if err != nil {
		s.Send("Usage: " + g.Shell.usageOf("make exit"))
		return false
	}
	name := strings.Join(args[1:], " ")
	if cmdargs.IsInt(name) {
		s.Send("make exit: Exit name cannot be an integer.")
		return false
	}

	room := g.currentRoom(s, "make exit")
	if room == nil {
		return false
	}
	for _, e := range room.Exits {
		if strings.EqualFold(e.Name, name) {
			s.Send("make exit: An exit by this name already exists.")
			return false
		}
	}
	to := g.Store.Room(dest)
	if to == nil {
		s.Send("make exit: Destination room does not exist.")
		return false
	}
	mayBypass := s.Wizard()
	if room.Sealed.Outbound && !mayBypass && !worlddb.IsOwner(room.Owners, s.User.Name) {
		s.Send("make exit: This room is outbound sealed.")
		return false
	}
	if to.Sealed.Inbound && !mayBypass && !worlddb.IsOwner(to.Owners, s.User.Name) {
		s.Send("make exit: The destination room is inbound sealed.")
		return false
	}

	room.Exits = append(room.Exits, worlddb.Exit{
		Dest:   dest,
		Name:   name,
		Owners: []string{s.User.Name},
	})
	g.saveRoom(room)
	for _, other := range g.Router.Bound() {
		if other.User.Room == room.ID {
			g.RefreshExits(other)
		}
	}
	s.Send(fmt.Sprintf("make exit: Done (id: %d).", len(room.Exits)-1))
	return true
}

func cmdUnlockExit(g *Game, s *Session, args []string) bool {
	if !g.check(s, "unlock exit", args, need{online: true, awake: true, args: exactly(1)}) {
		return false
	}
	id, err := cmdargs.Int(args[0])
	if err != nil {
		s.Send("Usage: " + g.Shell.usageOf("unlock exit"))
		return false
	}
	room := g.currentRoom(s, "unlock exit")
	if room == nil {
		return false
	}
	if id < 0 || id >= len(room.Exits) {
		s.Send("unlock exit: Invalid exit ID: " + strconv.Itoa(id))
		return false
	}
	e := &room.Exits[id]
	if !s.Wizard() && !worlddb.IsOwner(e.Owners, s.User.Name) && !worlddb.IsOwner(room.Owners, s.User.Name) {
		s.Send("unlock exit: You do not own this exit or this room.")
		return false
	}
	if !e.Locked {
		s.Send("unlock exit: This exit is already unlocked.")
		return false
	}
	e.Locked = false
	g.saveRoom(room)
	s.Send("unlock exit: Done.")
	return true
}

func cmdDescribeRoom(g *Game, s *Session, args []string) bool {
	if !g.check(s, "describe room", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	room := g.currentRoom(s, "describe room")
	if room == nil {
		return false
	}
	if !s.Wizard() && !worlddb.IsOwner(room.Owners, s.User.Name) {
		s.Send("describe room: You do not own this room.")
		return false
	}
	desc := strings.Join(args, " ")
	if strings.Contains(desc, `\\\\`) {
		s.Send("describe room: Paragraph breaks may not be stacked.")
		return false
	}
	room.Desc = strings.ReplaceAll(desc, `\\`, "\n\n")
	g.saveRoom(room)
	s.Send("describe room: Done.")
	return true
}
