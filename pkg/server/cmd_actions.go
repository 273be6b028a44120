package server

import (
	"fmt"
	"log"
	"strings"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// Ritual spirit costs.
const (
	ghostCost     = 50
	revealCost    = 5
	seerCost      = 5
	cleanseCost   = 5
	telepathyCost = 5
	identifyCost  = 5
)

func cmdSleep(g *Game, s *Session, args []string) bool {
	if !g.check(s, "sleep", args, need{online: true, args: exactly(0)}) {
		return false
	}
	if s.Sleeping() {
		s.Send("You are already asleep.")
		return false
	}
	s.Posture = PostureSleeping
	s.Send("You lie down and fall asleep.")
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    s.User.Nick + " lies down and falls asleep.",
		Exclude: s.User.Name,
	})
	return true
}

// wakeUp clears the sleeping posture and tells the room.
func (g *Game) wakeUp(s *Session) {
	s.Posture = PostureNone
	s.PostureItem = 0
	s.Send("You wake up.")
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    s.User.Nick + " wakes up.",
		Exclude: s.User.Name,
	})
}

func cmdWake(g *Game, s *Session, args []string) bool {
	if !g.check(s, "wake", args, need{online: true}) {
		return false
	}
	if len(args) == 0 {
		if !s.Sleeping() {
			s.Send("You are not sleeping.")
			return true
		}
		g.wakeUp(s)
		return true
	}
	if s.Sleeping() {
		s.Send("You are asleep, dreaming you could do things.")
		return false
	}

	target := g.findRoomUser(s, "wake", strings.Join(args, " "))
	if target == nil {
		return false
	}
	if !target.Sleeping() {
		s.Send(subject(target.User, "is", "are") + " not asleep.")
		return false
	}
	s.Send(fmt.Sprintf("You wake %s up.", target.User.Nick))
	target.Send(fmt.Sprintf("%s wakes you up.", s.User.Nick))
	g.wakeUp(target)
	return true
}

func cmdPerform(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{online: true, awake: true, args: atLeast(1)}) {
		return false
	}
	switch ritual := strings.ToLower(args[0]); ritual {
	case "ghost":
		return performGhost(g, s, args)
	case "reveal":
		return performReveal(g, s, args)
	case "seer":
		return performSeer(g, s, args)
	case "cleanse":
		return performCleanse(g, s, args)
	case "telepathy":
		return performTelepathy(g, s, args)
	case "identify":
		return performIdentify(g, s, args)
	default:
		s.Send("perform: Unknown ritual: " + ritual)
		return false
	}
}

// clampSpirit keeps a user's spirit within [0, max].
func (g *Game) clampSpirit(u *worlddb.User) {
	u.Spirit = max(0, min(u.Spirit, g.Conf.Spirit.Max))
}

func performGhost(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: exactly(1), spirit: ghostCost}) {
		return false
	}
	u := s.User
	if u.Ghost {
		// Turning visible again is free.
		if !u.Wizard {
			u.Spirit += ghostCost
		}
		g.clampSpirit(u)
		u.Ghost = false
		s.Send("You become visible again.")
		g.Router.BroadcastRoom(u.Room, events.Event{Type: events.EvText, Text: u.Nick + " suddenly appears.", Exclude: u.Name})
	} else {
		g.Router.BroadcastRoom(u.Room, events.Event{Type: events.EvText, Text: u.Nick + " mutters a few words and disappears.", Exclude: u.Name})
		u.Ghost = true
		s.Send("You fade from sight.")
	}
	g.saveUser(u)
	return true
}

func performReveal(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: exactly(1), spirit: revealCost}) {
		return false
	}
	g.saveUser(s.User)
	room := g.currentRoom(s, "perform")
	if room == nil {
		return false
	}
	g.Router.BroadcastRoom(room.ID, events.Text(s.User.Nick+" tries to reveal hidden things with a ritual."))

	revealed := 0
	for i := range room.Exits {
		if room.Exits[i].Hidden && g.Roll(2) == 1 {
			room.Exits[i].Hidden = false
			revealed++
		}
	}
	if revealed > 0 {
		g.saveRoom(room)
		for _, other := range g.Router.Bound() {
			if other.User.Room == room.ID {
				g.RefreshExits(other)
			}
		}
	}
	for _, it := range g.items(s, "perform", room.Items) {
		if it.Hidden && g.Roll(2) == 1 {
			it.Hidden = false
			g.saveItem(it)
			s.Send(fmt.Sprintf("You sense %s in this room.", itemName(it.Name)))
			revealed++
		}
	}
	if revealed == 0 {
		s.Send("Nothing is revealed.")
	}
	return true
}

func performSeer(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: atLeast(2)}) {
		return false
	}
	target := g.findOnlineUser(s, "perform", strings.Join(args[1:], " "))
	if target == nil {
		return false
	}
	if !g.check(s, "perform", args, need{spirit: seerCost}) {
		return false
	}
	g.saveUser(s.User)

	desc := noRoomDesc
	if room := g.Store.Room(target.User.Room); room != nil && room.Desc != "" {
		desc = room.Desc
	}
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    s.User.Nick + " looks into the distance for a moment.",
		Exclude: s.User.Name,
	})
	s.Send("You see a vision... \n" + desc + "\nThe vision ends...")
	return true
}

// findOnlineUser resolves who to any online user by name or nick, then by
// partial nick.
func (g *Game) findOnlineUser(s *Session, cmd, who string) *Session {
	var nicks []string
	for _, other := range g.Router.Bound() {
		if strings.EqualFold(other.User.Name, who) || strings.EqualFold(other.User.Nick, who) {
			return other
		}
		nicks = append(nicks, other.User.Nick)
	}
	nick, ok := g.matchPartial(s, cmd, who, nicks, false, "user online")
	if !ok {
		return nil
	}
	return g.sessionByNick(nick)
}

func (g *Game) sessionByNick(nick string) *Session {
	for _, other := range g.Router.Bound() {
		if other.User.Nick == nick {
			return other
		}
	}
	return nil
}

// performTelepathy plants a message in the mind of an online user anywhere
// in the world.
func performTelepathy(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: atLeast(3)}) {
		return false
	}
	target := g.findOnlineUser(s, "perform", args[1])
	if target == nil {
		return false
	}
	if !g.check(s, "perform", args, need{spirit: telepathyCost}) {
		return false
	}
	g.saveUser(s.User)

	msg := strings.Join(args[2:], " ")
	g.Router.SendTo(target.User.Name, events.Event{
		Type: events.EvWhisper,
		Text: fmt.Sprintf("You hear a whisper in your mind: '%s'", msg),
	})
	if target != s {
		s.Receive(events.Event{
			Type: events.EvWhisper,
			Text: fmt.Sprintf("You plant a message in the mind of %s, that says: '%s'", target.User.Nick, msg),
		})
	}
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    s.User.Nick + " focuses for a moment to perform a ritual.",
		Exclude: s.User.Name,
	})
	return true
}

// performIdentify senses the hidden nature of an item in the room or
// carried by the user.
func performIdentify(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: atLeast(2)}) {
		return false
	}
	room := g.currentRoom(s, "perform")
	if room == nil {
		return false
	}
	candidates := append(g.items(s, "perform", room.Items), g.items(s, "perform", s.User.Carried())...)
	names := make([]string, len(candidates))
	for i, it := range candidates {
		names[i] = it.Name
	}
	name, ok := g.matchPartial(s, "perform", strings.Join(args[1:], " "), names, false, "thing")
	if !ok {
		return false
	}
	var it *worlddb.Item
	for _, c := range candidates {
		if c.Name == name {
			it = c
			break
		}
	}
	if it == nil {
		return false
	}
	if !g.check(s, "perform", args, need{spirit: identifyCost}) {
		return false
	}
	g.saveUser(s.User)

	var traits []string
	if it.Duplified {
		traits = append(traits, "This thing can be anywhere, somehow at the same time.")
	}
	if it.Cursed.Enabled {
		traits = append(traits, "A dark presence haunts it.")
	}
	if it.Hidden {
		traits = append(traits, "Somehow it blends into its environment.")
	}
	if it.MLang != "" {
		traits = append(traits, "You sense that this thing can teach you and alter your language.")
	}
	if it.Radio.Enabled {
		traits = append(traits, "Faint voices seem to whisper from it.")
	}
	if it.Telekey != 0 {
		traits = append(traits, "Using this thing would take you somewhere else.")
	}

	line := "You sense the " + it.Name + "."
	if len(traits) > 0 {
		line += " " + strings.Join(traits, " ")
	}
	s.Send(line)
	s.Send("It seems to be connected to " + strings.Join(it.Owners, ", ") + ".")
	g.Router.BroadcastRoom(s.User.Room, events.Event{
		Type:    events.EvText,
		Text:    s.User.Nick + " performs a ritual of knowledge.",
		Exclude: s.User.Name,
	})
	return true
}

func performCleanse(g *Game, s *Session, args []string) bool {
	if !g.check(s, "perform", args, need{args: atLeast(2)}) {
		return false
	}
	target := g.findRoomUser(s, "perform", strings.Join(args[1:], " "))
	if target == nil {
		return false
	}
	if !g.check(s, "perform", args, need{spirit: cleanseCost}) {
		return false
	}
	g.saveUser(s.User)

	g.Router.BroadcastRoom(s.User.Room, events.Text(fmt.Sprintf("%s focuses on %s for a moment.", s.User.Nick, target.User.Nick)))
	cleansed := 0
	for _, it := range g.items(s, "perform", target.User.Carried()) {
		if it.Cursed.Enabled {
			it.Cursed.Enabled = false
			g.saveItem(it)
			cleansed++
		}
	}
	if cleansed == 0 {
		s.Send("There was nothing to cleanse.")
		return true
	}
	if target != s {
		target.Send(fmt.Sprintf("%s cleansed some of your items.", s.User.Nick))
		s.Send(fmt.Sprintf("You cleansed some of %s items.", possessive(target.User)))
	} else {
		s.Send("You cleansed some of your items.")
	}
	return true
}

func cmdBreakUser(g *Game, s *Session, args []string) bool {
	if !g.check(s, "break user", args, need{wizard: true, args: exactly(1)}) {
		return false
	}
	if args[0] == worlddb.WorldOwner {
		s.Send("break user: Not even a wizard should do that.")
		return false
	}
	target := g.Store.UserByName(args[0])
	if target == nil {
		s.Send("break user: No such user: " + args[0])
		return false
	}
	if target == s.User {
		s.Send("break user: You cannot break yourself.")
		return false
	}

	// Everything the user owned passes to the world.
	disown := func(owners []string) ([]string, bool) {
		if !worlddb.IsOwner(owners, target.Name) {
			return owners, false
		}
		if len(owners) < 2 {
			return []string{worlddb.WorldOwner}, true
		}
		out := make([]string, 0, len(owners)-1)
		for _, o := range owners {
			if o != target.Name {
				out = append(out, o)
			}
		}
		return out, true
	}
	for _, room := range g.Store.Rooms() {
		changed := false
		room.Owners, changed = disown(room.Owners)
		for i := range room.Exits {
			var exitChanged bool
			room.Exits[i].Owners, exitChanged = disown(room.Exits[i].Owners)
			changed = changed || exitChanged
		}
		if changed {
			g.saveRoom(room)
		}
	}
	for _, it := range g.Store.Items() {
		var changed bool
		if it.Owners, changed = disown(it.Owners); changed {
			g.saveItem(it)
		}
	}

	if online := g.Router.ByUser(target.Name); online != nil {
		online.Send("Your user has been deleted.")
		g.unbindUser(online)
	}
	if err := g.Store.DeleteUser(target); err != nil {
		log.Printf("ERROR: break user %s: %v", target.Name, err)
		s.Send("break user: ERROR: Could not delete the user. Ownerships have been altered.")
		return false
	}
	log.Printf("[%s] %s broke user %s", s.ID, s.User.Name, target.Name)
	s.Send("break user: Done.")
	return true
}
