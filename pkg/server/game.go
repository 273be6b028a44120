package server

import (
	"fmt"
	"log"
	"math/rand/v2"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// Game ties the world store to the live sessions: the command shell, the
// router, the event loop and the ambient services.
type Game struct {
	Store     worlddb.Store
	Conf      *GameConf
	Router    *Router
	Shell     *Shell
	Loop      *Loop
	Texts     *TextFiles
	Metrics   *Metrics
	Auth      *AuthService
	StartTime time.Time

	// Roll returns a uniform integer in [1, n].
	Roll func(n int) int
}

// NewGame builds a game over store. A nil conf uses the defaults.
func NewGame(store worlddb.Store, conf *GameConf) *Game {
	if conf == nil {
		conf = DefaultGameConf()
	}
	g := &Game{
		Store:     store,
		Conf:      conf,
		Router:    NewRouter(store),
		Loop:      NewLoop(256),
		Texts:     LoadTextFiles(conf.TextDir),
		StartTime: time.Now(),
		Roll:      func(n int) int { return rand.IntN(n) + 1 },
	}
	g.Metrics = NewMetrics(g)
	g.Router.metrics = g.Metrics
	g.Auth = NewAuthService(store, conf.JWTSecret, conf.JWTExpiry)

	sh, err := NewShell(g, InitCommands())
	if err != nil {
		panic(err)
	}
	g.Shell = sh
	return g
}

// HandleLine dispatches one input line. A panicking handler is logged with
// its stack, the trace is shown to the session, and the connection stays up.
func (g *Game) HandleLine(s *Session, line string) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			log.Printf("[%s] PANIC in command %q: %v\n%s", s.ID, redactLine(line), r, stack)
			s.Send(fmt.Sprintf("ERROR: %v\n%s", r, stack))
		}
	}()
	s.LastCmd = time.Now()
	s.CmdCount++
	g.Shell.Dispatch(s, line)
}

// --- persistence helpers ---

func (g *Game) saveUser(u *worlddb.User) {
	if err := g.Store.UpsertUser(u); err != nil {
		log.Printf("ERROR: saving user %s: %v", u.Name, err)
	}
}

func (g *Game) saveRoom(r *worlddb.Room) {
	if err := g.Store.UpsertRoom(r); err != nil {
		log.Printf("ERROR: saving room %d: %v", r.ID, err)
	}
}

func (g *Game) saveItem(it *worlddb.Item) {
	if err := g.Store.UpsertItem(it); err != nil {
		log.Printf("ERROR: saving item %d: %v", it.ID, err)
	}
}

// currentRoom returns the session user's room, reporting a missing one.
func (g *Game) currentRoom(s *Session, cmd string) *worlddb.Room {
	room := g.Store.Room(s.User.Room)
	if room == nil {
		log.Printf("ERROR: user %s is in nonexistent room %d", s.User.Name, s.User.Room)
		s.Send(fmt.Sprintf("%s: ERROR: Your current room does not exist: %d", cmd, s.User.Room))
	}
	return room
}

// itemOrReport looks up an item, reporting a dangling reference.
func (g *Game) itemOrReport(s *Session, cmd string, id int) *worlddb.Item {
	it := g.Store.Item(id)
	if it == nil {
		log.Printf("ERROR: item referenced by %s does not exist: %d", s.Username(), id)
		s.Send(fmt.Sprintf("%s: ERROR: Item referenced here does not exist: %d", cmd, id))
	}
	return it
}

// RefreshExits rebuilds the session's cached exit names.
func (g *Game) RefreshExits(s *Session) {
	s.Exits = nil
	if s.User == nil {
		return
	}
	if room := g.Store.Room(s.User.Room); room != nil {
		s.Exits = room.ExitNames(s.User.Wizard)
	}
}

// --- binding ---

// bindUser attaches u to s and places the user in their room.
func (g *Game) bindUser(s *Session, u *worlddb.User) {
	s.User = u
	s.Posture = PostureNone
	s.PostureItem = 0

	room := g.Store.Room(u.Room)
	if room == nil {
		log.Printf("ERROR: user %s was in nonexistent room %d, moving to %d", u.Name, u.Room, g.Conf.StartRoom)
		u.Room = g.Conf.StartRoom
		room = g.Store.Room(u.Room)
	}
	if room != nil {
		room.AddUser(u.Name)
		g.saveRoom(room)
	}
	g.saveUser(u)
	g.RefreshExits(s)

	log.Printf("[%s] Logged in as %s", s.ID, u.Name)
	g.Router.BroadcastRoom(u.Room, events.Event{
		Type:    events.EvMove,
		Text:    u.Nick + " logged in.",
		Exclude: u.Name,
	})
}

// unbindUser detaches the user from s and takes them out of their room.
func (g *Game) unbindUser(s *Session) {
	u := s.User
	if u == nil {
		return
	}
	if room := g.Store.Room(u.Room); room != nil {
		room.RemoveUser(u.Name)
		g.saveRoom(room)
	}
	g.saveUser(u)
	g.Router.BroadcastRoom(u.Room, events.Event{
		Type:    events.EvMove,
		Text:    u.Nick + " logged out.",
		Exclude: u.Name,
	})
	log.Printf("[%s] Logged out %s", s.ID, u.Name)

	s.User = nil
	s.Exits = nil
	s.Posture = PostureNone
	s.PostureItem = 0
}

// Disconnect unbinds s, removes it from the registry and closes it.
func (g *Game) Disconnect(s *Session) {
	g.unbindUser(s)
	g.Router.Remove(s.ID)
	s.Close()
	log.Printf("[%s] Connection closed (%s)", s.ID, s.Addr)
}

// --- movement ---

// relocate moves the session user to dest, announcing departure and
// arrival to the two rooms. It returns false if dest does not exist.
func (g *Game) relocate(s *Session, dest int, leave, arrive string) bool {
	u := s.User
	to := g.Store.Room(dest)
	if to == nil {
		return false
	}
	from := g.Store.Room(u.Room)

	s.PostureItem = 0
	if from != nil {
		from.RemoveUser(u.Name)
		g.Router.BroadcastRoom(from.ID, events.Event{Type: events.EvMove, Text: leave, Exclude: u.Name})
	}
	to.AddUser(u.Name)
	u.Room = to.ID
	g.Router.BroadcastRoom(to.ID, events.Event{Type: events.EvMove, Text: arrive, Exclude: u.Name})

	if from != nil {
		g.saveRoom(from)
	}
	g.saveRoom(to)
	g.saveUser(u)
	g.RefreshExits(s)
	return true
}

// MoveUser teleports the session user to dest.
func (g *Game) MoveUser(s *Session, dest int) bool {
	nick := s.User.Nick
	if !g.relocate(s, dest, nick+" vanished from the room.", nick+" appeared.") {
		log.Printf("ERROR: Tried to teleport %s into nonexistent room %d", s.User.Name, dest)
		s.Send("ERROR: Tried to teleport a sleeper into a nonexistent room!")
		return false
	}
	g.Metrics.relocated()
	return true
}

// --- crawler data ---

// MSSPData returns the MSSP variables reported to crawlers. Configured
// extras never replace the built-in fields.
func (g *Game) MSSPData() map[string]string {
	data := make(map[string]string, len(g.Conf.MSSP)+5)
	for k, v := range g.Conf.MSSP {
		data[k] = v
	}
	data["NAME"] = g.Conf.MudName
	data["PLAYERS"] = strconv.Itoa(len(g.Router.Bound()))
	data["AREAS"] = strconv.Itoa(len(g.Store.Rooms()))
	data["UPTIME"] = strconv.FormatInt(g.StartTime.Unix(), 10)
	data["CODEBASE"] = VersionString()
	return data
}

// Announce sends msg to every bound session as an announcement.
func (g *Game) Announce(msg string) {
	log.Printf("Announce: %s", msg)
	g.Router.BroadcastAll(events.Event{Type: events.EvAnnounce, Text: msg})
}

// ShutdownNotice warns everyone that the server stops in delay seconds.
func (g *Game) ShutdownNotice(delay int) {
	g.Announce(fmt.Sprintf("<<< %s IS SHUTTING DOWN IN %d SECONDS >>>", strings.ToUpper(g.Conf.MudName), delay))
}
