package server

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unicode"

	"github.com/dennis-mud/dennis/pkg/worlddb"
	"github.com/dustin/go-humanize"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 24
)

func cmdLogin(g *Game, s *Session, args []string) bool {
	if !g.check(s, "login", args, need{args: exactly(2)}) {
		return false
	}
	if s.User != nil {
		s.Send("login: You are already logged in.")
		return false
	}

	u := g.Store.UserByName(args[0])
	if !CheckPassword(u, args[1]) {
		log.Printf("[%s] Failed login for %q from %s", s.ID, args[0], s.Addr)
		s.Send("login: Incorrect username or password.")
		return false
	}

	g.login(s, u)
	return true
}

// login binds u to s, replacing any other session of the same user, and
// shows the room.
func (g *Game) login(s *Session, u *worlddb.User) {
	if old := g.Router.ByUser(u.Name); old != nil && old != s {
		old.Send("You have been logged in from somewhere else.")
		g.unbindUser(old)
		g.Router.Remove(old.ID)
		old.Close()
	}
	g.bindUser(s, u)
	s.Send(fmt.Sprintf("You are now logged in as \"%s\".", u.Nick))
	cmdLook(g, s, nil)
}

func validUsername(name string) bool {
	n := len([]rune(name))
	if n < minUsernameLen || n > maxUsernameLen {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func cmdRegister(g *Game, s *Session, args []string) bool {
	if !g.check(s, "register", args, need{args: exactly(2)}) {
		return false
	}
	if s.User != nil {
		s.Send("register: You must log out before registering a new user.")
		return false
	}

	name := strings.ToLower(args[0])
	if !validUsername(name) || name == worlddb.WorldOwner {
		s.Send(fmt.Sprintf("register: Usernames must be %d to %d letters or digits.", minUsernameLen, maxUsernameLen))
		return false
	}
	if g.Store.UserByName(name) != nil || g.Store.UserByNick(name) != nil {
		s.Send("register: That username is already taken.")
		return false
	}

	hash, err := HashPassword(args[1])
	if err != nil {
		log.Printf("ERROR: register %s: %v", name, err)
		s.Send("register: ERROR: Could not store your password.")
		return false
	}

	u := &worlddb.User{
		Name:         name,
		Nick:         name,
		PasswordHash: hash,
		Room:         g.Conf.StartRoom,
		Inventory:    []int{},
		Equipment:    []int{},
		Spirit:       g.Conf.Spirit.Max,
		Lang:         g.Conf.DefaultLang,
		Colors:       true,
		Created:      time.Now(),
	}
	if err := g.Store.UpsertUser(u); err != nil {
		log.Printf("ERROR: register %s: %v", name, err)
		s.Send("register: ERROR: Could not create the user.")
		return false
	}

	log.Printf("[%s] Registered user %s", s.ID, name)
	s.Send(fmt.Sprintf("register: Registered user \"%s\". You may now log in.", name))
	return true
}

func cmdLogout(g *Game, s *Session, args []string) bool {
	if !g.check(s, "logout", args, need{online: true, args: exactly(0)}) {
		return false
	}
	g.unbindUser(s)
	s.Send("logout: You are now logged out.")
	return true
}

func cmdPassword(g *Game, s *Session, args []string) bool {
	if !g.check(s, "password", args, need{online: true, args: exactly(2)}) {
		return false
	}
	if !CheckPassword(s.User, args[0]) {
		s.Send("password: Incorrect password.")
		return false
	}
	hash, err := HashPassword(args[1])
	if err != nil {
		log.Printf("ERROR: password change for %s: %v", s.User.Name, err)
		s.Send("password: ERROR: Could not store your password.")
		return false
	}
	s.User.PasswordHash = hash
	g.saveUser(s.User)
	s.Send("password: Your password has been changed.")
	return true
}

// toggle flips *setting, or sets it from an "on"/"off" argument.
func toggle(g *Game, s *Session, cmd string, args []string, setting *bool, what string) bool {
	switch {
	case len(args) == 0:
		*setting = !*setting
	case strings.EqualFold(args[0], "on"):
		*setting = true
	case strings.EqualFold(args[0], "off"):
		*setting = false
	default:
		s.Send("Usage: " + g.Shell.usageOf(cmd))
		return false
	}
	g.saveUser(s.User)

	state := "off"
	if *setting {
		state = "on"
	}
	s.Send(fmt.Sprintf("%s: %s is now %s.", cmd, what, state))
	return true
}

func cmdCEcho(g *Game, s *Session, args []string) bool {
	if !g.check(s, "cecho", args, need{online: true, args: between(0, 1)}) {
		return false
	}
	return toggle(g, s, "cecho", args, &s.User.CEcho, "Command echo")
}

func cmdColors(g *Game, s *Session, args []string) bool {
	if !g.check(s, "colors", args, need{online: true, args: between(0, 1)}) {
		return false
	}
	return toggle(g, s, "colors", args, &s.User.Colors, "Color output")
}

func cmdWho(g *Game, s *Session, args []string) bool {
	if !g.check(s, "who", args, need{args: exactly(0)}) {
		return false
	}

	count := 0
	for _, other := range g.Router.Bound() {
		u := other.User
		if u.Ghost && !s.Wizard() && other != s {
			continue
		}
		line := fmt.Sprintf("%s (%s): connected %s, active %s",
			u.Nick, u.Name, humanize.Time(other.ConnTime), humanize.Time(other.LastCmd))
		if u.Ghost {
			line += " [ghost]"
		}
		if other.Sleeping() {
			line += " [sleeping]"
		}
		s.Send(line)
		count++
	}

	switch count {
	case 0:
		s.Send("Nobody is logged in.")
	case 1:
		s.Send("There is one user online.")
	default:
		s.Send(fmt.Sprintf("There are %s users online.", humanize.Comma(int64(count))))
	}
	return true
}
