package server

import (
	"fmt"
	"log"

	"github.com/dennis-mud/dennis/pkg/events"
	"github.com/dennis-mud/dennis/pkg/worlddb"
)

var (
	nightmareSubjects = []string{
		"a faceless figure", "a swarm of black moths", "your own reflection",
		"a drowned bell", "something under the floorboards", "a choir without mouths",
	}
	nightmareActions = []string{
		"whispers your name", "follows you down an endless hall", "peels the walls away",
		"counts your teeth", "pulls you under cold water", "laughs from every direction",
	}
)

// nightmare composes a themed bad dream from the game's dice.
func (g *Game) nightmare() string {
	subject := nightmareSubjects[g.Roll(len(nightmareSubjects))-1]
	action := nightmareActions[g.Roll(len(nightmareActions))-1]
	return fmt.Sprintf("You dream that %s %s.", subject, action)
}

// Tick runs one world tick. It must be called on the loop goroutine.
func (g *Game) Tick() {
	g.Metrics.tick()
	for _, s := range g.Router.Bound() {
		if s.User == nil || s.User.Wizard {
			continue
		}
		g.tickUser(s)
	}
}

func (g *Game) tickUser(s *Session) {
	u := s.User
	sp := g.Conf.Spirit

	if u.Ghost {
		u.Spirit -= sp.GhostCost
	}
	if u.Spirit <= 0 {
		if u.Ghost {
			u.Ghost = false
			g.Router.BroadcastRoom(u.Room, events.Event{
				Type:    events.EvText,
				Text:    u.Nick + " is visible again.",
				Exclude: u.Name,
			})
			s.Send("You are visible again.")
		}
		u.Spirit = 0
	}

	if u.Spirit < sp.Max {
		cursed, nightmare := false, false
		ported := false
		for _, id := range u.Carried() {
			it := g.Store.Item(id)
			if it == nil {
				log.Printf("ERROR: tick: user %s carries nonexistent item %d", u.Name, id)
				continue
			}
			if it.Cursed.Enabled {
				switch it.Cursed.Type {
				case worlddb.CurseSpirit:
					cursed = true
				case worlddb.CurseNightmare:
					nightmare = true
				}
			}
			if ported || it.Telekey == 0 || it.Telekey == u.Room {
				continue
			}
			if g.Conf.TelekeySport > 0 && s.Sleeping() && g.Roll(g.Conf.TelekeySport) == 1 {
				s.Send(fmt.Sprintf("You dream of your %s.", it.Name))
				ported = g.MoveUser(s, it.Telekey)
			}
		}

		switch {
		case nightmare && s.Sleeping():
			s.Send(g.nightmare())
		case nightmare:
			u.Spirit += sp.Rate
			s.Send("You regain some spirit.")
		case !cursed:
			u.Spirit += sp.Rate
			if !s.Sleeping() {
				s.Send("You regain some spirit.")
			}
		case !s.Sleeping():
			s.Send("You shiver for a moment.")
		}
	}
	g.clampSpirit(u)
	g.saveUser(u)
}
