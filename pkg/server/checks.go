package server

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// maxPartialMatches is the most candidates listed back to the user when a
// partial name is ambiguous.
const maxPartialMatches = 5

// argRange bounds the number of arguments a command accepts. The zero
// value accepts anything; max < 0 means no upper bound.
type argRange struct {
	min, max int
	set      bool
}

func exactly(n int) argRange      { return argRange{n, n, true} }
func atLeast(n int) argRange      { return argRange{n, -1, true} }
func between(lo, hi int) argRange { return argRange{lo, hi, true} }

// need lists the preconditions a handler wants enforced before it runs.
type need struct {
	online bool
	awake  bool
	wizard bool
	args   argRange
	spirit int // spent on success when spirit is in play
}

// check enforces req for cmd, telling the user what is wrong. Spirit is
// only spent once everything else has passed.
func (g *Game) check(s *Session, cmd string, args []string, req need) bool {
	if (req.online || req.awake || req.wizard || req.spirit > 0) && s.User == nil {
		s.Send(cmd + ": You must be logged in first.")
		return false
	}
	if req.args.set {
		n := len(args)
		if n < req.args.min || (req.args.max >= 0 && n > req.args.max) {
			s.Send("Usage: " + g.Shell.usageOf(cmd))
			return false
		}
	}
	if req.wizard && !s.User.Wizard {
		s.Send(cmd + ": You do not have permission to use this command.")
		return false
	}
	if req.awake && s.Sleeping() {
		s.Send("You are asleep, dreaming you could do things.")
		return false
	}
	if req.spirit > 0 && !s.User.Wizard {
		if s.User.Spirit < req.spirit {
			s.Send(cmd + ": You do not have enough spirit to do that.")
			return false
		}
		s.User.Spirit -= req.spirit
	}
	return true
}

// matchPartial resolves query against candidates: an exact (case-insensitive)
// name wins, otherwise a single substring match. When quiet is false the
// user is told about zero or several matches; kind names the thing sought.
func (g *Game) matchPartial(s *Session, cmd, query string, candidates []string, quiet bool, kind ...string) (string, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if trimmed := strings.TrimPrefix(q, "the "); trimmed != "" {
		q = trimmed
	}
	if q == "" {
		return "", false
	}

	var matches []string
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if lc == q {
			return c, true
		}
		if strings.Contains(lc, q) && !slices.Contains(matches, c) {
			matches = append(matches, c)
		}
	}

	switch {
	case len(matches) == 1:
		return matches[0], true
	case quiet:
	case len(matches) == 0:
		what := "thing"
		if len(kind) > 0 {
			what = kind[0]
		}
		s.Send(fmt.Sprintf("%s: No such %s: %s", cmd, what, query))
	case len(matches) <= maxPartialMatches:
		s.Send(fmt.Sprintf("%s: Did you mean: %s?", cmd, strings.Join(matches, ", ")))
	default:
		s.Send(cmd + ": Too many possible matches.")
	}
	return "", false
}

// items resolves ids to items, reporting and skipping dangling references.
func (g *Game) items(s *Session, cmd string, ids []int) []*worlddb.Item {
	out := make([]*worlddb.Item, 0, len(ids))
	for _, id := range ids {
		if it := g.itemOrReport(s, cmd, id); it != nil {
			out = append(out, it)
		}
	}
	return out
}

// findItem resolves target among ids by exact name, "the <name>", id, or
// finally a partial name.
func (g *Game) findItem(s *Session, cmd, target string, ids []int) *worlddb.Item {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "the" {
		s.Send(cmd + ": Very funny.")
		return nil
	}
	items := g.items(s, cmd, ids)
	for _, it := range items {
		name := strings.ToLower(it.Name)
		if target == name || target == "the "+name || strconv.Itoa(it.ID) == target {
			return it
		}
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	name, ok := g.matchPartial(s, cmd, target, names, false, "item")
	if !ok {
		return nil
	}
	for _, it := range items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// findRoomUser resolves target to an online user in the session's room by
// name or nick, then by partial nick. Wizards may reach anyone online.
func (g *Game) findRoomUser(s *Session, cmd, target string) *Session {
	var pool []*Session
	for _, other := range g.Router.Bound() {
		if other.User.Room == s.User.Room || s.User.Wizard {
			pool = append(pool, other)
		}
	}
	for _, other := range pool {
		if strings.EqualFold(other.User.Name, target) || strings.EqualFold(other.User.Nick, target) {
			return other
		}
	}

	nicks := make([]string, len(pool))
	for i, other := range pool {
		nicks[i] = other.User.Nick
	}
	nick, ok := g.matchPartial(s, cmd, target, nicks, false, "user in this room")
	if !ok {
		return nil
	}
	for _, other := range pool {
		if other.User.Nick == nick {
			return other
		}
	}
	return nil
}

// joinEnglish renders "a", "a and b", or "a, b and c".
func joinEnglish(words []string) string {
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}

// pronoun returns the subject pronoun for a user's pronoun setting.
func pronoun(u *worlddb.User) string {
	switch u.Pronouns {
	case "male":
		return "he"
	case "female":
		return "she"
	case "neutral", "":
		return "they"
	default:
		return u.Pronouns
	}
}

// subject starts a sentence about u: "He is", "They are".
func subject(u *worlddb.User, singular, plural string) string {
	p := pronoun(u)
	if p == "they" {
		return "They " + plural
	}
	return capitalize(p) + " " + singular
}

// possessive returns the possessive pronoun for a user's pronoun setting.
func possessive(u *worlddb.User) string {
	switch u.Pronouns {
	case "male":
		return "his"
	case "female":
		return "her"
	default:
		return "their"
	}
}
