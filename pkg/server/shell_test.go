package server

import (
	"reflect"
	"slices"
	"strings"
	"testing"
)

func TestCommandTableAliasesUnique(t *testing.T) {
	owner := make(map[string]string)
	specials := make(map[rune]string)
	for _, c := range InitCommands() {
		for _, k := range append([]string{c.Name}, c.Aliases...) {
			k = strings.ToLower(k)
			if prev, dup := owner[k]; dup {
				t.Errorf("%q is registered by both %q and %q", k, prev, c.Name)
			}
			owner[k] = c.Name
		}
		for _, r := range c.SpecialAliases {
			if prev, dup := specials[r]; dup {
				t.Errorf("special alias %q is registered by both %q and %q", r, prev, c.Name)
			}
			specials[r] = c.Name
		}
		if c.Usage == "" || c.Description == "" {
			t.Errorf("command %q is missing usage or description", c.Name)
		}
	}

	e := newTestEnv(t)
	for k, name := range owner {
		if got := e.game.Shell.Lookup(k); got == nil || got.Name != name {
			t.Errorf("Lookup(%q) did not resolve to %q", k, name)
		}
	}
}

func TestNewShellRejectsDuplicates(t *testing.T) {
	noop := func(*Game, *Session, []string) bool { return true }
	tests := []struct {
		name string
		cmds []*Command
	}{
		{"same name", []*Command{
			{Name: "look", Handler: noop},
			{Name: "Look", Handler: noop},
		}},
		{"alias collides with name", []*Command{
			{Name: "look", Handler: noop},
			{Name: "examine", Handler: noop, Aliases: []string{"look"}},
		}},
		{"alias collides with alias", []*Command{
			{Name: "read", Handler: noop, Aliases: []string{"w"}},
			{Name: "write", Handler: noop, Aliases: []string{"w"}},
		}},
		{"special alias reused", []*Command{
			{Name: "say", Handler: noop, SpecialAliases: []rune{'"'}},
			{Name: "emote", Handler: noop, SpecialAliases: []rune{'"'}},
		}},
		{"missing handler", []*Command{
			{Name: "look"},
		}},
	}
	g := &Game{Conf: DefaultGameConf()}
	for _, tt := range tests {
		if _, err := NewShell(g, tt.cmds); err == nil {
			t.Errorf("%s: NewShell succeeded, want error", tt.name)
		}
	}
}

// recordingShell replaces the game's shell with one whose handlers record
// the command name and arguments they were called with.
func recordingShell(t *testing.T, e *testEnv, names ...string) *[]string {
	t.Helper()
	var calls []string
	var cmds []*Command
	for _, name := range names {
		c := &Command{
			Name:  name,
			Usage: name,
			Handler: func(_ *Game, _ *Session, args []string) bool {
				calls = append(calls, name+"|"+strings.Join(args, ","))
				return true
			},
		}
		if name == "radio" {
			c.SpecialAliases = []rune{'#'}
		}
		cmds = append(cmds, c)
	}
	sh, err := NewShell(e.game, cmds)
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	e.game.Shell = sh
	return &calls
}

func TestDispatchLongestPrefix(t *testing.T) {
	e := newTestEnv(t)
	calls := recordingShell(t, e, "make", "make exit")
	s, _ := e.connect()

	tests := []struct {
		line string
		want string
	}{
		{"make exit 3 north", "make exit|3,north"},
		{"MAKE   exit 3 north", "make exit|3,north"},
		{"make room", "make|room"},
		{"make", "make|"},
	}
	for _, tt := range tests {
		*calls = nil
		if res := e.game.Shell.Dispatch(s, tt.line); res != OK {
			t.Errorf("Dispatch(%q) = %v, want ok", tt.line, res)
		}
		if len(*calls) != 1 || (*calls)[0] != tt.want {
			t.Errorf("Dispatch(%q) called %v, want [%s]", tt.line, *calls, tt.want)
		}
	}
}

func TestDispatchSpecialAlias(t *testing.T) {
	e := newTestEnv(t)
	calls := recordingShell(t, e, "radio")
	s, _ := e.connect()

	e.game.Shell.Dispatch(s, "#120")
	e.game.Shell.Dispatch(s, "radio 120")
	e.game.Shell.Dispatch(s, "# 120")
	want := []string{"radio|120", "radio|120", "radio|120"}
	if !reflect.DeepEqual(*calls, want) {
		t.Errorf("calls = %v, want %v", *calls, want)
	}
}

func TestDispatchUnknownAndRelated(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.online("alice", 0)

	out := e.run(s, bt, "lookaround")
	assertContains(t, out, "Unknown command: lookaround")
	assertContains(t, out, "Possibly related commands: look")

	out = e.run(s, bt, "zzz")
	assertContains(t, out, "Unknown command: zzz")
	assertNotContains(t, out, "Possibly related")
}

func TestDispatchIllegalCharacters(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.online("alice", 0)

	out := e.run(s, bt, "say {hi}")
	assertContains(t, out, "Command contains illegal characters.")
	assertNotContains(t, out, "You say")
}

func TestDispatchEcho(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.connect()

	out := e.run(s, bt, "who")
	assertContains(t, out, "> who\n"+strings.Repeat("=", 20))

	// Credentials are never echoed.
	out = e.run(s, bt, "login alice secret")
	assertNotContains(t, out, "secret")

	a, abt := e.online("alice", 0)
	out = e.run(a, abt, "who")
	assertNotContains(t, out, "> who")

	a.User.CEcho = true
	out = e.run(a, abt, "who")
	assertContains(t, out, "> who")
}

func TestDispatchExitFallback(t *testing.T) {
	e := newTestEnv(t)
	e.addRoom(1, "Hallway")
	room := e.db.Room(0)
	room.Exits = append(room.Exits, newExit(1, "north door"))
	e.db.UpsertRoom(room)
	s, bt := e.online("alice", 0)

	out := e.run(s, bt, "north")
	assertContains(t, out, "Hallway")
	if s.User.Room != 1 {
		t.Errorf("user in room %d, want 1", s.User.Room)
	}
}

func TestDispatchPermissions(t *testing.T) {
	e := newTestEnvWith(t, func(c *GameConf) { c.Disabled = []string{"chat"} })
	s, bt := e.online("alice", 0)

	assertContains(t, e.run(s, bt, "chat hi"), "chat: Command disabled.")
	assertContains(t, e.run(s, bt, "announce hi"), "announce: You do not have permission to use this command.")

	s.User.Wizard = true
	assertContains(t, e.run(s, bt, "chat hi"), "(Chat) alice: hi")
}

func TestHelpCategorySortedAndStable(t *testing.T) {
	noop := func(*Game, *Session, []string) bool { return true }
	build := func(order []string) string {
		e := newTestEnv(t)
		var cmds []*Command
		for _, n := range order {
			cmds = append(cmds, &Command{Name: n, Handler: noop, Categories: []string{"items"}, Usage: n, Description: n})
		}
		sh, err := NewShell(e.game, cmds)
		if err != nil {
			t.Fatalf("NewShell: %v", err)
		}
		e.game.Shell = sh
		s, bt := e.connect()
		sh.Help(s, "items")
		first := bt.Text()
		bt.Reset()
		sh.Help(s, "items")
		if again := bt.Text(); again != first {
			t.Errorf("help output changed between calls:\n%s\n%s", first, again)
		}
		return first
	}

	a := build([]string{"wield", "drop", "hold", "give", "inventory"})
	b := build([]string{"inventory", "give", "hold", "drop", "wield"})
	if a != b {
		t.Errorf("help depends on registration order:\n%s\n%s", a, b)
	}
	lines := strings.Split(a, "\n")
	var names []string
	for _, l := range lines[1:] {
		names = append(names, strings.Fields(l)...)
	}
	if !slices.IsSorted(names) {
		t.Errorf("help names not sorted: %v", names)
	}
	if len(lines) != 3 {
		t.Errorf("got %d lines, want a header plus two rows of four columns", len(lines))
	}
}

func TestHelpCommandAndUnknown(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.connect()

	out := e.run(s, bt, "help say")
	assertContains(t, out, "Usage: say <message>")
	assertContains(t, out, "Special Aliases: \"")

	out = e.run(s, bt, "help")
	assertContains(t, out, "Available Categories: ")

	out = e.run(s, bt, "help itemz")
	assertContains(t, out, "help: Unknown command or category: itemz")

	out = e.run(s, bt, "usage go")
	assertContains(t, out, "Usage: go <exit>")

	out = e.run(s, bt, "usage nothing")
	assertContains(t, out, "usage: Unknown command: nothing")
}

func TestResultString(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{NotFound, "not_found"},
		{Failed, "failed"},
		{OK, "ok"},
		{Result(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("Result(%d).String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}
