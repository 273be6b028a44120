package server

import (
	"testing"

	"github.com/dennis-mud/dennis/pkg/worlddb"
)

func TestMatchPartial(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.connect()

	tests := []struct {
		name       string
		query      string
		candidates []string
		want       string
		ok         bool
		output     string
	}{
		{"exact wins over substring", "crystal", []string{"crystal ball", "Crystal"}, "Crystal", true, ""},
		{"article stripped", "the crystal ball", []string{"crystal ball", "crystal skull"}, "crystal ball", true, ""},
		{"single substring", "skull", []string{"crystal ball", "crystal skull"}, "crystal skull", true, ""},
		{"ambiguous", "crystal", []string{"crystal ball", "crystal skull"}, "", false,
			"take: Did you mean: crystal ball, crystal skull?"},
		{"too many", "a", []string{"a1", "a2", "a3", "a4", "a5", "a6"}, "", false,
			"take: Too many possible matches."},
		{"none", "zzz", []string{"crystal ball"}, "", false, "take: No such item: zzz"},
		{"empty", "  ", []string{"crystal ball"}, "", false, ""},
	}
	for _, tt := range tests {
		bt.Reset()
		got, ok := e.game.matchPartial(s, "take", tt.query, tt.candidates, false, "item")
		if got != tt.want || ok != tt.ok {
			t.Errorf("%s: matchPartial(%q) = %q, %v, want %q, %v", tt.name, tt.query, got, ok, tt.want, tt.ok)
		}
		if out := bt.Text(); out != tt.output {
			t.Errorf("%s: output %q, want %q", tt.name, out, tt.output)
		}
	}
}

func TestMatchPartialQuiet(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.connect()

	if _, ok := e.game.matchPartial(s, "take", "crystal", []string{"crystal ball", "crystal skull"}, true); ok {
		t.Error("ambiguous quiet match succeeded")
	}
	if _, ok := e.game.matchPartial(s, "take", "zzz", nil, true); ok {
		t.Error("empty candidate list matched")
	}
	if out := bt.Text(); out != "" {
		t.Errorf("quiet match wrote %q", out)
	}
}

func TestCheck(t *testing.T) {
	e := newTestEnv(t)
	anon, abt := e.connect()
	s, bt := e.online("alice", 0)

	if e.game.check(anon, "say", nil, need{online: true}) {
		t.Error("check passed for an anonymous session")
	}
	assertContains(t, abt.Text(), "say: You must be logged in first.")

	bt.Reset()
	if e.game.check(s, "say", nil, need{online: true, args: atLeast(1)}) {
		t.Error("check passed without arguments")
	}
	assertContains(t, bt.Text(), "Usage: say <message>")

	bt.Reset()
	if e.game.check(s, "wake", []string{"a", "b", "c"}, need{args: between(0, 1)}) {
		t.Error("check passed with too many arguments")
	}
	assertContains(t, bt.Text(), "Usage: wake [user]")

	bt.Reset()
	if e.game.check(s, "announce", []string{"hi"}, need{wizard: true}) {
		t.Error("check passed for a non-wizard")
	}
	assertContains(t, bt.Text(), "announce: You do not have permission to use this command.")

	bt.Reset()
	s.Posture = PostureSleeping
	if e.game.check(s, "look", nil, need{awake: true}) {
		t.Error("check passed while asleep")
	}
	assertContains(t, bt.Text(), "You are asleep, dreaming you could do things.")
	s.Posture = PostureNone
}

func TestCheckSpirit(t *testing.T) {
	tests := []struct {
		name   string
		spirit int
		wizard bool
		ok     bool
		left   int
	}{
		{"enough", 10, false, true, 5},
		{"exactly enough", 5, false, true, 0},
		{"too little", 3, false, false, 3},
		{"wizard pays nothing", 0, true, true, 0},
	}
	for _, tt := range tests {
		e := newTestEnv(t)
		s, bt := e.online("alice", 0)
		s.User.Spirit = tt.spirit
		s.User.Wizard = tt.wizard

		if ok := e.game.check(s, "perform", nil, need{spirit: 5}); ok != tt.ok {
			t.Errorf("%s: check = %v, want %v", tt.name, ok, tt.ok)
		}
		if s.User.Spirit != tt.left {
			t.Errorf("%s: spirit = %d, want %d", tt.name, s.User.Spirit, tt.left)
		}
		if !tt.ok {
			assertContains(t, bt.Text(), "perform: You do not have enough spirit to do that.")
		}
	}
}

func TestFindItem(t *testing.T) {
	e := newTestEnv(t)
	s, bt := e.online("alice", 0)
	e.addItem(&worlddb.Item{ID: 4, Name: "Crystal Ball"})
	e.addItem(&worlddb.Item{ID: 5, Name: "Crystal Skull"})
	ids := []int{4, 5}

	tests := []struct {
		target string
		want   int
	}{
		{"crystal ball", 4},
		{"the crystal skull", 5},
		{"5", 5},
		{"ball", 4},
		{"crystal", 0},
		{"the", 0},
	}
	for _, tt := range tests {
		bt.Reset()
		it := e.game.findItem(s, "take", tt.target, ids)
		got := 0
		if it != nil {
			got = it.ID
		}
		if got != tt.want {
			t.Errorf("findItem(%q) = %d, want %d (output %q)", tt.target, got, tt.want, bt.Text())
		}
	}

	bt.Reset()
	if it := e.game.findItem(s, "take", "ghost", []int{99}); it != nil {
		t.Errorf("findItem resolved a missing item: %v", it)
	}
	assertContains(t, bt.Text(), "take: ERROR: Item referenced here does not exist: 99")
}

func TestJoinEnglish(t *testing.T) {
	tests := []struct {
		words []string
		want  string
	}{
		{nil, ""},
		{[]string{"north"}, "north"},
		{[]string{"north", "south"}, "north and south"},
		{[]string{"north", "south", "up"}, "north, south and up"},
	}
	for _, tt := range tests {
		if got := joinEnglish(tt.words); got != tt.want {
			t.Errorf("joinEnglish(%v) = %q, want %q", tt.words, got, tt.want)
		}
	}
}
