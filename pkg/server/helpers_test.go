package server

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dennis-mud/dennis/pkg/worlddb"
	"golang.org/x/crypto/bcrypt"
)

// bufferTransport records everything sent to a session.
type bufferTransport struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	fail   bool
}

func (b *bufferTransport) WriteText(msg string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return errors.New("broken pipe")
	}
	b.lines = append(b.lines, msg)
	return nil
}

func (b *bufferTransport) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *bufferTransport) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

func (b *bufferTransport) Contains(sub string) bool {
	return strings.Contains(b.Text(), sub)
}

func (b *bufferTransport) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}

// testEnv is a game over an in-memory world with room 0 seeded.
type testEnv struct {
	t    *testing.T
	db   *worlddb.Database
	game *Game
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWith(t, nil)
}

// newTestEnvWith lets the caller adjust the config before the game is built.
func newTestEnvWith(t *testing.T, adjust func(*GameConf)) *testEnv {
	t.Helper()
	passwordCost = bcrypt.MinCost

	db := worlddb.NewDatabase()
	db.Seed()
	conf := DefaultGameConf()
	conf.TextDir = ""
	if adjust != nil {
		adjust(conf)
	}
	g := NewGame(db, conf)
	g.Roll = func(n int) int { return n }
	return &testEnv{t: t, db: db, game: g}
}

// runLoop runs the game loop until the test ends.
func (e *testEnv) runLoop() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.game.Loop.Run(ctx, 0, nil)
	}()
	e.t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (e *testEnv) addRoom(id int, name string, exits ...worlddb.Exit) *worlddb.Room {
	e.t.Helper()
	r := &worlddb.Room{ID: id, Name: name, Owners: []string{worlddb.WorldOwner}, Exits: exits}
	if err := e.db.UpsertRoom(r); err != nil {
		e.t.Fatalf("UpsertRoom: %v", err)
	}
	return r
}

func newExit(dest int, name string) worlddb.Exit {
	return worlddb.Exit{Dest: dest, Name: name, Owners: []string{worlddb.WorldOwner}}
}

func (e *testEnv) addItem(it *worlddb.Item) *worlddb.Item {
	e.t.Helper()
	if it.Owners == nil {
		it.Owners = []string{worlddb.WorldOwner}
	}
	if err := e.db.UpsertItem(it); err != nil {
		e.t.Fatalf("UpsertItem: %v", err)
	}
	return it
}

func (e *testEnv) addUser(name string, room int) *worlddb.User {
	e.t.Helper()
	hash, err := HashPassword("secret")
	if err != nil {
		e.t.Fatalf("HashPassword: %v", err)
	}
	u := &worlddb.User{
		Name:         name,
		Nick:         name,
		PasswordHash: hash,
		Room:         room,
		Inventory:    []int{},
		Equipment:    []int{},
		Spirit:       e.game.Conf.Spirit.Max,
		Lang:         "en",
	}
	if err := e.db.UpsertUser(u); err != nil {
		e.t.Fatalf("UpsertUser: %v", err)
	}
	return u
}

// connect registers an unbound session.
func (e *testEnv) connect() (*Session, *bufferTransport) {
	bt := &bufferTransport{}
	s := NewSession(TransportTelnet, "127.0.0.1:5000", bt)
	e.game.Router.Add(s)
	return s, bt
}

// online creates a user in room and binds a fresh session to it.
func (e *testEnv) online(name string, room int) (*Session, *bufferTransport) {
	e.t.Helper()
	u := e.addUser(name, room)
	s, bt := e.connect()
	// Keep snapshot ordering deterministic.
	s.ConnTime = time.Unix(int64(e.game.Router.Count()), 0)
	e.game.bindUser(s, u)
	bt.Reset()
	return s, bt
}

// run dispatches a line and returns the session's output for it.
func (e *testEnv) run(s *Session, bt *bufferTransport, line string) string {
	bt.Reset()
	e.game.HandleLine(s, line)
	return bt.Text()
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("output %q does not contain %q", got, want)
	}
}

func assertNotContains(t *testing.T, got, unwanted string) {
	t.Helper()
	if strings.Contains(got, unwanted) {
		t.Errorf("output %q unexpectedly contains %q", got, unwanted)
	}
}
