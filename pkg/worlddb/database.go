// Package worlddb holds the world records (users, rooms, items) and the
// Store interface the server reads and writes them through.
package worlddb

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/text/cases"
)

// Store is the persistence collaborator used by the server. Lookups return
// nil when the record does not exist. Name lookups are case-insensitive.
type Store interface {
	UserByName(name string) *User
	UserByNick(nick string) *User
	Room(id int) *Room
	Item(id int) *Item

	UpsertUser(u *User) error
	UpsertRoom(r *Room) error
	UpsertItem(it *Item) error
	DeleteUser(u *User) error

	Users() []*User
	Rooms() []*Room
	Items() []*Item
}

// FoldName returns the case-folded key used for name lookups. A Caser is
// stateful, so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

// Database is the in-memory world. It satisfies Store on its own and is
// used as the cache behind the bbolt store.
type Database struct {
	mu    sync.RWMutex
	users map[string]*User
	rooms map[int]*Room
	items map[int]*Item
}

// NewDatabase creates an empty Database.
func NewDatabase() *Database {
	return &Database{
		users: make(map[string]*User),
		rooms: make(map[int]*Room),
		items: make(map[int]*Item),
	}
}

func (db *Database) UserByName(name string) *User {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.users[FoldName(name)]
}

func (db *Database) UserByNick(nick string) *User {
	db.mu.RLock()
	defer db.mu.RUnlock()
	key := FoldName(nick)
	for _, u := range db.users {
		if FoldName(u.Nick) == key {
			return u
		}
	}
	return nil
}

func (db *Database) Room(id int) *Room {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.rooms[id]
}

func (db *Database) Item(id int) *Item {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.items[id]
}

func (db *Database) UpsertUser(u *User) error {
	if u == nil || u.Name == "" {
		return fmt.Errorf("worlddb: upsert user: empty name")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[FoldName(u.Name)] = u
	return nil
}

func (db *Database) UpsertRoom(r *Room) error {
	if r == nil {
		return fmt.Errorf("worlddb: upsert room: nil room")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.rooms[r.ID] = r
	return nil
}

func (db *Database) UpsertItem(it *Item) error {
	if it == nil {
		return fmt.Errorf("worlddb: upsert item: nil item")
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.items[it.ID] = it
	return nil
}

func (db *Database) DeleteUser(u *User) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	key := FoldName(u.Name)
	if _, ok := db.users[key]; !ok {
		return fmt.Errorf("worlddb: delete user %q: not found", u.Name)
	}
	delete(db.users, key)
	return nil
}

// Users returns all users sorted by name.
func (db *Database) Users() []*User {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Rooms returns all rooms sorted by id.
func (db *Database) Rooms() []*Room {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*Room, 0, len(db.rooms))
	for _, r := range db.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Items returns all items sorted by id.
func (db *Database) Items() []*Item {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]*Item, 0, len(db.items))
	for _, it := range db.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Seed creates the first room when the world is empty. It returns true if
// anything was created.
func (db *Database) Seed() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if len(db.rooms) > 0 {
		return false
	}
	db.rooms[0] = &Room{
		ID:     0,
		Name:   "The First Room",
		Desc:   "A small, empty room. Everything starts somewhere.",
		Owners: []string{WorldOwner},
	}
	return true
}

var _ Store = (*Database)(nil)
