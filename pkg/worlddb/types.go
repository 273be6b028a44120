package worlddb

import (
	"slices"
	"time"
)

// WorldOwner is the owner marker for records that belong to nobody in particular.
const WorldOwner = "<world>"

// Curse types understood by the world tick.
const (
	CurseSpirit    = "spirit"    // blocks spirit regeneration
	CurseNightmare = "nightmare" // replaces sleep with nightmares
)

// Exit is a one-way passage out of a room.
type Exit struct {
	Dest   int
	Name   string
	Owners []string
	Desc   string
	Locked bool
	Hidden bool
}

// Sealed restricts exit creation into or out of a room.
type Sealed struct {
	Inbound  bool
	Outbound bool
}

// Room is a location in the world.
type Room struct {
	ID     int
	Name   string
	Desc   string
	Owners []string
	Users  []string // usernames currently present
	Items  []int
	Exits  []Exit
	Sealed Sealed
}

// Radio makes an item a transmitter/receiver on a numeric frequency.
type Radio struct {
	Enabled   bool
	Frequency int
}

// Curse is a persistent effect applied to whoever carries the item.
type Curse struct {
	Enabled bool
	Type    string
}

// Item is an object that can lie in a room or be carried by a user.
type Item struct {
	ID        int
	Name      string
	Desc      string
	Owners    []string
	Radio     Radio
	Cursed    Curse
	Telekey   int // homing room id; 0 means none
	Message   string
	MLang     string
	Duplified bool
	Hidden    bool
}

// User is a registered player account.
type User struct {
	Name         string // lower-case login name
	Nick         string
	PasswordHash []byte
	Room         int
	Inventory    []int
	Equipment    []int // held items
	Wizard       bool
	Spirit       int
	Ghost        bool
	Lang         string
	Colors       bool
	CEcho        bool
	Pronouns     string
	Desc         string
	Created      time.Time
}

// Carried returns the ids of everything the user carries, inventory first.
func (u *User) Carried() []int {
	out := make([]int, 0, len(u.Inventory)+len(u.Equipment))
	out = append(out, u.Inventory...)
	return append(out, u.Equipment...)
}

// HasItem reports whether the item id is in the user's inventory or hands.
func (u *User) HasItem(id int) bool {
	return slices.Contains(u.Inventory, id) || slices.Contains(u.Equipment, id)
}

// IsOwner reports whether name appears in owners.
func IsOwner(owners []string, name string) bool {
	return slices.Contains(owners, name)
}

// AddUser records name as present in the room. It is a no-op if already present.
func (r *Room) AddUser(name string) {
	if !slices.Contains(r.Users, name) {
		r.Users = append(r.Users, name)
	}
}

// RemoveUser drops name from the room's occupant list.
func (r *Room) RemoveUser(name string) {
	r.Users = slices.DeleteFunc(r.Users, func(u string) bool { return u == name })
}

// ExitNames returns the names of the exits visible to a viewer.
func (r *Room) ExitNames(wizard bool) []string {
	names := make([]string, 0, len(r.Exits))
	for _, e := range r.Exits {
		if e.Hidden && !wizard {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// RemoveID returns ids without the first occurrence of id.
func RemoveID(ids []int, id int) []int {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(ids, i, i+1)
	}
	return ids
}
