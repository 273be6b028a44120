package boltstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dennis-mud/dennis/pkg/worlddb"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "world.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s, path
}

func TestWriteThroughAndReload(t *testing.T) {
	s, path := openTemp(t)

	if s.HasData() {
		t.Fatal("fresh store reports data")
	}
	if err := s.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := s.UpsertItem(&worlddb.Item{ID: 4, Name: "radio", Radio: worlddb.Radio{Enabled: true, Frequency: 120}}); err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	if err := s.UpsertUser(&worlddb.User{Name: "seisatsu", Nick: "Seisatsu", Equipment: []int{4}, Spirit: 80}); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()
	if !s2.HasData() {
		t.Fatal("reopened store has no data")
	}
	if err := s2.LoadAll(); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	u := s2.UserByName("SEISATSU")
	if u == nil {
		t.Fatal("user not reloaded")
	}
	if u.Spirit != 80 || len(u.Equipment) != 1 || u.Equipment[0] != 4 {
		t.Errorf("user reloaded as %+v", u)
	}
	it := s2.Item(4)
	if it == nil || !it.Radio.Enabled || it.Radio.Frequency != 120 {
		t.Errorf("item reloaded as %+v", it)
	}
	if s2.Room(0) == nil {
		t.Error("seed room not reloaded")
	}
}

func TestDeleteUser(t *testing.T) {
	s, _ := openTemp(t)
	defer s.Close()

	u := &worlddb.User{Name: "bob"}
	s.UpsertUser(u)
	if err := s.DeleteUser(u); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if s.UserByName("bob") != nil {
		t.Error("user still cached after delete")
	}
}

func TestRotateBackups(t *testing.T) {
	s, path := openTemp(t)
	defer s.Close()
	s.Seed()

	for i := 0; i < 3; i++ {
		if err := s.RotateBackups(2); err != nil {
			t.Fatalf("RotateBackups: %v", err)
		}
	}
	for _, name := range []string{path + ".bk1", path + ".bk2"} {
		if _, err := os.Stat(name); err != nil {
			t.Errorf("missing backup %s: %v", name, err)
		}
	}
	if _, err := os.Stat(path + ".bk3"); err == nil {
		t.Error("rotation kept more backups than asked")
	}
}

func TestKeyOrdering(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 1 << 20} {
		if got := keyToInt(intToKey(n)); got != n {
			t.Errorf("keyToInt(intToKey(%d)) = %d", n, got)
		}
	}
	if string(intToKey(-1)) >= string(intToKey(0)) {
		t.Error("negative key does not sort before zero")
	}
}
