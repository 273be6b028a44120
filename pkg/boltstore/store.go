package boltstore

import (
	"fmt"
	"log"
	"os"

	"github.com/dennis-mud/dennis/pkg/worlddb"
	bbolt "go.etcd.io/bbolt"
)

// Store wraps a bbolt database and an in-memory cache. Reads are served
// from the cache; every upsert is written through to bbolt.
type Store struct {
	bolt  *bbolt.DB
	cache *worlddb.Database
}

// Open opens or creates a bbolt database file and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketUsers, bucketRooms, bucketItems} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return tx.Bucket(bucketMeta).Put(keyVersion, intToKey(schemaVersion))
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}

	return &Store{
		bolt:  db,
		cache: worlddb.NewDatabase(),
	}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// DB returns the in-memory cache.
func (s *Store) DB() *worlddb.Database {
	return s.cache
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// HasData reports whether any room has been persisted.
func (s *Store) HasData() bool {
	hasData := false
	s.bolt.View(func(tx *bbolt.Tx) error {
		hasData = tx.Bucket(bucketRooms).Stats().KeyN > 0
		return nil
	})
	return hasData
}

// LoadAll populates the cache from bbolt.
func (s *Store) LoadAll() error {
	var users, rooms, items int
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if err := tx.Bucket(bucketUsers).ForEach(func(k, v []byte) error {
			u, err := decode[worlddb.User](v)
			if err != nil {
				return fmt.Errorf("decode user %q: %w", k, err)
			}
			users++
			return s.cache.UpsertUser(u)
		}); err != nil {
			return err
		}
		if err := tx.Bucket(bucketRooms).ForEach(func(k, v []byte) error {
			r, err := decode[worlddb.Room](v)
			if err != nil {
				return fmt.Errorf("decode room %d: %w", keyToInt(k), err)
			}
			rooms++
			return s.cache.UpsertRoom(r)
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			it, err := decode[worlddb.Item](v)
			if err != nil {
				return fmt.Errorf("decode item %d: %w", keyToInt(k), err)
			}
			items++
			return s.cache.UpsertItem(it)
		})
	})
	if err != nil {
		return fmt.Errorf("boltstore: load: %w", err)
	}
	log.Printf("boltstore: loaded %d users, %d rooms, %d items", users, rooms, items)
	return nil
}

// Seed creates the first room if the world is empty and persists it.
func (s *Store) Seed() error {
	if !s.cache.Seed() {
		return nil
	}
	return s.UpsertRoom(s.cache.Room(0))
}

func (s *Store) put(bucket, key []byte, data []byte) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put(key, data)
	})
}

func (s *Store) UserByName(name string) *worlddb.User { return s.cache.UserByName(name) }
func (s *Store) UserByNick(nick string) *worlddb.User { return s.cache.UserByNick(nick) }
func (s *Store) Room(id int) *worlddb.Room            { return s.cache.Room(id) }
func (s *Store) Item(id int) *worlddb.Item            { return s.cache.Item(id) }
func (s *Store) Users() []*worlddb.User               { return s.cache.Users() }
func (s *Store) Rooms() []*worlddb.Room               { return s.cache.Rooms() }
func (s *Store) Items() []*worlddb.Item               { return s.cache.Items() }

// UpsertUser persists a user (write-through).
func (s *Store) UpsertUser(u *worlddb.User) error {
	data, err := encode(u)
	if err != nil {
		return fmt.Errorf("boltstore: encode user %q: %w", u.Name, err)
	}
	if err := s.put(bucketUsers, userKey(u.Name), data); err != nil {
		return fmt.Errorf("boltstore: put user %q: %w", u.Name, err)
	}
	return s.cache.UpsertUser(u)
}

// UpsertRoom persists a room (write-through).
func (s *Store) UpsertRoom(r *worlddb.Room) error {
	data, err := encode(r)
	if err != nil {
		return fmt.Errorf("boltstore: encode room %d: %w", r.ID, err)
	}
	if err := s.put(bucketRooms, intToKey(r.ID), data); err != nil {
		return fmt.Errorf("boltstore: put room %d: %w", r.ID, err)
	}
	return s.cache.UpsertRoom(r)
}

// UpsertItem persists an item (write-through).
func (s *Store) UpsertItem(it *worlddb.Item) error {
	data, err := encode(it)
	if err != nil {
		return fmt.Errorf("boltstore: encode item %d: %w", it.ID, err)
	}
	if err := s.put(bucketItems, intToKey(it.ID), data); err != nil {
		return fmt.Errorf("boltstore: put item %d: %w", it.ID, err)
	}
	return s.cache.UpsertItem(it)
}

// DeleteUser removes a user from bbolt and the cache.
func (s *Store) DeleteUser(u *worlddb.User) error {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketUsers).Delete(userKey(u.Name))
	})
	if err != nil {
		return fmt.Errorf("boltstore: delete user %q: %w", u.Name, err)
	}
	return s.cache.DeleteUser(u)
}

// Backup writes a consistent snapshot of the database to path.
func (s *Store) Backup(path string) error {
	return s.bolt.View(func(tx *bbolt.Tx) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("boltstore: create backup %s: %w", path, err)
		}
		defer f.Close()
		if _, err := tx.WriteTo(f); err != nil {
			return fmt.Errorf("boltstore: write backup: %w", err)
		}
		log.Printf("boltstore: backup written to %s", path)
		return nil
	})
}

var _ worlddb.Store = (*Store)(nil)
