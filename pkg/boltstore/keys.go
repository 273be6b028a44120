package boltstore

import (
	"encoding/binary"

	"github.com/dennis-mud/dennis/pkg/worlddb"
)

// Bucket name constants for bbolt storage.
var (
	bucketMeta  = []byte("meta")
	bucketUsers = []byte("users")
	bucketRooms = []byte("rooms")
	bucketItems = []byte("items")
)

// Meta key constants.
var (
	keyVersion = []byte("version")
)

const schemaVersion = 1

// intToKey converts an id to an 8-byte big-endian key.
// Ids are offset so negative values still sort before zero.
func intToKey(n int) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(int64(n)+1<<32))
	return buf
}

// keyToInt converts an 8-byte big-endian key back to an id.
func keyToInt(b []byte) int {
	return int(int64(binary.BigEndian.Uint64(b)) - 1<<32)
}

// userKey is the case-folded username.
func userKey(name string) []byte {
	return []byte(worlddb.FoldName(name))
}
