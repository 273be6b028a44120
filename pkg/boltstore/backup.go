package boltstore

import (
	"fmt"
	"os"
)

// RotateBackups shifts path.bk1..path.bk(keep-1) up by one and copies the
// current snapshot of the store into path.bk1. keep <= 0 disables rotation.
func (s *Store) RotateBackups(keep int) error {
	if keep <= 0 {
		return nil
	}
	path := s.Path()
	for i := keep - 1; i >= 1; i-- {
		from := fmt.Sprintf("%s.bk%d", path, i)
		to := fmt.Sprintf("%s.bk%d", path, i+1)
		if _, err := os.Stat(from); err != nil {
			continue
		}
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("boltstore: rotate %s: %w", from, err)
		}
	}
	return s.Backup(path + ".bk1")
}
