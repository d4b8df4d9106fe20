package markers

import "path/filepath"

// LockFile returns the lock file guarding path.
func (s *Store) LockFile(path string) string {
	return filepath.Join(s.locksDir, hashKey(path)+lockExt)
}
