// Package markers implements the file-backed marker store and its
// cross-process target locks.
package markers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.trai.ch/mark/internal/core/domain"
	"go.trai.ch/mark/internal/core/ports"
)

const (
	markerExt = ".json"
	lockExt   = ".lock"
)

// Factory opens stores rooted at a project directory.
type Factory struct{}

// NewFactory creates a Factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Open implements ports.MarkerStoreFactory.
func (Factory) Open(root string, staleAfter time.Duration) (ports.MarkerStore, error) {
	return NewStore(root, staleAfter)
}

// Store keeps one JSON marker per target. Markers are published with a
// rename so a reader never sees a partially written file.
type Store struct {
	targetsDir string
	locksDir   string
	staleAfter time.Duration
	newBackOff func() backoff.BackOff
}

// NewStore returns the store below root. Directories are created lazily.
func NewStore(root string, staleAfter time.Duration) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.Wrap(domain.ErrStoreCreateFailed, err)
	}
	return &Store{
		targetsDir: domain.DefaultTargetsPath(abs),
		locksDir:   domain.DefaultLocksPath(abs),
		staleAfter: staleAfter,
		newBackOff: defaultBackOff,
	}, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = time.Second
	// The context bounds the wait; a peer may hold the lock for a whole task run.
	b.MaxElapsedTime = 0
	return b
}

// Path derives the marker file for key from its xxhash.
func (s *Store) Path(key string) string {
	return filepath.Join(s.targetsDir, hashKey(key)+markerExt)
}

func hashKey(key string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// Exists reports whether a marker file is present at path.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, domain.Annotate(domain.Wrap(domain.ErrMarkerReadFailed, err), "path", path)
	}
}

// Read returns the marker at path, or nil when there is none.
func (s *Store) Read(ctx context.Context, path string) (*domain.Marker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	//nolint:gosec // path is a marker location derived from config or the store
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.Annotate(domain.Wrap(domain.ErrMarkerReadFailed, err), "path", path)
	}

	var m domain.Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, domain.Annotate(domain.Wrap(domain.ErrMarkerReadFailed, err), "path", path)
	}
	return &m, nil
}

// Write publishes marker at path: temp file in the same directory, fsync, rename.
func (s *Store) Write(ctx context.Context, path string, marker domain.Marker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return domain.Wrap(domain.ErrMarkerWriteFailed, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrStoreCreateFailed, err), "path", dir)
	}
	if err := writeAtomic(dir, path, data); err != nil {
		return domain.Annotate(domain.Wrap(domain.ErrMarkerWriteFailed, err), "path", path)
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Chmod(domain.FilePerm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Remove deletes the marker at path. A missing marker is not an error.
func (s *Store) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return domain.Annotate(domain.Wrap(domain.ErrMarkerRemoveFailed, err), "path", path)
	}
	return nil
}

// List returns the markers kept in the store directory, sorted by file name.
func (s *Store) List(ctx context.Context) ([]domain.Marker, error) {
	entries, err := os.ReadDir(s.targetsDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, domain.Wrap(domain.ErrMarkerReadFailed, err)
	}

	var out []domain.Marker
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), markerExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m, err := s.Read(ctx, filepath.Join(s.targetsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// Lock takes an exclusive lock file for path, polling with exponential
// backoff until it is free or ctx ends. A lock older than staleAfter is
// assumed to belong to a crashed process and is reclaimed. Live locks are
// never refreshed, so staleAfter must exceed the longest task run.
//
// The lock file holds a token unique to this acquisition; unlock removes
// the file only while it still holds that token.
func (s *Store) Lock(ctx context.Context, path string) (func(), error) {
	if err := os.MkdirAll(s.locksDir, domain.DirPerm); err != nil {
		return nil, domain.Annotate(domain.Wrap(domain.ErrStoreCreateFailed, err), "path", s.locksDir)
	}
	lockPath := filepath.Join(s.locksDir, hashKey(path)+lockExt)
	token := strconv.Itoa(os.Getpid()) + " " + uuid.NewString() + "\n"

	acquire := func() error {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, domain.FilePerm) //nolint:gosec // lock path is hashed
		if err == nil {
			_, werr := f.WriteString(token)
			if err := errors.Join(werr, f.Close()); err != nil {
				_ = os.Remove(lockPath)
				return backoff.Permanent(err)
			}
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return backoff.Permanent(err)
		}
		if s.reclaimStale(lockPath) {
			return errors.New("reclaimed stale lock")
		}
		return err
	}

	if err := backoff.Retry(acquire, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return nil, domain.Annotate(domain.Wrap(domain.ErrLockFailed, err), "path", path)
	}

	return func() { release(lockPath, token) }, nil
}

// release removes lockPath unless another waiter reclaimed it meanwhile.
func release(lockPath, token string) {
	data, err := os.ReadFile(lockPath) //nolint:gosec // lock path is hashed
	if err != nil || string(data) != token {
		return
	}
	_ = os.Remove(lockPath)
}

// reclaimStale removes lockPath when it is older than staleAfter. The file
// is first renamed to a name only this waiter knows, so of several waiters
// judging the same lock stale exactly one removes it. A lock that turns out
// to be fresh after the rename was taken meanwhile and is put back.
func (s *Store) reclaimStale(lockPath string) bool {
	if s.staleAfter <= 0 {
		return false
	}
	info, err := os.Stat(lockPath)
	if err != nil || time.Since(info.ModTime()) < s.staleAfter {
		return false
	}

	claimed := lockPath + "." + uuid.NewString() + ".reclaim"
	if err := os.Rename(lockPath, claimed); err != nil {
		return false
	}
	defer func() { _ = os.Remove(claimed) }()

	info, err = os.Stat(claimed)
	if err == nil && time.Since(info.ModTime()) < s.staleAfter {
		// Link fails if yet another lock was taken; that holder keeps it.
		_ = os.Link(claimed, lockPath)
		return false
	}
	return true
}
