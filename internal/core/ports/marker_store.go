package ports

import (
	"context"
	"time"

	"go.trai.ch/mark/internal/core/domain"
)

// MarkerStore persists completion markers. Every method takes the marker's
// file path; Path derives the path for a store-managed key.
//
//go:generate mockgen -source=marker_store.go -destination=mocks/mock_marker_store.go -package=mocks
type MarkerStore interface {
	// Path returns the store-managed marker path for key.
	Path(key string) string

	// Exists reports whether a marker is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Read returns the marker at path, or nil, nil if none exists.
	Read(ctx context.Context, path string) (*domain.Marker, error)

	// Write stores marker at path. Readers observe either the old state or the full marker.
	Write(ctx context.Context, path string, marker domain.Marker) error

	// Remove deletes the marker at path. Removing a missing marker is not an error.
	Remove(ctx context.Context, path string) error

	// Lock takes the cross-process lock guarding path.
	Lock(ctx context.Context, path string) (unlock func(), err error)

	// List returns every store-managed marker.
	List(ctx context.Context) ([]domain.Marker, error)
}

// MarkerStoreFactory opens the marker store of a project root.
type MarkerStoreFactory interface {
	// Open returns a store under root. Locks older than staleAfter are
	// considered abandoned; zero disables reclaiming. A held lock is never
	// refreshed, so staleAfter must be longer than the longest task run.
	Open(root string, staleAfter time.Duration) (MarkerStore, error)
}
