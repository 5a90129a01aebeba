package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/avolkov/photoflow/internal/entities"
)

// ErrNotFound is returned when no metadata record matches the lookup.
var ErrNotFound = errors.New("media record not found")

// MediaRepository persists per-object metadata. Byte payloads live in the
// blob store; the repository is the system of record for everything else.
type MediaRepository interface {
	// Insert stores a new record. Re-inserting the same (bucket, filename)
	// replaces size and timestamps and returns the existing ID, so a
	// redelivered thumbnail job converges instead of erroring.
	Insert(ctx context.Context, m *entities.Media) (uuid.UUID, error)

	GetByID(ctx context.Context, id uuid.UUID) (*entities.Media, error)
	GetByFilename(ctx context.Context, bucket, filename string) (*entities.Media, error)

	// Patch merges the non-nil fields of patch into the record. ThumbID is
	// first-write-wins: once set, later patches leave it untouched and
	// return nil.
	Patch(ctx context.Context, id uuid.UUID, patch entities.MetadataPatch) error

	// ListByBusiness returns all records in a bucket that reference the
	// given business.
	ListByBusiness(ctx context.Context, bucket, businessID string) ([]entities.Media, error)
}
