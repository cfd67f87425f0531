package flag

import (
	"context"
	"errors"
)

// Repository errors.
var (
	// ErrFlagNotFound is returned when no flag matches the requested id or name.
	ErrFlagNotFound = errors.New("flag not found")

	// ErrConnection is returned when the storage backend is unreachable or
	// timed out. It is always propagated upward, never retried by callers.
	ErrConnection = errors.New("storage backend unreachable")
)

// DefaultListLimit caps GetAll results when the filter does not set a limit.
const DefaultListLimit = 100

// ListFilter narrows a GetAll query. Nil fields match everything.
type ListFilter struct {
	// Name filters by exact name match.
	Name *string

	// Value filters by exact value match.
	Value *bool

	// Limit caps the number of returned flags. Zero means DefaultListLimit.
	Limit int
}

// Repository defines the storage contract for feature flags. Implementations
// must behave identically whether backed by memory or a document store.
type Repository interface {
	// Store persists a new flag keyed by its ID.
	Store(ctx context.Context, f *Flag) error

	// GetByID retrieves a flag by ID. Returns ErrFlagNotFound if absent.
	GetByID(ctx context.Context, id string) (*Flag, error)

	// GetByName retrieves the first flag whose name matches.
	// Returns ErrFlagNotFound if none match.
	GetByName(ctx context.Context, name string) (*Flag, error)

	// GetAll retrieves flags matching the filter, up to the filter's limit.
	// Returns an empty slice, never an error, when nothing matches.
	GetAll(ctx context.Context, filter ListFilter) ([]Flag, error)

	// Update replaces the full stored record matching the flag's ID.
	// Returns ErrFlagNotFound if the ID is not present; this is not an upsert.
	Update(ctx context.Context, f *Flag) (*Flag, error)

	// Delete removes the flag with this ID. Returns ErrFlagNotFound if absent.
	Delete(ctx context.Context, id string) error

	// DeleteAll removes every flag. Zero deletions is a no-op success.
	DeleteAll(ctx context.Context) error
}

// Pinger is implemented by repositories that can verify their backend is
// reachable, for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
