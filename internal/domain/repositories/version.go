package repositories

import (
	"context"

	"innerflame/internal/domain/models"
)

// VersionRepository defines data access operations for the append-only
// version chain of a document. Implementations must make ClearCurrent a
// conditional write: it is the compare-and-swap backing the optimistic
// freshness check, so two racing edits cannot both flip the same version.
type VersionRepository interface {
	// Insert persists a new version row
	Insert(ctx context.Context, version *models.Version) error

	// GetByID retrieves a version by ID
	GetByID(ctx context.Context, id string) (*models.Version, error)

	// GetCurrent retrieves the current version of a document, or
	// domain.ErrNotFound if no version exists yet
	GetCurrent(ctx context.Context, documentID string) (*models.Version, error)

	// ClearCurrent flips is_current to false for the given version only
	// if it is still current. Returns false when the flag was already
	// cleared (a concurrent edit won the race).
	ClearCurrent(ctx context.Context, versionID string) (bool, error)

	// MarkCurrent flips is_current back to true for the given version
	// (used when a rejected edit restores its base version)
	MarkCurrent(ctx context.Context, versionID string) error

	// DeleteFrom deletes all versions of a document with version_number
	// greater than or equal to fromNumber
	DeleteFrom(ctx context.Context, documentID string, fromNumber int) error

	// ListByDocument lists a document's versions ordered by version_number
	ListByDocument(ctx context.Context, documentID string) ([]models.Version, error)
}
