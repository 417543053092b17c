package services

import (
	"context"

	"innerflame/internal/domain/models"
)

// VersionService owns the append-only version chain of a document: it
// creates versions, tracks the single current version, and implements the
// accept/reject/restore transitions.
//
// Current-version transitions are linearizable per document: an edit that
// read version N only commits if N is still current at write time, else
// it fails with domain.ErrConflict and the caller retries against the
// fresh current version.
type VersionService interface {
	// CreateInitialVersion creates version 1 of a document. Fails with
	// domain.ErrConflict if the document already has a version.
	CreateInitialVersion(ctx context.Context, req *CreateInitialVersionRequest) (*models.Version, error)

	// CreateEditVersion creates version N+1 based on the current version
	// N, flipping N off current. BaseVersionID in the request is the
	// version the caller read as current; the freshness check fails with
	// domain.ErrConflict when it has been superseded in the meantime.
	CreateEditVersion(ctx context.Context, req *CreateEditVersionRequest) (*models.Version, error)

	// GetCurrentVersion returns the current version of a document.
	GetCurrentVersion(ctx context.Context, documentID string) (*models.Version, error)

	// ListVersions returns a document's versions in version-number order.
	ListVersions(ctx context.Context, documentID, userID string) ([]models.Version, error)

	// AcceptVersion confirms an applied AI edit. The version is already
	// current, so this only performs the ownership check; it exists for
	// the UX flow, not for data mutation.
	AcceptVersion(ctx context.Context, versionID, userID string) error

	// RejectVersion deletes the target version and everything chained
	// after it, restoring the base version as current. Returns the
	// restored version's id. Rejecting version 1 (no base to restore)
	// fails with domain.ErrNotFound.
	RejectVersion(ctx context.Context, versionID, userID string) (string, error)

	// RestoreVersion creates a new version that duplicates an older
	// version's content. The old version stays immutable; its content is
	// copied forward, not un-deleted.
	RestoreVersion(ctx context.Context, versionID, userID string) (*models.Version, error)
}

// CreateInitialVersionRequest seeds version 1 of a document
type CreateInitialVersionRequest struct {
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
}

// CreateEditVersionRequest appends a new version to the chain
type CreateEditVersionRequest struct {
	DocumentID    string             `json:"document_id"`
	Content       string             `json:"content"`
	VersionType   models.VersionType `json:"version_type"`
	BaseVersionID string             `json:"base_version_id"`
}
