package repositories

import (
	"context"

	"innerflame/internal/domain/models"
)

// DocumentRepository defines data access operations for documents
type DocumentRepository interface {
	// Create creates a new document
	Create(ctx context.Context, doc *models.Document) error

	// GetByID retrieves a document by ID
	GetByID(ctx context.Context, id string) (*models.Document, error)

	// ListByUser lists all documents owned by a user
	ListByUser(ctx context.Context, userID string) ([]models.Document, error)

	// UpdateTitle updates a document's display title and touches updated_at
	UpdateTitle(ctx context.Context, id, title string) error

	// Touch bumps a document's updated_at timestamp
	Touch(ctx context.Context, id string) error

	// Delete deletes a document and its versions
	Delete(ctx context.Context, id string) error
}
