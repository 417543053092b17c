package services

import (
	"context"

	"innerflame/internal/domain/models"
)

// DocumentService handles document business logic
type DocumentService interface {
	// CreateDocument creates a document and seeds version 1 from the
	// entity type's template
	CreateDocument(ctx context.Context, req *CreateDocumentRequest) (*DocumentWithContent, error)

	// GetDocument retrieves a document with its current version content
	GetDocument(ctx context.Context, id, userID string) (*DocumentWithContent, error)

	// ListDocuments lists the documents a user owns (metadata only)
	ListDocuments(ctx context.Context, userID string) ([]models.Document, error)

	// UpdateContent records a manual user edit as a new version
	UpdateContent(ctx context.Context, req *UpdateContentRequest) (*models.Version, error)

	// DeleteDocument deletes a document and its version chain
	DeleteDocument(ctx context.Context, id, userID string) error
}

// CreateDocumentRequest represents a document creation request
type CreateDocumentRequest struct {
	UserID     string `json:"user_id"`
	EntityType string `json:"entity_type"`
	Title      string `json:"title"`
}

// UpdateContentRequest represents a manual content edit
type UpdateContentRequest struct {
	DocumentID    string `json:"document_id"`
	UserID        string `json:"user_id"`
	Content       string `json:"content"`
	BaseVersionID string `json:"base_version_id"`
}

// DocumentWithContent pairs document metadata with its current version
type DocumentWithContent struct {
	Document *models.Document `json:"document"`
	Version  *models.Version  `json:"version,omitempty"`
}
