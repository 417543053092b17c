package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"innerflame/internal/config"
	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/repositories"
	"innerflame/internal/domain/services"
	"innerflame/internal/entity"
)

// documentService implements the DocumentService interface
type documentService struct {
	docRepo    repositories.DocumentRepository
	versionSvc services.VersionService
	registry   *entity.Registry
	logger     *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(
	docRepo repositories.DocumentRepository,
	versionSvc services.VersionService,
	registry *entity.Registry,
	logger *slog.Logger,
) services.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		versionSvc: versionSvc,
		registry:   registry,
		logger:     logger,
	}
}

// CreateDocument creates a document and seeds version 1 from the entity
// type's template
func (s *documentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*services.DocumentWithContent, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.EntityType, validation.Required),
		validation.Field(&req.Title, validation.Length(0, config.MaxTitleLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	tmpl, err := s.registry.Get(req.EntityType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	title := req.Title
	if title == "" {
		title = tmpl.DefaultTitle
	}

	content, err := s.registry.InitialContent(req.EntityType, req.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	doc := &models.Document{
		ID:         uuid.NewString(),
		UserID:     req.UserID,
		EntityType: req.EntityType,
		Title:      title,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	version, err := s.versionSvc.CreateInitialVersion(ctx, &services.CreateInitialVersionRequest{
		DocumentID: doc.ID,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"user_id", req.UserID,
		"entity_type", req.EntityType,
	)

	return &services.DocumentWithContent{Document: doc, Version: version}, nil
}

// GetDocument retrieves a document with its current version content
func (s *documentService) GetDocument(ctx context.Context, id, userID string) (*services.DocumentWithContent, error) {
	doc, err := s.authorize(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	version, err := s.versionSvc.GetCurrentVersion(ctx, id)
	if err != nil {
		// A document row without a current version is a data problem but
		// should not hide the document itself.
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		s.logger.Warn("document has no current version", "document_id", id)
		version = nil
	}

	return &services.DocumentWithContent{Document: doc, Version: version}, nil
}

// ListDocuments lists the documents a user owns
func (s *documentService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.docRepo.ListByUser(ctx, userID)
}

// UpdateContent records a manual user edit as a new version
func (s *documentService) UpdateContent(ctx context.Context, req *services.UpdateContentRequest) (*models.Version, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.BaseVersionID, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := s.authorize(ctx, req.DocumentID, req.UserID); err != nil {
		return nil, err
	}

	return s.versionSvc.CreateEditVersion(ctx, &services.CreateEditVersionRequest{
		DocumentID:    req.DocumentID,
		Content:       req.Content,
		VersionType:   models.VersionTypeUserEdit,
		BaseVersionID: req.BaseVersionID,
	})
}

// DeleteDocument deletes a document and its version chain
func (s *documentService) DeleteDocument(ctx context.Context, id, userID string) error {
	if _, err := s.authorize(ctx, id, userID); err != nil {
		return err
	}

	if err := s.docRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("document deleted", "document_id", id, "user_id", userID)
	return nil
}

// authorize loads a document and checks ownership
func (s *documentService) authorize(ctx context.Context, documentID, userID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, fmt.Errorf("document %s does not belong to user: %w", documentID, domain.ErrForbidden)
	}
	return doc, nil
}
