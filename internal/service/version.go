package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"innerflame/internal/document"
	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/repositories"
	"innerflame/internal/domain/services"
)

// versionService implements the VersionService interface
type versionService struct {
	versionRepo repositories.VersionRepository
	docRepo     repositories.DocumentRepository
	txManager   repositories.TransactionManager
	logger      *slog.Logger
}

// NewVersionService creates a new version lifecycle service
func NewVersionService(
	versionRepo repositories.VersionRepository,
	docRepo repositories.DocumentRepository,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.VersionService {
	return &versionService{
		versionRepo: versionRepo,
		docRepo:     docRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// CreateInitialVersion creates version 1 of a document
func (s *versionService) CreateInitialVersion(ctx context.Context, req *services.CreateInitialVersionRequest) (*models.Version, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Idempotency guard: a document gets exactly one version 1.
	if _, err := s.versionRepo.GetCurrent(ctx, req.DocumentID); err == nil {
		return nil, fmt.Errorf("document %s already has a version: %w", req.DocumentID, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	version := &models.Version{
		ID:            uuid.NewString(),
		DocumentID:    req.DocumentID,
		VersionNumber: 1,
		Content:       req.Content,
		VersionType:   models.VersionTypeUserEdit,
		BaseVersionID: nil,
		IsCurrent:     true,
		CreatedAt:     time.Now(),
	}

	if err := s.versionRepo.Insert(ctx, version); err != nil {
		return nil, err
	}

	s.logger.Info("initial version created",
		"document_id", req.DocumentID,
		"version_id", version.ID,
	)

	return version, nil
}

// CreateEditVersion appends version N+1 to the chain, flipping version N
// off current. The flip is conditional on N still being current; losing
// that race fails the whole transaction with a ConflictError and no
// partial state.
func (s *versionService) CreateEditVersion(ctx context.Context, req *services.CreateEditVersionRequest) (*models.Version, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.BaseVersionID, validation.Required),
		validation.Field(&req.VersionType, validation.Required, validation.In(
			models.VersionTypeUserEdit, models.VersionTypeAIEdit, models.VersionTypeRestore,
		)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Freshness check: re-read the current version. If the version the
	// caller based its edit on is no longer current, a concurrent edit
	// raced ahead and the caller must retry against the new content.
	current, err := s.versionRepo.GetCurrent(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if current.ID != req.BaseVersionID {
		return nil, &domain.ConflictError{
			Message:    fmt.Sprintf("version %s is no longer current for document %s", req.BaseVersionID, req.DocumentID),
			DocumentID: req.DocumentID,
			VersionID:  req.BaseVersionID,
		}
	}

	content, title := s.propagateTitle(req.Content, current.Content)

	version := &models.Version{
		ID:            uuid.NewString(),
		DocumentID:    req.DocumentID,
		VersionNumber: current.VersionNumber + 1,
		Content:       content,
		VersionType:   req.VersionType,
		BaseVersionID: &current.ID,
		IsCurrent:     true,
		CreatedAt:     time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		flipped, err := s.versionRepo.ClearCurrent(txCtx, current.ID)
		if err != nil {
			return err
		}
		if !flipped {
			// The conditional update is the compare-and-swap: zero rows
			// means another writer superseded this version first.
			return &domain.ConflictError{
				Message:    fmt.Sprintf("version %s was superseded by a concurrent edit", current.ID),
				DocumentID: req.DocumentID,
				VersionID:  current.ID,
			}
		}
		if err := s.versionRepo.Insert(txCtx, version); err != nil {
			return err
		}
		return s.syncDocumentTitle(txCtx, req.DocumentID, title)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("edit version created",
		"document_id", req.DocumentID,
		"version_id", version.ID,
		"version_number", version.VersionNumber,
		"version_type", version.VersionType,
	)

	return version, nil
}

// GetCurrentVersion returns the current version of a document
func (s *versionService) GetCurrentVersion(ctx context.Context, documentID string) (*models.Version, error) {
	return s.versionRepo.GetCurrent(ctx, documentID)
}

// ListVersions returns a document's versions in version-number order
func (s *versionService) ListVersions(ctx context.Context, documentID, userID string) ([]models.Version, error) {
	if _, err := s.authorizeDocument(ctx, documentID, userID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByDocument(ctx, documentID)
}

// AcceptVersion confirms an applied AI edit. The version is already
// current, so after the ownership check this is a no-op.
func (s *versionService) AcceptVersion(ctx context.Context, versionID, userID string) error {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return err
	}
	if _, err := s.authorizeDocument(ctx, version.DocumentID, userID); err != nil {
		return err
	}

	s.logger.Info("version accepted",
		"version_id", versionID,
		"document_id", version.DocumentID,
		"user_id", userID,
	)
	return nil
}

// RejectVersion deletes the target version and any versions after it,
// restoring the base version as current
func (s *versionService) RejectVersion(ctx context.Context, versionID, userID string) (string, error) {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return "", err
	}
	if _, err := s.authorizeDocument(ctx, version.DocumentID, userID); err != nil {
		return "", err
	}

	if !version.IsCurrent {
		return "", fmt.Errorf("version %s is not current: %w", versionID, domain.ErrNotFound)
	}
	if version.BaseVersionID == nil {
		return "", fmt.Errorf("cannot reject the first version of document %s: %w", version.DocumentID, domain.ErrNotFound)
	}
	baseID := *version.BaseVersionID

	base, err := s.versionRepo.GetByID(ctx, baseID)
	if err != nil {
		return "", err
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.versionRepo.DeleteFrom(txCtx, version.DocumentID, version.VersionNumber); err != nil {
			return err
		}
		if err := s.versionRepo.MarkCurrent(txCtx, baseID); err != nil {
			return err
		}
		// The document's sticky title follows the restored content.
		restored := models.ParseVersionContent(base.Content)
		if restored.IsStructured() && restored.Fields.HasTitle() {
			return s.syncDocumentTitle(txCtx, version.DocumentID, restored.Fields.Title())
		}
		return s.docRepo.Touch(txCtx, version.DocumentID)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("version rejected",
		"version_id", versionID,
		"document_id", version.DocumentID,
		"restored_version_id", baseID,
	)

	return baseID, nil
}

// RestoreVersion creates a new version duplicating an older version's
// content. Content is copied forward; the old row stays immutable.
func (s *versionService) RestoreVersion(ctx context.Context, versionID, userID string) (*models.Version, error) {
	old, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizeDocument(ctx, old.DocumentID, userID); err != nil {
		return nil, err
	}

	current, err := s.versionRepo.GetCurrent(ctx, old.DocumentID)
	if err != nil {
		return nil, err
	}

	return s.CreateEditVersion(ctx, &services.CreateEditVersionRequest{
		DocumentID:    old.DocumentID,
		Content:       old.Content,
		VersionType:   models.VersionTypeRestore,
		BaseVersionID: current.ID,
	})
}

// authorizeDocument loads a document and checks ownership
func (s *versionService) authorizeDocument(ctx context.Context, documentID, userID string) (*models.Document, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, fmt.Errorf("document %s does not belong to user: %w", documentID, domain.ErrForbidden)
	}
	return doc, nil
}

// propagateTitle keeps the title sticky across edits: when new content
// lacks an explicit title field, the title from the current version's
// parsed content is carried forward. Returns the (possibly augmented)
// content and the effective title for the document row.
func (s *versionService) propagateTitle(newContent, currentContent string) (string, string) {
	parsed := models.ParseVersionContent(newContent)
	if !parsed.IsStructured() {
		return newContent, ""
	}
	if parsed.Fields.HasTitle() {
		return newContent, parsed.Fields.Title()
	}

	prev := models.ParseVersionContent(currentContent)
	if !prev.IsStructured() || !prev.Fields.HasTitle() {
		return newContent, ""
	}

	parsed.Fields.Set(document.TitleField, prev.Fields.Title())
	augmented, err := parsed.Fields.JSON()
	if err != nil {
		s.logger.Warn("failed to carry forward title", "error", err)
		return newContent, prev.Fields.Title()
	}
	return augmented, prev.Fields.Title()
}

// syncDocumentTitle updates the document row's display title, or just
// touches updated_at when the content had no usable title.
func (s *versionService) syncDocumentTitle(ctx context.Context, documentID, title string) error {
	if title == "" {
		return s.docRepo.Touch(ctx, documentID)
	}
	return s.docRepo.UpdateTitle(ctx, documentID, title)
}
