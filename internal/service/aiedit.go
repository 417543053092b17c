package service

import (
	"context"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/repositories"
	"innerflame/internal/domain/services"
	"innerflame/internal/edit/diffblock"
	"innerflame/internal/edit/extract"
	"innerflame/internal/edit/patch"
)

// aiEditService implements the AIEditService interface. It is the
// reconciliation pipeline: extract the edit payload from the response,
// parse and apply it against the current version's content, and commit
// the outcome as a new ai_edit version.
type aiEditService struct {
	docRepo    repositories.DocumentRepository
	versionSvc services.VersionService
	logger     *slog.Logger
}

// NewAIEditService creates a new AI edit reconciliation service
func NewAIEditService(
	docRepo repositories.DocumentRepository,
	versionSvc services.VersionService,
	logger *slog.Logger,
) services.AIEditService {
	return &aiEditService{
		docRepo:    docRepo,
		versionSvc: versionSvc,
		logger:     logger,
	}
}

// ApplyResponse processes one model response for a document. Parse and
// no-match failures come back as a structured result; conflict,
// authorization and not-found failures are returned as errors.
func (s *aiEditService) ApplyResponse(ctx context.Context, req *services.ApplyResponseRequest) (*services.AIEditResult, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.DocumentID, validation.Required),
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Response, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	doc, err := s.docRepo.GetByID(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != req.UserID {
		return nil, fmt.Errorf("document %s does not belong to user: %w", req.DocumentID, domain.ErrForbidden)
	}

	if !extract.ContainsEditTags(req.Response) {
		return &services.AIEditResult{Processed: false}, nil
	}

	current, err := s.versionSvc.GetCurrentVersion(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	ext := extract.Extract(req.Response)
	result := &services.AIEditResult{Processed: true, Warnings: ext.Warnings}

	var content string
	switch ext.Mode {
	case extract.ModeTargetedEdit:
		content, err = s.applyTargetedEdit(current, ext.Content, result)
		if err != nil || content == "" {
			return result, err
		}
	case extract.ModeFullRewrite:
		content = ext.Content
	default:
		result.Error = "edit tags detected but no payload could be extracted"
		return result, nil
	}

	version, err := s.versionSvc.CreateEditVersion(ctx, &services.CreateEditVersionRequest{
		DocumentID:    req.DocumentID,
		Content:       content,
		VersionType:   models.VersionTypeAIEdit,
		BaseVersionID: current.ID,
	})
	if err != nil {
		return nil, err
	}

	result.DocumentUpdated = true
	result.VersionID = version.ID

	s.logger.Info("ai edit applied",
		"document_id", req.DocumentID,
		"version_id", version.ID,
		"mode", ext.Mode,
		"warnings", len(result.Warnings),
	)

	return result, nil
}

// applyTargetedEdit parses the diff payload and applies each block in
// order against the current content's fields. Returns the new serialized
// content, or "" when nothing could be applied; in that case the result's
// Error and Warnings explain why.
func (s *aiEditService) applyTargetedEdit(current *models.Version, diff string, result *services.AIEditResult) (string, error) {
	parsed := diffblock.Parse(diff)
	result.Warnings = append(result.Warnings, parsed.Warnings...)
	if len(parsed.Blocks) == 0 {
		result.Error = "no valid search/replace blocks found in edit"
		return "", nil
	}

	vc := models.ParseVersionContent(current.Content)
	if !vc.IsStructured() {
		result.Error = "document content is not a structured field mapping; targeted edits require one"
		return "", nil
	}

	fields := vc.Fields
	applied := 0
	for n, block := range parsed.Blocks {
		r := patch.ApplyReplace(fields, block.Search, block.Replace)
		if !r.Applied {
			warning := fmt.Sprintf("block %d: search text not found in any field", n+1)
			if r.ClosestField != "" {
				warning += fmt.Sprintf(" (closest: %s)", r.ClosestField)
			}
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		fields = r.Fields
		applied++
		s.logger.Debug("diff block applied",
			"document_id", current.DocumentID,
			"block", n+1,
			"field", r.MatchedField,
			"strategy", r.Strategy,
		)
	}

	if applied == 0 {
		result.Error = "none of the edit's search blocks matched the document content"
		return "", nil
	}

	content, err := fields.JSON()
	if err != nil {
		return "", fmt.Errorf("serialize patched content: %w", err)
	}
	return content, nil
}
