package handler

import (
	"log/slog"
	"net/http"

	"innerflame/internal/domain/services"
	"innerflame/internal/httputil"
)

// VersionHandler handles version lifecycle HTTP requests
type VersionHandler struct {
	docService     services.DocumentService
	versionService services.VersionService
	logger         *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(
	docService services.DocumentService,
	versionService services.VersionService,
	logger *slog.Logger,
) *VersionHandler {
	return &VersionHandler{
		docService:     docService,
		versionService: versionService,
		logger:         logger,
	}
}

// createVersionRequest is the body for a manual content edit
type createVersionRequest struct {
	Content       string `json:"content"`
	BaseVersionID string `json:"base_version_id"`
}

// CreateVersion records a manual user edit as a new version
// POST /api/documents/{id}/versions
func (h *VersionHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req createVersionRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	version, err := h.docService.UpdateContent(r.Context(), &services.UpdateContentRequest{
		DocumentID:    documentID,
		UserID:        userID,
		Content:       req.Content,
		BaseVersionID: req.BaseVersionID,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}

// ListVersions lists a document's versions in version-number order
// GET /api/documents/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	versions, err := h.versionService.ListVersions(r.Context(), documentID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": versions,
		"total":    len(versions),
	})
}

// AcceptVersion confirms an applied AI edit
// POST /api/documents/{id}/versions/{versionId}/accept
func (h *VersionHandler) AcceptVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	versionID := r.PathValue("versionId")
	if versionID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "version ID is required")
		return
	}

	if err := h.versionService.AcceptVersion(r.Context(), versionID, userID); err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
	})
}

// RejectVersion discards an applied AI edit, restoring its base version
// POST /api/documents/{id}/versions/{versionId}/reject
func (h *VersionHandler) RejectVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	versionID := r.PathValue("versionId")
	if versionID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "version ID is required")
		return
	}

	restoredID, err := h.versionService.RejectVersion(r.Context(), versionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success":           true,
		"restoredVersionId": restoredID,
	})
}

// RestoreVersion creates a new version duplicating an older version's content
// POST /api/documents/{id}/versions/{versionId}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	versionID := r.PathValue("versionId")
	if versionID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "version ID is required")
		return
	}

	version, err := h.versionService.RestoreVersion(r.Context(), versionID, userID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, version)
}
