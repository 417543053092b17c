package handler

import (
	"log/slog"
	"net/http"

	"innerflame/internal/domain/services"
	"innerflame/internal/httputil"
)

// AIEditHandler handles AI edit reconciliation HTTP requests
type AIEditHandler struct {
	aiEditService services.AIEditService
	logger        *slog.Logger
}

// NewAIEditHandler creates a new AI edit handler
func NewAIEditHandler(aiEditService services.AIEditService, logger *slog.Logger) *AIEditHandler {
	return &AIEditHandler{
		aiEditService: aiEditService,
		logger:        logger,
	}
}

// applyEditRequest carries the model response to reconcile
type applyEditRequest struct {
	Response string `json:"response"`
}

// ApplyEdit runs the reconciliation pipeline on a model response
// POST /api/documents/{id}/ai-edit
func (h *AIEditHandler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	documentID := r.PathValue("id")
	if documentID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "document ID is required")
		return
	}

	var req applyEditRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.aiEditService.ApplyResponse(r.Context(), &services.ApplyResponseRequest{
		DocumentID: documentID,
		UserID:     userID,
		Response:   req.Response,
	})
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}
