package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innerflame/internal/domain"
	"innerflame/internal/domain/models"
	"innerflame/internal/domain/services"
	"innerflame/internal/httputil"
)

// stubVersionService implements services.VersionService with function
// fields so each test overrides only what it needs.
type stubVersionService struct {
	createInitial func(ctx context.Context, req *services.CreateInitialVersionRequest) (*models.Version, error)
	createEdit    func(ctx context.Context, req *services.CreateEditVersionRequest) (*models.Version, error)
	getCurrent    func(ctx context.Context, documentID string) (*models.Version, error)
	list          func(ctx context.Context, documentID, userID string) ([]models.Version, error)
	accept        func(ctx context.Context, versionID, userID string) error
	reject        func(ctx context.Context, versionID, userID string) (string, error)
	restore       func(ctx context.Context, versionID, userID string) (*models.Version, error)
}

func (s *stubVersionService) CreateInitialVersion(ctx context.Context, req *services.CreateInitialVersionRequest) (*models.Version, error) {
	return s.createInitial(ctx, req)
}

func (s *stubVersionService) CreateEditVersion(ctx context.Context, req *services.CreateEditVersionRequest) (*models.Version, error) {
	return s.createEdit(ctx, req)
}

func (s *stubVersionService) GetCurrentVersion(ctx context.Context, documentID string) (*models.Version, error) {
	return s.getCurrent(ctx, documentID)
}

func (s *stubVersionService) ListVersions(ctx context.Context, documentID, userID string) ([]models.Version, error) {
	return s.list(ctx, documentID, userID)
}

func (s *stubVersionService) AcceptVersion(ctx context.Context, versionID, userID string) error {
	return s.accept(ctx, versionID, userID)
}

func (s *stubVersionService) RejectVersion(ctx context.Context, versionID, userID string) (string, error) {
	return s.reject(ctx, versionID, userID)
}

func (s *stubVersionService) RestoreVersion(ctx context.Context, versionID, userID string) (*models.Version, error) {
	return s.restore(ctx, versionID, userID)
}

// stubDocumentService implements services.DocumentService the same way.
type stubDocumentService struct {
	create        func(ctx context.Context, req *services.CreateDocumentRequest) (*services.DocumentWithContent, error)
	get           func(ctx context.Context, id, userID string) (*services.DocumentWithContent, error)
	list          func(ctx context.Context, userID string) ([]models.Document, error)
	updateContent func(ctx context.Context, req *services.UpdateContentRequest) (*models.Version, error)
	delete        func(ctx context.Context, id, userID string) error
}

func (s *stubDocumentService) CreateDocument(ctx context.Context, req *services.CreateDocumentRequest) (*services.DocumentWithContent, error) {
	return s.create(ctx, req)
}

func (s *stubDocumentService) GetDocument(ctx context.Context, id, userID string) (*services.DocumentWithContent, error) {
	return s.get(ctx, id, userID)
}

func (s *stubDocumentService) ListDocuments(ctx context.Context, userID string) ([]models.Document, error) {
	return s.list(ctx, userID)
}

func (s *stubDocumentService) UpdateContent(ctx context.Context, req *services.UpdateContentRequest) (*models.Version, error) {
	return s.updateContent(ctx, req)
}

func (s *stubDocumentService) DeleteDocument(ctx context.Context, id, userID string) error {
	return s.delete(ctx, id, userID)
}

// stubAIEditService implements services.AIEditService.
type stubAIEditService struct {
	apply func(ctx context.Context, req *services.ApplyResponseRequest) (*services.AIEditResult, error)
}

func (s *stubAIEditService) ApplyResponse(ctx context.Context, req *services.ApplyResponseRequest) (*services.AIEditResult, error) {
	return s.apply(ctx, req)
}

// authed attaches a user ID the way the auth middleware does.
func authed(r *http.Request, userID string) *http.Request {
	return httputil.WithUserID(r, userID)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAcceptVersionResponds(t *testing.T) {
	svc := &stubVersionService{
		accept: func(_ context.Context, versionID, userID string) error {
			assert.Equal(t, "v-2", versionID)
			assert.Equal(t, "user-1", userID)
			return nil
		},
	}
	h := NewVersionHandler(nil, svc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/versions/{versionId}/accept", h.AcceptVersion)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/versions/v-2/accept", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
}

func TestRejectVersionReturnsRestoredID(t *testing.T) {
	svc := &stubVersionService{
		reject: func(_ context.Context, versionID, userID string) (string, error) {
			assert.Equal(t, "v-2", versionID)
			return "v-1", nil
		},
	}
	h := NewVersionHandler(nil, svc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/versions/{versionId}/reject", h.RejectVersion)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/versions/v-2/reject", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "v-1", body["restoredVersionId"])
}

func TestRejectFirstVersionMapsToNotFound(t *testing.T) {
	svc := &stubVersionService{
		reject: func(_ context.Context, _, _ string) (string, error) {
			return "", domain.ErrNotFound
		},
	}
	h := NewVersionHandler(nil, svc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/versions/{versionId}/reject", h.RejectVersion)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/versions/v-1/reject", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
}

func TestMissingUserIsUnauthorized(t *testing.T) {
	h := NewVersionHandler(nil, &stubVersionService{}, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/versions/{versionId}/accept", h.AcceptVersion)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/versions/v-2/accept", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateVersionConflictIncludesIDs(t *testing.T) {
	docSvc := &stubDocumentService{
		updateContent: func(_ context.Context, _ *services.UpdateContentRequest) (*models.Version, error) {
			return nil, &domain.ConflictError{
				Message:    "version v-1 is no longer current",
				DocumentID: "doc-1",
				VersionID:  "v-1",
			}
		},
	}
	h := NewVersionHandler(docSvc, &stubVersionService{}, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/versions", h.CreateVersion)

	payload := `{"content":"{\"title\":\"x\"}","base_version_id":"v-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/versions", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "doc-1", body["document_id"])
	assert.Equal(t, "v-1", body["version_id"])
}

func TestApplyEditPassesResultThrough(t *testing.T) {
	svc := &stubAIEditService{
		apply: func(_ context.Context, req *services.ApplyResponseRequest) (*services.AIEditResult, error) {
			assert.Equal(t, "doc-1", req.DocumentID)
			assert.Equal(t, "user-1", req.UserID)
			return &services.AIEditResult{
				Processed:       true,
				DocumentUpdated: true,
				VersionID:       "v-9",
				Warnings:        []string{"block 2: search text not found in any field"},
			}, nil
		},
	}
	h := NewAIEditHandler(svc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/ai-edit", h.ApplyEdit)

	payload := `{"response":"<replace_in_file>...</replace_in_file>"}`
	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/ai-edit", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["processed"])
	assert.Equal(t, true, body["document_updated"])
	assert.Equal(t, "v-9", body["version_id"])
}

func TestApplyEditForbiddenForOtherUsers(t *testing.T) {
	svc := &stubAIEditService{
		apply: func(_ context.Context, _ *services.ApplyResponseRequest) (*services.AIEditResult, error) {
			return nil, domain.ErrForbidden
		},
	}
	h := NewAIEditHandler(svc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents/{id}/ai-edit", h.ApplyEdit)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/doc-1/ai-edit", strings.NewReader(`{"response":"x"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "intruder"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateDocumentValidationError(t *testing.T) {
	docSvc := &stubDocumentService{
		create: func(_ context.Context, _ *services.CreateDocumentRequest) (*services.DocumentWithContent, error) {
			return nil, domain.ErrValidation
		},
	}
	h := NewDocumentHandler(docSvc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/documents", h.CreateDocument)

	req := httptest.NewRequest(http.MethodPost, "/api/documents", strings.NewReader(`{"entity_type":""}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocumentsShape(t *testing.T) {
	docSvc := &stubDocumentService{
		list: func(_ context.Context, userID string) ([]models.Document, error) {
			return []models.Document{{ID: "doc-1", UserID: userID}}, nil
		},
	}
	h := NewDocumentHandler(docSvc, slog.Default())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/documents", h.ListDocuments)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, authed(req, "user-1"))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, float64(1), body["total"])
}
