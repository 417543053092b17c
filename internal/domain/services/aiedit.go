package services

import "context"

// AIEditService reconciles a model response against a document: it
// classifies the edit, validates or repairs the payload, applies it to
// the current version's content, and commits the result as a new version
// awaiting accept/reject.
type AIEditService interface {
	// ApplyResponse processes one model response for a document.
	// Parse and no-match failures come back as a structured result with
	// DocumentUpdated=false, never as an error; conflict, authorization
	// and not-found failures are returned as domain errors.
	ApplyResponse(ctx context.Context, req *ApplyResponseRequest) (*AIEditResult, error)
}

// ApplyResponseRequest carries one model response to reconcile
type ApplyResponseRequest struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	Response   string `json:"response"`
}

// AIEditResult reports what the reconciliation did. Processed is true
// whenever the response was examined, even if nothing was applied.
type AIEditResult struct {
	Processed       bool     `json:"processed"`
	DocumentUpdated bool     `json:"document_updated"`
	VersionID       string   `json:"version_id,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
	Error           string   `json:"error,omitempty"`
}
