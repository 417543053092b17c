package models

import (
	"time"

	"innerflame/internal/document"
)

// VersionType records what produced a version.
type VersionType string

const (
	VersionTypeUserEdit VersionType = "user_edit"
	VersionTypeAIEdit   VersionType = "ai_edit"
	VersionTypeRestore  VersionType = "restore"
)

// Version is an immutable snapshot of a document's content. After creation
// only the IsCurrent flag changes: true -> false when superseded. Restores
// create a new version that duplicates the restored content rather than
// flipping an old version back to current.
type Version struct {
	ID            string      `json:"id" db:"id"`
	DocumentID    string      `json:"document_id" db:"document_id"`
	VersionNumber int         `json:"version_number" db:"version_number"`
	Content       string      `json:"content" db:"content"`
	VersionType   VersionType `json:"version_type" db:"version_type"`
	BaseVersionID *string     `json:"base_version_id,omitempty" db:"base_version_id"`
	IsCurrent     bool        `json:"is_current" db:"is_current"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
}

// VersionContent is the explicit variant behind a version's serialized
// content: either a parsed field mapping or raw text that did not parse
// as a JSON object.
type VersionContent struct {
	Fields  *document.Fields
	RawText string
}

// IsStructured reports whether the content parsed into fields.
func (c *VersionContent) IsStructured() bool {
	return c.Fields != nil
}

// ParseVersionContent classifies serialized version content. Content that
// is a valid JSON object becomes FullContent; anything else is RawText.
func ParseVersionContent(raw string) *VersionContent {
	fields, err := document.ParseFields(raw)
	if err != nil {
		return &VersionContent{RawText: raw}
	}
	return &VersionContent{Fields: fields}
}
