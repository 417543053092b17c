package models

import (
	"time"
)

// Document is a user-owned strategic artifact (e.g. a lean canvas) whose
// content is versioned. The content itself is never stored on the document
// row; it is always resolved through the current Version.
type Document struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	EntityType string    `json:"entity_type" db:"entity_type"`
	Title      string    `json:"title" db:"title"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
