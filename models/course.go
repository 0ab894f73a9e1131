package models

import (
	"time"

	"github.com/google/uuid"
)

// Course represents the structure of a course in the database.
type Course struct {
	ID             uuid.UUID `json:"id,omitempty"`
	Name           string    `json:"name"`
	Description    *string   `json:"description,omitempty"`    // Use a pointer for nullable TEXT fields
	SourceDocument *string   `json:"source_document,omitempty"` // Storage path of the uploaded policy document
	Status         string    `json:"status"`                   // DRAFT, GENERATING, READY, FAILED
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
