package models

import (
	"time"

	"github.com/google/uuid"
)

// Slide visual types. Diagram-bearing types carry chart/layout data instead
// of markup text and are timed against node/edge targets.
const (
	VisualChart           = "chart"
	VisualComparisonSplit = "comparison_split"
)

// Slide represents the structure of a course slide in the database.
type Slide struct {
	ID                uuid.UUID      `json:"id"`
	CourseID          uuid.UUID      `json:"course_id"`
	Position          int            `json:"position"`
	Title             *string        `json:"title,omitempty"`
	VisualType        string         `json:"visual_type"`
	VisualText        *string        `json:"visual_text,omitempty"` // User-editable on-screen markup
	Text              string         `json:"text"`                  // Plain narration script
	ChartData         *ChartData     `json:"chart_data,omitempty"`  // Nullable JSONB
	LayoutData        *LayoutData    `json:"layout_data,omitempty"` // Nullable JSONB
	AlignmentData     *AlignmentData `json:"alignment_data,omitempty"`
	AudioURL          *string        `json:"audio_url,omitempty"`
	ImageURL          *string        `json:"image_url,omitempty"`
	TimingLinksManual []Link         `json:"timing_links_manual,omitempty"` // Nullable JSONB
	TimingLinksAuto   []Link         `json:"timing_links_auto,omitempty"`   // Nullable JSONB
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// IsDiagram reports whether the slide's visual type is timed against
// diagram structure rather than on-screen text.
func (s Slide) IsDiagram() bool {
	return s.VisualType == VisualChart || s.VisualType == VisualComparisonSplit
}
