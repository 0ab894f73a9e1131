package timing

import (
	"fmt"

	"videothingy/course-engine/models"
)

// ValidateLinks filters a candidate link list against the slide's allowed
// source-type partition, the token sequence, and the target inventory.
// Rejected links are dropped with a human-readable reason; the batch is
// never aborted and accepted links pass through verbatim. In auto mode
// heading sources are additionally forbidden: automatically produced links
// may never anchor a heading.
func ValidateLinks(
	links []models.Link,
	slide models.Slide,
	tokens []models.NarrationToken,
	targets []models.Target,
	autoMode bool,
) ([]models.Link, []string) {
	valid := []models.Link{}
	errors := []string{}

	inventory := make(map[string]models.TargetType, len(targets))
	for _, t := range targets {
		inventory[t.ID] = t.Type
	}

	for i, link := range links {
		label := link.ID
		if label == "" {
			label = fmt.Sprintf("link[%d]", i)
		}

		if !knownTargetType(link.Source.Type) {
			errors = append(errors, fmt.Sprintf("%s: malformed link: unknown source type %q", label, link.Source.Type))
			continue
		}
		if !typeAllowedForSlide(link.Source.Type, slide) {
			errors = append(errors, fmt.Sprintf("%s: source type %q not allowed for visual type %q", label, link.Source.Type, slide.VisualType))
			continue
		}
		if link.Source.ID == "" {
			errors = append(errors, fmt.Sprintf("%s: missing source id", label))
			continue
		}
		if _, ok := inventory[link.Source.ID]; !ok {
			errors = append(errors, fmt.Sprintf("%s: source id %q not found in slide targets", label, link.Source.ID))
			continue
		}
		if link.Target.TokenIndex == nil {
			errors = append(errors, fmt.Sprintf("%s: missing token index", label))
			continue
		}
		if idx := *link.Target.TokenIndex; idx < 0 || idx >= len(tokens) {
			errors = append(errors, fmt.Sprintf("%s: token index %d out of range (have %d tokens)", label, idx, len(tokens)))
			continue
		}
		if autoMode && link.Source.Type == models.TargetHeading {
			errors = append(errors, fmt.Sprintf("%s: heading targets cannot be auto-linked", label))
			continue
		}

		valid = append(valid, link)
	}

	return valid, errors
}

func knownTargetType(tt models.TargetType) bool {
	switch tt {
	case models.TargetWord, models.TargetParagraph, models.TargetHeading, models.TargetNode, models.TargetEdge:
		return true
	}
	return false
}

// typeAllowedForSlide enforces the strict source-type partition: diagram
// slides link node/edge targets only, all other slides link
// word/paragraph/heading targets only.
func typeAllowedForSlide(tt models.TargetType, slide models.Slide) bool {
	if slide.IsDiagram() {
		return tt == models.TargetNode || tt == models.TargetEdge
	}
	return tt == models.TargetWord || tt == models.TargetParagraph || tt == models.TargetHeading
}
