package timing

import (
	"fmt"
	"regexp"
	"strings"

	"videothingy/course-engine/models"
)

// The markup subset supported for on-screen text is intentionally small:
// h1-h6 headings, p/li blocks, and a generic element carrying a
// data-timing-id attribute (optionally typed via data-timing-type). This is
// the contract boundary; anything else is stripped as plain text.
var (
	reAnyTag     = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	reElement    = regexp.MustCompile(`(?is)<[a-z][a-z0-9]*\b([^>]*\bdata-timing-id\s*=\s*"[^"]*"[^>]*)>(.*?)</[a-z][a-z0-9]*\s*>`)
	reHeading    = regexp.MustCompile(`(?is)<h[1-6]\b[^>]*>(.*?)</h[1-6]\s*>`)
	reParagraph  = regexp.MustCompile(`(?is)<(?:p|li)\b[^>]*>(.*?)</(?:p|li)\s*>`)
	reTimingID   = regexp.MustCompile(`(?i)data-timing-id\s*=\s*"([^"]*)"`)
	reTimingType = regexp.MustCompile(`(?i)data-timing-type\s*=\s*"([^"]*)"`)
	reTag        = regexp.MustCompile(`<[^>]+>`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// ExtractTargets parses a slide's visual content into its addressable
// inventory of linkable targets. Diagram slides are built from chart/layout
// structure; everything else from on-screen markup or plain narration text.
func ExtractTargets(slide models.Slide) []models.Target {
	switch slide.VisualType {
	case models.VisualComparisonSplit:
		return comparisonSplitTargets(slide.LayoutData)
	case models.VisualChart:
		return chartTargets(slide.ChartData)
	default:
		return textTargets(slideContent(slide))
	}
}

// slideContent prefers the user-editable on-screen text, falling back to
// the raw narration script.
func slideContent(slide models.Slide) string {
	if slide.VisualText != nil && strings.TrimSpace(*slide.VisualText) != "" {
		return *slide.VisualText
	}
	return slide.Text
}

// comparisonSplitTargets synthesizes the two fixed node targets of a
// comparison_split slide from its configured labels.
func comparisonSplitTargets(layout *models.LayoutData) []models.Target {
	left, right := "Option A", "Option B"
	if layout != nil {
		if strings.TrimSpace(layout.LeftLabel) != "" {
			left = layout.LeftLabel
		}
		if strings.TrimSpace(layout.RightLabel) != "" {
			right = layout.RightLabel
		}
	}
	return []models.Target{
		{Type: models.TargetNode, ID: "node-left", Text: left},
		{Type: models.TargetNode, ID: "node-right", Text: right},
	}
}

// chartTargets emits one target per diagram node and edge, in declaration
// order, defaulting ids positionally when absent.
func chartTargets(chart *models.ChartData) []models.Target {
	targets := []models.Target{}
	if chart == nil {
		return targets
	}
	for i, node := range chart.Nodes {
		id := node.ID
		if id == "" {
			id = fmt.Sprintf("node-%d", i)
		}
		text := node.Data.Label
		if text == "" {
			text = id
		}
		targets = append(targets, models.Target{Type: models.TargetNode, ID: id, Text: text})
	}
	for i, edge := range chart.Edges {
		id := edge.ID
		if id == "" {
			id = fmt.Sprintf("edge-%d", i)
		}
		text := edge.Label
		if text == "" {
			text = edge.Source + "->" + edge.Target
		}
		targets = append(targets, models.Target{Type: models.TargetEdge, ID: id, Text: text})
	}
	return targets
}

// textTargets builds the inventory for text-bearing slides. Content with
// markup yields timing-tagged elements, headings, and paragraphs decomposed
// into words; bare text becomes one synthetic paragraph plus its words.
// Whenever any non-empty text exists, at least one paragraph target is
// guaranteed.
func textTargets(content string) []models.Target {
	targets := []models.Target{}
	cleaned := CleanText(content)
	if cleaned == "" {
		return targets
	}

	if !reAnyTag.MatchString(content) {
		targets = append(targets, models.Target{Type: models.TargetParagraph, ID: "paragraph-0", Text: cleaned})
		targets = append(targets, wordTargets("paragraph-0", cleaned)...)
		return targets
	}

	// Explicitly timing-tagged elements.
	for _, m := range reElement.FindAllStringSubmatch(content, -1) {
		attrs, inner := m[1], m[2]
		idMatch := reTimingID.FindStringSubmatch(attrs)
		if idMatch == nil || strings.TrimSpace(idMatch[1]) == "" {
			continue
		}
		text := CleanText(inner)
		targets = append(targets, models.Target{
			Type: timingTargetType(attrs, text),
			ID:   idMatch[1],
			Text: text,
		})
	}

	// Every heading element, auto-numbered.
	for i, m := range reHeading.FindAllStringSubmatch(content, -1) {
		targets = append(targets, models.Target{
			Type: models.TargetHeading,
			ID:   fmt.Sprintf("heading-%d", i),
			Text: CleanText(m[1]),
		})
	}

	// Every paragraph/list-item element, decomposed into words.
	paraIndex := 0
	for _, m := range reParagraph.FindAllStringSubmatch(content, -1) {
		text := CleanText(m[1])
		if text == "" {
			continue
		}
		id := fmt.Sprintf("paragraph-%d", paraIndex)
		paraIndex++
		targets = append(targets, models.Target{Type: models.TargetParagraph, ID: id, Text: text})
		targets = append(targets, wordTargets(id, text)...)
	}

	// Markup that produced no paragraphs still needs one anchorable
	// paragraph covering the whole cleaned text.
	if !hasTargetType(targets, models.TargetParagraph) {
		targets = append(targets, models.Target{Type: models.TargetParagraph, ID: "paragraph-0", Text: cleaned})
	}

	return targets
}

// timingTargetType resolves an element's declared data-timing-type,
// defaulting by word count when the declaration is absent or invalid.
func timingTargetType(attrs, text string) models.TargetType {
	if m := reTimingType.FindStringSubmatch(attrs); m != nil {
		switch models.TargetType(strings.ToLower(strings.TrimSpace(m[1]))) {
		case models.TargetWord:
			return models.TargetWord
		case models.TargetParagraph:
			return models.TargetParagraph
		case models.TargetHeading:
			return models.TargetHeading
		}
	}
	if len(strings.Fields(text)) > 1 {
		return models.TargetParagraph
	}
	return models.TargetWord
}

func wordTargets(paragraphID, text string) []models.Target {
	words := strings.Fields(text)
	targets := make([]models.Target, 0, len(words))
	for i, word := range words {
		targets = append(targets, models.Target{
			Type: models.TargetWord,
			ID:   fmt.Sprintf("word-%s-%d", paragraphID, i),
			Text: word,
		})
	}
	return targets
}

func hasTargetType(targets []models.Target, tt models.TargetType) bool {
	for _, t := range targets {
		if t.Type == tt {
			return true
		}
	}
	return false
}

// CleanText strips markup tags and collapses whitespace runs to single
// spaces, trimming the result.
func CleanText(s string) string {
	s = reTag.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
