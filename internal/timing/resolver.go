package timing

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"videothingy/course-engine/models"
)

// Resolver computes per-slide timing plans. It is safe for concurrent use:
// each slide's plan is a pure function of (alignment, slide content, manual
// links) plus at most one LLM call through Gen, so callers may process
// slides in parallel.
type Resolver struct {
	Gen TextGenerator
	Log *logrus.Logger
}

// NewResolver returns a Resolver using the given text generator for the
// LLM link strategy. gen may be nil, in which case auto links come from
// the heuristic only.
func NewResolver(gen TextGenerator, log *logrus.Logger) *Resolver {
	return &Resolver{Gen: gen, Log: log}
}

// BuildTimingPlan tokenizes the slide's alignment, extracts its target
// inventory, produces links (manual links win outright; otherwise LLM then
// heuristic), validates them, and joins everything into a sorted, resolved
// animation timeline plus diagnostics.
func (r *Resolver) BuildTimingPlan(ctx context.Context, slide models.Slide, alignment *models.AlignmentData) models.TimingPlan {
	tokens := TokenizeAlignment(alignment)
	targets := ExtractTargets(slide)

	manual := slide.TimingLinksManual
	usingManual := len(manual) > 0

	var chosen []models.Link
	if usingManual {
		chosen = manual
	} else {
		chosen = ProduceAutoLinks(ctx, slide, tokens, targets, r.Gen, r.Log)
	}

	valid, errors := ValidateLinks(chosen, slide, tokens, targets, !usingManual)

	resolved := resolveEntries(valid, tokens, targets, usingManual)
	resolved = append(resolved, defaultHeadingEntries(targets, valid)...)
	sortResolved(resolved)

	policyErrors := coveragePolicyErrors(slide, resolved)

	plan := models.TimingPlan{
		TimingLinksManual:  manualOrEmpty(manual),
		TimingLinksAuto:    []models.Link{},
		TimingResolved:     resolved,
		TimingPolicyOK:     len(policyErrors) == 0,
		TimingPolicyErrors: policyErrors,
	}
	if !usingManual {
		plan.TimingLinksAuto = valid
	}

	plan.TimingMeta = models.TimingMeta{
		TokenCount:      len(tokens),
		TargetCount:     len(targets),
		ManualLinkCount: len(manual),
		AutoLinkCount:   len(plan.TimingLinksAuto),
		ActiveLinkCount: len(valid),
		Errors:          errors,
		Stale:           len(errors) > 0 || len(policyErrors) > 0,
	}

	plan.Status = deriveStatus(usingManual, len(valid), plan.TimingMeta.Stale)
	return plan
}

// resolveEntries joins each validated link to its token (for timing) and
// its target (for display text), applying animation defaults.
func resolveEntries(links []models.Link, tokens []models.NarrationToken, targets []models.Target, usingManual bool) []models.ResolvedEntry {
	texts := make(map[string]string, len(targets))
	for _, t := range targets {
		texts[t.ID] = t.Text
	}

	entries := make([]models.ResolvedEntry, 0, len(links))
	for _, link := range links {
		token := tokens[*link.Target.TokenIndex]

		origin := link.Origin
		if usingManual || origin == "" {
			origin = models.OriginManual
		}

		anim := models.Animation{Preset: DefaultPreset, DurationMs: DefaultDurationMs}
		if link.Animation != nil {
			if link.Animation.Preset != "" {
				anim.Preset = link.Animation.Preset
			}
			if link.Animation.DurationMs > 0 {
				anim.DurationMs = link.Animation.DurationMs
			}
		}

		idx := token.Index
		entries = append(entries, models.ResolvedEntry{
			ID:         link.ID,
			Origin:     origin,
			SourceType: link.Source.Type,
			SourceID:   link.Source.ID,
			SourceText: texts[link.Source.ID],
			TokenIndex: &idx,
			TokenWord:  token.Word,
			StartMs:    token.StartMs,
			EndMs:      token.EndMs,
			Animation:  anim,
		})
	}
	return entries
}

// defaultHeadingEntries synthesizes a zero-duration "default" entry for
// every heading target not already covered by a real link. Headings without
// an explicit manual anchor always render unanchored and immediately
// visible.
func defaultHeadingEntries(targets []models.Target, linked []models.Link) []models.ResolvedEntry {
	covered := make(map[string]bool, len(linked))
	for _, link := range linked {
		covered[link.Source.ID] = true
	}

	entries := []models.ResolvedEntry{}
	for _, t := range targets {
		if t.Type != models.TargetHeading || covered[t.ID] {
			continue
		}
		entries = append(entries, models.ResolvedEntry{
			ID:         fmt.Sprintf("default-%s", t.ID),
			Origin:     models.OriginDefault,
			SourceType: models.TargetHeading,
			SourceID:   t.ID,
			SourceText: t.Text,
			TokenIndex: nil,
			StartMs:    0,
			EndMs:      0,
			Animation:  models.Animation{Preset: "none", DurationMs: 0},
		})
	}
	return entries
}

// sortResolved orders entries by (start_ms, source_id), the order the
// renderer consumes them in.
func sortResolved(entries []models.ResolvedEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].StartMs != entries[j].StartMs {
			return entries[i].StartMs < entries[j].StartMs
		}
		return entries[i].SourceID < entries[j].SourceID
	})
}

// coveragePolicyErrors enforces the per-visual-type minimum-anchor
// requirement: diagram slides must have at least one node/edge entry, all
// other slides at least one word/paragraph entry. Violations are reported,
// not fatal.
func coveragePolicyErrors(slide models.Slide, resolved []models.ResolvedEntry) []string {
	errors := []string{}
	if slide.IsDiagram() {
		if !hasEntryOfType(resolved, models.TargetNode, models.TargetEdge) {
			errors = append(errors, fmt.Sprintf("visual type %q requires at least one node or edge link", slide.VisualType))
		}
		return errors
	}
	if !hasEntryOfType(resolved, models.TargetWord, models.TargetParagraph) {
		errors = append(errors, fmt.Sprintf("visual type %q requires at least one word or paragraph link", slide.VisualType))
	}
	return errors
}

func hasEntryOfType(entries []models.ResolvedEntry, types ...models.TargetType) bool {
	for _, e := range entries {
		for _, tt := range types {
			if e.SourceType == tt {
				return true
			}
		}
	}
	return false
}

func deriveStatus(usingManual bool, validCount int, stale bool) string {
	if usingManual {
		if stale {
			return models.TimingStatusPartial
		}
		return models.TimingStatusManualComplete
	}
	if validCount > 0 {
		return models.TimingStatusAutoGenerated
	}
	return models.TimingStatusMissing
}

func manualOrEmpty(manual []models.Link) []models.Link {
	if manual == nil {
		return []models.Link{}
	}
	return manual
}
