package timing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"videothingy/course-engine/internal/llmclient"
	"videothingy/course-engine/models"
)

const (
	// DefaultPreset is the animation applied when a link carries none.
	DefaultPreset = "appear"
	// DefaultDurationMs is the animation duration applied when a link
	// carries none.
	DefaultDurationMs = 450

	// maxPromptTokens bounds how many narration tokens are listed in the
	// LLM prompt.
	maxPromptTokens = 140
	// maxHeuristicWordTargets bounds how many word targets the heuristic
	// will anchor when a slide has no paragraph targets.
	maxHeuristicWordTargets = 6
)

// TextGenerator is the external text-generation capability the LLM link
// producer depends on. The concrete client is constructed by the caller
// and injected; its lifecycle is owned by the process.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, tags map[string]string) (string, error)
}

// ProduceAutoLinks runs the automatic link strategies in order: the LLM
// producer first, then the deterministic heuristic if the LLM yields
// nothing. Provider failures and unparsable output degrade to the
// heuristic; they never propagate.
func ProduceAutoLinks(
	ctx context.Context,
	slide models.Slide,
	tokens []models.NarrationToken,
	targets []models.Target,
	gen TextGenerator,
	log *logrus.Logger,
) []models.Link {
	links := LLMLinks(ctx, slide, tokens, targets, gen, log)
	if len(links) == 0 {
		links = HeuristicLinks(slide, tokens, targets)
	}
	return links
}

type llmProposedLink struct {
	SourceID        string `json:"source_id"`
	SourceType      string `json:"source_type"`
	TokenIndex      *int   `json:"token_index"`
	AnimationPreset string `json:"animation_preset"`
}

type llmLinkResponse struct {
	Links []llmProposedLink `json:"links"`
}

// LLMLinks asks the injected text-generation provider to propose links for
// the slide. Heading targets are withheld from the prompt (the model must
// never anchor a heading) and the token list is capped to bound prompt
// size. Any failure yields an empty result.
func LLMLinks(
	ctx context.Context,
	slide models.Slide,
	tokens []models.NarrationToken,
	targets []models.Target,
	gen TextGenerator,
	log *logrus.Logger,
) []models.Link {
	if gen == nil || len(tokens) == 0 || len(targets) == 0 {
		return nil
	}

	prompt := buildLinkPrompt(slide, tokens, targets)

	tags := map[string]string{
		"course_id": slide.CourseID.String(),
		"slide_id":  slide.ID.String(),
		"stage":     "timing_links",
	}
	raw, err := gen.GenerateText(ctx, prompt, tags)
	if err != nil {
		if log != nil {
			log.WithFields(logrus.Fields{"slide_id": slide.ID, "error": err.Error()}).
				Warn("LLM link generation failed, falling back to heuristic")
		}
		return nil
	}

	objBytes, err := llmclient.ExtractJSONObject(raw)
	if err != nil {
		if log != nil {
			log.WithFields(logrus.Fields{"slide_id": slide.ID, "error": err.Error()}).
				Warn("Could not parse LLM link response, falling back to heuristic")
		}
		return nil
	}

	var resp llmLinkResponse
	if err := json.Unmarshal(objBytes, &resp); err != nil {
		if log != nil {
			log.WithFields(logrus.Fields{"slide_id": slide.ID, "error": err.Error()}).
				Warn("LLM link response did not match expected schema, falling back to heuristic")
		}
		return nil
	}

	links := make([]models.Link, 0, len(resp.Links))
	for _, p := range resp.Links {
		preset := p.AnimationPreset
		if preset == "" {
			preset = DefaultPreset
		}
		links = append(links, models.Link{
			ID:     fmt.Sprintf("llm-%s", p.SourceID),
			Source: models.LinkSource{Type: models.TargetType(p.SourceType), ID: p.SourceID},
			Target: models.LinkTarget{TokenIndex: p.TokenIndex},
			Animation: &models.Animation{
				Preset:     preset,
				DurationMs: DefaultDurationMs,
			},
			Origin: models.OriginAutoLLM,
		})
	}
	return links
}

// buildLinkPrompt assembles the structured prompt sent to the text
// generator: narration text, the linkable inventory (headings excluded),
// and the capped token list.
func buildLinkPrompt(slide models.Slide, tokens []models.NarrationToken, targets []models.Target) string {
	var b strings.Builder

	b.WriteString("You are timing visual elements of a narrated slide against its audio.\n\n")
	b.WriteString("NARRATION TEXT:\n")
	b.WriteString(slide.Text)
	b.WriteString("\n\nVISUAL TARGETS (source_id | source_type | text):\n")
	for _, t := range targets {
		if t.Type == models.TargetHeading {
			continue
		}
		fmt.Fprintf(&b, "%s | %s | %s\n", t.ID, t.Type, t.Text)
	}

	b.WriteString("\nNARRATION TOKENS (token_index: word @ start_ms):\n")
	for _, tok := range tokens {
		if tok.Index >= maxPromptTokens {
			break
		}
		fmt.Fprintf(&b, "%d: %s @ %d\n", tok.Index, tok.Word, tok.StartMs)
	}

	b.WriteString(`
TASK:
Pick the moments where each important visual target should appear, anchored
to the narration token being spoken. Not every target needs a link; choose
the ones that matter.

Return ONLY a JSON object in this exact shape:
{"links": [{"source_id": "...", "source_type": "...", "token_index": 0, "animation_preset": "appear"}]}
`)
	return b.String()
}

// HeuristicLinks is the deterministic positional fallback: eligible targets
// are spread evenly across the token range by integer stride. Zero tokens
// or zero eligible targets yields an empty result, which is a valid (if
// degenerate) outcome.
func HeuristicLinks(slide models.Slide, tokens []models.NarrationToken, targets []models.Target) []models.Link {
	eligible := heuristicTargets(slide, targets)
	if len(tokens) == 0 || len(eligible) == 0 {
		return []models.Link{}
	}

	stride := len(tokens) / len(eligible)
	if stride < 1 {
		stride = 1
	}

	links := make([]models.Link, 0, len(eligible))
	for i, t := range eligible {
		idx := i * stride
		if idx > len(tokens)-1 {
			idx = len(tokens) - 1
		}
		tokenIndex := idx
		links = append(links, models.Link{
			ID:     fmt.Sprintf("heuristic-%s", t.ID),
			Source: models.LinkSource{Type: t.Type, ID: t.ID},
			Target: models.LinkTarget{TokenIndex: &tokenIndex},
			Animation: &models.Animation{
				Preset:     DefaultPreset,
				DurationMs: DefaultDurationMs,
			},
			Origin: models.OriginAutoHeuristic,
		})
	}
	return links
}

// heuristicTargets selects what the positional fallback is allowed to
// anchor: all nodes/edges for diagram slides, otherwise paragraphs, or the
// first few word targets when no paragraphs exist.
func heuristicTargets(slide models.Slide, targets []models.Target) []models.Target {
	if slide.IsDiagram() {
		eligible := []models.Target{}
		for _, t := range targets {
			if t.Type == models.TargetNode || t.Type == models.TargetEdge {
				eligible = append(eligible, t)
			}
		}
		return eligible
	}

	paragraphs := []models.Target{}
	for _, t := range targets {
		if t.Type == models.TargetParagraph {
			paragraphs = append(paragraphs, t)
		}
	}
	if len(paragraphs) > 0 {
		return paragraphs
	}

	words := []models.Target{}
	for _, t := range targets {
		if t.Type == models.TargetWord {
			words = append(words, t)
			if len(words) == maxHeuristicWordTargets {
				break
			}
		}
	}
	return words
}
