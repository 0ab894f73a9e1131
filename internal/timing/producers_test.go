package timing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"videothingy/course-engine/models"
)

// fakeGenerator returns a canned response or error and records the prompt.
type fakeGenerator struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string, _ map[string]string) (string, error) {
	f.calls++
	f.prompt = prompt
	return f.response, f.err
}

func narrationTokens(words ...string) []models.NarrationToken {
	tokens := make([]models.NarrationToken, len(words))
	for i, w := range words {
		tokens[i] = models.NarrationToken{Index: i, Word: w, StartMs: i * 300, EndMs: i*300 + 250}
	}
	return tokens
}

func TestLLMLinks_ParsesFencedJSONResponse(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}
	tokens := narrationTokens("lock", "your", "screen")
	targets := ExtractTargets(slide)

	gen := &fakeGenerator{response: "```json\n{\"links\": [{\"source_id\": \"paragraph-0\", \"source_type\": \"paragraph\", \"token_index\": 1}]}\n```"}

	links := LLMLinks(context.Background(), slide, tokens, targets, gen, nil)
	if len(links) != 1 {
		t.Fatalf("expected one proposed link, got %+v", links)
	}
	link := links[0]
	if link.ID != "llm-paragraph-0" {
		t.Fatalf("unexpected link id %q", link.ID)
	}
	if link.Origin != models.OriginAutoLLM {
		t.Fatalf("expected auto_llm origin, got %q", link.Origin)
	}
	if link.Target.TokenIndex == nil || *link.Target.TokenIndex != 1 {
		t.Fatalf("unexpected token index: %+v", link.Target)
	}
	if link.Animation == nil || link.Animation.Preset != DefaultPreset || link.Animation.DurationMs != DefaultDurationMs {
		t.Fatalf("expected default animation, got %+v", link.Animation)
	}
}

func TestLLMLinks_PromptExcludesHeadings(t *testing.T) {
	slide := models.Slide{
		VisualType: "text",
		VisualText: strPtr("<h1>Security</h1><p>Lock your screen</p>"),
		Text:       "lock your screen",
	}
	tokens := narrationTokens("lock", "your", "screen")
	targets := ExtractTargets(slide)

	gen := &fakeGenerator{response: `{"links": []}`}
	LLMLinks(context.Background(), slide, tokens, targets, gen, nil)

	if gen.calls != 1 {
		t.Fatalf("generator should be called once, got %d", gen.calls)
	}
	if strings.Contains(gen.prompt, "heading-0") {
		t.Fatalf("heading targets must be withheld from the prompt:\n%s", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "paragraph-0") {
		t.Fatalf("paragraph targets must be listed in the prompt:\n%s", gen.prompt)
	}
}

func TestLLMLinks_FailureYieldsNothing(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}
	tokens := narrationTokens("lock")
	targets := ExtractTargets(slide)

	cases := map[string]*fakeGenerator{
		"provider error":  {err: errors.New("quota exceeded")},
		"non-JSON output": {response: "I could not produce links, sorry."},
		"schema mismatch": {response: `{"links": "none"}`},
	}
	for name, gen := range cases {
		if links := LLMLinks(context.Background(), slide, tokens, targets, gen, nil); len(links) != 0 {
			t.Fatalf("%s: expected no links, got %+v", name, links)
		}
	}
}

func TestLLMLinks_NilGeneratorSkipsCall(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}
	tokens := narrationTokens("lock")
	targets := ExtractTargets(slide)

	if links := LLMLinks(context.Background(), slide, tokens, targets, nil, nil); links != nil {
		t.Fatalf("nil generator must yield nil, got %+v", links)
	}
}

func TestProduceAutoLinks_DegradesToHeuristic(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen every time"}
	tokens := narrationTokens("lock", "your", "screen", "every", "time")
	targets := ExtractTargets(slide)

	gen := &fakeGenerator{err: errors.New("timeout")}
	links := ProduceAutoLinks(context.Background(), slide, tokens, targets, gen, nil)

	if len(links) == 0 {
		t.Fatalf("heuristic fallback should produce links")
	}
	for _, link := range links {
		if link.Origin != models.OriginAutoHeuristic {
			t.Fatalf("fallback links must carry auto_heuristic origin, got %+v", link)
		}
	}
}

func TestHeuristicLinks_SpreadsDiagramTargetsByStride(t *testing.T) {
	slide := models.Slide{
		VisualType: models.VisualChart,
		ChartData: &models.ChartData{
			Nodes: []models.ChartNode{
				{ID: "a", Data: models.ChartNodeData{Label: "A"}},
				{ID: "b", Data: models.ChartNodeData{Label: "B"}},
				{ID: "c", Data: models.ChartNodeData{Label: "C"}},
			},
		},
	}
	tokens := narrationTokens("one", "two", "three", "four", "five", "six", "seven")
	targets := ExtractTargets(slide)

	links := HeuristicLinks(slide, tokens, targets)
	if len(links) != 3 {
		t.Fatalf("expected one link per node, got %+v", links)
	}
	// stride = 7/3 = 2
	wantIndexes := []int{0, 2, 4}
	for i, link := range links {
		if link.Target.TokenIndex == nil || *link.Target.TokenIndex != wantIndexes[i] {
			t.Fatalf("link %d: expected token index %d, got %+v", i, wantIndexes[i], link.Target)
		}
		if link.Animation == nil || link.Animation.Preset != DefaultPreset || link.Animation.DurationMs != DefaultDurationMs {
			t.Fatalf("link %d: expected default animation, got %+v", i, link.Animation)
		}
	}
}

func TestHeuristicLinks_ClampsWhenTargetsOutnumberTokens(t *testing.T) {
	slide := models.Slide{
		VisualType: models.VisualChart,
		ChartData: &models.ChartData{
			Nodes: []models.ChartNode{
				{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"},
			},
		},
	}
	tokens := narrationTokens("one", "two")
	targets := ExtractTargets(slide)

	links := HeuristicLinks(slide, tokens, targets)
	if len(links) != 4 {
		t.Fatalf("expected one link per node, got %+v", links)
	}
	for _, link := range links {
		idx := *link.Target.TokenIndex
		if idx < 0 || idx >= len(tokens) {
			t.Fatalf("token index %d out of range", idx)
		}
	}
	// stride clamps to 1 and indexes clamp to the last token.
	if *links[3].Target.TokenIndex != 1 {
		t.Fatalf("expected trailing links clamped to last token, got %d", *links[3].Target.TokenIndex)
	}
}

func TestHeuristicLinks_ZeroTokensIsEmptyNotPanic(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}
	targets := ExtractTargets(slide)

	links := HeuristicLinks(slide, nil, targets)
	if links == nil || len(links) != 0 {
		t.Fatalf("expected empty (non-nil) link slice, got %#v", links)
	}
}

func TestHeuristicLinks_PrefersParagraphsOverWords(t *testing.T) {
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}
	tokens := narrationTokens("lock", "your", "screen")
	targets := ExtractTargets(slide)

	links := HeuristicLinks(slide, tokens, targets)
	if len(links) != 1 {
		t.Fatalf("expected a single paragraph link, got %+v", links)
	}
	if links[0].Source.Type != models.TargetParagraph || links[0].Source.ID != "paragraph-0" {
		t.Fatalf("unexpected heuristic source: %+v", links[0].Source)
	}
}

func TestHeuristicLinks_Deterministic(t *testing.T) {
	slide := models.Slide{
		VisualType: models.VisualComparisonSplit,
		LayoutData: &models.LayoutData{LeftLabel: "Don't", RightLabel: "Do"},
	}
	tokens := narrationTokens("never", "share", "always", "lock")
	targets := ExtractTargets(slide)

	first := HeuristicLinks(slide, tokens, targets)
	second := HeuristicLinks(slide, tokens, targets)
	if len(first) != len(second) {
		t.Fatalf("runs disagree: %+v vs %+v", first, second)
	}
	for i := range first {
		if first[i].ID != second[i].ID || *first[i].Target.TokenIndex != *second[i].Target.TokenIndex {
			t.Fatalf("run %d disagrees: %+v vs %+v", i, first[i], second[i])
		}
	}
}
