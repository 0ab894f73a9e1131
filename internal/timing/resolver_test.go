package timing

import (
	"context"
	"reflect"
	"testing"

	"videothingy/course-engine/models"
)

// alignmentFromWords builds character-level alignment whose tokenization
// yields exactly the given words at the given millisecond intervals.
func alignmentFromWords(words []string, startsMs, endsMs []int) *models.AlignmentData {
	a := &models.AlignmentData{}
	for i, word := range words {
		start := float64(startsMs[i]) / 1000
		end := float64(endsMs[i]) / 1000
		for _, ch := range word {
			a.Characters = append(a.Characters, string(ch))
			a.CharacterStartTimesSeconds = append(a.CharacterStartTimesSeconds, start)
			a.CharacterEndTimesSeconds = append(a.CharacterEndTimesSeconds, end)
		}
		if i < len(words)-1 {
			a.Characters = append(a.Characters, " ")
			a.CharacterStartTimesSeconds = append(a.CharacterStartTimesSeconds, end)
			a.CharacterEndTimesSeconds = append(a.CharacterEndTimesSeconds, end)
		}
	}
	return a
}

func narrationAlignment() *models.AlignmentData {
	return alignmentFromWords(
		[]string{"please", "lock", "your", "screen"},
		[]int{0, 200, 450, 900},
		[]int{150, 400, 700, 1250},
	)
}

func TestBuildTimingPlan_ManualLinkRoundTrip(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: "text",
		Text:       "Lock your screen every time",
		TimingLinksManual: []models.Link{{
			ID:     "m1",
			Source: models.LinkSource{Type: models.TargetWord, ID: "word-paragraph-0-1"},
			Target: models.LinkTarget{TokenIndex: intPtr(2)},
		}},
	}

	plan := r.BuildTimingPlan(context.Background(), slide, narrationAlignment())

	if plan.Status != models.TimingStatusManualComplete {
		t.Fatalf("expected manual_complete, got %q (meta: %+v)", plan.Status, plan.TimingMeta)
	}
	if len(plan.TimingResolved) != 1 {
		t.Fatalf("expected one resolved entry, got %+v", plan.TimingResolved)
	}
	entry := plan.TimingResolved[0]
	if entry.Origin != models.OriginManual {
		t.Fatalf("expected manual origin, got %q", entry.Origin)
	}
	if entry.SourceText != "your" || entry.TokenWord != "your" {
		t.Fatalf("source and token text should both read %q, got %+v", "your", entry)
	}
	if entry.StartMs != 450 || entry.EndMs != 700 {
		t.Fatalf("expected interval [450,700], got [%d,%d]", entry.StartMs, entry.EndMs)
	}
	if entry.Animation.Preset != DefaultPreset || entry.Animation.DurationMs != DefaultDurationMs {
		t.Fatalf("expected default animation, got %+v", entry.Animation)
	}

	if len(plan.TimingLinksAuto) != 0 {
		t.Fatalf("manual plans must not store auto links, got %+v", plan.TimingLinksAuto)
	}
	if !plan.TimingPolicyOK || plan.TimingMeta.Stale {
		t.Fatalf("clean manual plan should be policy-ok and fresh: %+v", plan)
	}
	if plan.TimingMeta.TokenCount != 4 || plan.TimingMeta.ManualLinkCount != 1 || plan.TimingMeta.ActiveLinkCount != 1 {
		t.Fatalf("unexpected meta counts: %+v", plan.TimingMeta)
	}
}

func TestBuildTimingPlan_Idempotent(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: "text",
		Text:       "Lock your screen every time",
		TimingLinksManual: []models.Link{{
			ID:     "m1",
			Source: models.LinkSource{Type: models.TargetParagraph, ID: "paragraph-0"},
			Target: models.LinkTarget{TokenIndex: intPtr(1)},
		}},
	}
	alignment := narrationAlignment()

	first := r.BuildTimingPlan(context.Background(), slide, alignment)
	second := r.BuildTimingPlan(context.Background(), slide, alignment)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recomputation diverged:\n%+v\nvs\n%+v", first, second)
	}
}

func TestBuildTimingPlan_AutoFallsBackToHeuristic(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{VisualType: "text", Text: "Lock your screen every time"}

	plan := r.BuildTimingPlan(context.Background(), slide, narrationAlignment())

	if plan.Status != models.TimingStatusAutoGenerated {
		t.Fatalf("expected auto_generated, got %q (meta: %+v)", plan.Status, plan.TimingMeta)
	}
	if len(plan.TimingLinksAuto) == 0 {
		t.Fatalf("auto plan should store its validated links")
	}
	for _, link := range plan.TimingLinksAuto {
		if link.Origin != models.OriginAutoHeuristic {
			t.Fatalf("expected heuristic origin, got %+v", link)
		}
	}
	if !plan.TimingPolicyOK {
		t.Fatalf("paragraph coverage satisfies the policy: %+v", plan.TimingPolicyErrors)
	}
}

func TestBuildTimingPlan_InvalidManualLinkGoesPartial(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: "text",
		Text:       "Lock your screen",
		TimingLinksManual: []models.Link{
			{
				ID:     "good",
				Source: models.LinkSource{Type: models.TargetParagraph, ID: "paragraph-0"},
				Target: models.LinkTarget{TokenIndex: intPtr(0)},
			},
			{
				ID:     "stale",
				Source: models.LinkSource{Type: models.TargetWord, ID: "word-paragraph-0-99"},
				Target: models.LinkTarget{TokenIndex: intPtr(0)},
			},
		},
	}

	plan := r.BuildTimingPlan(context.Background(), slide, narrationAlignment())

	if plan.Status != models.TimingStatusPartial {
		t.Fatalf("expected partial, got %q", plan.Status)
	}
	if !plan.TimingMeta.Stale {
		t.Fatalf("dropped manual link must mark the plan stale: %+v", plan.TimingMeta)
	}
	if len(plan.TimingMeta.Errors) != 1 {
		t.Fatalf("expected one validation error, got %v", plan.TimingMeta.Errors)
	}
	if len(plan.TimingResolved) != 1 || plan.TimingResolved[0].ID != "good" {
		t.Fatalf("surviving link should still resolve, got %+v", plan.TimingResolved)
	}
	// The raw manual links are echoed back untouched.
	if len(plan.TimingLinksManual) != 2 {
		t.Fatalf("manual links must pass through unmodified, got %+v", plan.TimingLinksManual)
	}
}

func TestBuildTimingPlan_DiagramCoveragePolicy(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: models.VisualChart,
		ChartData: &models.ChartData{
			Nodes: []models.ChartNode{{ID: "start", Data: models.ChartNodeData{Label: "Start"}}},
			Edges: []models.ChartEdge{{ID: "e1", Source: "start", Target: "start"}},
		},
	}

	// No narration audio: no tokens, no links, policy violated.
	plan := r.BuildTimingPlan(context.Background(), slide, nil)
	if plan.TimingPolicyOK {
		t.Fatalf("diagram with no anchored node/edge must fail the policy")
	}
	if plan.Status != models.TimingStatusMissing {
		t.Fatalf("expected missing, got %q", plan.Status)
	}
	if !plan.TimingMeta.Stale {
		t.Fatalf("policy violation must mark the plan stale")
	}

	// One valid manual edge link satisfies the minimum.
	slide.TimingLinksManual = []models.Link{{
		ID:     "m1",
		Source: models.LinkSource{Type: models.TargetEdge, ID: "e1"},
		Target: models.LinkTarget{TokenIndex: intPtr(0)},
	}}
	plan = r.BuildTimingPlan(context.Background(), slide, narrationAlignment())
	if !plan.TimingPolicyOK {
		t.Fatalf("one edge link should satisfy the policy: %+v", plan.TimingPolicyErrors)
	}
	if plan.Status != models.TimingStatusManualComplete {
		t.Fatalf("expected manual_complete, got %q", plan.Status)
	}
}

func TestBuildTimingPlan_UncoveredHeadingsGetDefaultEntries(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: "text",
		VisualText: strPtr("<h1>Security</h1><h2>Basics</h2><p>Lock your screen</p>"),
		Text:       "please lock your screen",
		TimingLinksManual: []models.Link{
			{
				ID:     "m1",
				Source: models.LinkSource{Type: models.TargetParagraph, ID: "paragraph-0"},
				Target: models.LinkTarget{TokenIndex: intPtr(1)},
			},
			{
				ID:     "m2",
				Source: models.LinkSource{Type: models.TargetHeading, ID: "heading-0"},
				Target: models.LinkTarget{TokenIndex: intPtr(0)},
			},
		},
	}

	plan := r.BuildTimingPlan(context.Background(), slide, narrationAlignment())

	var defaults []models.ResolvedEntry
	for _, e := range plan.TimingResolved {
		if e.Origin == models.OriginDefault {
			defaults = append(defaults, e)
		}
	}
	if len(defaults) != 1 {
		t.Fatalf("only the unanchored heading gets a default entry, got %+v", defaults)
	}
	d := defaults[0]
	if d.SourceID != "heading-1" || d.ID != "default-heading-1" {
		t.Fatalf("unexpected default entry: %+v", d)
	}
	if d.TokenIndex != nil || d.StartMs != 0 || d.EndMs != 0 {
		t.Fatalf("default entries are unanchored and immediate: %+v", d)
	}
	if d.Animation.Preset != "none" || d.Animation.DurationMs != 0 {
		t.Fatalf("default entries must not animate: %+v", d.Animation)
	}
}

func TestBuildTimingPlan_ResolvedSortedByStartThenSource(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{
		VisualType: "text",
		Text:       "Lock your screen every time",
		TimingLinksManual: []models.Link{
			{
				ID:     "late",
				Source: models.LinkSource{Type: models.TargetWord, ID: "word-paragraph-0-2"},
				Target: models.LinkTarget{TokenIndex: intPtr(3)},
			},
			{
				ID:     "early-b",
				Source: models.LinkSource{Type: models.TargetWord, ID: "word-paragraph-0-1"},
				Target: models.LinkTarget{TokenIndex: intPtr(0)},
			},
			{
				ID:     "early-a",
				Source: models.LinkSource{Type: models.TargetParagraph, ID: "paragraph-0"},
				Target: models.LinkTarget{TokenIndex: intPtr(0)},
			},
		},
	}

	plan := r.BuildTimingPlan(context.Background(), slide, narrationAlignment())
	if len(plan.TimingResolved) != 3 {
		t.Fatalf("expected 3 entries, got %+v", plan.TimingResolved)
	}
	wantOrder := []string{"paragraph-0", "word-paragraph-0-1", "word-paragraph-0-2"}
	for i, want := range wantOrder {
		if plan.TimingResolved[i].SourceID != want {
			t.Fatalf("position %d: expected %q, got %q", i, want, plan.TimingResolved[i].SourceID)
		}
	}
}

func TestBuildTimingPlan_NoAudioNoLinks(t *testing.T) {
	r := NewResolver(nil, nil)
	slide := models.Slide{VisualType: "text", Text: "Lock your screen"}

	plan := r.BuildTimingPlan(context.Background(), slide, nil)

	if plan.Status != models.TimingStatusMissing {
		t.Fatalf("expected missing, got %q", plan.Status)
	}
	if plan.TimingMeta.TokenCount != 0 || plan.TimingMeta.TargetCount == 0 {
		t.Fatalf("targets still extract without audio: %+v", plan.TimingMeta)
	}
	if len(plan.TimingResolved) != 0 {
		t.Fatalf("no links means no resolved entries, got %+v", plan.TimingResolved)
	}
}
