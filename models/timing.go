package models

// AlignmentData is the character-level timing payload returned by the TTS
// provider: parallel arrays mapping each narration character to a time
// interval in seconds. Absent or empty when a slide has no audio.
type AlignmentData struct {
	Characters                 []string  `json:"characters"`
	CharacterStartTimesSeconds []float64 `json:"character_start_times_seconds"`
	CharacterEndTimesSeconds   []float64 `json:"character_end_times_seconds"`
}

// NarrationToken is one whitespace-delimited word of narration with its
// position in the audio. Tokens are zero-indexed and ordered by Index.
type NarrationToken struct {
	Index   int    `json:"index"`
	Word    string `json:"word"`
	StartMs int    `json:"start_ms"`
	EndMs   int    `json:"end_ms"`
}

// TargetType classifies an addressable visual element on a slide.
type TargetType string

const (
	TargetWord      TargetType = "word"
	TargetParagraph TargetType = "paragraph"
	TargetHeading   TargetType = "heading"
	TargetNode      TargetType = "node"
	TargetEdge      TargetType = "edge"
)

// Target is an addressable visual element eligible to be time-anchored.
// Targets are derived fresh from slide content on every timing computation
// and are never persisted independently.
type Target struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
	Text string     `json:"text"`
}

// LinkOrigin records how a link or resolved entry was produced.
type LinkOrigin string

const (
	OriginManual        LinkOrigin = "manual"
	OriginAutoLLM       LinkOrigin = "auto_llm"
	OriginAutoHeuristic LinkOrigin = "auto_heuristic"
	OriginDefault       LinkOrigin = "default"
)

// LinkSource identifies the visual element side of a link.
type LinkSource struct {
	Type TargetType `json:"type"`
	ID   string     `json:"id"`
}

// LinkTarget identifies the narration side of a link. TokenIndex is a
// pointer so a missing index can be told apart from token 0.
type LinkTarget struct {
	TokenIndex *int `json:"token_index"`
}

// Animation is the rendering hint carried by a link.
type Animation struct {
	Preset     string `json:"preset,omitempty"`
	DurationMs int    `json:"duration_ms,omitempty"`
}

// Link is a proposed binding of a Target to a NarrationToken. Candidate
// links are validated before resolution; manual links are the only durable
// timing input and are persisted on the slide record.
type Link struct {
	ID        string     `json:"id"`
	Source    LinkSource `json:"source"`
	Target    LinkTarget `json:"target"`
	Animation *Animation `json:"animation,omitempty"`
	Origin    LinkOrigin `json:"origin,omitempty"`
}

// ResolvedEntry is the final, validated, time-sorted form of a link merged
// with its token and target data. This is what the renderer consumes.
// TokenIndex is nil for synthetic "default" heading entries, which render
// unanchored and immediately visible.
type ResolvedEntry struct {
	ID         string     `json:"id"`
	Origin     LinkOrigin `json:"origin"`
	SourceType TargetType `json:"source_type"`
	SourceID   string     `json:"source_id"`
	SourceText string     `json:"source_text"`
	TokenIndex *int       `json:"token_index"`
	TokenWord  string     `json:"token_word,omitempty"`
	StartMs    int        `json:"start_ms"`
	EndMs      int        `json:"end_ms"`
	Animation  Animation  `json:"animation"`
}

// TimingMeta is the diagnostics block attached to every timing plan.
// Stale signals that some validation or policy error occurred and the plan
// should be regenerated or reviewed before being trusted for rendering.
type TimingMeta struct {
	TokenCount      int      `json:"token_count"`
	TargetCount     int      `json:"target_count"`
	ManualLinkCount int      `json:"manual_link_count"`
	AutoLinkCount   int      `json:"auto_link_count"`
	ActiveLinkCount int      `json:"active_link_count"`
	Errors          []string `json:"errors"`
	Stale           bool     `json:"stale"`
}

// Timing plan statuses.
const (
	TimingStatusManualComplete = "manual_complete"
	TimingStatusPartial        = "partial"
	TimingStatusAutoGenerated  = "auto_generated"
	TimingStatusMissing        = "missing"
)

// TimingPlan is the per-slide output of the timing resolver. Everything in
// it except the manual links is derived and safely recomputable.
type TimingPlan struct {
	TimingLinksManual  []Link          `json:"timing_links_manual"`
	TimingLinksAuto    []Link          `json:"timing_links_auto"`
	TimingResolved     []ResolvedEntry `json:"timing_resolved"`
	TimingMeta         TimingMeta      `json:"timing_meta"`
	TimingPolicyOK     bool            `json:"timing_policy_ok"`
	TimingPolicyErrors []string        `json:"timing_policy_errors"`
	Status             string          `json:"status"`
}
