package timing

import (
	"strings"

	"videothingy/course-engine/models"
)

// TokenizeAlignment converts character-level TTS alignment data into
// word-level narration tokens. Words are segmented on whitespace: a word
// opens at its first character's start time and closes at the end time of
// the character that terminates it (the whitespace itself, or the last
// character of the input for a trailing word). Seconds are converted to
// milliseconds by truncation.
//
// A nil or empty alignment yields an empty token slice; slides with no
// narration audio still produce a valid (zero-length) token sequence.
func TokenizeAlignment(alignment *models.AlignmentData) []models.NarrationToken {
	tokens := []models.NarrationToken{}
	if alignment == nil || len(alignment.Characters) == 0 {
		return tokens
	}

	var word strings.Builder
	startMs := 0
	lastEndMs := 0

	flush := func(endMs int) {
		if word.Len() == 0 {
			return
		}
		tokens = append(tokens, models.NarrationToken{
			Index:   len(tokens),
			Word:    word.String(),
			StartMs: startMs,
			EndMs:   endMs,
		})
		word.Reset()
	}

	for i, ch := range alignment.Characters {
		endMs := int(secondsAt(alignment.CharacterEndTimesSeconds, i) * 1000)
		if strings.TrimSpace(ch) == "" {
			// Whitespace closes the current word at the whitespace
			// character's own end time.
			flush(endMs)
		} else {
			if word.Len() == 0 {
				startMs = int(secondsAt(alignment.CharacterStartTimesSeconds, i) * 1000)
			}
			word.WriteString(ch)
		}
		lastEndMs = endMs
	}

	// Trailing word with no terminating space.
	flush(lastEndMs)

	return tokens
}

// secondsAt reads a parallel timing array tolerantly: alignment payloads
// come from an external provider, so a short array falls back to the last
// available value instead of panicking.
func secondsAt(times []float64, i int) float64 {
	if len(times) == 0 {
		return 0
	}
	if i >= len(times) {
		return times[len(times)-1]
	}
	return times[i]
}
