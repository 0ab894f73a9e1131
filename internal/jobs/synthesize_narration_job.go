package jobs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"videothingy/course-engine/config"
	"videothingy/course-engine/internal/ttsclient"
	"videothingy/course-engine/models"
)

const narrationBucket = "narration-audio"

// SynthesizeSlideNarrationJob generates narration audio for a slide,
// uploads it to storage, and stores the character-level alignment the
// timing engine needs on the slide record.
type SynthesizeSlideNarrationJob struct {
	JobID   string
	SlideID uuid.UUID
	TTS     ttsclient.Synthesizer
}

// SynthesizeNarrationPayload is the job's input parameters as stored on
// the job record.
type SynthesizeNarrationPayload struct {
	SlideID string `json:"slide_id"`
}

// SynthesizeNarrationOutput summarizes a finished synthesis for the job
// record.
type SynthesizeNarrationOutput struct {
	AudioURL   string `json:"audio_url"`
	AudioBytes int    `json:"audio_bytes"`
	Characters int    `json:"alignment_characters"`
}

// ID returns the unique identifier of the job.
func (j *SynthesizeSlideNarrationJob) ID() string {
	return j.JobID
}

// Type returns the type of the job.
func (j *SynthesizeSlideNarrationJob) Type() string {
	return models.JobTypeSynthesizeNarration
}

// Payload returns the input parameters of the job for database logging.
func (j *SynthesizeSlideNarrationJob) Payload() interface{} {
	return SynthesizeNarrationPayload{SlideID: j.SlideID.String()}
}

// Execute fetches the slide, synthesizes its narration text, uploads the
// audio, and persists the audio URL plus alignment data.
func (j *SynthesizeSlideNarrationJob) Execute() (interface{}, error) {
	log.Printf("Executing SynthesizeSlideNarrationJob %s for slide %s", j.JobID, j.SlideID)

	var slides []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Select("*", "", false).
		Eq("id", j.SlideID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slide %s: %w", j.SlideID, err)
	}
	if err := json.Unmarshal(bodyBytes, &slides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slide %s: %w", j.SlideID, err)
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("slide %s not found", j.SlideID)
	}
	slide := slides[0]

	if slide.Text == "" {
		return nil, fmt.Errorf("slide %s has no narration text", j.SlideID)
	}

	result, err := j.TTS.SynthesizeWithAlignment(context.Background(), slide.Text)
	if err != nil {
		return nil, fmt.Errorf("narration synthesis failed for slide %s: %w", j.SlideID, err)
	}

	storagePath := fmt.Sprintf("%s/%s.mp3", slide.CourseID, slide.ID)
	if _, err := config.SupabaseClient.Storage.UploadFile(narrationBucket, storagePath, bytes.NewReader(result.AudioData)); err != nil {
		return nil, fmt.Errorf("failed to upload narration audio for slide %s: %w", j.SlideID, err)
	}
	audioURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", config.GetSupabaseURL(), narrationBucket, storagePath)

	updateData := map[string]interface{}{
		"audio_url":      audioURL,
		"alignment_data": result.Alignment,
		"updated_at":     time.Now(),
	}
	_, _, err = config.SupabaseClient.From("slides").
		Update(updateData, "", "").
		Eq("id", j.SlideID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to persist narration results for slide %s: %w", j.SlideID, err)
	}

	output := SynthesizeNarrationOutput{
		AudioURL:   audioURL,
		AudioBytes: len(result.AudioData),
	}
	if result.Alignment != nil {
		output.Characters = len(result.Alignment.Characters)
	}

	log.Printf("SynthesizeSlideNarrationJob %s completed for slide %s (%d bytes of audio)", j.JobID, j.SlideID, output.AudioBytes)
	return output, nil
}
