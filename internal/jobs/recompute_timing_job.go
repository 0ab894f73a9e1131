package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"videothingy/course-engine/config"
	"videothingy/course-engine/internal/timing"
	"videothingy/course-engine/models"
)

// maxConcurrentSlides bounds how many slides of one course are timed at
// once. Slides have no ordering dependency between each other.
const maxConcurrentSlides = 4

// RecomputeCourseTimingJob recomputes the timing plan for every slide of a
// course and persists the derived auto links back to the slide records.
type RecomputeCourseTimingJob struct {
	JobID    string
	CourseID uuid.UUID
	Resolver *timing.Resolver
}

// RecomputeTimingPayload is the job's input parameters as stored on the
// job record.
type RecomputeTimingPayload struct {
	CourseID string `json:"course_id"`
}

// RecomputeTimingOutput summarizes a finished recompute for the job record.
type RecomputeTimingOutput struct {
	SlidesProcessed int      `json:"slides_processed"`
	StaleSlides     []string `json:"stale_slides,omitempty"`
	Failures        []string `json:"failures,omitempty"`
}

// ID returns the unique identifier of the job.
func (j *RecomputeCourseTimingJob) ID() string {
	return j.JobID
}

// Type returns the type of the job.
func (j *RecomputeCourseTimingJob) Type() string {
	return models.JobTypeRecomputeTiming
}

// Payload returns the input parameters of the job for database logging.
func (j *RecomputeCourseTimingJob) Payload() interface{} {
	return RecomputeTimingPayload{CourseID: j.CourseID.String()}
}

// Execute fetches the course's slides, computes each slide's timing plan
// (bounded fan-out; each plan is independent), and writes the results back.
func (j *RecomputeCourseTimingJob) Execute() (interface{}, error) {
	log.Printf("Executing RecomputeCourseTimingJob %s for course %s", j.JobID, j.CourseID)

	var slides []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Select("*", "", false).
		Eq("course_id", j.CourseID.String()).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slides for course %s: %w", j.CourseID, err)
	}
	if err := json.Unmarshal(bodyBytes, &slides); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slides for course %s: %w", j.CourseID, err)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		sem    = make(chan struct{}, maxConcurrentSlides)
		output = RecomputeTimingOutput{SlidesProcessed: len(slides)}
	)

	for _, slide := range slides {
		wg.Add(1)
		sem <- struct{}{}
		go func(slide models.Slide) {
			defer wg.Done()
			defer func() { <-sem }()

			plan := j.Resolver.BuildTimingPlan(context.Background(), slide, slide.AlignmentData)
			if err := persistTimingPlan(slide.ID, plan); err != nil {
				log.Printf("RecomputeCourseTimingJob %s: slide %s: %v", j.JobID, slide.ID, err)
				mu.Lock()
				output.Failures = append(output.Failures, slide.ID.String())
				mu.Unlock()
				return
			}
			if plan.TimingMeta.Stale {
				mu.Lock()
				output.StaleSlides = append(output.StaleSlides, slide.ID.String())
				mu.Unlock()
			}
		}(slide)
	}
	wg.Wait()

	log.Printf("RecomputeCourseTimingJob %s completed: %d slides, %d stale, %d failed",
		j.JobID, output.SlidesProcessed, len(output.StaleSlides), len(output.Failures))

	if len(output.Failures) > 0 {
		return output, fmt.Errorf("timing recompute failed for %d of %d slides", len(output.Failures), len(slides))
	}
	return output, nil
}

// persistTimingPlan writes the derived auto links back to the slide row.
// Manual links are never touched here; they are the caller-owned durable
// input.
func persistTimingPlan(slideID uuid.UUID, plan models.TimingPlan) error {
	updateData := map[string]interface{}{
		"timing_links_auto": plan.TimingLinksAuto,
		"updated_at":        time.Now(),
	}

	_, _, err := config.SupabaseClient.From("slides").
		Update(updateData, "", "").
		Eq("id", slideID.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to persist timing plan: %w", err)
	}
	return nil
}
