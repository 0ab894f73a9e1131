package handlers

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videothingy/course-engine/internal/db"
	"videothingy/course-engine/internal/jobs"
	"videothingy/course-engine/utils"
)

// ComputeSlideTiming computes a fresh timing plan for one slide and
// returns it without persisting anything. Manual links stored on the slide
// take precedence over auto strategies inside the resolver.
// POST /api/v1/courses/:courseId/slides/:slideId/timing
func (h *ApplicationHandler) ComputeSlideTiming(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "ComputeSlideTiming")
	}

	plan := h.Resolver.BuildTimingPlan(c.Context(), slide, slide.AlignmentData)

	h.Logger.WithFields(map[string]interface{}{
		"slide_id":     slide.ID,
		"status":       plan.Status,
		"active_links": plan.TimingMeta.ActiveLinkCount,
		"stale":        plan.TimingMeta.Stale,
		"policy_ok":    plan.TimingPolicyOK,
	}).Info("Computed slide timing plan")

	return utils.RespondWithJSON(c, fiber.StatusOK, plan)
}

// RecomputeCourseTiming enqueues a background recompute of timing plans
// for every slide of a course.
// POST /api/v1/courses/:courseId/timing
func (h *ApplicationHandler) RecomputeCourseTiming(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	job := &jobs.RecomputeCourseTimingJob{
		CourseID: courseID,
		Resolver: h.Resolver,
	}

	jobID, err := db.CreateJobRecord(job.Type(), courseID, "course", job.Payload())
	if err != nil {
		log.Printf("Error creating job record for course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create timing job: %v", err))
	}
	job.JobID = jobID.String()

	if !h.Dispatcher.SubmitJob(job) {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Job queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"job_id":    jobID,
		"course_id": courseID,
	})
}

// SynthesizeSlideNarration enqueues narration synthesis for a slide: TTS
// audio plus the character-level alignment the timing engine consumes.
// POST /api/v1/courses/:courseId/slides/:slideId/narration
func (h *ApplicationHandler) SynthesizeSlideNarration(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "SynthesizeSlideNarration")
	}

	if slide.Text == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Slide has no narration text")
	}
	if h.TTS == nil {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Narration synthesis is not configured")
	}

	job := &jobs.SynthesizeSlideNarrationJob{
		SlideID: slide.ID,
		TTS:     h.TTS,
	}

	jobID, err := db.CreateJobRecord(job.Type(), slide.ID, "slide", job.Payload())
	if err != nil {
		log.Printf("Error creating job record for slide %s: %v", slide.ID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create narration job: %v", err))
	}
	job.JobID = jobID.String()

	if !h.Dispatcher.SubmitJob(job) {
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Job queue is full, try again later")
	}

	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{
		"job_id":   jobID,
		"slide_id": slide.ID,
	})
}

// FinalizeSlideForRender verifies that a slide's timing plan satisfies the
// coverage policy before it may be handed to the renderer. A plan with
// policy errors blocks finalization; a merely stale plan is flagged for
// review but does not block.
// POST /api/v1/courses/:courseId/slides/:slideId/finalize
func (h *ApplicationHandler) FinalizeSlideForRender(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "FinalizeSlideForRender")
	}

	plan := h.Resolver.BuildTimingPlan(c.Context(), slide, slide.AlignmentData)
	if !plan.TimingPolicyOK {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"status":               "error",
			"message":              "Slide timing does not satisfy the coverage policy",
			"timing_policy_errors": plan.TimingPolicyErrors,
		})
	}

	renderPayload := fiber.Map{
		"slide_id":        slide.ID,
		"visual_type":     slide.VisualType,
		"visual_text":     slide.VisualText,
		"image_url":       slide.ImageURL,
		"audio_url":       slide.AudioURL,
		"timing_resolved": plan.TimingResolved,
		"needs_review":    plan.TimingMeta.Stale,
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, renderPayload)
}
