package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go" // Import for postgrest.OrderOpts

	"videothingy/course-engine/config"
	"videothingy/course-engine/models"
	"videothingy/course-engine/utils"
)

// CreateSlidePayload defines the structure for creating a new slide.
// CourseID is taken from the URL path, not the payload.
type CreateSlidePayload struct {
	Position   int                `json:"position" validate:"gte=0"`
	Title      *string            `json:"title,omitempty"`
	VisualType string             `json:"visual_type" validate:"required"`
	VisualText *string            `json:"visual_text,omitempty"`
	Text       string             `json:"text" validate:"required"`
	ChartData  *models.ChartData  `json:"chart_data,omitempty"`
	LayoutData *models.LayoutData `json:"layout_data,omitempty"`
}

// UpdateSlidePayload defines the structure for updating an existing slide.
// TimingLinksManual is the one durable timing input: editing it here is how
// human-curated anchors persist; everything else in a timing plan is derived.
type UpdateSlidePayload struct {
	Position          *int               `json:"position,omitempty" validate:"omitempty,gte=0"`
	Title             *string            `json:"title,omitempty"`
	VisualType        *string            `json:"visual_type,omitempty"`
	VisualText        *string            `json:"visual_text,omitempty"`
	Text              *string            `json:"text,omitempty"`
	ChartData         *models.ChartData  `json:"chart_data,omitempty"`
	LayoutData        *models.LayoutData `json:"layout_data,omitempty"`
	TimingLinksManual []models.Link      `json:"timing_links_manual,omitempty"`
}

// getSlideForCourse checks that a slide exists and belongs to the course.
// Returns the slide if found, or an error.
func getSlideForCourse(courseIDStr, slideIDStr string) (models.Slide, error) {
	courseID, err := uuid.Parse(courseIDStr)
	if err != nil {
		return models.Slide{}, fmt.Errorf("invalid course ID format")
	}
	slideID, err := uuid.Parse(slideIDStr)
	if err != nil {
		return models.Slide{}, fmt.Errorf("invalid slide ID format")
	}

	var slides []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Select("*", "", false).
		Eq("id", slideID.String()).
		Eq("course_id", courseID.String()).
		Execute()
	if err != nil {
		log.Printf("Error fetching slide %s for course %s: %v", slideID, courseID, err)
		return models.Slide{}, fmt.Errorf("error fetching slide: %w", err)
	}

	if err := json.Unmarshal(bodyBytes, &slides); err != nil {
		log.Printf("Error unmarshalling slide data for slide %s: %v. Body: %s", slideID, err, string(bodyBytes))
		return models.Slide{}, fmt.Errorf("error processing slide data: %w", err)
	}

	if len(slides) == 0 {
		return models.Slide{}, fmt.Errorf("slide not found")
	}
	return slides[0], nil
}

// respondSlideLookupError translates getSlideForCourse failures into HTTP
// responses.
func respondSlideLookupError(c *fiber.Ctx, err error, handlerName string) error {
	errMsg := err.Error()
	switch errMsg {
	case "invalid course ID format", "invalid slide ID format":
		return utils.RespondWithError(c, fiber.StatusBadRequest, errMsg)
	case "slide not found":
		return utils.RespondWithError(c, fiber.StatusNotFound, errMsg)
	default:
		if strings.HasPrefix(errMsg, "error fetching slide:") || strings.HasPrefix(errMsg, "error processing slide data:") {
			log.Printf("Internal error from getSlideForCourse in %s: %v", handlerName, err)
			return utils.RespondWithError(c, fiber.StatusInternalServerError, "An internal error occurred while verifying the slide.")
		}
		log.Printf("Unexpected error from getSlideForCourse in %s: %v", handlerName, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "An unexpected error occurred while verifying course/slide.")
	}
}

// CreateSlide adds a new slide to a course.
// POST /api/v1/courses/:courseId/slides
func CreateSlide(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	var payload CreateSlidePayload
	if err := c.BodyParser(&payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		errors := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(errors, ", "))
	}

	now := time.Now()
	slide := models.Slide{
		ID:         uuid.New(),
		CourseID:   courseID,
		Position:   payload.Position,
		Title:      payload.Title,
		VisualType: payload.VisualType,
		VisualText: payload.VisualText,
		Text:       payload.Text,
		ChartData:  payload.ChartData,
		LayoutData: payload.LayoutData,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var created []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Insert(slide, false, "", "representation", "").
		Execute()
	if err != nil {
		log.Printf("Error creating slide for course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create slide: %v", err))
	}

	if err := json.Unmarshal(bodyBytes, &created); err != nil || len(created) == 0 {
		log.Printf("Error unmarshalling created slide or empty result for course %s: %v. Body: %s", courseID, err, string(bodyBytes))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process slide creation response")
	}

	log.Printf("Successfully created slide ID %s for course ID %s", created[0].ID, courseID)
	return utils.RespondWithJSON(c, fiber.StatusCreated, created[0])
}

// ListSlides retrieves all slides for a course, ordered by position.
// GET /api/v1/courses/:courseId/slides
func ListSlides(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("courseId"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	var slides []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Select("*", "", false).
		Eq("course_id", courseID.String()).
		Order("position", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		log.Printf("Error fetching slides for course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not retrieve slides: %v", err))
	}

	if err := json.Unmarshal(bodyBytes, &slides); err != nil {
		log.Printf("Error unmarshalling slides for course %s: %v. Body: %s", courseID, err, string(bodyBytes))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process slides data")
	}

	if slides == nil { // Ensure we return an empty list instead of nil
		slides = []models.Slide{}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, slides)
}

// GetSlide retrieves a specific slide by its ID.
// GET /api/v1/courses/:courseId/slides/:slideId
func GetSlide(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "GetSlide")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, slide)
}

// UpdateSlide updates an existing slide, including its manual timing links.
// PATCH /api/v1/courses/:courseId/slides/:slideId
func UpdateSlide(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "UpdateSlide")
	}

	payload := new(UpdateSlidePayload)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request payload: %s", err.Error()))
	}

	validate := validator.New()
	if err := validate.Struct(payload); err != nil {
		validationErrors := utils.FormatValidationErrors(err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(validationErrors, ", "))
	}

	updateData := make(map[string]interface{})
	if payload.Position != nil {
		updateData["position"] = *payload.Position
	}
	if payload.Title != nil {
		updateData["title"] = *payload.Title
	}
	if payload.VisualType != nil {
		updateData["visual_type"] = *payload.VisualType
	}
	if payload.VisualText != nil {
		updateData["visual_text"] = *payload.VisualText
	}
	if payload.Text != nil {
		updateData["text"] = *payload.Text
	}
	if payload.ChartData != nil {
		updateData["chart_data"] = payload.ChartData
	}
	if payload.LayoutData != nil {
		updateData["layout_data"] = payload.LayoutData
	}
	if payload.TimingLinksManual != nil {
		updateData["timing_links_manual"] = payload.TimingLinksManual
	}

	if len(updateData) == 0 {
		// No fields to update, return the existing slide
		return utils.RespondWithJSON(c, fiber.StatusOK, slide)
	}
	updateData["updated_at"] = time.Now()

	log.Printf("Updating slide %s with %d fields", slide.ID, len(updateData))

	var updated []models.Slide
	bodyBytes, _, err := config.SupabaseClient.From("slides").
		Update(updateData, "", "representation").
		Eq("id", slide.ID.String()).
		Execute()
	if err != nil {
		log.Printf("Error updating slide %s: %v. Body: %s", slide.ID, err, string(bodyBytes))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error updating slide")
	}

	if err := json.Unmarshal(bodyBytes, &updated); err != nil || len(updated) == 0 {
		log.Printf("Error unmarshalling updated slide %s: %v", slide.ID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error processing updated slide data")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, updated[0])
}

// DeleteSlide deletes a specific slide.
// DELETE /api/v1/courses/:courseId/slides/:slideId
func DeleteSlide(c *fiber.Ctx) error {
	slide, err := getSlideForCourse(c.Params("courseId"), c.Params("slideId"))
	if err != nil {
		return respondSlideLookupError(c, err, "DeleteSlide")
	}

	_, count, err := config.SupabaseClient.From("slides").
		Delete("minimal", "exact").
		Eq("id", slide.ID.String()).
		Execute()
	if err != nil {
		log.Printf("Error deleting slide %s: %v", slide.ID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error deleting slide")
	}

	if count == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Slide not found")
	}

	log.Printf("Successfully deleted slide %s. Rows affected: %d", slide.ID, count)
	return c.SendStatus(fiber.StatusNoContent)
}
