package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"videothingy/course-engine/config"
	"videothingy/course-engine/models"
	"videothingy/course-engine/utils"
)

// CreateCourseRequest defines the expected request body for creating a course.
// Name is required. Description and SourceDocument are optional.
type CreateCourseRequest struct {
	Name           string  `json:"name" validate:"required"`
	Description    *string `json:"description,omitempty"`
	SourceDocument *string `json:"source_document,omitempty"`
}

// UpdateCourseRequest defines the expected request body for updating a course.
type UpdateCourseRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// ErrorResponse defines a common structure for error responses.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// CreateCourse creates a new course record.
// POST /api/v1/courses
func CreateCourse(c *fiber.Ctx) error {
	log.Println("Received request to create a new course")

	courseReq := new(CreateCourseRequest)
	if err := c.BodyParser(courseReq); err != nil {
		log.Printf("Error parsing course data: %v", err)
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse course JSON: %v", err))
	}

	if courseReq.Name == "" {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Course name is required")
	}

	courseDataToInsert := map[string]interface{}{
		"name":       courseReq.Name,
		"status":     "DRAFT",
		"created_at": time.Now(),
		"updated_at": time.Now(),
	}
	if courseReq.Description != nil {
		courseDataToInsert["description"] = *courseReq.Description
	}
	if courseReq.SourceDocument != nil {
		courseDataToInsert["source_document"] = *courseReq.SourceDocument
	}

	var results []models.Course
	body, _, err := config.SupabaseClient.From("courses").
		Insert(courseDataToInsert, false, "", "representation", "").
		Execute()
	if err != nil {
		log.Printf("Error executing Supabase insert: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not create course: %v", err))
	}

	if err := json.Unmarshal(body, &results); err != nil {
		log.Printf("Error unmarshalling Supabase response: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process course creation response")
	}

	if len(results) == 0 {
		log.Println("Error: Course data unmarshalled into an empty slice")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Failed to create course, unmarshalled data is empty.")
	}

	log.Printf("Successfully created course ID %s", results[0].ID)
	return utils.RespondWithJSON(c, fiber.StatusCreated, results[0])
}

// GetCourses retrieves all courses.
// GET /api/v1/courses
func GetCourses(c *fiber.Ctx) error {
	var courses []models.Course
	bodyBytes, _, err := config.SupabaseClient.From("courses").
		Select("*", "", false).
		Execute()
	if err != nil {
		log.Printf("Error fetching courses: %v", err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not retrieve courses: %v", err))
	}

	if err := json.Unmarshal(bodyBytes, &courses); err != nil {
		log.Printf("Error unmarshalling courses: %v. Body: %s", err, string(bodyBytes))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process courses data")
	}

	if courses == nil { // Ensure we return an empty list instead of nil
		courses = []models.Course{}
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, courses)
}

// GetCourse retrieves a specific course by its ID.
// GET /api/v1/courses/:id
func GetCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	var courses []models.Course
	bodyBytes, _, err := config.SupabaseClient.From("courses").
		Select("*", "", false).
		Eq("id", courseID.String()).
		Execute()
	if err != nil {
		log.Printf("Error fetching course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, fmt.Sprintf("Could not retrieve course: %v", err))
	}

	if err := json.Unmarshal(bodyBytes, &courses); err != nil {
		log.Printf("Error unmarshalling course %s: %v. Body: %s", courseID, err, string(bodyBytes))
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Could not process course data")
	}

	if len(courses) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Course not found")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, courses[0])
}

// UpdateCourse updates an existing course.
// PATCH /api/v1/courses/:id
func UpdateCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	payload := new(UpdateCourseRequest)
	if err := c.BodyParser(payload); err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Invalid request payload: %s", err.Error()))
	}

	updateData := make(map[string]interface{})
	if payload.Name != nil {
		updateData["name"] = *payload.Name
	}
	if payload.Description != nil {
		updateData["description"] = *payload.Description
	}
	if payload.Status != nil {
		updateData["status"] = *payload.Status
	}

	if len(updateData) == 0 {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "No fields to update")
	}
	updateData["updated_at"] = time.Now()

	var updated []models.Course
	bodyBytes, _, err := config.SupabaseClient.From("courses").
		Update(updateData, "", "representation").
		Eq("id", courseID.String()).
		Execute()
	if err != nil {
		log.Printf("Error updating course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error updating course")
	}

	if err := json.Unmarshal(bodyBytes, &updated); err != nil {
		log.Printf("Error unmarshalling updated course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error processing updated course data")
	}

	if len(updated) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Course to update not found")
	}

	return utils.RespondWithJSON(c, fiber.StatusOK, updated[0])
}

// DeleteCourse deletes a specific course.
// DELETE /api/v1/courses/:id
func DeleteCourse(c *fiber.Ctx) error {
	courseID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, "Invalid course ID format")
	}

	_, count, err := config.SupabaseClient.From("courses").
		Delete("minimal", "exact").
		Eq("id", courseID.String()).
		Execute()
	if err != nil {
		log.Printf("Error deleting course %s: %v", courseID, err)
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error deleting course")
	}

	if count == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Course not found")
	}

	log.Printf("Successfully deleted course %s. Rows affected: %d", courseID, count)
	return c.SendStatus(fiber.StatusNoContent)
}
