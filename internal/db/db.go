package db

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"videothingy/course-engine/internal/worker"
	"videothingy/course-engine/models"
)

var client *postgrest.Client

const jobTable = "processing_jobs"

// InitSupabaseClient initializes the PostgREST client used by the
// background-job machinery, using environment variables.
func InitSupabaseClient() error {
	supabaseURL := os.Getenv("SUPABASE_URL")
	supabaseKey := os.Getenv("SUPABASE_SERVICE_KEY")

	if supabaseURL == "" || supabaseKey == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set in environment variables")
	}

	client = postgrest.NewClient(supabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        supabaseKey,
		"Authorization": fmt.Sprintf("Bearer %s", supabaseKey),
	})

	if client.ClientError != nil {
		return fmt.Errorf("failed to initialize Supabase client: %w", client.ClientError)
	}

	log.Println("Supabase job client initialized successfully.")
	return nil
}

// GetClient returns the initialized PostgREST client.
// It's the caller's responsibility to ensure InitSupabaseClient has been called successfully.
func GetClient() *postgrest.Client {
	if client == nil {
		log.Println("Warning: Supabase job client requested before initialization or after failed initialization.")
	}
	return client
}

// CreateJobRecord creates a new job record in PENDING state and returns
// its generated id. Handlers create the record first, then submit a worker
// job carrying the same id.
func CreateJobRecord(jobType string, entityID uuid.UUID, entityType string, payload interface{}) (uuid.UUID, error) {
	if client == nil {
		return uuid.Nil, fmt.Errorf("supabase job client not initialized")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	newRecord := map[string]interface{}{
		"id":          uuid.NewString(),
		"job_type":    jobType,
		"entity_id":   entityID.String(),
		"entity_type": entityType,
		"status":      "PENDING",
		"metadata":    json.RawMessage(payloadBytes),
	}

	var results []models.ProcessingJob
	_, err = client.From(jobTable).Insert(newRecord, false, "", "representation", "").ExecuteTo(&results)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert job record: %w", err)
	}
	if len(results) == 0 {
		return uuid.Nil, fmt.Errorf("no record returned after job insert")
	}

	log.Printf("Successfully created job record with ID: %s, Type: %s", results[0].ID, jobType)
	return results[0].ID, nil
}

// UpdateJobStatus updates the status, output metadata, and error message of
// an existing job record.
func UpdateJobStatus(jobID string, status string, output interface{}, errorMessage string) error {
	if client == nil {
		return fmt.Errorf("supabase job client not initialized")
	}

	updateData := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}

	switch status {
	case "PROCESSING":
		updateData["started_at"] = time.Now()
	case "COMPLETED", "FAILED":
		updateData["completed_at"] = time.Now()
	}

	if output != nil {
		outputBytes, err := json.Marshal(output)
		if err != nil {
			return fmt.Errorf("failed to marshal job output: %w", err)
		}
		updateData["metadata"] = json.RawMessage(outputBytes)
	}

	if errorMessage != "" {
		updateData["error_message"] = errorMessage
	}

	var results []models.ProcessingJob
	_, err := client.From(jobTable).Update(updateData, "", "").Eq("id", jobID).ExecuteTo(&results)
	if err != nil {
		return fmt.Errorf("failed to update job record %s: %w", jobID, err)
	}

	log.Printf("Successfully updated job record %s to status: %s", jobID, status)
	return nil
}

// JobRecorder adapts the job-record helpers to the worker pool's Recorder
// interface.
type JobRecorder struct{}

func (JobRecorder) RecordStart(job worker.Job) error {
	return UpdateJobStatus(job.ID(), "PROCESSING", nil, "")
}

func (JobRecorder) RecordResult(job worker.Job, output interface{}, jobErr error) {
	if jobErr != nil {
		if err := UpdateJobStatus(job.ID(), "FAILED", output, jobErr.Error()); err != nil {
			log.Printf("Could not record failure of job %s: %v", job.ID(), err)
		}
		return
	}
	if err := UpdateJobStatus(job.ID(), "COMPLETED", output, ""); err != nil {
		log.Printf("Could not record completion of job %s: %v", job.ID(), err)
	}
}
