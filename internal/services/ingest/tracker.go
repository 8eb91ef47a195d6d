package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

// Tracker owns the audit trail for one ingestion run: the persisted job row
// and the lifecycle events pushed to subscribers. Persistence failures after
// the job exists are logged, never fatal; losing a progress update must not
// kill a crawl.
type Tracker struct {
	jobs   interfaces.JobStorage
	events interfaces.EventService
	logger arbor.ILogger
}

// NewTracker creates a job tracker
func NewTracker(jobs interfaces.JobStorage, events interfaces.EventService, logger arbor.ILogger) *Tracker {
	return &Tracker{
		jobs:   jobs,
		events: events,
		logger: logger,
	}
}

// Start creates the job row in running state and announces it
func (t *Tracker) Start(ctx context.Context, triggeredBy string) (*models.IngestJob, error) {
	job := &models.IngestJob{
		ID:          uuid.New().String(),
		TriggeredBy: triggeredBy,
		Status:      models.JobStatusRunning,
		CreatedAt:   time.Now(),
	}

	if err := t.jobs.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	t.logger.Info().
		Str("job_id", job.ID).
		Str("triggered_by", triggeredBy).
		Msg("Ingestion job started")

	t.events.Publish(&models.Event{
		Type:      models.EventJobStarted,
		JobID:     job.ID,
		Payload:   map[string]interface{}{"triggered_by": triggeredBy},
		Timestamp: time.Now(),
	})

	return job, nil
}

// Progress persists the latest counters and emits a progress event
func (t *Tracker) Progress(ctx context.Context, job *models.IngestJob) {
	if job.IsTerminal() {
		return
	}

	if err := t.jobs.SaveJob(ctx, job); err != nil {
		t.logger.Warn().Err(err).Str("job_id", job.ID).Msg("Failed to persist job progress")
	}

	t.events.Publish(&models.Event{
		Type:  models.EventJobProgress,
		JobID: job.ID,
		Payload: map[string]interface{}{
			"total_projects":     job.TotalProjects,
			"processed_projects": job.ProcessedProjects,
			"errors_count":       job.ErrorsCount,
		},
		Timestamp: time.Now(),
	})
}

// Complete marks the job finished and emits the terminal event
func (t *Tracker) Complete(ctx context.Context, job *models.IngestJob) {
	job.Status = models.JobStatusCompleted
	job.CompletedAt = time.Now()

	if err := t.jobs.SaveJob(ctx, job); err != nil {
		t.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist completed job")
	}

	t.logger.Info().
		Str("job_id", job.ID).
		Int("total", job.TotalProjects).
		Int("processed", job.ProcessedProjects).
		Int("errors", job.ErrorsCount).
		Msg("Ingestion job completed")

	t.events.Publish(&models.Event{
		Type:  models.EventJobCompleted,
		JobID: job.ID,
		Payload: map[string]interface{}{
			"total_projects":     job.TotalProjects,
			"processed_projects": job.ProcessedProjects,
			"errors_count":       job.ErrorsCount,
		},
		Timestamp: time.Now(),
	})
}

// Fail marks the job failed, recording the cause in Notes
func (t *Tracker) Fail(ctx context.Context, job *models.IngestJob, runErr error) {
	job.Status = models.JobStatusFailed
	job.CompletedAt = time.Now()
	if runErr != nil {
		job.Notes = runErr.Error()
	}

	if err := t.jobs.SaveJob(ctx, job); err != nil {
		t.logger.Error().Err(err).Str("job_id", job.ID).Msg("Failed to persist failed job")
	}

	t.logger.Error().
		Err(runErr).
		Str("job_id", job.ID).
		Int("processed", job.ProcessedProjects).
		Msg("Ingestion job failed")

	t.events.Publish(&models.Event{
		Type:  models.EventJobFailed,
		JobID: job.ID,
		Payload: map[string]interface{}{
			"error":              job.Notes,
			"processed_projects": job.ProcessedProjects,
		},
		Timestamp: time.Now(),
	})
}
