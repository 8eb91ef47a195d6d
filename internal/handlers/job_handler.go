package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
)

// JobHandler serves the ingest job audit trail
type JobHandler struct {
	jobs   interfaces.JobStorage
	logger arbor.ILogger
}

// NewJobHandler creates the job handler
func NewJobHandler(jobs interfaces.JobStorage, logger arbor.ILogger) *JobHandler {
	return &JobHandler{
		jobs:   jobs,
		logger: logger,
	}
}

// ListJobsHandler handles GET /api/jobs, newest first
func (h *JobHandler) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	limit := GetLimitParam(r, 20, 100)

	jobs, err := h.jobs.ListJobs(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list jobs")
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to list jobs")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJobHandler handles GET /api/jobs/{id}
func (h *JobHandler) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		WriteError(w, http.StatusBadRequest, "invalid_request", "job id is required")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), jobID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "not_found", "job not found")
		return
	}

	WriteJSON(w, http.StatusOK, job)
}
