package models

import "time"

// JobStatus represents the state of an ingest job
type JobStatus string

const (
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// IngestJob is the operator-visible audit record of one ingestion run.
//
// A row is created when the run starts, its counters are updated in coalesced
// batches while the crawl proceeds (not per record, to bound write volume),
// and it is finalized exactly once to a terminal status. A crawler crash
// between start and finish leaves the row permanently in 'running' -
// detecting orphaned runs is an operational concern outside this service.
type IngestJob struct {
	ID string `json:"id" badgerhold:"key"`
	// TriggeredBy records who started the run, e.g. "manual" or "scheduled".
	TriggeredBy       string    `json:"triggered_by"`
	Status            JobStatus `json:"status"`
	TotalProjects     int       `json:"total_projects"`
	ProcessedProjects int       `json:"processed_projects"`
	ErrorsCount       int       `json:"errors_count"`
	Notes             string    `json:"notes,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	CompletedAt       time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job reached a terminal status
func (j *IngestJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
