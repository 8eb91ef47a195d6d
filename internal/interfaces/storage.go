package interfaces

import (
	"context"

	"github.com/ternarybob/atlas/internal/models"
)

// ProjectStorage persists ingested catalog records
type ProjectStorage interface {
	// UpsertProjects writes records keyed by ProjectID, last write wins.
	// The operation is idempotent: applying the same batch twice yields the
	// same stored row set.
	UpsertProjects(ctx context.Context, projects []*models.Project) error
	GetProject(ctx context.Context, projectID string) (*models.Project, error)
	ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, error)
	CountProjects(ctx context.Context) (int, error)
	// ForEachProject streams every stored record; used by the aggregate rebuild.
	ForEachProject(ctx context.Context, fn func(*models.Project) error) error
}

// JobStorage persists ingest job audit rows
type JobStorage interface {
	SaveJob(ctx context.Context, job *models.IngestJob) error
	GetJob(ctx context.Context, jobID string) (*models.IngestJob, error)
	ListJobs(ctx context.Context, limit int) ([]*models.IngestJob, error)
}

// SessionStorage persists OAuth sessions with encrypted refresh tokens
type SessionStorage interface {
	UpsertSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// AggregateStorage persists the materialized per-country rollup
type AggregateStorage interface {
	// ReplaceAll swaps the whole aggregate set; the view is never patched.
	ReplaceAll(ctx context.Context, aggregates []*models.CountryAggregate) error
	ListAggregates(ctx context.Context) ([]*models.CountryAggregate, error)
}

// StorageManager provides access to all storage interfaces
type StorageManager interface {
	ProjectStorage() ProjectStorage
	JobStorage() JobStorage
	SessionStorage() SessionStorage
	AggregateStorage() AggregateStorage
	Close() error
}
