package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

// ProjectStorage implements the ProjectStorage interface for Badger
type ProjectStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProjectStorage creates a new ProjectStorage instance
func NewProjectStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProjectStorage {
	return &ProjectStorage{
		db:     db,
		logger: logger,
	}
}

// UpsertProjects writes records keyed by ProjectID, last write wins. An
// existing row keeps its IngestedAt; everything else is overwritten.
func (s *ProjectStorage) UpsertProjects(ctx context.Context, projects []*models.Project) error {
	now := time.Now()
	for _, p := range projects {
		if p.ProjectID == "" {
			return fmt.Errorf("project ID is required")
		}

		var existing models.Project
		err := s.db.Store().Get(p.ProjectID, &existing)
		switch {
		case err == nil:
			p.IngestedAt = existing.IngestedAt
		case err == badgerhold.ErrNotFound:
			p.IngestedAt = now
		default:
			return fmt.Errorf("failed to read project %s: %w", p.ProjectID, err)
		}
		p.UpdatedAt = now

		if err := s.db.Store().Upsert(p.ProjectID, p); err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", p.ProjectID, err)
		}
	}
	return nil
}

func (s *ProjectStorage) GetProject(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Store().Get(projectID, &project); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("project not found: %s", projectID)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStorage) ListProjects(ctx context.Context, limit, offset int) ([]*models.Project, error) {
	query := badgerhold.Where("ProjectID").Ne("").SortBy("ProjectID")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Skip(offset)
	}

	var projects []models.Project
	if err := s.db.Store().Find(&projects, query); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := make([]*models.Project, len(projects))
	for i := range projects {
		result[i] = &projects[i]
	}
	return result, nil
}

func (s *ProjectStorage) CountProjects(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.Project{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count projects: %w", err)
	}
	return int(count), nil
}

// ForEachProject streams every stored record to fn; used by the aggregate
// rebuild so the whole table never has to sit in one slice.
func (s *ProjectStorage) ForEachProject(ctx context.Context, fn func(*models.Project) error) error {
	err := s.db.Store().ForEach(nil, func(p *models.Project) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(p)
	})
	if err != nil {
		return fmt.Errorf("failed to iterate projects: %w", err)
	}
	return nil
}
