package badger

import (
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db        *BadgerDB
	project   interfaces.ProjectStorage
	job       interfaces.JobStorage
	session   interfaces.SessionStorage
	aggregate interfaces.AggregateStorage
	logger    arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:        db,
		project:   NewProjectStorage(db, logger),
		job:       NewJobStorage(db, logger),
		session:   NewSessionStorage(db, logger),
		aggregate: NewAggregateStorage(db, logger),
		logger:    logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProjectStorage returns the Project storage interface
func (m *Manager) ProjectStorage() interfaces.ProjectStorage {
	return m.project
}

// JobStorage returns the IngestJob storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// SessionStorage returns the Session storage interface
func (m *Manager) SessionStorage() interfaces.SessionStorage {
	return m.session
}

// AggregateStorage returns the CountryAggregate storage interface
func (m *Manager) AggregateStorage() interfaces.AggregateStorage {
	return m.aggregate
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
