package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/models"
)

// SessionStorage implements the SessionStorage interface for Badger.
// Rows hold only the AEAD-encrypted refresh token; session ids arrive here
// already verified against the signed cookie.
type SessionStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSessionStorage creates a new SessionStorage instance
func NewSessionStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SessionStorage {
	return &SessionStorage{
		db:     db,
		logger: logger,
	}
}

func (s *SessionStorage) UpsertSession(ctx context.Context, session *models.Session) error {
	if session.SessionID == "" {
		return fmt.Errorf("session ID is required")
	}
	if session.RefreshTokenEnc == "" {
		return fmt.Errorf("encrypted refresh token is required")
	}
	if err := s.db.Store().Upsert(session.SessionID, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (s *SessionStorage) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Store().Get(sessionID, &session); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("session not found: %s", sessionID)
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *SessionStorage) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.db.Store().Delete(sessionID, &models.Session{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
