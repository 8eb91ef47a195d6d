package interfaces

import (
	"context"

	"github.com/ternarybob/atlas/internal/models"
)

// TokenService owns the three-legged OAuth state machine: authorization URL
// issuance with CSRF state, code exchange, encrypted refresh-token
// persistence, and access-token renewal.
type TokenService interface {
	// BeginAuth returns the provider redirect URL and the CSRF state value
	// the caller must bind to a short-lived signed cookie.
	BeginAuth() (authURL string, state string)
	// CompleteAuth validates the returned state against the cookie-bound
	// value, exchanges the code, and persists the encrypted refresh token
	// under sessionID. Returns ErrStateMismatch on CSRF failure.
	CompleteAuth(ctx context.Context, code, state, cookieState, sessionID string) error
	// AccessTokenForSession returns a valid bearer token for the session,
	// refreshing through the provider as needed. Returns ErrNotConnected
	// when no session row exists and ErrRefreshFailed when the provider
	// rejects the stored refresh token.
	AccessTokenForSession(ctx context.Context, sessionID string) (string, error)
	// Invalidate drops any cached access token for the session, forcing the
	// next call to go through the refresh grant.
	Invalidate(sessionID string)
	// IsConnected reports whether a session row exists.
	IsConnected(ctx context.Context, sessionID string) bool
	// Disconnect removes the session row.
	Disconnect(ctx context.Context, sessionID string) error
	// SignValue / VerifyValue implement the HMAC-signed cookie contract.
	SignValue(value string) string
	VerifyValue(signed string) (string, bool)
}

// IngestService runs catalog ingestion end to end
type IngestService interface {
	Run(ctx context.Context, triggeredBy, sessionID string) (*RunResult, error)
}

// RunResult summarizes one ingestion run
type RunResult struct {
	Success        bool   `json:"success"`
	JobID          string `json:"jobId"`
	TotalProjects  int    `json:"totalProjects"`
	TotalProcessed int    `json:"totalProcessed"`
	TotalErrors    int    `json:"totalErrors"`
}

// EventService is the in-process pub/sub bridge between the ingest pipeline
// and the websocket stream.
type EventService interface {
	Publish(event *models.Event)
	Subscribe() (<-chan *models.Event, func())
}
