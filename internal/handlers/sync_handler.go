package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
	"github.com/ternarybob/atlas/internal/services/partner"
	"github.com/ternarybob/atlas/internal/services/token"
)

// SyncHandler triggers catalog ingestion runs
type SyncHandler struct {
	ingest interfaces.IngestService
	auth   *AuthHandler
	logger arbor.ILogger
}

// NewSyncHandler creates the sync handler
func NewSyncHandler(ingest interfaces.IngestService, auth *AuthHandler, logger arbor.ILogger) *SyncHandler {
	return &SyncHandler{
		ingest: ingest,
		auth:   auth,
		logger: logger,
	}
}

// SyncHandler handles POST /sync: runs a full ingestion synchronously and
// reports the run counters. Authentication problems map to stable error
// codes so the UI can route the user to reconnect.
func (h *SyncHandler) SyncHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := h.auth.SessionID(r)
	if sessionID == "" {
		WriteError(w, http.StatusUnauthorized, "auth_required", "no active session, authorize first")
		return
	}

	triggeredBy := r.URL.Query().Get("triggered_by")
	if triggeredBy == "" {
		triggeredBy = "manual"
	}

	result, err := h.ingest.Run(r.Context(), triggeredBy, sessionID)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrNotConnected), errors.Is(err, token.ErrRefreshFailed):
			WriteError(w, http.StatusUnauthorized, "auth_required", "session is not connected, authorize first")
		case errors.Is(err, partner.ErrTokenRejected):
			WriteError(w, http.StatusUnauthorized, "auth_required", "access token was rejected, authorize again")
		case errors.Is(err, partner.ErrInsufficientScopes):
			WriteError(w, http.StatusUnprocessableEntity, "insufficient_scopes", "token lacks the scopes catalog ingestion requires")
		default:
			h.logger.Error().Err(err).Msg("Ingestion run failed")
			WriteError(w, http.StatusInternalServerError, "ingest_failed", err.Error())
		}
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
