package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/common"
	"github.com/ternarybob/atlas/internal/interfaces"
)

type APIHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewAPIHandler(storage interfaces.StorageManager, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		storage: storage,
		logger:  logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version":    common.GetVersion(),
		"build":      common.Build,
		"git_commit": common.GitCommit,
	})
}

// HealthHandler returns health check status, including a storage probe
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	projects, err := h.storage.ProjectStorage().CountProjects(r.Context())
	if err != nil {
		WriteJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "degraded",
			"error":  "storage unavailable",
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"projects": projects,
	})
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
