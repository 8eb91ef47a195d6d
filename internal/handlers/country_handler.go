package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/atlas/internal/interfaces"
)

// CountryHandler serves the materialized per-country rollup
type CountryHandler struct {
	aggregates interfaces.AggregateStorage
	logger     arbor.ILogger
}

// NewCountryHandler creates the country handler
func NewCountryHandler(aggregates interfaces.AggregateStorage, logger arbor.ILogger) *CountryHandler {
	return &CountryHandler{
		aggregates: aggregates,
		logger:     logger,
	}
}

// ListCountriesHandler handles GET /api/countries
func (h *CountryHandler) ListCountriesHandler(w http.ResponseWriter, r *http.Request) {
	aggregates, err := h.aggregates.ListAggregates(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list country aggregates")
		WriteError(w, http.StatusInternalServerError, "storage_error", "failed to list countries")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"countries": aggregates,
		"count":     len(aggregates),
	})
}
