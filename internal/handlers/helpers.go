package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes a standard error JSON response. The code field is a
// stable machine-readable identifier; message is for humans.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) error {
	return WriteJSON(w, statusCode, map[string]interface{}{
		"success": false,
		"code":    code,
		"error":   message,
	})
}

// GetLimitParam extracts a limit query parameter with a default and cap.
func GetLimitParam(r *http.Request, def, max int) int {
	limit := def
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}
