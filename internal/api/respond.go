package api

import (
	"encoding/json"
	"net/http"

	"github.com/darkgrid-game/darkgrid-core/internal/apperr"
)

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// errorResponse is the uniform error body: {"error": "<code>", "message": "..."}.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondAppErr maps an apperr.Code to its HTTP status and writes the
// uniform error body.
func respondAppErr(w http.ResponseWriter, err error) {
	code := apperr.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case apperr.Validation, apperr.Domain:
		status = http.StatusBadRequest
	case apperr.Auth:
		status = http.StatusUnauthorized
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Conflict:
		status = http.StatusConflict
	case apperr.Internal:
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, errorResponse{Error: code.String(), Message: err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondAppErr(w, apperr.Validationf("invalid request body: %v", err))
		return false
	}
	return true
}
