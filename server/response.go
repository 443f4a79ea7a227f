package server

import (
	"encoding/json"
	"net/http"

	"github.com/componentize/repodata/errors"
)

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain errors onto HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFoundError(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.IsInvalidRequestError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.IsConflictError(err):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// readJSON decodes a JSON request body
func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.NewInvalidRequestError("invalid request body: %v", err)
	}
	return nil
}
