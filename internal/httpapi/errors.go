package httpapi

import (
	"encoding/json"
	"net/http"

	"alignd/internal/align"
	"alignd/internal/cache"
	"alignd/internal/registry"
	"alignd/internal/solver"
	"alignd/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// errorStatus maps well-known domain errors to HTTP status codes.
// Validation and state errors are caller mistakes; load and persistence
// failures are upstream trouble the client may retry.
func errorStatus(err error) int {
	switch {
	case align.IsValidation(err) || solver.IsDegenerate(err):
		return http.StatusBadRequest
	case align.IsState(err) || registry.IsConflict(err):
		return http.StatusConflict
	case cache.IsModelNotFound(err) || registry.IsModelNotFound(err) || registry.IsPlacementNotFound(err):
		return http.StatusNotFound
	case cache.IsLoadError(err) || align.IsPersistence(err):
		return http.StatusBadGateway
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// writeDomainError maps and writes a domain error.
func writeDomainError(w http.ResponseWriter, err error) {
	writeJSONError(w, errorStatus(err), err.Error())
}
