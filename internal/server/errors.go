// Package server exposes screening, scoring and ingestion over HTTP.
package server

import (
	"net/http"

	"github.com/jonathan/resume-screener/internal/types"
)

// HTTPStatus returns the status code for an error based on its kind
func HTTPStatus(err error) int {
	switch types.KindOf(err) {
	case types.KindNotFound:
		return http.StatusNotFound
	case types.KindConcurrencyConflict:
		return http.StatusConflict
	case types.KindInvalidInput:
		return http.StatusBadRequest
	case types.KindModelMismatch:
		return http.StatusUnprocessableEntity
	case types.KindEmbeddingUnavailable, types.KindPartialFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
