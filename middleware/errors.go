// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/models"
)

// StatusFor maps an engine error to its HTTP status. Unknown errors are
// internal failures.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrInvalidSelection):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotOpen),
		errors.Is(err, models.ErrAlreadyVoted),
		errors.Is(err, models.ErrImmutable):
		return http.StatusConflict
	case errors.Is(err, models.ErrStaleVersion):
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON error response. Internal failures are
// logged and their details withheld from the client.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		ErrorResponse(w, status, "internal error")
		return
	}
	ErrorResponse(w, status, err.Error())
}
