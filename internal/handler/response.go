package handler

// Response helpers: every handler sends JSON through writeJSON and maps
// domain errors through writeError, so the error shape and the
// error→status mapping live in exactly one place.
//
// Every error response has the same shape:
//
//	{"error": "not_found", "message": "project not found with id abc123"}
//
// Validation errors additionally carry a "details" array naming every
// failing field.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sunhaksan-research-lab/sunhaksan/internal/apperror"
)

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string                `json:"error"`             // Machine-readable type (e.g. "not_found")
	Message string                `json:"message"`           // Human-readable description
	Details []apperror.FieldError `json:"details,omitempty"` // Validation failures, all fields
}

// writeJSON sends a JSON response with the given status code. Headers and
// status must go out before the body — once Encode writes, they're sent.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// Headers are already out; all we can do is log.
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to the appropriate HTTP status code.
//
// The service layer returns apperror sentinels; this is the only place
// they meet HTTP. Anything that isn't an AppError — a real bug, a broken
// DB — collapses to a generic 500 so internal details (SQL, file paths)
// never leak to the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		case errors.Is(err, apperror.ErrUpstream):
			status = http.StatusInternalServerError
			errorType = "upstream_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
			Details: appErr.Fields,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// decodeBody parses a JSON request body into dst, translating a malformed
// body into a validation error so the caller gets a 400, not a 500.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON body")
	}
	return nil
}
