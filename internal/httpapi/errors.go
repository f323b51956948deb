package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gojags/internal/console"
	"gojags/internal/engine"
	"gojags/internal/manager"
	"gojags/internal/model"
	"gojags/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusFor maps well-known errors to HTTP status codes.
func statusFor(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case manager.IsSessionNotFound(err), console.IsLookup(err):
		return http.StatusNotFound
	case manager.IsTooBusy(err):
		return http.StatusTooManyRequests
	case console.IsValidation(err), console.IsConversion(err), console.IsIO(err),
		model.IsUnused(err), model.IsOption(err):
		return http.StatusBadRequest
	case console.IsState(err), errors.Is(err, console.ErrClosed):
		return http.StatusConflict
	case console.IsVersionMismatch(err), engine.IsUnavailable(err):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with its mapped status. Errors caused by the client
// going away are dropped.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
		return
	}
	status := statusFor(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure("busy")
	}
	writeJSONError(w, status, err.Error())
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
