package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"scholarship/internal/ledger"
	"scholarship/internal/metrics"
	"scholarship/internal/models"
	"scholarship/internal/scval"
)

const (
	defaultRecentCount = 10
	maxRecentCount     = 100
)

// statusFor maps a call error onto an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrNotInitialized), errors.Is(err, ledger.ErrNoAdminSet):
		return http.StatusPreconditionFailed
	case errors.Is(err, ledger.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrWrongAdmin):
		return http.StatusForbidden
	case errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrUnknownFunction),
		errors.Is(err, ledger.ErrInvalidArguments),
		errors.Is(err, scval.ErrUnexpectedType):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrOverflow):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON sends v with the given status
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// sendError sends an error response
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	writeJSON(w, status, models.ErrorResponse{
		Error:     message,
		RequestID: requestIDFromContext(r.Context()),
	})
}

// sendCallError reports a failed contract call. Internal errors are logged and
// hidden from the client.
func (s *Server) sendCallError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		metrics.ErrorsTotal.WithLabelValues("api").Inc()
		slog.Error("Contract call failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		message = "Internal server error"
	}

	writeJSON(w, status, models.ErrorResponse{
		Error:     message,
		Code:      ledger.ErrorCode(err),
		RequestID: requestIDFromContext(r.Context()),
	})
}

// parseScholarshipID parses a positive scholarship id
func parseScholarshipID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid scholarship id %q", raw)
	}
	return id, nil
}

// parseRecentCount reads ?count=, defaulting when absent. Counts above
// maxRecentCount are rejected rather than truncated.
func parseRecentCount(raw string) (uint32, error) {
	if raw == "" {
		return defaultRecentCount, nil
	}

	count, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid count %q", raw)
	}
	if count > maxRecentCount {
		return 0, fmt.Errorf("count %d exceeds the maximum of %d", count, maxRecentCount)
	}
	return uint32(count), nil
}
