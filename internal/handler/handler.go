package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"attraction-booking/internal/middleware"
	"attraction-booking/internal/model"

	"github.com/rs/zerolog"
)

// maxBodyBytes caps request bodies read by the handlers.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// statusFor maps a domain error kind to an HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindNotFound:
		return http.StatusNotFound
	case model.KindCapacityConflict, model.KindInvalidTransition:
		return http.StatusConflict
	case model.KindPaymentGateway:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err and writes the standard error body. Unclassified
// errors are reported as internal errors without their text.
func writeError(w http.ResponseWriter, r *http.Request, err error, logger zerolog.Logger) {
	resp := model.ErrorResponse{CorrelationID: middleware.CorrelationIDFrom(r.Context())}

	var de *model.DomainError
	status := http.StatusInternalServerError
	if errors.As(err, &de) {
		status = statusFor(de.Kind)
		resp.Error = string(de.Kind)
		resp.Code = de.Code
		resp.Message = de.Message
	} else {
		resp.Error = "internal"
		resp.Code = model.ErrCodeInternalError
		resp.Message = "internal server error"
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.Err(err).
		Int("status", status).
		Str("code", resp.Code).
		Str("path", r.URL.Path).
		Str("correlation_id", resp.CorrelationID).
		Msg("handler error")

	writeJSON(w, status, resp)
}

// decodeJSON reads a JSON body into dst, reporting malformed input as a
// validation error.
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		return model.Validation(model.ErrCodeInvalidJSON, "invalid request body: %v", err)
	}
	return nil
}

// pathID parses a positive integer path value.
func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, model.Validation(model.ErrCodeInvalidJSON, "%s is required", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.Validation(model.ErrCodeInvalidJSON, "invalid %s %q", name, raw)
	}
	return id, nil
}
