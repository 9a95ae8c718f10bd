package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arunsharma1203/grievance/internal/model"
)

// ErrorResponse represents a standard error response. OK is always false.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Field   string `json:"field,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{
		OK:      false,
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}

// WriteServiceError maps domain errors to status codes. Unknown errors are
// logged with their stack and reported with a generic message.
func WriteServiceError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	var ve model.ValidationError
	switch {
	case errors.As(err, &ve):
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			OK:      false,
			Error:   http.StatusText(http.StatusBadRequest),
			Code:    http.StatusBadRequest,
			Message: ve.Error(),
			Field:   ve.Field,
		})
	case errors.Is(err, model.ErrNotFound):
		WriteNotFound(w, "not found")
	case errors.Is(err, model.ErrConflict):
		WriteError(w, http.StatusConflict, "record already exists")
	default:
		logger.Error().Stack().Err(err).Msg("request failed")
		WriteInternalError(w, "internal error")
	}
}
