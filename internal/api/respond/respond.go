package respond

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcndt/noteshare.space/internal/model"
)

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string             `json:"error"`
	Code    int                `json:"code"`
	Message string             `json:"message,omitempty"`
	Fields  []model.FieldError `json:"fields,omitempty"`
}

// GoneResponse is the body of a 410, telling the reader why the note is gone.
type GoneResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
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
		Error:   http.StatusText(statusCode),
		Code:    statusCode,
		Message: message,
	})
}

// WriteBadRequest writes a 400 Bad Request response
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteValidationError writes a 400 carrying per-field failures.
func WriteValidationError(w http.ResponseWriter, verr *model.ValidationError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Code:    http.StatusBadRequest,
		Message: verr.Error(),
		Fields:  verr.Fields,
	})
}

// WriteNotFound writes a 404 Not Found response
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteGone writes a 410 with the reason the note no longer exists
// ("expired" or "deleted").
func WriteGone(w http.ResponseWriter, reason string) {
	WriteJSON(w, http.StatusGone, GoneResponse{Error: "gone", Reason: reason})
}

// WriteRateLimited writes a 429 Too Many Requests response
func WriteRateLimited(w http.ResponseWriter) {
	WriteError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

// WritePayloadTooLarge writes a 413 Request Entity Too Large response
func WritePayloadTooLarge(w http.ResponseWriter) {
	WriteError(w, http.StatusRequestEntityTooLarge, "request body exceeds the size ceiling")
}

// WriteInternalError writes a 500 Internal Server Error response
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
