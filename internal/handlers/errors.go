package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/agentboard/api/internal/auth"
	"github.com/agentboard/api/internal/db"
	"github.com/agentboard/api/internal/logging"
	"github.com/agentboard/api/internal/middleware"
	"github.com/agentboard/api/internal/validation"
)

// Error codes returned in ErrorResponse.Code
const (
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConstraintViolation = "CONSTRAINT_VIOLATION"
	CodeReferenceError      = "REFERENCE_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	CodeInternal            = "INTERNAL"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string                 `json:"error"`
	Message   string                 `json:"message,omitempty"`
	Code      string                 `json:"code,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// WriteError writes an error response
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
		Details: details,
	}
	if r != nil {
		response.RequestID = middleware.GetRequestID(r.Context())
	}

	json.NewEncoder(w).Encode(response)
}

// WriteSuccess writes a success response
func WriteSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteAPIError maps an error kind onto its status and code. Unclassified errors are
// logged and reported as a bare 500 so that store internals never reach the client.
func WriteAPIError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	var verr *validation.Error
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &verr):
		WriteError(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid input", map[string]interface{}{
			"errors": verr.Fields,
		})
	case errors.As(err, &maxErr):
		WriteError(w, r, http.StatusRequestEntityTooLarge, CodeInvalidInput, "request body too large", nil)
	case errors.Is(err, db.ErrInvalid):
		WriteError(w, r, http.StatusBadRequest, CodeInvalidInput, err.Error(), nil)
	case errors.Is(err, auth.ErrUnauthorized):
		WriteError(w, r, http.StatusUnauthorized, CodeUnauthorized, "could not validate credentials", nil)
	case errors.Is(err, db.ErrNotFound):
		WriteError(w, r, http.StatusNotFound, CodeNotFound, err.Error(), nil)
	case errors.Is(err, db.ErrConstraintViolation):
		WriteError(w, r, http.StatusConflict, CodeConstraintViolation, err.Error(), nil)
	case errors.Is(err, db.ErrReference):
		WriteError(w, r, http.StatusUnprocessableEntity, CodeReferenceError, "referenced entity does not exist", nil)
	default:
		if logger != nil {
			logger.Error("Request failed", err, map[string]interface{}{
				"method":     r.Method,
				"path":       r.URL.Path,
				"request_id": middleware.GetRequestID(r.Context()),
			})
		}
		WriteError(w, r, http.StatusInternalServerError, CodeInternal, "internal server error", nil)
	}
}

// outcome labels a repository result for the entity write metric
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, db.ErrNotFound):
		return "not_found"
	case errors.Is(err, db.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, db.ErrReference):
		return "reference_error"
	case errors.Is(err, db.ErrInvalid):
		return "invalid"
	}
	return "error"
}
