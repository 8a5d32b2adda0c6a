package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/crosscrm/crm/internal/store"
)

// Error categories.
const (
	CategoryValidationError    = "VALIDATION_ERROR"
	CategoryObjectNotFound     = "OBJECT_NOT_FOUND"
	CategoryConflict           = "CONFLICT"
	CategoryInternalError      = "INTERNAL_ERROR"
	CategoryServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// Error is the JSON error envelope.
type Error struct {
	Status        string        `json:"status"`
	Message       string        `json:"message"`
	CorrelationID string        `json:"correlationId"`
	Category      string        `json:"category"`
	SubCategory   string        `json:"subCategory,omitempty"`
	Errors        []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail represents a single error within an Error.
type ErrorDetail struct {
	Message     string              `json:"message"`
	Code        string              `json:"code,omitempty"`
	In          string              `json:"in,omitempty"`
	Context     map[string][]string `json:"context,omitempty"`
	SubCategory string              `json:"subCategory,omitempty"`
}

func newError(category, message, correlationID string) *Error {
	return &Error{
		Status:        "error",
		Message:       message,
		CorrelationID: correlationID,
		Category:      category,
	}
}

// NewNotFoundError creates a 404 error with the OBJECT_NOT_FOUND category.
func NewNotFoundError(message, correlationID string) *Error {
	return newError(CategoryObjectNotFound, message, correlationID)
}

// NewValidationError creates a 400 error with the VALIDATION_ERROR category.
func NewValidationError(message, correlationID string, details []ErrorDetail) *Error {
	e := newError(CategoryValidationError, message, correlationID)
	e.Errors = details
	return e
}

// NewConflictError creates a 409 error with the CONFLICT category.
func NewConflictError(message, correlationID string) *Error {
	return newError(CategoryConflict, message, correlationID)
}

// NewInternalError creates a 500 error with the INTERNAL_ERROR category.
func NewInternalError(message, correlationID string) *Error {
	return newError(CategoryInternalError, message, correlationID)
}

// NewUnavailableError creates a 503 error with the SERVICE_UNAVAILABLE
// category.
func NewUnavailableError(message, correlationID string) *Error {
	return newError(CategoryServiceUnavailable, message, correlationID)
}

// WriteError writes an Error as a JSON response with the given HTTP status code.
func WriteError(w http.ResponseWriter, statusCode int, apiErr *Error) {
	WriteJSON(w, statusCode, apiErr)
}

// WriteStoreError maps a store error onto a response. notFound is the
// message used for store.ErrNotFound. Anything unrecognised is logged and
// reported as a 500.
func WriteStoreError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	corrID := CorrelationID(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
		WriteError(w, http.StatusNotFound, NewNotFoundError(notFound, corrID))
	case errors.Is(err, store.ErrConflict):
		WriteError(w, http.StatusConflict, NewConflictError(err.Error(), corrID))
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		WriteError(w, http.StatusInternalServerError, NewInternalError("Internal Server Error", corrID))
	}
}
