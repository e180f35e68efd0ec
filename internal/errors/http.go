// Package errors provides HTTP error response helpers shared by the
// serve-mode handlers.
package errors

import (
	"encoding/json"
	"errors"
	"net/http"

	fulmenerrors "github.com/fulmenhq/gofulmen/errors"
)

// HTTPErrorResponse is the JSON envelope returned for all HTTP errors.
type HTTPErrorResponse struct {
	Error HTTPErrorBody `json:"error"`
}

// HTTPErrorBody carries the error code, message, and optional context.
type HTTPErrorBody struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	RequestID string                 `json:"request_id,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HTTPError pairs an error code with an HTTP status.
type HTTPError struct {
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
}

func (e *HTTPError) Error() string { return e.Code + ": " + e.Message }

// NewHTTPError creates an HTTPError.
func NewHTTPError(code, message string, status int) *HTTPError {
	return &HTTPError{Code: code, Message: message, Status: status}
}

// Common errors returned by handlers.
var (
	ErrNotFound = NewHTTPError("NOT_FOUND", "resource not found", http.StatusNotFound)
)

// RespondWithError writes err as a JSON error response. HTTPError
// values keep their code and status; anything else becomes a 500
// INTERNAL_ERROR.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		httpErr = &HTTPError{
			Code:    "INTERNAL_ERROR",
			Message: err.Error(),
			Status:  http.StatusInternalServerError,
		}
	}

	envelope := fulmenerrors.NewErrorEnvelope(httpErr.Code, httpErr.Message)
	if httpErr.Details != nil {
		envelope, _ = envelope.WithContext(httpErr.Details)
	}
	WriteEnvelope(w, r, envelope, httpErr.Status)
}

// WriteEnvelope serializes a gofulmen error envelope as the HTTP
// error response body.
func WriteEnvelope(w http.ResponseWriter, r *http.Request, envelope *fulmenerrors.ErrorEnvelope, status int) {
	resp := HTTPErrorResponse{
		Error: HTTPErrorBody{
			Code:      envelope.Code,
			Message:   envelope.Message,
			RequestID: envelope.CorrelationID,
			Details:   envelope.Context,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// NotFoundHandler is the router fallback for unknown paths.
func NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	envelope := fulmenerrors.NewErrorEnvelope("NOT_FOUND", "the requested resource was not found")
	WriteEnvelope(w, r, envelope, http.StatusNotFound)
}

// MethodNotAllowedHandler is the router fallback for unsupported methods.
func MethodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	envelope := fulmenerrors.NewErrorEnvelope("METHOD_NOT_ALLOWED", "method not allowed for this resource")
	WriteEnvelope(w, r, envelope, http.StatusMethodNotAllowed)
}
