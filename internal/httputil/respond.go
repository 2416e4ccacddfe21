// Package httputil provides JSON request/response helpers and the single
// terminal error-handling stage for the request pipeline.
package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/maternal-survey/survey-api/internal/logging"
)

// maxBodyBytes caps request bodies accepted by DecodeJSON.
const maxBodyBytes = 1 << 20 // 1 MiB

// Error is a request-level error carrying the HTTP status and the message
// shown to the client. Wrapped causes stay server-side.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	cause   error
}

// NewError creates a client-visible request error.
func NewError(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

// Wrap attaches a server-side cause to the error.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Status: e.Status, Message: e.Message, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// ErrCORSOrigin rejects a request whose Origin is not in the allow-list.
var ErrCORSOrigin = NewError(http.StatusForbidden, "Not allowed by CORS")

// WriteJSON writes v as a JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError is the terminal error handler: every request-level error in the
// pipeline, wherever it is raised, is turned into its one client-visible
// response here. Unknown errors become an opaque 500 with the cause logged.
func WriteError(w http.ResponseWriter, r *http.Request, log *logging.Logger, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = NewError(http.StatusInternalServerError, "internal server error").Wrap(err)
	}

	entry := log.ForRequest(r.Context()).WithField("path", r.URL.Path)
	if apiErr.Status >= 500 {
		entry.WithError(err).Error("request failed")
	} else {
		entry.WithError(err).Debug("request rejected")
	}

	WriteJSON(w, apiErr.Status, apiErr)
}

// HandlerFunc is an HTTP handler that reports failure by returning an error
// instead of writing its own error response.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// Handle adapts a HandlerFunc, routing any returned error through WriteError.
func Handle(log *logging.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			WriteError(w, r, log, err)
		}
	}
}

// DecodeJSON decodes a JSON request body into v, limiting size and rejecting
// syntactically invalid or empty bodies with a 400.
func DecodeJSON(r *http.Request, v interface{}) error {
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return NewError(http.StatusBadRequest, "invalid request body").Wrap(err)
	}
	return nil
}
