package httputil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/maternal-survey/survey-api/internal/logging"
)

func TestWriteErrorAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, logging.NewDefault("test"), NewError(http.StatusForbidden, "Not allowed by CORS"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != `{"error":"Not allowed by CORS"}` {
		t.Errorf("body = %q", body)
	}
}

func TestWriteErrorUnknownErrorBecomesOpaque500(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, logging.NewDefault("test"), errors.New("secret database details"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret database details") {
		t.Errorf("body = %q, cause must not leak", rec.Body.String())
	}
}

func TestWriteErrorUnwrapsWrappedAPIError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	wrapped := NewError(http.StatusConflict, "email already registered").Wrap(errors.New("dup key"))
	WriteError(rec, req, logging.NewDefault("test"), wrapped)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "email already registered") {
		t.Errorf("body = %q", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "dup key") {
		t.Errorf("body = %q, cause must not leak", rec.Body.String())
	}
}

func TestHandleWritesOnlyOnError(t *testing.T) {
	log := logging.NewDefault("test")

	ok := Handle(log, func(w http.ResponseWriter, r *http.Request) error {
		WriteJSON(w, http.StatusCreated, map[string]string{"fine": "yes"})
		return nil
	})
	rec := httptest.NewRecorder()
	ok(rec, httptest.NewRequest(http.MethodPost, "/x", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}

	failing := Handle(log, func(w http.ResponseWriter, r *http.Request) error {
		return NewError(http.StatusNotFound, "missing")
	})
	rec = httptest.NewRecorder()
	failing(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestDecodeJSONRejectsBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("{not json"))
	var v map[string]interface{}

	err := DecodeJSON(req, &v)
	if err == nil {
		t.Fatal("want error for invalid JSON")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", apiErr.Status)
	}
}

func TestErrorFormatting(t *testing.T) {
	plain := NewError(http.StatusBadRequest, "bad input")
	if plain.Error() != "bad input" {
		t.Errorf("Error() = %q", plain.Error())
	}

	cause := errors.New("underlying")
	wrapped := plain.Wrap(cause)
	if !errors.Is(wrapped, cause) {
		t.Error("wrapped error must unwrap to its cause")
	}
	if !strings.Contains(wrapped.Error(), "underlying") {
		t.Errorf("Error() = %q, want cause included server-side", wrapped.Error())
	}
}
