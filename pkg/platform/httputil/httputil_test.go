package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	dErrors "atiende/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	t.Run("storage error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeStorage, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "storage_error" {
			t.Fatalf("expected error code storage_error, got %q", body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for storage errors")
		}
	})

	t.Run("validation error includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeValidation, "lat out of range"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "validation_error" {
			t.Fatalf("expected error code validation_error, got %q", body["error"])
		}
		if body["error_description"] != "lat out of range" {
			t.Fatalf("expected description to surface, got %q", body["error_description"])
		}
	})

	t.Run("missing supervisor surfaces its reason despite 500", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeNoSupervisor, "no active supervisor configured for department salud"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error_description"] == "" {
			t.Fatal("expected the missing-supervisor reason to be visible to operators")
		}
	})
}

func TestDecode(t *testing.T) {
	type payload struct {
		Tipo string `json:"tipo"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tipo":"baches"}`))

		got, ok := Decode[payload](w, r, nil)
		if !ok {
			t.Fatalf("expected decode to succeed, response: %s", w.Body.String())
		}
		if got.Tipo != "baches" {
			t.Fatalf("expected tipo baches, got %q", got.Tipo)
		}
	})

	t.Run("empty body decodes to zero value", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))

		got, ok := Decode[payload](w, r, nil)
		if !ok {
			t.Fatal("expected empty body to be accepted")
		}
		if got.Tipo != "" {
			t.Fatalf("expected zero value, got %q", got.Tipo)
		}
	})

	t.Run("malformed JSON maps to validation error", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"tipo":`))

		_, ok := Decode[payload](w, r, nil)
		if ok {
			t.Fatal("expected decode to fail")
		}
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("body over the cap maps to payload_too_large", func(t *testing.T) {
		w := httptest.NewRecorder()
		big := `{"tipo":"` + strings.Repeat("x", 1024) + `"}`
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		r.Body = http.MaxBytesReader(w, r.Body, 64)

		_, ok := Decode[payload](w, r, nil)
		if ok {
			t.Fatal("expected decode to fail")
		}
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected status 413, got %d", w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != "payload_too_large" {
			t.Fatalf("expected payload_too_large, got %q", body["error"])
		}
	})
}
