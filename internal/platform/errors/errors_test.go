package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestKindHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindInvalidAmount, http.StatusBadRequest},
		{KindMissingTransactionID, http.StatusBadRequest},
		{KindValidationFailed, http.StatusBadRequest},
		{KindDuplicateTransaction, http.StatusConflict},
		{KindInvalidStatusTransition, http.StatusConflict},
		{KindAccountExists, http.StatusConflict},
		{KindInvalidToken, http.StatusUnauthorized},
		{KindUnauthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindRenderingFailed, http.StatusInternalServerError},
		{KindInternal, http.StatusInternalServerError},
		{Kind("Surprise"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(string(tc.kind), func(t *testing.T) {
			if got := tc.kind.HTTPStatus(); got != tc.want {
				t.Fatalf("HTTPStatus() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindDuplicateTransaction, "dup"))
	if !stderrors.Is(err, New(KindDuplicateTransaction, "")) {
		t.Fatal("expected wrapped error to match kind")
	}
	if stderrors.Is(err, New(KindNotFound, "")) {
		t.Fatal("different kinds must not match")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(KindInternal, "store", cause)
	if !stderrors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if err.Error() != "store: disk full" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != "" {
		t.Fatal("nil error has no kind")
	}
	if KindOf(stderrors.New("boom")) != KindInternal {
		t.Fatal("unclassified errors are internal")
	}
	if !IsKind(fmt.Errorf("x: %w", New(KindForbidden, "")), KindForbidden) {
		t.Fatal("expected forbidden")
	}
}

func TestNewDefaultsMessage(t *testing.T) {
	if got := New(KindUnauthenticated, " ").Message; got != "Authentication required" {
		t.Fatalf("message = %q", got)
	}
}

func TestRendererDevelopmentIncludesDetail(t *testing.T) {
	var logged []string
	r := Renderer{Logf: func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }}
	rec := httptest.NewRecorder()
	r.Write(rec, Internal(stderrors.New("db locked")))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Kind != KindInternal {
		t.Fatalf("unexpected body %+v", body)
	}
	if body.Detail != "db locked" {
		t.Fatalf("detail = %q", body.Detail)
	}
	if len(body.Stack) == 0 {
		t.Fatal("expected stack in development")
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "db locked") {
		t.Fatalf("expected server-side log, got %v", logged)
	}
}

func TestRendererProductionHidesInternals(t *testing.T) {
	r := Renderer{Production: true, Logf: func(string, ...any) {}}
	status, body := r.Build(Wrap(KindInternal, "sqlite: constraint on table x", stderrors.New("secret")))
	if status != http.StatusInternalServerError {
		t.Fatalf("status = %d", status)
	}
	if body.Message != "Internal server error" || body.Detail != "" || body.Stack != nil {
		t.Fatalf("leaked internals: %+v", body)
	}
}

func TestRendererValidationFields(t *testing.T) {
	r := Renderer{Production: true}
	status, body := r.Build(Validation(FieldError{Field: "status", Message: "must be pending, completed or failed"}))
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "status" {
		t.Fatalf("errors = %+v", body.Errors)
	}
	if body.Message != "Validation failed" {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestRendererUnclassifiedError(t *testing.T) {
	r := Renderer{Production: true, Logf: func(string, ...any) {}}
	status, body := r.Build(stderrors.New("raw storage error"))
	if status != http.StatusInternalServerError || body.Kind != KindInternal {
		t.Fatalf("status=%d body=%+v", status, body)
	}
	if strings.Contains(body.Message, "raw storage") {
		t.Fatal("raw error leaked")
	}
}
