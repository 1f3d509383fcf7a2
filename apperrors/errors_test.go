package apperrors

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("homeownerName"), http.StatusBadRequest},
		{"authorization", Forbidden("not your deal"), http.StatusForbidden},
		{"not found", NotFoundf("deal %s not found", "abc"), http.StatusNotFound},
		{"conflict", Conflict("pin already converted"), http.StatusConflict},
		{"state", Statef("depreciation not collected"), http.StatusUnprocessableEntity},
		{"internal", Internalf("write failed"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"zero-kind default", &Error{Message: "x"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestValidationEnumeratesFields(t *testing.T) {
	err := Validation("homeownerName", "homeownerPhone")
	msg := err.Error()
	for _, field := range []string{"homeownerName", "homeownerPhone"} {
		if !strings.Contains(msg, field) {
			t.Fatalf("expected %q in message %q", field, msg)
		}
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("boom")) != KindInternal {
		t.Fatalf("expected plain errors to map to KindInternal")
	}
}
