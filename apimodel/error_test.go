package apimodel

import (
	"fmt"
	"net/http"
	"testing"
)

func TestStatusCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidState, http.StatusServiceUnavailable},
		{ErrHardware, http.StatusInternalServerError},
		{fmt.Errorf("emotion %q: %w", "zzz", ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("device %q: %w", "panel", ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", ErrInvalidState), http.StatusServiceUnavailable},
		{fmt.Errorf("plain error"), http.StatusInternalServerError},
	}

	for _, test := range tests {
		if got := StatusCodeOf(test.err); got != test.want {
			t.Errorf("StatusCodeOf(%v) = %d, want %d", test.err, got, test.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	e := &ErrorMessage{ErrStatusCode: 400, ErrMessage: "bad"}
	if got := e.Error(); got != "400:bad" {
		t.Errorf("Error() = %q, want %q", got, "400:bad")
	}

	e = &ErrorMessage{ErrStatusCode: 500}
	if got := e.Error(); got != "500" {
		t.Errorf("Error() = %q, want %q", got, "500")
	}
}
