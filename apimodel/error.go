package apimodel

import (
	"encoding/json"
	"errors"
	"github.com/sirupsen/logrus"
	"net/http"
	"strconv"
)

// Failure categories shared by the display controller, the devices and the
// control surfaces. Callers test with errors.Is.
var (
	// ErrInvalidState reports an operation invoked outside the component's
	// valid lifetime window (before Init, after Close, double Init).
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidArgument reports a value outside a recognized enumerated set.
	// The operation has not mutated any state.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound reports a required named device or config missing from the
	// board registry.
	ErrNotFound = errors.New("not found")

	// ErrHardware reports a failed bring-up primitive.
	ErrHardware = errors.New("hardware failure")
)

// StatusCodeOf maps a failure category to the HTTP status the control API
// answers with.
func StatusCodeOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ErrorMessage struct {
	ErrStatusCode int    `json:"status_code"`
	ErrMessage    string `json:"message"`
}

func (e *ErrorMessage) StatusCode() int {
	return e.ErrStatusCode
}

func (e *ErrorMessage) Error() string {
	if e.ErrMessage != "" {
		return strconv.Itoa(e.ErrStatusCode) + ":" + e.ErrMessage
	} else {
		return strconv.Itoa(e.ErrStatusCode)
	}
}

func (v ErrorMessage) SendError(w http.ResponseWriter) {
	message := v.ErrMessage
	if message == "" {
		switch v.ErrStatusCode {
		case http.StatusNotFound:
			message = "Page not found"
		case http.StatusForbidden:
			message = "Forbidden"
		case http.StatusServiceUnavailable:
			message = "Service unavailable"
		case http.StatusBadRequest:
			message = "Bad request"
		default:
			message = "Internal error"
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(v.ErrStatusCode)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		logrus.Panicf("error when encoding error: %v", err)
	}
}
