package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	xhttp "StockWatch/pkg/http"
)

// ErrInvalidRequest marks requests rejected before anything was sent.
var ErrInvalidRequest = errors.New("invalid request")

// Error is the single error type returned by Client. Message is what a view
// shows: the backend's own message, the status line, or the network error.
type Error struct {
	// Status is the HTTP status, 0 when no response was received.
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// NotFound reports whether the backend answered 404.
func (e *Error) NotFound() bool { return e.Status == 404 }

func toError(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var se *xhttp.StatusError
	if errors.As(err, &se) {
		return &Error{Status: se.StatusCode, Message: statusMessage(se), Err: err}
	}

	// transport failure: report the underlying error, not the url.Error wrapper
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return &Error{Message: ue.Err.Error(), Err: ue.Err}
	}
	return &Error{Message: err.Error(), Err: err}
}

func statusMessage(se *xhttp.StatusError) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(se.Body, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return fmt.Sprintf("HTTP %d: %s", se.StatusCode, se.StatusText())
}

func invalid(msg string) *Error {
	return &Error{Message: msg, Err: ErrInvalidRequest}
}
