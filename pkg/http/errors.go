package http

import (
	"fmt"
	"net/http"
	"strconv"
)

// AppError is an error the API reports to its caller as-is. Status picks the
// HTTP status; Err stays server-side.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// WithError attaches the cause for logs and errors.Is.
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func newAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

func NotFoundErrorf(format string, a ...interface{}) *AppError {
	return newAppError("ERR_NOT_FOUND", fmt.Sprintf(format, a...), http.StatusNotFound)
}

func BadRequestError(message string) *AppError {
	return newAppError("ERR_BAD_REQUEST", message, http.StatusBadRequest)
}

// BadGatewayError reports a failure of the StockWatch backend itself.
func BadGatewayError(message string) *AppError {
	return newAppError("ERR_UPSTREAM", message, http.StatusBadGateway)
}

// UpstreamError maps a failed backend call. Backend 4xx statuses are passed
// through with their message; anything else, including status 0 for calls
// that never got an answer, becomes 502.
func UpstreamError(status int, message string) *AppError {
	if status >= 400 && status < 500 {
		return newAppError("ERR_UPSTREAM_"+strconv.Itoa(status), message, status)
	}
	return BadGatewayError(message)
}
