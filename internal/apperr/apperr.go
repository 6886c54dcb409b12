// Package apperr carries the operational error type that separates expected,
// client-facing failures from internal defects.
package apperr

import "fmt"

// Error is a failure that is safe to show verbatim to clients. Anything that
// is not an *Error is treated as an internal defect by the terminal error
// handler.
type Error struct {
	Code    int
	Message string
}

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.Message
}

// Status is the response status class: "fail" for 4xx codes, "error"
// otherwise.
func (e *Error) Status() string {
	return StatusClass(e.Code)
}

func StatusClass(code int) string {
	if code >= 400 && code < 500 {
		return "fail"
	}
	return "error"
}
