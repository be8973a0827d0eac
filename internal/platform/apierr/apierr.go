package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/promptgen-backend/internal/domain/dialogue"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps err onto an HTTP status and public code. Errors without a dialogue
// code are treated as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	code := dialogue.CodeOf(err)
	return New(StatusFor(code, err), publicCode(code), err)
}

func StatusFor(code dialogue.ErrorCode, err error) int {
	switch code {
	case dialogue.CodeValidation, dialogue.CodeLimitReached:
		return http.StatusBadRequest
	case dialogue.CodeNotFound:
		return http.StatusNotFound
	case dialogue.CodeConflict:
		return http.StatusConflict
	case dialogue.CodeGenerationFailure:
		if errors.Is(err, dialogue.ErrTimeout) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func publicCode(code dialogue.ErrorCode) string {
	if code == "" {
		return "internal"
	}
	return string(code)
}
