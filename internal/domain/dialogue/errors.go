package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorCode classifies dialogue failures independently of the transport.
type ErrorCode string

const (
	CodeLimitReached      ErrorCode = "limit_reached"
	CodeGenerationFailure ErrorCode = "generation_failure"
	CodeNotFound          ErrorCode = "not_found"
	CodeStoreFailure      ErrorCode = "store_failure"
	CodeValidation        ErrorCode = "validation"
	CodeConflict          ErrorCode = "conflict"
)

// Causes attached to a generation_failure.
var (
	ErrTimeout         = errors.New("generator timed out")
	ErrMalformedOutput = errors.New("generator returned malformed output")
	ErrRefused         = errors.New("generator refused the request")
	ErrUpstream        = errors.New("generator upstream failure")
)

// Error is the canonical dialogue error wrapper.
type Error struct {
	Code    ErrorCode
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Code)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Code)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Code)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

func NewError(code ErrorCode, op, message string, cause error) error {
	return &Error{
		Code:    code,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

// Wrap annotates err with a code. Errors that already carry a code are returned as-is.
func Wrap(code ErrorCode, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return NewError(code, op, err.Error(), err)
}

func IsCode(err error, code ErrorCode) bool {
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

func CodeOf(err error) ErrorCode {
	var de *Error
	if !errors.As(err, &de) {
		return ""
	}
	return de.Code
}

// Message returns the human-readable part of err without the op prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) && strings.TrimSpace(de.Message) != "" {
		return de.Message
	}
	return err.Error()
}

func LimitReached(op string, answered, total int) error {
	return NewError(CodeLimitReached, op, "Question limit reached",
		fmt.Errorf("answered=%d total=%d", answered, total))
}

func NotFound(op, id string) error {
	return NewError(CodeNotFound, op, "Save file not found", fmt.Errorf("id=%s", id))
}

func StoreFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != "" {
		return err
	}
	return NewError(CodeStoreFailure, op, err.Error(), err)
}

func Validation(op, message string) error {
	return NewError(CodeValidation, op, message, nil)
}

func Conflict(op, message string) error {
	return NewError(CodeConflict, op, message, nil)
}

// GenerationFailure wraps a generator error, attaching one of the cause sentinels
// so callers can test errors.Is(err, ErrTimeout) and friends.
func GenerationFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsCode(err, CodeGenerationFailure) {
		return err
	}
	cause := classifyGeneration(err)
	return NewError(CodeGenerationFailure, op, err.Error(), &causeError{kind: cause, err: err})
}

func classifyGeneration(err error) error {
	switch {
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, ErrMalformedOutput):
		return ErrMalformedOutput
	case errors.Is(err, ErrRefused):
		return ErrRefused
	case errors.Is(err, ErrUpstream):
		return ErrUpstream
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	var se *json.SyntaxError
	var te *json.UnmarshalTypeError
	if errors.As(err, &se) || errors.As(err, &te) {
		return ErrMalformedOutput
	}
	return ErrUpstream
}

// causeError carries both the classified sentinel and the original error.
type causeError struct {
	kind error
	err  error
}

func (c *causeError) Error() string { return c.err.Error() }

func (c *causeError) Unwrap() []error { return []error{c.kind, c.err} }
