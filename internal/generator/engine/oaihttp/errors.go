package oaihttp

import (
	"errors"
	"fmt"
	"net/http"
)

var ErrEmptyCompletion = errors.New("empty upstream completion")

type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "upstream http error"
	}
	if e.Body == "" {
		return fmt.Sprintf("upstream http error: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("upstream http error: status=%d body=%s", e.StatusCode, e.Body)
}

// Retryable reports whether another attempt may succeed.
func (e *HTTPError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Timeout lets callers treat a gateway timeout like a local deadline.
func (e *HTTPError) Timeout() bool {
	return e != nil && e.StatusCode == http.StatusGatewayTimeout
}

// RefusalError is returned when the model declines to answer.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	return "upstream refused: " + e.Reason
}
