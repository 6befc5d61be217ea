package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrPayloadTooLarge marks a request the provider rejected for its size.
// Callers can shrink the input and try again.
var ErrPayloadTooLarge = errors.New("payload too large")

// StatusError is a non-2xx response from the completion provider.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider status %d: %s", e.StatusCode, truncate(e.Message, 200))
}

// Is lets errors.Is(err, ErrPayloadTooLarge) match a 413 response.
func (e *StatusError) Is(target error) bool {
	return target == ErrPayloadTooLarge && e.StatusCode == http.StatusRequestEntityTooLarge
}

// StatusCode returns the provider HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// IsPayloadTooLarge reports whether err means the input was too big.
func IsPayloadTooLarge(err error) bool {
	return errors.Is(err, ErrPayloadTooLarge)
}

// IsRateLimited reports whether the provider throttled the request.
func IsRateLimited(err error) bool {
	return StatusCode(err) == http.StatusTooManyRequests
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
