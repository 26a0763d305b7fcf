package generator

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError wraps a transport failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("network error: %v", e.Err) }
func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string { return fmt.Sprintf("Error: %d", e.StatusCode) }

// DecodeError is returned when a 2xx body is not a generation result.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("invalid response: %v", e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// Message reduces any generation failure to the single line shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var netErr *NetworkError
	switch {
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.As(err, &netErr):
		return fmt.Sprintf("Could not reach the generation service: %v", netErr.Err)
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return "Something went wrong"
}
