package model

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by stores when a source, posting or proposal does not exist.
	ErrNotFound = errors.New("not found")
	// ErrMissingTarget is returned by enrichment when neither a person nor an organization was given.
	ErrMissingTarget = errors.New("client name or company is required")
	// ErrInvalidInput covers caller mistakes such as an empty link or an unknown outreach kind.
	ErrInvalidInput = errors.New("invalid input")
)

// HTTPError wraps an HTTP status code so retry logic can inspect it.
type HTTPError struct {
	StatusCode int
	RetryAfter time.Duration // from Retry-After header, zero if absent
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
