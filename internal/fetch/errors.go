package fetch

import (
	"fmt"
)

// ExhaustedError is returned when all download attempts for a URL have
// failed. It carries the last underlying cause and the number of
// attempts actually made.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("download of %s exhausted after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// StatusError is an HTTP response with a non-success status code.
// 5xx and 429 responses are transient and retried; other client errors
// are fatal immediately (retrying a 404 fetches the same 404).
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Transient reports whether the status is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
