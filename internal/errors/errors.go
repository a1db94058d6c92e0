// Package errors provides structured error types for the scrape and
// playback pipeline.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the parser and playback failure modes.
var (
	// ErrTableNotFound means the document has no contribution grid at all.
	ErrTableNotFound = errors.New("contribution table not found")
	// ErrStructureInvalid means the grid exists but its body is missing.
	ErrStructureInvalid = errors.New("contribution table structure invalid")
	// ErrUnexpectedRowCount means the grid body does not have exactly one
	// row per weekday. Any count other than 7 indicates an incompatible
	// page and is never tolerated.
	ErrUnexpectedRowCount = errors.New("unexpected weekday row count")

	// ErrAudioUnavailable means the synth backend could not be brought up.
	ErrAudioUnavailable = errors.New("audio backend unavailable")
	// ErrSamplesNotLoaded means the synth is up but has no voices loaded.
	ErrSamplesNotLoaded = errors.New("audio samples not loaded")

	// ErrInvalidUsername means the username failed boundary validation.
	ErrInvalidUsername = errors.New("invalid username")
)

// Upstream error kinds.
const (
	KindFetch = "fetch" // transport-level failure or non-success status
	KindShape = "shape" // success status but body lacks the calendar marker
)

// UpstreamError is a failed interaction with the contributions page.
type UpstreamError struct {
	Kind       string
	StatusCode int
	URL        string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream %s error (status %d) for %s: %v", e.Kind, e.StatusCode, e.URL, e.Err)
	}
	return fmt.Sprintf("upstream %s error (status %d) for %s", e.Kind, e.StatusCode, e.URL)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// NewFetchError reports a transport failure or non-success response.
func NewFetchError(url string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{Kind: KindFetch, StatusCode: statusCode, URL: url, Err: err}
}

// NewShapeError reports a success response whose body lacks the expected
// calendar marker.
func NewShapeError(url string) *UpstreamError {
	return &UpstreamError{Kind: KindShape, StatusCode: 200, URL: url}
}

// IsShape reports whether err is an upstream shape error.
func IsShape(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Kind == KindShape
}

// IsRetryable returns true if the error is likely transient and worth
// retrying. Shape and parse errors are never retryable: the page is wrong,
// not slow.
func IsRetryable(err error) bool {
	var ue *UpstreamError
	if errors.As(err, &ue) && ue.Kind == KindFetch {
		switch ue.StatusCode {
		case 0, 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}
