package vatsim

import (
	"errors"
	"fmt"
)

// ErrEmptyPool is returned when a mirror pool has no entries to choose from.
var ErrEmptyPool = errors.New("vatsim: empty mirror pool")

// UpstreamUnavailableError is returned when the status directory answers
// with anything other than HTTP 200.
type UpstreamUnavailableError struct {
	StatusCode int
}

func (e *UpstreamUnavailableError) Error() string {
	return fmt.Sprintf("vatsim: status directory returned HTTP %d", e.StatusCode)
}

// FetchFailedError is returned when a feed or REST resource answers with
// HTTP 400 or above.
type FetchFailedError struct {
	URL        string
	StatusCode int
}

func (e *FetchFailedError) Error() string {
	return fmt.Sprintf("vatsim: got status code %d from %s", e.StatusCode, e.URL)
}

// MalformedResponseError is returned when a response body does not decode
// into the expected shape.
type MalformedResponseError struct {
	URL string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("vatsim: malformed response from %s: %v", e.URL, e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// IsUpstreamUnavailable checks if an error is an UpstreamUnavailableError.
func IsUpstreamUnavailable(err error) (*UpstreamUnavailableError, bool) {
	var ue *UpstreamUnavailableError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// IsFetchFailed checks if an error is a FetchFailedError.
func IsFetchFailed(err error) (*FetchFailedError, bool) {
	var fe *FetchFailedError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsMalformedResponse checks if an error is a MalformedResponseError.
func IsMalformedResponse(err error) (*MalformedResponseError, bool) {
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return me, true
	}
	return nil, false
}
