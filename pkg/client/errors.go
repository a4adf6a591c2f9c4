package client

import (
	"errors"
	"fmt"
)

// Errors returned by the content fetcher. Match them with errors.Is.
var (
	// ErrTransportFailure is returned when the request did not complete at the network level.
	ErrTransportFailure = errors.New("transport failure")

	// ErrEmptyUpstreamResponse is returned when the origin answered with an empty
	// body. The origin uses empty bodies to signal a refused request; it is never
	// an empty result set.
	ErrEmptyUpstreamResponse = errors.New("empty upstream response")

	// ErrMalformedResponse is returned when the body could not be decompressed or
	// is not valid JSON.
	ErrMalformedResponse = errors.New("malformed response")
)

// FetchError carries the class and context of a failed fetch.
type FetchError struct {
	ErrorClass ErrorClass
	Endpoint   string
	StatusCode int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("tiktok %s error (%s, status %d): %v",
			e.ErrorClass, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tiktok %s error (%s): %v", e.ErrorClass, e.Endpoint, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is maps the error class onto the package sentinels.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrTransportFailure:
		return e.ErrorClass == ErrorClassNetwork
	case ErrEmptyUpstreamResponse:
		return e.ErrorClass == ErrorClassEmpty
	case ErrMalformedResponse:
		return e.ErrorClass == ErrorClassMalformed
	default:
		return false
	}
}
