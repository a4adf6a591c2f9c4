package tiktok

import (
	"errors"
	"fmt"

	"github.com/tikstock/tiktok-go/pkg/signer"
)

// Origin status codes carried in the statusCode field of response bodies.
const (
	StatusOK                = 0
	StatusIllegalIdentifier = 10201
	StatusResourceNotFound  = 10202
	StatusVideoNotFound     = 10204
)

// Errors returned by the facade. Match them with errors.Is.
var (
	// ErrIllegalArgument is returned before any I/O when a required field of an
	// input record is missing.
	ErrIllegalArgument = errors.New("illegal argument")

	// ErrIllegalIdentifier is returned when the origin rejects the identifier format.
	ErrIllegalIdentifier = errors.New("illegal identifier")

	// ErrResourceNotFound is returned when the origin confirms the resource does not exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrSignatureUnavailable is returned when no request signature could be produced.
	ErrSignatureUnavailable = signer.ErrSignatureUnavailable
)

// APIError is an origin status code translated into a facade error.
type APIError struct {
	StatusCode int
	Resource   string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("tiktok %s lookup failed (status %d): %v", e.Resource, e.StatusCode, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the resource does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound)
}

func illegalArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalArgument, fmt.Sprintf(format, args...))
}

// statusError maps statusCode to an error using the codes a lookup recognizes.
// Unrecognized codes are not errors; the payload is mapped as-is.
func statusError(resource string, statusCode int, codes map[int]error) error {
	if sentinel, ok := codes[statusCode]; ok {
		return &APIError{StatusCode: statusCode, Resource: resource, Err: sentinel}
	}
	return nil
}
