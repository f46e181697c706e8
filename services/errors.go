package services

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the resolver services. Storage failures that are
// not one of these are transient and propagate wrapped so the HTTP layer can
// decide whether the client should retry.
var (
	// ErrNotFound signals an unknown user or task id.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument signals a malformed coordinate or missing required field.
	ErrInvalidArgument = errors.New("invalid argument")
)

// OutOfRangeError is returned when a manual visit completion is attempted
// outside the allowed radius. It carries the computed distance for
// user-facing messaging.
type OutOfRangeError struct {
	DistanceMeters float64
	RadiusMeters   float64
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("out of range: %.1fm away, allowed within %.1fm", e.DistanceMeters, e.RadiusMeters)
}

func invalidArgument(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
