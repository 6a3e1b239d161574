package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
)

// AcquireOptions controls a single coordinate acquisition.
type AcquireOptions struct {
	// HighAccuracy requests the most precise reading the platform offers
	HighAccuracy bool

	// Timeout bounds the acquisition; expiry maps to LocationTimedOut
	Timeout time.Duration

	// MaxCacheAge is the oldest acceptable cached reading. The orchestrator
	// always passes zero to force a fresh position.
	MaxCacheAge time.Duration
}

// LocationProvider wraps the platform geolocation capability. It produces a
// single best-effort coordinate or a typed *LocationError; no raw platform
// error crosses this boundary.
type LocationProvider interface {
	Acquire(ctx context.Context, opts AcquireOptions) (*entities.Coordinate, error)
}

// LocationErrorKind is the closed set of coordinate acquisition failures.
type LocationErrorKind string

const (
	// LocationUnsupported means no geolocation capability is available
	LocationUnsupported LocationErrorKind = "UNSUPPORTED"

	// LocationPermissionDenied means the platform refused the request
	LocationPermissionDenied LocationErrorKind = "PERMISSION_DENIED"

	// LocationUnavailable means a position could not be determined
	LocationUnavailable LocationErrorKind = "UNAVAILABLE"

	// LocationTimedOut means the acquisition exceeded its bound
	LocationTimedOut LocationErrorKind = "TIMED_OUT"
)

// LocationError is a typed coordinate acquisition failure.
type LocationError struct {
	Kind    LocationErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("location %s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *LocationError) Unwrap() error {
	return e.Err
}

// NewLocationError creates a typed location error
func NewLocationError(kind LocationErrorKind, message string, err error) *LocationError {
	return &LocationError{Kind: kind, Message: message, Err: err}
}
