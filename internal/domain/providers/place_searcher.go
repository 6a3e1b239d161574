package providers

import (
	"context"
	"fmt"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
)

// SearchRequest describes one location-biased text search. The bias favors
// results near Center within RadiusMeters without strictly excluding others.
type SearchRequest struct {
	Center       entities.Coordinate
	Keyword      string
	RadiusMeters int
	MaxResults   int
}

// PlaceSearcher issues a location-biased keyword search against the place
// provider and normalizes its results into facility records. An empty result
// set is returned as (nil, nil); it is not an error. Failures are a typed
// *SearchError.
type PlaceSearcher interface {
	Search(ctx context.Context, req SearchRequest) ([]*entities.FacilityRecord, error)
}

// SearchErrorKind is the closed set of place search failures.
type SearchErrorKind string

const (
	// SearchQuotaExceeded means the provider's usage quota was exhausted
	SearchQuotaExceeded SearchErrorKind = "QUOTA_EXCEEDED"

	// SearchRequestDenied means the credential was rejected or restricted
	SearchRequestDenied SearchErrorKind = "REQUEST_DENIED"

	// SearchInvalidRequest means the provider rejected the request shape
	SearchInvalidRequest SearchErrorKind = "INVALID_REQUEST"

	// SearchNetworkError means the provider could not be reached
	SearchNetworkError SearchErrorKind = "NETWORK_ERROR"

	// SearchUnknown covers everything the provider did not classify
	SearchUnknown SearchErrorKind = "UNKNOWN"
)

// SearchError is a typed place search failure.
type SearchError struct {
	Kind    SearchErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *SearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("place search %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("place search %s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewSearchError creates a typed search error
func NewSearchError(kind SearchErrorKind, message string, err error) *SearchError {
	return &SearchError{Kind: kind, Message: message, Err: err}
}
