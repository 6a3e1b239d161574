package providers

import (
	"context"
	"fmt"
)

// MapService guards the third-party place search capability. There is a
// single owning instance per process; the capability is initialized at most
// once per session.
type MapService interface {
	// IsReady reports whether the capability has been confirmed usable.
	// It performs no network action.
	IsReady() bool

	// EnsureReady initializes the capability if needed. Idempotent: once the
	// capability is confirmed, subsequent calls return immediately without
	// any network action. Concurrent callers share a single in-flight
	// initialization, bounded by a fallback timeout. Failures are a typed
	// *MapServiceError, or *ConfigError when no credential is configured.
	EnsureReady(ctx context.Context) error
}

// MapServiceErrorKind is the closed set of capability initialization failures.
type MapServiceErrorKind string

const (
	// MapServiceScriptLoadFailed means the provider could not be reached;
	// usually a network or connectivity problem
	MapServiceScriptLoadFailed MapServiceErrorKind = "SCRIPT_LOAD_FAILED"

	// MapServiceInitTimeout means an in-flight initialization never
	// completed within the fallback bound
	MapServiceInitTimeout MapServiceErrorKind = "INITIALIZATION_TIMEOUT"

	// MapServiceCapabilityMissing means the provider answered but the text
	// search capability was absent; usually a credential or API-enablement
	// problem rather than a transient one
	MapServiceCapabilityMissing MapServiceErrorKind = "CAPABILITY_MISSING"
)

// MapServiceError is a typed capability initialization failure.
type MapServiceError struct {
	Kind    MapServiceErrorKind
	Message string
	Err     error
}

// Error implements the error interface
func (e *MapServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("map service %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("map service %s: %s", e.Kind, e.Message)
}

// Unwrap implements the unwrap interface
func (e *MapServiceError) Unwrap() error {
	return e.Err
}

// NewMapServiceError creates a typed map service error
func NewMapServiceError(kind MapServiceErrorKind, message string, err error) *MapServiceError {
	return &MapServiceError{Kind: kind, Message: message, Err: err}
}

// ConfigError reports a missing or invalid API credential. It is not
// retryable by the user; an operator has to fix the deployment.
type ConfigError struct {
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// NewConfigError creates a configuration error
func NewConfigError(message string) *ConfigError {
	return &ConfigError{Message: message}
}
