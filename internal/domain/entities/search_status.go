package entities

import "time"

// SearchState identifies a stage in the locator state machine.
type SearchState string

const (
	// StateIdle is the initial state before any run has started
	StateIdle SearchState = "IDLE"

	// StateLocating means a fresh coordinate is being acquired
	StateLocating SearchState = "LOCATING"

	// StateLoadingMapService means the place search capability is initializing
	StateLoadingMapService SearchState = "LOADING_MAP_SERVICE"

	// StateSearching means a location-biased search is in flight
	StateSearching SearchState = "SEARCHING"

	// StateSuccess means at least one valid facility was found
	StateSuccess SearchState = "SUCCESS"

	// StateNoResults means the search completed with zero valid facilities.
	// It is a valid outcome, not an error.
	StateNoResults SearchState = "NO_RESULTS"

	// StateLocationError means coordinate acquisition failed
	StateLocationError SearchState = "LOCATION_ERROR"

	// StateMapServiceError means the place search capability failed to initialize
	StateMapServiceError SearchState = "MAP_SERVICE_ERROR"

	// StateSearchError means the place search itself failed
	StateSearchError SearchState = "SEARCH_ERROR"

	// StateConfigError means no API credential is configured
	StateConfigError SearchState = "CONFIG_ERROR"
)

// SearchStatus is the externally visible state of one locator run. It is the
// single source of truth for what a presenter renders and is replaced
// atomically on every transition. Token identifies the run that produced it.
type SearchStatus struct {
	State     SearchState `json:"state"`
	ErrorKind string      `json:"error_kind,omitempty"`
	Message   string      `json:"message,omitempty"`
	Guidance  string      `json:"guidance,omitempty"`
	Retryable bool        `json:"retryable"`
	Token     uint64      `json:"-"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Terminal reports whether the state machine has stopped for this run.
// Terminal statuses only change again through an explicit refresh.
func (s SearchStatus) Terminal() bool {
	switch s.State {
	case StateSuccess, StateNoResults, StateLocationError,
		StateMapServiceError, StateSearchError, StateConfigError:
		return true
	}
	return false
}

// Failed reports whether the status is a terminal error. NoResults is
// terminal but not failed.
func (s SearchStatus) Failed() bool {
	switch s.State {
	case StateLocationError, StateMapServiceError, StateSearchError, StateConfigError:
		return true
	}
	return false
}
