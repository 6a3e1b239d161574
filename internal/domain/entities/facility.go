package entities

// Coordinate represents geographical coordinates acquired for a user.
// It is immutable once produced by the location provider.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OperationalStatus describes whether a facility is currently operating.
type OperationalStatus string

const (
	// OperationalStatusOperational indicates the facility is open for business
	OperationalStatusOperational OperationalStatus = "OPERATIONAL"

	// OperationalStatusClosedTemporarily indicates a temporary closure
	OperationalStatusClosedTemporarily OperationalStatus = "CLOSED_TEMPORARILY"

	// OperationalStatusClosedPermanently indicates a permanent closure
	OperationalStatusClosedPermanently OperationalStatus = "CLOSED_PERMANENTLY"

	// OperationalStatusUnknown indicates the provider reported no status
	OperationalStatusUnknown OperationalStatus = "UNKNOWN"
)

// FacilityRecord is a normalized medical facility returned by a place search.
// ID is the only field callers may treat as a stable key; every other field is
// best-effort and may be absent. Records live only for the search invocation
// that produced them.
type FacilityRecord struct {
	ID                string            `json:"id"`
	Name              string            `json:"name,omitempty"`
	Address           string            `json:"address,omitempty"`
	Coordinate        *Coordinate       `json:"coordinate,omitempty"`
	Rating            *float64          `json:"rating,omitempty"`
	RatingCount       *int              `json:"rating_count,omitempty"`
	OpenNow           *bool             `json:"open_now,omitempty"`
	OperationalStatus OperationalStatus `json:"operational_status"`
	Phone             string            `json:"phone,omitempty"`
	Website           string            `json:"website,omitempty"`
}
