package places

import (
	"context"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

// MockMapService is always ready. Used in local development.
type MockMapService struct{}

// NewMockMapService creates a mock map service
func NewMockMapService() *MockMapService {
	return &MockMapService{}
}

// IsReady always reports ready
func (m *MockMapService) IsReady() bool { return true }

// EnsureReady always succeeds
func (m *MockMapService) EnsureReady(ctx context.Context) error { return nil }

// MockSearcher returns canned facilities around the request center. Used in
// local development without a Maps Platform credential.
type MockSearcher struct{}

// NewMockSearcher creates a mock place searcher
func NewMockSearcher() providers.PlaceSearcher {
	return &MockSearcher{}
}

// Search returns two fixed facilities offset from the request center
func (m *MockSearcher) Search(ctx context.Context, req providers.SearchRequest) ([]*entities.FacilityRecord, error) {
	rating := 4.3
	ratingCount := 120
	openNow := true

	records := []*entities.FacilityRecord{
		{
			ID:      "mock-general-hospital",
			Name:    "General Hospital",
			Address: "123 Healthcare Blvd",
			Coordinate: &entities.Coordinate{
				Latitude:  req.Center.Latitude + 0.01,
				Longitude: req.Center.Longitude + 0.01,
			},
			Rating:            &rating,
			RatingCount:       &ratingCount,
			OpenNow:           &openNow,
			OperationalStatus: entities.OperationalStatusOperational,
			Phone:             "+234 800 000 0001",
		},
		{
			ID:      "mock-maternity-clinic",
			Name:    "Sunrise Maternity Clinic",
			Address: "45 Wellness Road",
			Coordinate: &entities.Coordinate{
				Latitude:  req.Center.Latitude - 0.008,
				Longitude: req.Center.Longitude + 0.004,
			},
			OperationalStatus: entities.OperationalStatusOperational,
		},
	}

	if req.MaxResults > 0 && req.MaxResults < len(records) {
		records = records[:req.MaxResults]
	}
	return records, nil
}
