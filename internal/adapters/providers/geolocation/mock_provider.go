package geolocation

import (
	"context"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

// MockLocationProvider implements a mock location provider for local
// development without a Maps Platform credential.
type MockLocationProvider struct {
	Coordinate entities.Coordinate
}

// NewMockLocationProvider creates a mock provider anchored in Lagos
func NewMockLocationProvider() providers.LocationProvider {
	return &MockLocationProvider{
		Coordinate: entities.Coordinate{Latitude: 6.5244, Longitude: 3.3792},
	}
}

// Acquire returns the fixed mock coordinate
func (m *MockLocationProvider) Acquire(ctx context.Context, opts providers.AcquireOptions) (*entities.Coordinate, error) {
	coord := m.Coordinate
	return &coord, nil
}
