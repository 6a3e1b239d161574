package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_MapsConfig(t *testing.T) {
	// Setup environment variables
	os.Setenv("MAPS_API_KEY", "test-key")
	os.Setenv("MAPS_PLACES_ENDPOINT", "http://test-places:9090/v1/places:searchText")
	defer func() {
		os.Unsetenv("MAPS_API_KEY")
		os.Unsetenv("MAPS_PLACES_ENDPOINT")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Maps.APIKey)
	assert.Equal(t, "http://test-places:9090/v1/places:searchText", cfg.Maps.PlacesEndpoint)
}

func TestLoad_Defaults(t *testing.T) {
	// Ensure env vars are cleared
	os.Unsetenv("MAPS_API_KEY")
	os.Unsetenv("SEARCH_KEYWORD")
	os.Unsetenv("SEARCH_RADIUS_METERS")

	cfg, err := Load()
	assert.NoError(t, err)

	// Verify defaults
	assert.Equal(t, "", cfg.Maps.APIKey)
	assert.Equal(t, "hospital emergency room maternity", cfg.Search.Keyword)
	assert.Equal(t, 5000, cfg.Search.RadiusMeters)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Equal(t, 20, cfg.Search.LocationTimeoutSecs)
	assert.Equal(t, 15, cfg.Search.MapServiceTimeoutSecs)
}

func TestLoad_SearchOverrides(t *testing.T) {
	os.Setenv("SEARCH_RADIUS_METERS", "12000")
	os.Setenv("SEARCH_MAX_RESULTS", "5")
	defer func() {
		os.Unsetenv("SEARCH_RADIUS_METERS")
		os.Unsetenv("SEARCH_MAX_RESULTS")
	}()

	cfg, err := Load()
	assert.NoError(t, err)

	assert.Equal(t, 12000, cfg.Search.RadiusMeters)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}
