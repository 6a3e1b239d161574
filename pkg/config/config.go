package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	Maps   MapsConfig
	Search SearchConfig
	OTEL   OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// MapsConfig holds map platform configuration. APIKey is the single
// credential the whole locator chain is gated on.
type MapsConfig struct {
	Provider            string
	APIKey              string
	GeolocationEndpoint string
	PlacesEndpoint      string
	DiscoveryEndpoint   string
	RequestsPerSecond   int
}

// SearchConfig holds facility search tuning
type SearchConfig struct {
	Keyword               string
	RadiusMeters          int
	MaxResults            int
	LocationTimeoutSecs   int
	MapServiceTimeoutSecs int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Maps: MapsConfig{
			Provider:            getEnv("MAPS_PROVIDER", "google"),
			APIKey:              getEnv("MAPS_API_KEY", ""),
			GeolocationEndpoint: getEnv("MAPS_GEOLOCATION_ENDPOINT", "https://www.googleapis.com/geolocation/v1/geolocate"),
			PlacesEndpoint:      getEnv("MAPS_PLACES_ENDPOINT", "https://places.googleapis.com/v1/places:searchText"),
			DiscoveryEndpoint:   getEnv("MAPS_DISCOVERY_ENDPOINT", "https://places.googleapis.com/$discovery/rest?version=v1"),
			RequestsPerSecond:   getEnvAsInt("MAPS_REQUESTS_PER_SECOND", 5),
		},
		Search: SearchConfig{
			Keyword:               getEnv("SEARCH_KEYWORD", "hospital emergency room maternity"),
			RadiusMeters:          getEnvAsInt("SEARCH_RADIUS_METERS", 5000),
			MaxResults:            getEnvAsInt("SEARCH_MAX_RESULTS", 10),
			LocationTimeoutSecs:   getEnvAsInt("SEARCH_LOCATION_TIMEOUT_SECONDS", 20),
			MapServiceTimeoutSecs: getEnvAsInt("SEARCH_MAP_SERVICE_TIMEOUT_SECONDS", 15),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "emergency-locator"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LocationTimeout returns the coordinate acquisition bound
func (c *SearchConfig) LocationTimeout() time.Duration {
	return time.Duration(c.LocationTimeoutSecs) * time.Second
}

// MapServiceTimeout returns the capability initialization fallback bound
func (c *SearchConfig) MapServiceTimeout() time.Duration {
	return time.Duration(c.MapServiceTimeoutSecs) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
