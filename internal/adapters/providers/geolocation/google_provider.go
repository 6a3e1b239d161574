package geolocation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

const (
	googleGeolocateURL = "https://www.googleapis.com/geolocation/v1/geolocate"
	defaultHTTPTimeout = 30 * time.Second
)

// GoogleLocationProvider acquires a best-effort coordinate through the Google
// Geolocation API. Every platform failure is converted into a typed
// *providers.LocationError at this boundary.
type GoogleLocationProvider struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewGoogleLocationProvider creates a new Google location provider.
func NewGoogleLocationProvider(apiKey string) providers.LocationProvider {
	return NewGoogleLocationProviderWithOptions(apiKey, googleGeolocateURL, nil)
}

// NewGoogleLocationProviderWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleLocationProviderWithOptions(apiKey, baseURL string, httpClient *http.Client) providers.LocationProvider {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleGeolocateURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &GoogleLocationProvider{
		apiKey:     apiKey,
		httpClient: httpClient,
		baseURL:    baseURL,
	}
}

// Acquire requests a single fresh position reading.
func (g *GoogleLocationProvider) Acquire(ctx context.Context, opts providers.AcquireOptions) (*entities.Coordinate, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return nil, providers.NewLocationError(providers.LocationUnsupported,
			"no geolocation capability is configured", nil)
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(geolocateRequest{ConsiderIP: true})
	if err != nil {
		return nil, providers.NewLocationError(providers.LocationUnavailable,
			"failed to build geolocation request", err)
	}

	params := url.Values{}
	params.Set("key", g.apiKey)
	reqURL := fmt.Sprintf("%s?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, providers.NewLocationError(providers.LocationUnavailable,
			"failed to build geolocation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if opts.MaxCacheAge == 0 {
		// A stale position is worse than a slow one here.
		req.Header.Set("Cache-Control", "no-cache, no-store")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, providers.NewLocationError(providers.LocationTimedOut,
				"position acquisition timed out", err)
		}
		return nil, providers.NewLocationError(providers.LocationUnavailable,
			"geolocation request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, locationErrorFromStatus(resp)
	}

	var payload geolocateResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, providers.NewLocationError(providers.LocationUnavailable,
			"failed to decode geolocation response", err)
	}

	return &entities.Coordinate{
		Latitude:  payload.Location.Lat,
		Longitude: payload.Location.Lng,
	}, nil
}

func locationErrorFromStatus(resp *http.Response) *providers.LocationError {
	var payload geolocateErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	message := payload.Error.Message
	if message == "" {
		message = fmt.Sprintf("geolocation request returned status %d", resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return providers.NewLocationError(providers.LocationPermissionDenied, message, nil)
	case http.StatusNotFound:
		// The API answers 404 when no position could be determined.
		return providers.NewLocationError(providers.LocationUnavailable, message, nil)
	default:
		return providers.NewLocationError(providers.LocationUnavailable, message, nil)
	}
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}

type geolocateRequest struct {
	ConsiderIP bool `json:"considerIp"`
}

type geolocateResponse struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
	Accuracy float64 `json:"accuracy"`
}

type geolocateErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
