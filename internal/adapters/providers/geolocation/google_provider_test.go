package geolocation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

func TestGoogleLocationProvider_Acquire_Success(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Contains(t, r.Header.Get("Cache-Control"), "no-cache")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"location":{"lat":6.5244,"lng":3.3792},"accuracy":20.5}`))
	}))
	defer server.Close()

	provider := NewGoogleLocationProviderWithOptions("test-key", server.URL, nil)

	coord, err := provider.Acquire(context.Background(), providers.AcquireOptions{
		HighAccuracy: true,
		Timeout:      5 * time.Second,
		MaxCacheAge:  0,
	})

	require.NoError(t, err)
	assert.Equal(t, 6.5244, coord.Latitude)
	assert.Equal(t, 3.3792, coord.Longitude)
	assert.Equal(t, true, gotBody["considerIp"])
}

func TestGoogleLocationProvider_Acquire_NoCredential(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	provider := NewGoogleLocationProviderWithOptions("", server.URL, nil)

	_, err := provider.Acquire(context.Background(), providers.AcquireOptions{})

	var locErr *providers.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, providers.LocationUnsupported, locErr.Kind)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestGoogleLocationProvider_Acquire_PermissionDenied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":{"code":403,"message":"The provided API key is not authorized"}}`))
	}))
	defer server.Close()

	provider := NewGoogleLocationProviderWithOptions("test-key", server.URL, nil)

	_, err := provider.Acquire(context.Background(), providers.AcquireOptions{})

	var locErr *providers.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, providers.LocationPermissionDenied, locErr.Kind)
	assert.Contains(t, locErr.Message, "not authorized")
}

func TestGoogleLocationProvider_Acquire_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
	}))
	defer server.Close()

	provider := NewGoogleLocationProviderWithOptions("test-key", server.URL, nil)

	_, err := provider.Acquire(context.Background(), providers.AcquireOptions{})

	var locErr *providers.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, providers.LocationUnavailable, locErr.Kind)
}

func TestGoogleLocationProvider_Acquire_TimedOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	provider := NewGoogleLocationProviderWithOptions("test-key", server.URL, nil)

	_, err := provider.Acquire(context.Background(), providers.AcquireOptions{
		Timeout: 50 * time.Millisecond,
	})

	var locErr *providers.LocationError
	require.True(t, errors.As(err, &locErr))
	assert.Equal(t, providers.LocationTimedOut, locErr.Kind)
}
