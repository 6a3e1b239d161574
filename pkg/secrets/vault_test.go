package secrets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyVaultSecrets_Disabled(t *testing.T) {
	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, result.Enabled)
}

func TestApplyVaultSecrets_IncompleteConfig(t *testing.T) {
	_, err := ApplyVaultSecrets(context.Background(), VaultConfig{Enabled: true, Addr: "http://vault"})
	assert.Error(t, err)
}

func TestApplyVaultSecrets_LoadsIntoEnvironment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secret/data/locator", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"MAPS_API_KEY":"from-vault","SEARCH_RADIUS_METERS":7000}}}`))
	}))
	defer server.Close()

	t.Setenv("MAPS_API_KEY", "")
	t.Setenv("SEARCH_RADIUS_METERS", "")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true,
		Addr:    server.URL,
		Token:   "test-token",
		Mount:   "secret",
		Path:    "locator",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	assert.True(t, result.Enabled)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, "from-vault", os.Getenv("MAPS_API_KEY"))
	assert.Equal(t, "7000", os.Getenv("SEARCH_RADIUS_METERS"))
}

func TestApplyVaultSecrets_DoesNotOverwriteByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"MAPS_API_KEY":"from-vault"}}}`))
	}))
	defer server.Close()

	t.Setenv("MAPS_API_KEY", "already-set")

	result, err := ApplyVaultSecrets(context.Background(), VaultConfig{
		Enabled: true,
		Addr:    server.URL,
		Token:   "test-token",
		Mount:   "secret",
		Path:    "locator",
		Timeout: time.Second,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Loaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "already-set", os.Getenv("MAPS_API_KEY"))
}
