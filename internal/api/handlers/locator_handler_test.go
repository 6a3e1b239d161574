package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitricare/emergency-locator/internal/adapters/events"
	"github.com/maitricare/emergency-locator/internal/adapters/providers/geolocation"
	"github.com/maitricare/emergency-locator/internal/adapters/providers/places"
	"github.com/maitricare/emergency-locator/internal/application/services"
	"github.com/maitricare/emergency-locator/internal/domain/entities"
)

func newTestHandler(t *testing.T, credentialConfigured bool) (*LocatorHandler, *services.SearchOrchestrator) {
	t.Helper()

	bus := events.NewLocalEventBus()
	t.Cleanup(func() { _ = bus.Close() })

	orchestrator := services.NewSearchOrchestrator(
		services.OrchestratorConfig{
			CredentialConfigured: credentialConfigured,
			Keyword:              "hospital emergency room",
			RadiusMeters:         5000,
			MaxResults:           10,
			LocationTimeout:      5 * time.Second,
		},
		geolocation.NewMockLocationProvider(),
		places.NewMockMapService(),
		places.NewMockSearcher(),
		bus,
		nil,
	)
	t.Cleanup(orchestrator.Close)

	return NewLocatorHandler(orchestrator), orchestrator
}

func waitForTerminal(t *testing.T, orchestrator *services.SearchOrchestrator) entities.SearchStatus {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		status, _ := orchestrator.Snapshot()
		if status.Terminal() {
			return status
		}
		select {
		case <-deadline:
			t.Fatalf("run did not reach a terminal state, last state %s", status.State)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestLocatorHandler_GetSnapshot_Idle(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/locator", nil)
	w := httptest.NewRecorder()

	handler.GetSnapshot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp snapshotResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, entities.StateIdle, resp.Status.State)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
}

func TestLocatorHandler_Refresh_StartsRun(t *testing.T) {
	handler, orchestrator := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodPost, "/api/locator/refresh", nil)
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Status entities.SearchStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entities.StateLocating, resp.Status.State)

	status := waitForTerminal(t, orchestrator)
	assert.Equal(t, entities.StateSuccess, status.State)

	_, results := orchestrator.Snapshot()
	assert.NotEmpty(t, results)
}

func TestLocatorHandler_Refresh_CredentialGate(t *testing.T) {
	handler, _ := newTestHandler(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/locator/refresh", nil)
	w := httptest.NewRecorder()

	handler.Refresh(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Status entities.SearchStatus `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, entities.StateConfigError, resp.Status.State)
	assert.False(t, resp.Status.Retryable)
}

func TestLocatorHandler_GetDirectionsLink(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/locator/directions/ChIJabc123?name=St+Marys+Hospital", nil)
	req.SetPathValue("id", "ChIJabc123")
	w := httptest.NewRecorder()

	handler.GetDirectionsLink(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ChIJabc123", resp["facility_id"])

	link, err := url.Parse(resp["directions_url"])
	require.NoError(t, err)
	assert.Equal(t, "www.google.com", link.Host)
	assert.Equal(t, "/maps/dir/", link.Path)

	query := link.Query()
	assert.Equal(t, "1", query.Get("api"))
	assert.Equal(t, "St Marys Hospital", query.Get("destination"))
	assert.Equal(t, "ChIJabc123", query.Get("destination_place_id"))
}

func TestLocatorHandler_GetDirectionsLink_DefaultDestination(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/locator/directions/ChIJabc123", nil)
	req.SetPathValue("id", "ChIJabc123")
	w := httptest.NewRecorder()

	handler.GetDirectionsLink(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	link, err := url.Parse(resp["directions_url"])
	require.NoError(t, err)
	assert.Equal(t, "hospital", link.Query().Get("destination"))
}

func TestLocatorHandler_GetDirectionsLink_MalformedID(t *testing.T) {
	handler, _ := newTestHandler(t, true)

	cases := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"embedded space", "ChIJ abc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/locator/directions/x", nil)
			req.SetPathValue("id", tc.id)
			w := httptest.NewRecorder()

			handler.GetDirectionsLink(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
