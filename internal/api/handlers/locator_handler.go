package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/maitricare/emergency-locator/internal/application/services"
	"github.com/maitricare/emergency-locator/internal/domain/entities"
	apperrors "github.com/maitricare/emergency-locator/pkg/errors"
)

const directionsBaseURL = "https://www.google.com/maps/dir/"

// LocatorHandler exposes the presenter contract over HTTP: a status/results
// snapshot, refresh as the sole mutating operation, and the directions
// deep-link for a facility.
type LocatorHandler struct {
	orchestrator *services.SearchOrchestrator
}

// NewLocatorHandler creates a new locator handler.
func NewLocatorHandler(orchestrator *services.SearchOrchestrator) *LocatorHandler {
	return &LocatorHandler{orchestrator: orchestrator}
}

type snapshotResponse struct {
	Status  entities.SearchStatus      `json:"status"`
	Results []*entities.FacilityRecord `json:"results"`
}

// GetSnapshot handles GET /api/locator
func (h *LocatorHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	status, results := h.orchestrator.Snapshot()
	if results == nil {
		results = []*entities.FacilityRecord{}
	}
	respondWithJSON(w, http.StatusOK, snapshotResponse{Status: status, Results: results})
}

// Refresh handles POST /api/locator/refresh. It starts a new run and returns
// the immediately observable status; callers follow the run on the stream or
// by polling the snapshot.
func (h *LocatorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	status := h.orchestrator.Refresh()
	respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": status,
	})
}

// GetDirectionsLink handles GET /api/locator/directions/{id}. The link is
// informational only; it is handed to the host platform, never fetched or
// validated here.
func (h *LocatorHandler) GetDirectionsLink(w http.ResponseWriter, r *http.Request) {
	facilityID := strings.TrimSpace(r.PathValue("id"))
	if facilityID == "" {
		respondWithAppError(w, apperrors.NewValidationError("facility id is required"))
		return
	}
	if strings.ContainsAny(facilityID, " \t\n") {
		respondWithAppError(w, apperrors.NewValidationError("facility id is malformed"))
		return
	}

	destination := strings.TrimSpace(r.URL.Query().Get("name"))
	if destination == "" {
		destination = "hospital"
	}

	params := url.Values{}
	params.Set("api", "1")
	params.Set("destination", destination)
	params.Set("destination_place_id", facilityID)

	respondWithJSON(w, http.StatusOK, map[string]string{
		"facility_id":    facilityID,
		"directions_url": fmt.Sprintf("%s?%s", directionsBaseURL, params.Encode()),
	})
}
