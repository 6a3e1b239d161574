package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

const (
	googleSearchTextURL = "https://places.googleapis.com/v1/places:searchText"
	searchHTTPTimeout   = 10 * time.Second

	// providerMaxResults is the hard cap the provider accepts per request
	providerMaxResults = 20
)

// searchFieldMask lists exactly the fields the facility record needs; the
// provider bills by field, so nothing else is requested.
const searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.rating,places.userRatingCount,places.currentOpeningHours.openNow," +
	"places.businessStatus,places.types,places.nationalPhoneNumber,places.websiteUri"

// relevantTypes is the allow-list a result's category tags must intersect.
// Free-text search surfaces loosely matched venues (pharmacies, spas); only
// actual care providers get through.
var relevantTypes = map[string]struct{}{
	"hospital":       {},
	"clinic":         {},
	"medical_clinic": {},
	"doctor":         {},
	"health":         {},
}

// GoogleSearcher issues location-biased text searches against the Places API
// and normalizes provider places into facility records. Requests are paced by
// a client-side rate limiter since the API is metered.
type GoogleSearcher struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewGoogleSearcher creates a new Places text search client.
func NewGoogleSearcher(apiKey string, requestsPerSecond int) providers.PlaceSearcher {
	return NewGoogleSearcherWithOptions(apiKey, googleSearchTextURL, nil, requestsPerSecond)
}

// NewGoogleSearcherWithOptions allows overriding base URL and HTTP client (used for tests).
func NewGoogleSearcherWithOptions(apiKey, baseURL string, httpClient *http.Client, requestsPerSecond int) providers.PlaceSearcher {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = googleSearchTextURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: searchHTTPTimeout}
	}
	if requestsPerSecond <= 0 {
		requestsPerSecond = 5
	}
	return &GoogleSearcher{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Search runs one location-biased text search. An empty outcome is
// (nil, nil); callers decide what zero results means.
func (s *GoogleSearcher) Search(ctx context.Context, req providers.SearchRequest) ([]*entities.FacilityRecord, error) {
	if strings.TrimSpace(s.apiKey) == "" {
		return nil, providers.NewSearchError(providers.SearchRequestDenied,
			"maps api key is not configured", nil)
	}
	if strings.TrimSpace(req.Keyword) == "" {
		return nil, providers.NewSearchError(providers.SearchInvalidRequest,
			"search keyword is required", nil)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, providers.NewSearchError(providers.SearchNetworkError,
			"rate limiter wait aborted", err)
	}

	maxResults := req.MaxResults
	if maxResults <= 0 || maxResults > providerMaxResults {
		maxResults = providerMaxResults
	}

	body := searchTextRequest{
		TextQuery:      req.Keyword,
		MaxResultCount: maxResults,
	}
	body.LocationBias.Circle.Center.Latitude = req.Center.Latitude
	body.LocationBias.Circle.Center.Longitude = req.Center.Longitude
	body.LocationBias.Circle.Radius = float64(req.RadiusMeters)

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, providers.NewSearchError(providers.SearchUnknown,
			"failed to build search request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, providers.NewSearchError(providers.SearchUnknown,
			"failed to build search request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", s.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", searchFieldMask)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewSearchError(providers.SearchNetworkError,
			"place search request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, searchErrorFromResponse(resp)
	}

	var result searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, providers.NewSearchError(providers.SearchUnknown,
			"failed to decode search response", err)
	}

	// Zero results is a valid outcome, not an error.
	if len(result.Places) == 0 {
		return nil, nil
	}

	records := make([]*entities.FacilityRecord, 0, len(result.Places))
	for _, place := range result.Places {
		record, ok := normalizePlace(place)
		if !ok {
			continue
		}
		records = append(records, record)
		if req.MaxResults > 0 && len(records) == req.MaxResults {
			break
		}
	}

	if len(records) == 0 {
		return nil, nil
	}
	return records, nil
}

// normalizePlace converts a provider place into a facility record. It returns
// ok=false for places without a stable id or whose category tags miss the
// relevance allow-list entirely.
func normalizePlace(place googlePlace) (*entities.FacilityRecord, bool) {
	if strings.TrimSpace(place.ID) == "" {
		return nil, false
	}
	if !hasRelevantType(place.Types) {
		return nil, false
	}

	record := &entities.FacilityRecord{
		ID:                place.ID,
		Name:              place.DisplayName.Text,
		Address:           place.FormattedAddress,
		Rating:            place.Rating,
		RatingCount:       place.UserRatingCount,
		OperationalStatus: operationalStatus(place.BusinessStatus),
		Phone:             place.NationalPhoneNumber,
		Website:           place.WebsiteURI,
	}

	if place.Location != nil {
		record.Coordinate = &entities.Coordinate{
			Latitude:  place.Location.Latitude,
			Longitude: place.Location.Longitude,
		}
	}
	if place.CurrentOpeningHours != nil {
		openNow := place.CurrentOpeningHours.OpenNow
		record.OpenNow = &openNow
	}

	return record, true
}

func hasRelevantType(types []string) bool {
	for _, t := range types {
		if _, ok := relevantTypes[t]; ok {
			return true
		}
	}
	return false
}

func operationalStatus(businessStatus string) entities.OperationalStatus {
	switch businessStatus {
	case "OPERATIONAL":
		return entities.OperationalStatusOperational
	case "CLOSED_TEMPORARILY":
		return entities.OperationalStatusClosedTemporarily
	case "CLOSED_PERMANENTLY":
		return entities.OperationalStatusClosedPermanently
	default:
		return entities.OperationalStatusUnknown
	}
}

func searchErrorFromResponse(resp *http.Response) *providers.SearchError {
	var payload searchErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	message := payload.Error.Message
	if message == "" {
		message = fmt.Sprintf("place search returned status %d", resp.StatusCode)
	}

	switch payload.Error.Status {
	case "RESOURCE_EXHAUSTED":
		return providers.NewSearchError(providers.SearchQuotaExceeded, message, nil)
	case "PERMISSION_DENIED", "UNAUTHENTICATED":
		return providers.NewSearchError(providers.SearchRequestDenied, message, nil)
	case "INVALID_ARGUMENT":
		return providers.NewSearchError(providers.SearchInvalidRequest, message, nil)
	}

	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return providers.NewSearchError(providers.SearchQuotaExceeded, message, nil)
	case http.StatusUnauthorized, http.StatusForbidden:
		return providers.NewSearchError(providers.SearchRequestDenied, message, nil)
	case http.StatusBadRequest:
		return providers.NewSearchError(providers.SearchInvalidRequest, message, nil)
	default:
		return providers.NewSearchError(providers.SearchUnknown, message, nil)
	}
}

type searchTextRequest struct {
	TextQuery    string `json:"textQuery"`
	LocationBias struct {
		Circle struct {
			Center struct {
				Latitude  float64 `json:"latitude"`
				Longitude float64 `json:"longitude"`
			} `json:"center"`
			Radius float64 `json:"radius"`
		} `json:"circle"`
	} `json:"locationBias"`
	MaxResultCount int `json:"maxResultCount"`
}

type searchTextResponse struct {
	Places []googlePlace `json:"places"`
}

type googlePlace struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         *struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	Rating              *float64 `json:"rating"`
	UserRatingCount     *int     `json:"userRatingCount"`
	CurrentOpeningHours *struct {
		OpenNow bool `json:"openNow"`
	} `json:"currentOpeningHours"`
	BusinessStatus      string   `json:"businessStatus"`
	Types               []string `json:"types"`
	NationalPhoneNumber string   `json:"nationalPhoneNumber"`
	WebsiteURI          string   `json:"websiteUri"`
}

type searchErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
