package places

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maitricare/emergency-locator/internal/domain/entities"
	"github.com/maitricare/emergency-locator/internal/domain/providers"
)

func searchRequest() providers.SearchRequest {
	return providers.SearchRequest{
		Center:       entities.Coordinate{Latitude: 6.5244, Longitude: 3.3792},
		Keyword:      "hospital emergency room maternity",
		RadiusMeters: 5000,
		MaxResults:   10,
	}
}

func TestGoogleSearcher_Search_NormalizesAndFilters(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))
		assert.Contains(t, r.Header.Get("X-Goog-FieldMask"), "places.id")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_, _ = w.Write([]byte(`{"places": [
			{
				"id": "place-1",
				"displayName": {"text": "St. Mary Hospital"},
				"formattedAddress": "1 Care Street",
				"location": {"latitude": 6.53, "longitude": 3.38},
				"rating": 4.5,
				"userRatingCount": 230,
				"currentOpeningHours": {"openNow": true},
				"businessStatus": "OPERATIONAL",
				"types": ["hospital", "health", "point_of_interest"],
				"nationalPhoneNumber": "0800 123 456",
				"websiteUri": "https://stmary.example"
			},
			{
				"id": "place-2",
				"displayName": {"text": "City Spa"},
				"types": ["spa", "point_of_interest"]
			},
			{
				"id": "",
				"displayName": {"text": "No Identifier Clinic"},
				"types": ["clinic"]
			},
			{
				"id": "place-4",
				"displayName": {"text": "Maternity Clinic"},
				"businessStatus": "CLOSED_TEMPORARILY",
				"types": ["clinic", "doctor"]
			}
		]}`))
	}))
	defer server.Close()

	searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

	records, err := searcher.Search(context.Background(), searchRequest())
	require.NoError(t, err)

	// place-2 misses the allow-list, the third place has no stable id.
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "place-1", first.ID)
	assert.Equal(t, "St. Mary Hospital", first.Name)
	assert.Equal(t, "1 Care Street", first.Address)
	require.NotNil(t, first.Coordinate)
	assert.Equal(t, 6.53, first.Coordinate.Latitude)
	require.NotNil(t, first.Rating)
	assert.Equal(t, 4.5, *first.Rating)
	require.NotNil(t, first.RatingCount)
	assert.Equal(t, 230, *first.RatingCount)
	require.NotNil(t, first.OpenNow)
	assert.True(t, *first.OpenNow)
	assert.Equal(t, entities.OperationalStatusOperational, first.OperationalStatus)
	assert.Equal(t, "0800 123 456", first.Phone)
	assert.Equal(t, "https://stmary.example", first.Website)

	second := records[1]
	assert.Equal(t, "place-4", second.ID)
	assert.Equal(t, entities.OperationalStatusClosedTemporarily, second.OperationalStatus)
	assert.Nil(t, second.OpenNow)
	assert.Nil(t, second.Rating)

	// The request carries the bias, not a hard restriction.
	bias := gotBody["locationBias"].(map[string]interface{})
	circle := bias["circle"].(map[string]interface{})
	center := circle["center"].(map[string]interface{})
	assert.Equal(t, 6.5244, center["latitude"])
	assert.Equal(t, 3.3792, center["longitude"])
	assert.Equal(t, float64(5000), circle["radius"])
	assert.Equal(t, "hospital emergency room maternity", gotBody["textQuery"])
	assert.Equal(t, float64(10), gotBody["maxResultCount"])
}

func TestGoogleSearcher_Search_ZeroResultsIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

	records, err := searcher.Search(context.Background(), searchRequest())
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestGoogleSearcher_Search_AllFilteredOutIsZeroResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"places": [
			{"id": "place-1", "displayName": {"text": "Corner Pharmacy"}, "types": ["pharmacy"]},
			{"id": "place-2", "displayName": {"text": "Day Spa"}, "types": ["spa"]}
		]}`))
	}))
	defer server.Close()

	searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

	records, err := searcher.Search(context.Background(), searchRequest())
	assert.NoError(t, err)
	assert.Nil(t, records)
}

func TestGoogleSearcher_Search_TruncatesToMaxResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"places": [
			{"id": "a", "displayName": {"text": "A"}, "types": ["hospital"]},
			{"id": "b", "displayName": {"text": "B"}, "types": ["hospital"]},
			{"id": "c", "displayName": {"text": "C"}, "types": ["hospital"]}
		]}`))
	}))
	defer server.Close()

	searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

	req := searchRequest()
	req.MaxResults = 2
	records, err := searcher.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, records, 2)
	// Provider order is preserved.
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestGoogleSearcher_Search_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantKind   providers.SearchErrorKind
	}{
		{
			name:       "quota exceeded",
			statusCode: http.StatusTooManyRequests,
			body:       `{"error":{"code":429,"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`,
			wantKind:   providers.SearchQuotaExceeded,
		},
		{
			name:       "request denied",
			statusCode: http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"API key restricted","status":"PERMISSION_DENIED"}}`,
			wantKind:   providers.SearchRequestDenied,
		},
		{
			name:       "invalid request",
			statusCode: http.StatusBadRequest,
			body:       `{"error":{"code":400,"message":"Invalid radius","status":"INVALID_ARGUMENT"}}`,
			wantKind:   providers.SearchInvalidRequest,
		},
		{
			name:       "unclassified",
			statusCode: http.StatusInternalServerError,
			body:       `{"error":{"code":500,"message":"Internal error","status":"INTERNAL"}}`,
			wantKind:   providers.SearchUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

			_, err := searcher.Search(context.Background(), searchRequest())

			var searchErr *providers.SearchError
			require.True(t, errors.As(err, &searchErr))
			assert.Equal(t, tt.wantKind, searchErr.Kind)
		})
	}
}

func TestGoogleSearcher_Search_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	searcher := NewGoogleSearcherWithOptions("test-key", server.URL, nil, 100)

	_, err := searcher.Search(context.Background(), searchRequest())

	var searchErr *providers.SearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, providers.SearchNetworkError, searchErr.Kind)
}
