package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/palekaiko/tripboard/internal/places"
	"github.com/palekaiko/tripboard/internal/storage"
	"github.com/palekaiko/tripboard/internal/storage/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "tripboard.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := store.EnsureTrip(context.Background(), storage.Trip{
		ID:      1,
		Title:   "Our Hawaiian Dream Vacation",
		Dates:   "Dec 15-22, 2024",
		Islands: "Oahu",
	}); err != nil {
		t.Fatalf("seed trip: %v", err)
	}
	return store
}

func getJSON(t *testing.T, handler http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s response: %v", path, err)
		}
	}
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	handler := NewHandler(newTestStore(t), nil, 1)

	rec := getJSON(t, handler, "/up", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec.Body.String() != "OK" {
		t.Fatalf("body = %q, want OK", rec.Body.String())
	}
}

func TestItineraryEndpointReturnsFullState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day, err := store.AddDay(ctx, 1)
	if err != nil {
		t.Fatalf("add day: %v", err)
	}
	if _, err := store.AddActivity(ctx, storage.Activity{
		DayID:    day.ID,
		Name:     "Snorkeling",
		Type:     "beach",
		Location: "Hanauma Bay",
		LocationPreview: &places.PlaceDetails{
			PlaceID: "place-1",
			Name:    "Hanauma Bay",
			Rating:  4.6,
		},
	}); err != nil {
		t.Fatalf("add activity: %v", err)
	}

	handler := NewHandler(store, nil, 1)
	var got struct {
		TripInfo struct {
			Title   string `json:"title"`
			Islands string `json:"islands"`
		} `json:"tripInfo"`
		Itinerary []struct {
			DayNumber  int `json:"dayNumber"`
			Activities []struct {
				Name            string `json:"name"`
				LocationPreview *struct {
					Rating float64 `json:"rating"`
				} `json:"locationPreview"`
			} `json:"activities"`
		} `json:"itinerary"`
	}
	rec := getJSON(t, handler, "/api/itinerary", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.TripInfo.Title != "Our Hawaiian Dream Vacation" || got.TripInfo.Islands != "Oahu" {
		t.Fatalf("trip info = %+v, want seeded values", got.TripInfo)
	}
	if len(got.Itinerary) != 1 || got.Itinerary[0].DayNumber != 1 {
		t.Fatalf("itinerary = %+v, want one day", got.Itinerary)
	}
	activities := got.Itinerary[0].Activities
	if len(activities) != 1 || activities[0].Name != "Snorkeling" {
		t.Fatalf("activities = %+v, want one activity", activities)
	}
	if activities[0].LocationPreview == nil || activities[0].LocationPreview.Rating != 4.6 {
		t.Fatalf("preview = %+v, want rating 4.6", activities[0].LocationPreview)
	}
}

func TestSummaryEndpointCountsByType(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	day, err := store.AddDay(ctx, 1)
	if err != nil {
		t.Fatalf("add day: %v", err)
	}
	for _, activity := range []storage.Activity{
		{DayID: day.ID, Name: "Snorkeling", Type: "beach"},
		{DayID: day.ID, Name: "Luau", Type: "restaurant"},
		{DayID: day.ID, Name: "Hike", Type: "adventure"},
	} {
		if _, err := store.AddActivity(ctx, activity); err != nil {
			t.Fatalf("add activity %q: %v", activity.Name, err)
		}
	}

	handler := NewHandler(store, nil, 1)
	var got summaryResponse
	rec := getJSON(t, handler, "/api/summary", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	want := summaryResponse{TotalDays: 1, TotalActivities: 3, BeachCount: 1, RestaurantCount: 1}
	if got != want {
		t.Fatalf("summary = %+v, want %+v", got, want)
	}
}

func TestLocationSearchReturnsSuggestions(t *testing.T) {
	lookup := &fakeLookup{suggestions: []places.Suggestion{
		{PlaceID: "place-1", Name: "Hanauma Bay"},
		{PlaceID: "place-2", Name: "Hanalei Bay"},
	}}
	handler := NewHandler(newTestStore(t), lookup, 1)

	var got locationSearchResponse
	rec := getJSON(t, handler, "/api/location-search?q=Hana", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(got.Suggestions) != 2 || got.Suggestions[0].Name != "Hanauma Bay" {
		t.Fatalf("suggestions = %+v, want two in provider order", got.Suggestions)
	}
}

func TestLocationSearchDegradesToEmptyList(t *testing.T) {
	cases := []struct {
		name   string
		lookup places.Lookup
		path   string
	}{
		{name: "no lookup configured", lookup: nil, path: "/api/location-search?q=Hana"},
		{name: "provider failure", lookup: &fakeLookup{searchErr: errors.New("down")}, path: "/api/location-search?q=Hana"},
		{name: "empty query", lookup: &fakeLookup{suggestions: []places.Suggestion{{Name: "x"}}}, path: "/api/location-search?q="},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewHandler(newTestStore(t), tc.lookup, 1)
			var got locationSearchResponse
			rec := getJSON(t, handler, tc.path, &got)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if len(got.Suggestions) != 0 {
				t.Fatalf("suggestions = %+v, want empty list", got.Suggestions)
			}
		})
	}
}

func TestPlaceDetailsEndpoint(t *testing.T) {
	lookup := &fakeLookup{details: &places.PlaceDetails{
		PlaceID: "place-1",
		Name:    "Hanauma Bay",
		Rating:  4.6,
	}}
	handler := NewHandler(newTestStore(t), lookup, 1)

	var got placeDetailsResponse
	rec := getJSON(t, handler, "/api/place-details?place_id=place-1", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !got.Success || got.PlaceDetails == nil || got.PlaceDetails.Name != "Hanauma Bay" {
		t.Fatalf("response = %+v, want success with details", got)
	}
}

func TestPlaceDetailsFailureReportsUnsuccessful(t *testing.T) {
	lookup := &fakeLookup{detailsErr: places.ErrNotFound}
	handler := NewHandler(newTestStore(t), lookup, 1)

	var got placeDetailsResponse
	rec := getJSON(t, handler, "/api/place-details?location=Atlantis", &got)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got.Success || got.PlaceDetails != nil {
		t.Fatalf("response = %+v, want unsuccessful without details", got)
	}
}

func TestPlaceDetailsRequiresQuery(t *testing.T) {
	handler := NewHandler(newTestStore(t), nil, 1)

	rec := getJSON(t, handler, "/api/place-details", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestAPIEndpointsRejectNonGET(t *testing.T) {
	handler := NewHandler(newTestStore(t), nil, 1)

	for _, path := range []string{"/api/itinerary", "/api/summary", "/api/location-search", "/api/place-details"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s status = %d, want %d", path, rec.Code, http.StatusMethodNotAllowed)
		}
	}
}
