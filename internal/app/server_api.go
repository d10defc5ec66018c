package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/palekaiko/tripboard/internal/places"
)

type itineraryResponse struct {
	TripInfo  tripInfoPayload `json:"tripInfo"`
	Itinerary []itineraryDay  `json:"itinerary"`
}

type itineraryDay struct {
	ID         int64             `json:"id"`
	DayNumber  int               `json:"dayNumber"`
	Activities []activityPayload `json:"activities"`
}

type summaryResponse struct {
	TotalDays       int `json:"total_days"`
	TotalActivities int `json:"total_activities"`
	BeachCount      int `json:"beach_count"`
	RestaurantCount int `json:"restaurant_count"`
}

type locationSearchResponse struct {
	Suggestions []places.Suggestion `json:"suggestions"`
}

type placeDetailsResponse struct {
	Success      bool                 `json:"success"`
	PlaceDetails *places.PlaceDetails `json:"placeDetails,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: write json response: %v", err)
	}
}

// handleItinerary returns the full board state: trip info plus every day
// with its activities in display order. New clients call this right after
// the load signal arrives on the socket.
func (b *board) handleItinerary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trip, err := b.store.TripInfo(r.Context(), b.tripID)
	if err != nil {
		log.Printf("server: load trip info: %v", err)
		http.Error(w, "could not load itinerary", http.StatusInternalServerError)
		return
	}
	days, err := b.store.Itinerary(r.Context(), b.tripID)
	if err != nil {
		log.Printf("server: load itinerary: %v", err)
		http.Error(w, "could not load itinerary", http.StatusInternalServerError)
		return
	}

	response := itineraryResponse{
		TripInfo: tripInfoPayload{
			Title:   trip.Title,
			Dates:   trip.Dates,
			Islands: trip.Islands,
		},
		Itinerary: make([]itineraryDay, 0, len(days)),
	}
	for _, day := range days {
		activities := make([]activityPayload, 0, len(day.Activities))
		for _, activity := range day.Activities {
			activities = append(activities, activityToPayload(activity))
		}
		response.Itinerary = append(response.Itinerary, itineraryDay{
			ID:         day.ID,
			DayNumber:  day.DayNumber,
			Activities: activities,
		})
	}

	writeJSON(w, http.StatusOK, response)
}

func (b *board) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	summary, err := b.store.Summary(r.Context(), b.tripID)
	if err != nil {
		log.Printf("server: load summary: %v", err)
		http.Error(w, "could not load summary", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		TotalDays:       summary.TotalDays,
		TotalActivities: summary.TotalActivities,
		BeachCount:      summary.BeachCount,
		RestaurantCount: summary.RestaurantCount,
	})
}

// handleLocationSearch proxies autocomplete queries to the place provider.
// Provider failures degrade to an empty suggestion list so typing in the
// search box never surfaces an error to the user.
func (b *board) handleLocationSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	suggestions := []places.Suggestion{}
	if query != "" && b.lookup != nil {
		found, err := b.lookup.Search(r.Context(), query)
		if err != nil {
			log.Printf("server: location search %q: %v", query, err)
		} else {
			suggestions = found
		}
	}

	writeJSON(w, http.StatusOK, locationSearchResponse{Suggestions: suggestions})
}

func (b *board) handlePlaceDetails(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("place_id"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("location"))
	}
	if query == "" {
		http.Error(w, "place_id or location is required", http.StatusBadRequest)
		return
	}

	if b.lookup == nil {
		writeJSON(w, http.StatusOK, placeDetailsResponse{Success: false})
		return
	}

	details, err := b.lookup.Details(r.Context(), query)
	if err != nil {
		if !errors.Is(err, places.ErrNotFound) {
			log.Printf("server: place details %q: %v", query, err)
		}
		writeJSON(w, http.StatusOK, placeDetailsResponse{Success: false})
		return
	}

	writeJSON(w, http.StatusOK, placeDetailsResponse{Success: true, PlaceDetails: details})
}
