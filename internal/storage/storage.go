// Package storage defines persistence contracts for itinerary state.
package storage

import (
	"context"
	"errors"

	"github.com/palekaiko/tripboard/internal/places"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// Trip is the top-level planning container. One well-known trip exists per
// deployment; it is mutated in place and never deleted.
type Trip struct {
	ID      int64
	Title   string
	Dates   string
	Islands string
}

// Day is an ordinal subdivision of a trip. DayNumber is assigned at creation
// as one past the highest number ever used for the trip, so numbering stays
// monotonic and may carry gaps after removals.
type Day struct {
	ID        int64
	TripID    int64
	DayNumber int
}

// Activity is a planned item within a day. Position is a client-supplied
// display index and is not renormalized when siblings are removed.
// LocationPreview caches the place lookup result from the moment the
// location text was last set; it is never refreshed automatically.
type Activity struct {
	ID              int64
	DayID           int64
	Name            string
	Type            string
	Icon            string
	Position        int
	ActivityDate    string
	Location        string
	Category        string
	Note            string
	LocationPreview *places.PlaceDetails
}

// LibraryActivity is a reusable activity template independent of any day.
type LibraryActivity struct {
	ID       int64
	Name     string
	Type     string
	Icon     string
	Category string
}

// DayWithActivities is one itinerary day with its activities in display order.
type DayWithActivities struct {
	Day
	Activities []Activity
}

// Summary aggregates itinerary counts for the dashboard.
type Summary struct {
	TotalDays       int
	TotalActivities int
	BeachCount      int
	RestaurantCount int
}

// Store persists trips, days, activities, and library templates.
//
// Deletes are idempotent: removing a missing day or activity is a no-op
// success. Multi-row deletes (day cascade, itinerary clear) run inside a
// single transaction so a crash cannot leave a partial wipe behind.
type Store interface {
	EnsureTrip(ctx context.Context, trip Trip) error
	TripInfo(ctx context.Context, tripID int64) (Trip, error)
	UpdateTripInfo(ctx context.Context, trip Trip) error

	AddDay(ctx context.Context, tripID int64) (Day, error)
	RemoveDay(ctx context.Context, dayID int64) error

	AddActivity(ctx context.Context, activity Activity) (Activity, error)
	GetActivity(ctx context.Context, id int64) (Activity, error)
	UpdateActivity(ctx context.Context, activity Activity) error
	RemoveActivity(ctx context.Context, id int64) error

	ClearItinerary(ctx context.Context, tripID int64) error
	Itinerary(ctx context.Context, tripID int64) ([]DayWithActivities, error)
	Summary(ctx context.Context, tripID int64) (Summary, error)

	AddLibraryActivity(ctx context.Context, template LibraryActivity) (LibraryActivity, error)
	RemoveLibraryActivity(ctx context.Context, id int64) error
	ListLibraryActivities(ctx context.Context) ([]LibraryActivity, error)
}
