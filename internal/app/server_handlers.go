package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"

	"github.com/palekaiko/tripboard/internal/places"
	"github.com/palekaiko/tripboard/internal/storage"
)

// board binds the mutation handlers to one trip. The trip id is resolved
// once at the server boundary; handlers never consult a global default.
type board struct {
	store  storage.Store
	lookup places.Lookup
	tripID int64
	hub    *hub
}

type tripInfoPayload struct {
	Title   string `json:"title"`
	Dates   string `json:"dates"`
	Islands string `json:"islands"`
}

type dayPayload struct {
	ID        int64 `json:"id"`
	DayNumber int   `json:"dayNumber"`
}

type dayIDPayload struct {
	DayID int64 `json:"dayId"`
}

type idPayload struct {
	ID int64 `json:"id"`
}

type addActivityPayload struct {
	DayID        int64  `json:"dayId"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Icon         string `json:"icon"`
	Position     int    `json:"position"`
	ActivityDate string `json:"activityDate"`
	Location     string `json:"location"`
	Category     string `json:"category"`
	Note         string `json:"note"`
}

// updateActivityPayload distinguishes absent fields from empty ones: an
// omitted field keeps the stored value, an empty string clears it.
type updateActivityPayload struct {
	ID           int64   `json:"id"`
	Name         *string `json:"name"`
	ActivityDate *string `json:"activityDate"`
	Location     *string `json:"location"`
	Category     *string `json:"category"`
	Note         *string `json:"note"`
}

type activityPayload struct {
	ID              int64                `json:"id"`
	DayID           int64                `json:"dayId"`
	Name            string               `json:"name"`
	Type            string               `json:"type"`
	Icon            string               `json:"icon"`
	Position        int                  `json:"position"`
	ActivityDate    string               `json:"activityDate"`
	Location        string               `json:"location"`
	Category        string               `json:"category"`
	Note            string               `json:"note"`
	LocationPreview *places.PlaceDetails `json:"locationPreview"`
}

type libraryActivityPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Icon     string `json:"icon"`
	Category string `json:"category"`
}

type libraryListPayload struct {
	Activities []libraryActivityPayload `json:"activities"`
}

func activityToPayload(activity storage.Activity) activityPayload {
	return activityPayload{
		ID:              activity.ID,
		DayID:           activity.DayID,
		Name:            activity.Name,
		Type:            activity.Type,
		Icon:            activity.Icon,
		Position:        activity.Position,
		ActivityDate:    activity.ActivityDate,
		Location:        activity.Location,
		Category:        activity.Category,
		Note:            activity.Note,
		LocationPreview: activity.LocationPreview,
	}
}

func libraryToPayload(template storage.LibraryActivity) libraryActivityPayload {
	return libraryActivityPayload{
		ID:       template.ID,
		Name:     template.Name,
		Type:     template.Type,
		Icon:     template.Icon,
		Category: template.Category,
	}
}

// resolvePreview looks up a non-empty location. Lookup failure is always
// recoverable: the caller decides between falling back to nil (create) and
// keeping a previously cached preview (update).
func (b *board) resolvePreview(ctx context.Context, location string) *places.PlaceDetails {
	if b.lookup == nil {
		return nil
	}
	preview, err := b.lookup.Details(ctx, location)
	if err != nil {
		if !errors.Is(err, places.ErrNotFound) {
			log.Printf("server: place lookup for %q failed: %v", location, err)
		}
		return nil
	}
	return preview
}

func (b *board) handleUpdateTripInfo(ctx context.Context, p *peer, frame wsFrame) {
	var payload tripInfoPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "invalid trip info payload")
		return
	}

	if err := b.store.UpdateTripInfo(ctx, storage.Trip{
		ID:      b.tripID,
		Title:   payload.Title,
		Dates:   payload.Dates,
		Islands: payload.Islands,
	}); err != nil {
		log.Printf("server: update trip info: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not save trip info")
		return
	}

	// The sender already has the value it just typed; echoing it back would
	// fight with in-progress edits.
	b.hub.broadcast(wsFrame{
		Type:    frameTripInfoUpdated,
		Payload: mustJSON(payload),
	}, p)
}

func (b *board) handleAddDay(ctx context.Context, p *peer, frame wsFrame) {
	day, err := b.store.AddDay(ctx, b.tripID)
	if err != nil {
		log.Printf("server: add day: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not add day")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameDayAdded,
		Payload: mustJSON(dayPayload{ID: day.ID, DayNumber: day.DayNumber}),
	}, nil)
}

func (b *board) handleRemoveDay(ctx context.Context, p *peer, frame wsFrame) {
	var payload dayIDPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.DayID <= 0 {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "dayId is required")
		return
	}

	if err := b.store.RemoveDay(ctx, payload.DayID); err != nil {
		log.Printf("server: remove day %d: %v", payload.DayID, err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not remove day")
		return
	}

	// Removal is idempotent, and so is the broadcast: a second remove of the
	// same day still confirms to every client that the day is gone.
	b.hub.broadcast(wsFrame{
		Type:    frameDayRemoved,
		Payload: mustJSON(dayIDPayload{DayID: payload.DayID}),
	}, nil)
}

func (b *board) handleAddActivity(ctx context.Context, p *peer, frame wsFrame) {
	var payload addActivityPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "invalid activity payload")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "activity name is required")
		return
	}
	if payload.DayID <= 0 {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "dayId is required")
		return
	}

	// Lookup failure never blocks creation; the activity is stored without
	// a preview.
	var preview *places.PlaceDetails
	location := strings.TrimSpace(payload.Location)
	if location != "" {
		preview = b.resolvePreview(ctx, location)
	}

	created, err := b.store.AddActivity(ctx, storage.Activity{
		DayID:           payload.DayID,
		Name:            payload.Name,
		Type:            payload.Type,
		Icon:            payload.Icon,
		Position:        payload.Position,
		ActivityDate:    payload.ActivityDate,
		Location:        location,
		Category:        payload.Category,
		Note:            payload.Note,
		LocationPreview: preview,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			_ = writeWSError(p, frame.RequestID, codeFailedPrecondition, "day no longer exists")
			return
		}
		log.Printf("server: add activity: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not add activity")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameActivityAdded,
		Payload: mustJSON(activityToPayload(created)),
	}, nil)
}

func (b *board) handleUpdateActivity(ctx context.Context, p *peer, frame wsFrame) {
	var payload updateActivityPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.ID <= 0 {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "activity id is required")
		return
	}

	current, err := b.store.GetActivity(ctx, payload.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Another client removed the activity moments ago; treat the
			// stale update as a benign no-op rather than resurrecting it.
			return
		}
		log.Printf("server: load activity %d: %v", payload.ID, err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not update activity")
		return
	}

	merged := current
	if payload.Name != nil && strings.TrimSpace(*payload.Name) != "" {
		merged.Name = strings.TrimSpace(*payload.Name)
	}
	if payload.ActivityDate != nil {
		merged.ActivityDate = *payload.ActivityDate
	}
	if payload.Category != nil {
		merged.Category = *payload.Category
	}
	if payload.Note != nil {
		merged.Note = *payload.Note
	}
	if payload.Location != nil {
		location := strings.TrimSpace(*payload.Location)
		merged.Location = location
		switch {
		case location == "":
			merged.LocationPreview = nil
		default:
			// Unlike creation, a failed lookup here keeps the cached
			// preview: an edit should not destroy a known-good preview just
			// because the provider is transiently down.
			if preview := b.resolvePreview(ctx, location); preview != nil {
				merged.LocationPreview = preview
			}
		}
	}

	if err := b.store.UpdateActivity(ctx, merged); err != nil {
		log.Printf("server: update activity %d: %v", payload.ID, err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not update activity")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameActivityUpdated,
		Payload: mustJSON(activityToPayload(merged)),
	}, nil)
}

func (b *board) handleRemoveActivity(ctx context.Context, p *peer, frame wsFrame) {
	var payload idPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.ID <= 0 {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "activity id is required")
		return
	}

	if err := b.store.RemoveActivity(ctx, payload.ID); err != nil {
		log.Printf("server: remove activity %d: %v", payload.ID, err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not remove activity")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameActivityRemoved,
		Payload: mustJSON(idPayload{ID: payload.ID}),
	}, nil)
}

func (b *board) handleClearAll(ctx context.Context, p *peer, frame wsFrame) {
	if err := b.store.ClearItinerary(ctx, b.tripID); err != nil {
		log.Printf("server: clear itinerary: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not clear itinerary")
		return
	}

	b.hub.broadcast(wsFrame{Type: frameAllCleared}, nil)
}

func (b *board) handleAddLibraryActivity(ctx context.Context, p *peer, frame wsFrame) {
	var payload libraryActivityPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "invalid library activity payload")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "library activity name is required")
		return
	}

	created, err := b.store.AddLibraryActivity(ctx, storage.LibraryActivity{
		Name:     payload.Name,
		Type:     payload.Type,
		Icon:     payload.Icon,
		Category: payload.Category,
	})
	if err != nil {
		log.Printf("server: add library activity: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not add library activity")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameLibraryActivityAdded,
		Payload: mustJSON(libraryToPayload(created)),
	}, nil)
}

func (b *board) handleRemoveLibraryActivity(ctx context.Context, p *peer, frame wsFrame) {
	var payload idPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.ID <= 0 {
		_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "library activity id is required")
		return
	}

	if err := b.store.RemoveLibraryActivity(ctx, payload.ID); err != nil {
		log.Printf("server: remove library activity %d: %v", payload.ID, err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not remove library activity")
		return
	}

	b.hub.broadcast(wsFrame{
		Type:    frameLibraryActivityRemoved,
		Payload: mustJSON(idPayload{ID: payload.ID}),
	}, nil)
}

func (b *board) handleLoadLibraryActivities(ctx context.Context, p *peer, frame wsFrame) {
	templates, err := b.store.ListLibraryActivities(ctx)
	if err != nil {
		log.Printf("server: load library activities: %v", err)
		_ = writeWSError(p, frame.RequestID, codeInternal, "could not load library activities")
		return
	}

	payload := libraryListPayload{Activities: make([]libraryActivityPayload, 0, len(templates))}
	for _, template := range templates {
		payload.Activities = append(payload.Activities, libraryToPayload(template))
	}

	b.hub.broadcast(wsFrame{
		Type:    frameLibraryLoaded,
		Payload: mustJSON(payload),
	}, nil)
}
