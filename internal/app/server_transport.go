package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"time"

	"github.com/palekaiko/tripboard/internal/platform/id"
	"golang.org/x/net/websocket"
)

// Client → server frame types.
const (
	frameUpdateTripInfo        = "update-trip-info"
	frameAddDay                = "add-day"
	frameRemoveDay             = "remove-day"
	frameAddActivity           = "add-activity"
	frameUpdateActivity        = "update-activity"
	frameRemoveActivity        = "remove-activity"
	frameClearAll              = "clear-all"
	frameAddLibraryActivity    = "add-library-activity"
	frameRemoveLibraryActivity = "remove-library-activity"
	frameLoadLibrary           = "load-library-activities"
)

// Server → client frame types.
const (
	frameLoadItinerary          = "load-itinerary"
	frameTripInfoUpdated        = "trip-info-updated"
	frameDayAdded               = "day-added"
	frameDayRemoved             = "day-removed"
	frameActivityAdded          = "activity-added"
	frameActivityUpdated        = "activity-updated"
	frameActivityRemoved        = "activity-removed"
	frameAllCleared             = "all-cleared"
	frameLibraryActivityAdded   = "library-activity-added"
	frameLibraryActivityRemoved = "library-activity-removed"
	frameLibraryLoaded          = "library-activities-loaded"
	frameError                  = "error"
)

// Error codes surfaced to clients. Internal errors never leak details.
const (
	codeInvalidArgument    = "INVALID_ARGUMENT"
	codeFailedPrecondition = "FAILED_PRECONDITION"
	codeInternal           = "INTERNAL"
	codeResourceExhausted  = "RESOURCE_EXHAUSTED"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3
)

type loadItineraryPayload struct {
	TripID int64 `json:"tripId"`
}

// handleWSConn runs one connection: register with the hub, send the load
// signal, then decode and dispatch frames until the client goes away.
// Frames on a single connection are handled to completion in order;
// concurrency only exists across connections.
func (b *board) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	clientID, err := id.NewID()
	if err != nil {
		log.Printf("server: generate client id: %v", err)
		return
	}

	decoder := json.NewDecoder(conn)
	p := newPeer(clientID, json.NewEncoder(conn))
	b.hub.register(p)
	defer b.hub.unregister(p)
	log.Printf("server: client %s connected", clientID)
	defer log.Printf("server: client %s disconnected", clientID)

	// The load signal only names the trip; the client pulls full state over
	// the HTTP API.
	_ = p.writeFrame(wsFrame{
		Type:    frameLoadItinerary,
		Payload: mustJSON(loadItineraryPayload{TripID: b.tripID}),
	})

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(p, "", codeInvalidArgument, "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(p, frame.RequestID, codeResourceExhausted, "rate limit exceeded")
			return
		}

		// Deliberately not the request context: a disconnect mid-frame must
		// not abort the persistence write, and the broadcast still reaches
		// the remaining clients.
		ctx := context.Background()
		switch frame.Type {
		case frameUpdateTripInfo:
			b.handleUpdateTripInfo(ctx, p, frame)
		case frameAddDay:
			b.handleAddDay(ctx, p, frame)
		case frameRemoveDay:
			b.handleRemoveDay(ctx, p, frame)
		case frameAddActivity:
			b.handleAddActivity(ctx, p, frame)
		case frameUpdateActivity:
			b.handleUpdateActivity(ctx, p, frame)
		case frameRemoveActivity:
			b.handleRemoveActivity(ctx, p, frame)
		case frameClearAll:
			b.handleClearAll(ctx, p, frame)
		case frameAddLibraryActivity:
			b.handleAddLibraryActivity(ctx, p, frame)
		case frameRemoveLibraryActivity:
			b.handleRemoveLibraryActivity(ctx, p, frame)
		case frameLoadLibrary:
			b.handleLoadLibraryActivities(ctx, p, frame)
		default:
			_ = writeWSError(p, frame.RequestID, codeInvalidArgument, "unsupported frame type")
		}
	}
}
