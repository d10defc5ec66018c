// Package server hosts the tripboard HTTP/WebSocket process.
//
// Every mutation arrives over the persistent WebSocket channel, is persisted
// through the itinerary store, and fans out to connected clients as a
// broadcast frame. Full state is pulled separately over the HTTP API, so a
// new connection only receives a load signal.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/palekaiko/tripboard/internal/places"
	"github.com/palekaiko/tripboard/internal/platform/timeouts"
	"github.com/palekaiko/tripboard/internal/storage"
	"github.com/palekaiko/tripboard/internal/storage/sqlite"
	"golang.org/x/net/websocket"
)

// Seed values for the well-known trip, written once at first boot.
const (
	seedTripTitle   = "Our Hawaiian Dream Vacation"
	seedTripDates   = "Dec 15-22, 2024"
	seedTripIslands = "Oahu"
)

// Config defines the inputs for the tripboard server boundary.
type Config struct {
	HTTPAddr          string
	StoragePath       string
	TripID            int64
	PlacesBaseURL     string
	PlacesAPIKey      string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server owns the HTTP listener and the itinerary store handle.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
	store           *sqlite.Store
}

// NewServer builds a configured server: it opens storage, seeds the
// well-known trip, and wires the place lookup collaborator when configured.
func NewServer(config Config) (*Server, error) {
	return NewServerWithContext(context.Background(), config)
}

// NewServerWithContext builds a configured server with an explicit context.
func NewServerWithContext(ctx context.Context, config Config) (*Server, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if strings.TrimSpace(config.StoragePath) == "" {
		return nil, errors.New("storage path is required")
	}
	if config.TripID <= 0 {
		return nil, errors.New("trip id is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	store, err := sqlite.Open(config.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("open itinerary store: %w", err)
	}
	if err := store.EnsureTrip(ctx, storage.Trip{
		ID:      config.TripID,
		Title:   seedTripTitle,
		Dates:   seedTripDates,
		Islands: seedTripIslands,
	}); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("seed trip: %w", err)
	}

	var lookup places.Lookup
	if strings.TrimSpace(config.PlacesBaseURL) != "" {
		client, err := places.New(places.Config{
			BaseURL: config.PlacesBaseURL,
			APIKey:  config.PlacesAPIKey,
		})
		if err != nil {
			log.Printf("server: place lookup unavailable, previews disabled: %v", err)
		} else {
			lookup = client
		}
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(store, lookup, config.TripID),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
		store:           store,
	}, nil
}

// NewHandler creates the full route surface over the given store and lookup.
// The lookup may be nil; mutation handlers then degrade to preview-less
// activities and location search returns empty result sets.
func NewHandler(store storage.Store, lookup places.Lookup, tripID int64) http.Handler {
	b := &board{
		store:  store,
		lookup: lookup,
		tripID: tripID,
		hub:    newHub(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/api/itinerary", b.handleItinerary)
	mux.HandleFunc("/api/summary", b.handleSummary)
	mux.HandleFunc("/api/location-search", b.handleLocationSearch)
	mux.HandleFunc("/api/place-details", b.handlePlaceDetails)

	wsHandler := websocket.Handler(b.handleWSConn)
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// Run creates and serves a tripboard server until the context ends.
func Run(ctx context.Context, config Config) error {
	server, err := NewServerWithContext(ctx, config)
	if err != nil {
		return fmt.Errorf("init tripboard server: %w", err)
	}
	defer server.Close()

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve tripboard: %w", err)
	}
	return nil
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("tripboard server listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close itinerary store: %v", err)
		}
	}
}
