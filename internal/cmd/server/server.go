// Package server parses server command flags and composes the tripboard process.
package server

import (
	"context"
	"flag"
	"fmt"

	server "github.com/palekaiko/tripboard/internal/app"
	entrypoint "github.com/palekaiko/tripboard/internal/platform/cmd"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr      string `env:"TRIPBOARD_HTTP_ADDR"       envDefault:":8080"`
	StoragePath   string `env:"TRIPBOARD_DB_PATH"         envDefault:"tripboard.db"`
	TripID        int64  `env:"TRIPBOARD_TRIP_ID"         envDefault:"1"`
	PlacesBaseURL string `env:"TRIPBOARD_PLACES_BASE_URL"`
	PlacesAPIKey  string `env:"TRIPBOARD_PLACES_API_KEY"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.StoragePath, "db-path", cfg.StoragePath, "sqlite database path")
	fs.Int64Var(&cfg.TripID, "trip-id", cfg.TripID, "trip to serve")
	fs.StringVar(&cfg.PlacesBaseURL, "places-base-url", cfg.PlacesBaseURL, "place lookup provider base URL")
	fs.StringVar(&cfg.PlacesAPIKey, "places-api-key", cfg.PlacesAPIKey, "place lookup provider API key")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run builds the tripboard app and serves until the context ends.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(context.Context) error {
		if err := server.Run(ctx, server.Config{
			HTTPAddr:      cfg.HTTPAddr,
			StoragePath:   cfg.StoragePath,
			TripID:        cfg.TripID,
			PlacesBaseURL: cfg.PlacesBaseURL,
			PlacesAPIKey:  cfg.PlacesAPIKey,
		}); err != nil {
			return fmt.Errorf("serve tripboard: %w", err)
		}
		return nil
	})
}
