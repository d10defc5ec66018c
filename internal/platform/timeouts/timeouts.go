// Package timeouts defines shared timeout constants used across the server.
// Centralizing these values keeps the durations discoverable and prevents
// drift between the transport and collaborator boundaries.
package timeouts

import "time"

// PlaceLookup caps a single round trip to the external place lookup
// collaborator so a slow upstream cannot stall a mutation handler.
const PlaceLookup = 5 * time.Second

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second
