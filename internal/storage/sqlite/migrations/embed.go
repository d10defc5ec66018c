package migrations

import "embed"

// FS contains embedded SQLite migrations for itinerary storage.
//
//go:embed *.sql
var FS embed.FS
