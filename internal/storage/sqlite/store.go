// Package sqlite provides a SQLite-backed itinerary storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/palekaiko/tripboard/internal/platform/storage/sqlitemigrate"
	"github.com/palekaiko/tripboard/internal/storage"
	"github.com/palekaiko/tripboard/internal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists itinerary state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite itinerary store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// EnsureTrip seeds the well-known trip row when it does not exist yet.
func (s *Store) EnsureTrip(ctx context.Context, trip storage.Trip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if trip.ID <= 0 {
		return fmt.Errorf("trip id is required")
	}
	if strings.TrimSpace(trip.Title) == "" {
		return fmt.Errorf("trip title is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO trips (id, title, dates, islands) VALUES (?, ?, ?, ?)`,
		trip.ID,
		strings.TrimSpace(trip.Title),
		trip.Dates,
		trip.Islands,
	)
	if err != nil {
		return fmt.Errorf("ensure trip: %w", err)
	}
	return nil
}

// TripInfo returns the trip row by id.
func (s *Store) TripInfo(ctx context.Context, tripID int64) (storage.Trip, error) {
	if err := ctx.Err(); err != nil {
		return storage.Trip{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Trip{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, title, dates, islands FROM trips WHERE id = ?`,
		tripID,
	)

	var trip storage.Trip
	if err := row.Scan(&trip.ID, &trip.Title, &trip.Dates, &trip.Islands); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Trip{}, storage.ErrNotFound
		}
		return storage.Trip{}, fmt.Errorf("get trip: %w", err)
	}
	return trip, nil
}

// UpdateTripInfo upserts the trip row.
func (s *Store) UpdateTripInfo(ctx context.Context, trip storage.Trip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if trip.ID <= 0 {
		return fmt.Errorf("trip id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO trips (id, title, dates, islands) VALUES (?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET
		   title = excluded.title,
		   dates = excluded.dates,
		   islands = excluded.islands`,
		trip.ID,
		trip.Title,
		trip.Dates,
		trip.Islands,
	)
	if err != nil {
		return fmt.Errorf("update trip info: %w", err)
	}
	return nil
}

// AddDay creates a day numbered one past the highest number ever used for
// the trip. Numbers are never reused, so gaps remain after removals.
func (s *Store) AddDay(ctx context.Context, tripID int64) (storage.Day, error) {
	if err := ctx.Err(); err != nil {
		return storage.Day{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Day{}, fmt.Errorf("storage is not configured")
	}
	if tripID <= 0 {
		return storage.Day{}, fmt.Errorf("trip id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.Day{}, fmt.Errorf("begin add day: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var dayNumber int
	row := tx.QueryRowContext(
		ctx,
		`SELECT COALESCE(MAX(day_number), 0) + 1 FROM days WHERE trip_id = ?`,
		tripID,
	)
	if err := row.Scan(&dayNumber); err != nil {
		return storage.Day{}, fmt.Errorf("next day number: %w", err)
	}

	result, err := tx.ExecContext(
		ctx,
		`INSERT INTO days (trip_id, day_number) VALUES (?, ?)`,
		tripID,
		dayNumber,
	)
	if err != nil {
		return storage.Day{}, fmt.Errorf("add day: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return storage.Day{}, fmt.Errorf("add day id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.Day{}, fmt.Errorf("commit add day: %w", err)
	}

	return storage.Day{ID: id, TripID: tripID, DayNumber: dayNumber}, nil
}

// RemoveDay deletes a day and its activities in one transaction. Removing a
// missing day is a no-op success.
func (s *Store) RemoveDay(ctx context.Context, dayID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin remove day: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM activities WHERE day_id = ?`, dayID); err != nil {
		return fmt.Errorf("remove day activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM days WHERE id = ?`, dayID); err != nil {
		return fmt.Errorf("remove day: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit remove day: %w", err)
	}
	return nil
}

// ClearItinerary wipes all activities and days for a trip. The trip row
// itself survives.
func (s *Store) ClearItinerary(ctx context.Context, tripID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear itinerary: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM activities WHERE day_id IN (SELECT id FROM days WHERE trip_id = ?)`,
		tripID,
	); err != nil {
		return fmt.Errorf("clear activities: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM days WHERE trip_id = ?`, tripID); err != nil {
		return fmt.Errorf("clear days: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear itinerary: %w", err)
	}
	return nil
}

// Itinerary returns the trip's days ordered by day number, each with its
// activities ordered by position.
func (s *Store) Itinerary(ctx context.Context, tripID int64) ([]storage.DayWithActivities, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT d.id, d.day_number,
		        a.id, a.day_id, a.name, a.type, a.icon, a.position,
		        a.activity_date, a.location, a.category, a.note, a.location_preview
		   FROM days d
		   LEFT JOIN activities a ON a.day_id = d.id
		  WHERE d.trip_id = ?
		  ORDER BY d.day_number, a.position, a.id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("list itinerary: %w", err)
	}
	defer rows.Close()

	itinerary := make([]storage.DayWithActivities, 0)
	var current *storage.DayWithActivities
	for rows.Next() {
		var (
			dayID        int64
			dayNumber    int
			activityID   sql.NullInt64
			activityDay  sql.NullInt64
			name         sql.NullString
			activityType sql.NullString
			icon         sql.NullString
			position     sql.NullInt64
			activityDate sql.NullString
			location     sql.NullString
			category     sql.NullString
			note         sql.NullString
			preview      sql.NullString
		)
		if err := rows.Scan(
			&dayID,
			&dayNumber,
			&activityID,
			&activityDay,
			&name,
			&activityType,
			&icon,
			&position,
			&activityDate,
			&location,
			&category,
			&note,
			&preview,
		); err != nil {
			return nil, fmt.Errorf("list itinerary: %w", err)
		}

		if current == nil || current.ID != dayID {
			itinerary = append(itinerary, storage.DayWithActivities{
				Day:        storage.Day{ID: dayID, TripID: tripID, DayNumber: dayNumber},
				Activities: []storage.Activity{},
			})
			current = &itinerary[len(itinerary)-1]
		}

		if !activityID.Valid {
			continue
		}
		activity := storage.Activity{
			ID:           activityID.Int64,
			DayID:        activityDay.Int64,
			Name:         name.String,
			Type:         activityType.String,
			Icon:         icon.String,
			Position:     int(position.Int64),
			ActivityDate: activityDate.String,
			Location:     location.String,
			Category:     category.String,
			Note:         note.String,
		}
		activity.LocationPreview, err = decodePreview(preview)
		if err != nil {
			return nil, fmt.Errorf("list itinerary: %w", err)
		}
		current.Activities = append(current.Activities, activity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list itinerary: %w", err)
	}
	return itinerary, nil
}

// Summary aggregates day and activity counts for a trip.
func (s *Store) Summary(ctx context.Context, tripID int64) (storage.Summary, error) {
	if err := ctx.Err(); err != nil {
		return storage.Summary{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Summary{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT COUNT(DISTINCT d.id),
		        COUNT(a.id),
		        COALESCE(SUM(CASE WHEN a.type = 'beach' THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN a.type = 'restaurant' THEN 1 ELSE 0 END), 0)
		   FROM days d
		   LEFT JOIN activities a ON a.day_id = d.id
		  WHERE d.trip_id = ?`,
		tripID,
	)

	var summary storage.Summary
	if err := row.Scan(
		&summary.TotalDays,
		&summary.TotalActivities,
		&summary.BeachCount,
		&summary.RestaurantCount,
	); err != nil {
		return storage.Summary{}, fmt.Errorf("summarize trip: %w", err)
	}
	return summary, nil
}

var _ storage.Store = (*Store)(nil)
