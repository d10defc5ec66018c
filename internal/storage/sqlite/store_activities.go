package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/palekaiko/tripboard/internal/places"
	"github.com/palekaiko/tripboard/internal/storage"
)

func encodePreview(preview *places.PlaceDetails) (sql.NullString, error) {
	if preview == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(preview)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode location preview: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodePreview(raw sql.NullString) (*places.PlaceDetails, error) {
	if !raw.Valid || strings.TrimSpace(raw.String) == "" {
		return nil, nil
	}
	var preview places.PlaceDetails
	if err := json.Unmarshal([]byte(raw.String), &preview); err != nil {
		return nil, fmt.Errorf("decode location preview: %w", err)
	}
	return &preview, nil
}

// AddActivity inserts one activity row and returns it with the generated id.
// The parent day must exist; a missing day yields storage.ErrNotFound.
func (s *Store) AddActivity(ctx context.Context, activity storage.Activity) (storage.Activity, error) {
	if err := ctx.Err(); err != nil {
		return storage.Activity{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Activity{}, fmt.Errorf("storage is not configured")
	}
	activity.Name = strings.TrimSpace(activity.Name)
	if activity.Name == "" {
		return storage.Activity{}, fmt.Errorf("activity name is required")
	}
	if activity.DayID <= 0 {
		return storage.Activity{}, fmt.Errorf("day id is required")
	}

	var exists int
	row := s.sqlDB.QueryRowContext(ctx, `SELECT 1 FROM days WHERE id = ?`, activity.DayID)
	if err := row.Scan(&exists); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Activity{}, storage.ErrNotFound
		}
		return storage.Activity{}, fmt.Errorf("check day: %w", err)
	}

	preview, err := encodePreview(activity.LocationPreview)
	if err != nil {
		return storage.Activity{}, err
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO activities (
		   day_id, name, type, icon, position,
		   activity_date, location, category, note, location_preview
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		activity.DayID,
		activity.Name,
		activity.Type,
		activity.Icon,
		activity.Position,
		activity.ActivityDate,
		activity.Location,
		activity.Category,
		activity.Note,
		preview,
	)
	if err != nil {
		return storage.Activity{}, fmt.Errorf("add activity: %w", err)
	}
	activity.ID, err = result.LastInsertId()
	if err != nil {
		return storage.Activity{}, fmt.Errorf("add activity id: %w", err)
	}
	return activity, nil
}

// GetActivity returns one activity by id.
func (s *Store) GetActivity(ctx context.Context, id int64) (storage.Activity, error) {
	if err := ctx.Err(); err != nil {
		return storage.Activity{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.Activity{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, day_id, name, type, icon, position,
		        activity_date, location, category, note, location_preview
		   FROM activities
		  WHERE id = ?`,
		id,
	)

	var activity storage.Activity
	var preview sql.NullString
	err := row.Scan(
		&activity.ID,
		&activity.DayID,
		&activity.Name,
		&activity.Type,
		&activity.Icon,
		&activity.Position,
		&activity.ActivityDate,
		&activity.Location,
		&activity.Category,
		&activity.Note,
		&preview,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Activity{}, storage.ErrNotFound
		}
		return storage.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	activity.LocationPreview, err = decodePreview(preview)
	if err != nil {
		return storage.Activity{}, err
	}
	return activity, nil
}

// UpdateActivity writes the full merged row. Updating a missing id is a
// no-op; callers resolve the merge against GetActivity first.
func (s *Store) UpdateActivity(ctx context.Context, activity storage.Activity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	activity.Name = strings.TrimSpace(activity.Name)
	if activity.Name == "" {
		return fmt.Errorf("activity name is required")
	}

	preview, err := encodePreview(activity.LocationPreview)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`UPDATE activities SET
		   name = ?, type = ?, icon = ?, position = ?,
		   activity_date = ?, location = ?, category = ?, note = ?, location_preview = ?
		 WHERE id = ?`,
		activity.Name,
		activity.Type,
		activity.Icon,
		activity.Position,
		activity.ActivityDate,
		activity.Location,
		activity.Category,
		activity.Note,
		preview,
		activity.ID,
	)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// RemoveActivity deletes one activity. Removing a missing id is a no-op.
func (s *Store) RemoveActivity(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove activity: %w", err)
	}
	return nil
}
