package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/palekaiko/tripboard/internal/storage"
)

// AddLibraryActivity inserts one reusable template and returns it with the
// generated id.
func (s *Store) AddLibraryActivity(ctx context.Context, template storage.LibraryActivity) (storage.LibraryActivity, error) {
	if err := ctx.Err(); err != nil {
		return storage.LibraryActivity{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.LibraryActivity{}, fmt.Errorf("storage is not configured")
	}
	template.Name = strings.TrimSpace(template.Name)
	if template.Name == "" {
		return storage.LibraryActivity{}, fmt.Errorf("library activity name is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO library_activities (name, type, icon, category) VALUES (?, ?, ?, ?)`,
		template.Name,
		template.Type,
		template.Icon,
		template.Category,
	)
	if err != nil {
		return storage.LibraryActivity{}, fmt.Errorf("add library activity: %w", err)
	}
	template.ID, err = result.LastInsertId()
	if err != nil {
		return storage.LibraryActivity{}, fmt.Errorf("add library activity id: %w", err)
	}
	return template, nil
}

// RemoveLibraryActivity deletes one template. Removing a missing id is a no-op.
func (s *Store) RemoveLibraryActivity(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM library_activities WHERE id = ?`, id); err != nil {
		return fmt.Errorf("remove library activity: %w", err)
	}
	return nil
}

// ListLibraryActivities returns all templates ordered by name.
func (s *Store) ListLibraryActivities(ctx context.Context) ([]storage.LibraryActivity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, type, icon, category FROM library_activities ORDER BY name, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list library activities: %w", err)
	}
	defer rows.Close()

	templates := make([]storage.LibraryActivity, 0)
	for rows.Next() {
		var template storage.LibraryActivity
		if err := rows.Scan(
			&template.ID,
			&template.Name,
			&template.Type,
			&template.Icon,
			&template.Category,
		); err != nil {
			return nil, fmt.Errorf("list library activities: %w", err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list library activities: %w", err)
	}
	return templates, nil
}
