package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/id"
	"github.com/dipa/notefournote-server/internal/store"
)

// tagColumns is the ordered list of columns selected in tag queries.
// Must match the scan order in scanTag.
const tagColumns = `id, name, created_at`

// scanTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.Tag.
func scanTag(scanner interface{ Scan(dest ...any) error }) (*domain.Tag, error) {
	var t domain.Tag

	var createdAt string

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// FindOrCreateTag looks up a tag by its canonical name, creating it if
// missing. Tags are globally deduplicated and never deleted. A concurrent
// create losing the UNIQUE race falls back to re-reading the winner's row.
func (s *Store) FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, error) {
	if name == "" {
		return nil, store.ErrInvalidInput.WithMessage("tag name cannot be empty")
	}

	tag, err := s.getTagByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if err != store.ErrNotFound {
		return nil, err
	}

	tagID, err := id.Generate("tag")
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tags (id, name, created_at)
		VALUES (?, ?, ?)`,
		tagID,
		name,
		formatTime(time.Now()),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return s.getTagByName(ctx, name)
		}
		return nil, err
	}

	return s.getTagByName(ctx, name)
}

// getTagByName retrieves a tag by its canonical name.
func (s *Store) getTagByName(ctx context.Context, name string) (*domain.Tag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+tagColumns+` FROM tags WHERE name = ?`, name)

	t, err := scanTag(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTags returns all tags ordered by name.
func (s *Store) ListTags(ctx context.Context) ([]*domain.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+tagColumns+` FROM tags ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}
