package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/store"
)

// noteColumnsAliased is the ordered list of columns selected in note queries,
// joined against users for the owner username. Must match the scan order in
// scanNote.
const noteColumnsAliased = `n.id, n.title, n.content, n.owner_id, n.created_at, n.updated_at, u.username`

// noteFromUsers is the FROM clause shared by all note queries.
const noteFromUsers = `FROM notes n JOIN users u ON u.id = n.owner_id`

// scanNote scans a sql.Row (or sql.Rows via its Scan method) into a
// domain.Note. Tags and SharedWith are loaded separately.
func scanNote(scanner interface{ Scan(dest ...any) error }) (*domain.Note, error) {
	var n domain.Note

	var (
		createdAt string
		updatedAt string
	)

	err := scanner.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.OwnerID,
		&createdAt,
		&updatedAt,
		&n.OwnerUsername,
	)
	if err != nil {
		return nil, err
	}

	n.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	n.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	return &n, nil
}

// CreateNote inserts a note, its tag associations, and any initial shares
// as one transaction. A failure on any row leaves nothing behind.
func (s *Store) CreateNote(ctx context.Context, note *domain.Note, tagIDs []string, shares []*domain.NoteShare) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notes (id, title, content, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.Title,
		note.Content,
		note.OwnerID,
		formatTime(note.CreatedAt),
		formatTime(note.UpdatedAt),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := insertNoteTags(ctx, tx, note.ID, tagIDs); err != nil {
		return err
	}
	if err := insertNoteShares(ctx, tx, shares); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateNote replaces the note row and its tag associations as one
// transaction. Tag replacement semantics: associations not in tagIDs are
// dropped; the global tag records are never deleted.
func (s *Store) UpdateNote(ctx context.Context, note *domain.Note, tagIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE id = ?`,
		note.Title,
		note.Content,
		formatTime(note.UpdatedAt),
		note.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, note.ID); err != nil {
		return fmt.Errorf("clear note tags: %w", err)
	}
	if err := insertNoteTags(ctx, tx, note.ID, tagIDs); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteNote removes a note. Tag associations and shares cascade via
// foreign keys. Returns store.ErrNotFound if the note does not exist.
func (s *Store) DeleteNote(ctx context.Context, noteID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, noteID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// GetNote retrieves a note by ID with tags, owner username, and recipient
// usernames loaded. Returns store.ErrNotFound if the note does not exist.
func (s *Store) GetNote(ctx context.Context, noteID string) (*domain.Note, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+noteColumnsAliased+` `+noteFromUsers+` WHERE n.id = ?`, noteID)

	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadNoteRelations(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// GetNotesByIDs retrieves the notes with the given IDs. The result is
// unordered and silently omits IDs with no matching row; callers that need
// a particular order reorder by ID.
func (s *Store) GetNotesByIDs(ctx context.Context, noteIDs []string) ([]*domain.Note, error) {
	if len(noteIDs) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(noteIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(noteIDs))
	for i, noteID := range noteIDs {
		args[i] = noteID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumnsAliased+` `+noteFromUsers+` WHERE n.id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query notes by ids: %w", err)
	}
	return s.collectNotes(ctx, rows)
}

// ListNotesByOwner returns all notes owned by the given user.
func (s *Store) ListNotesByOwner(ctx context.Context, userID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumnsAliased+` `+noteFromUsers+` WHERE n.owner_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query notes by owner: %w", err)
	}
	return s.collectNotes(ctx, rows)
}

// ListNotesSharedWith returns all notes the given user has received shares for.
func (s *Store) ListNotesSharedWith(ctx context.Context, userID string) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+noteColumnsAliased+` `+noteFromUsers+`
		JOIN note_shares ns ON ns.note_id = n.id
		WHERE ns.shared_with_user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query shared notes: %w", err)
	}
	return s.collectNotes(ctx, rows)
}

// ListAllNotes returns every note in the store. Used for projection rebuilds.
func (s *Store) ListAllNotes(ctx context.Context) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+noteColumnsAliased+` `+noteFromUsers)
	if err != nil {
		return nil, fmt.Errorf("query all notes: %w", err)
	}
	return s.collectNotes(ctx, rows)
}

// collectNotes drains a note result set and loads relations for each row.
func (s *Store) collectNotes(ctx context.Context, rows *sql.Rows) ([]*domain.Note, error) {
	defer rows.Close()

	var notes []*domain.Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, n := range notes {
		if err := s.loadNoteRelations(ctx, n); err != nil {
			return nil, fmt.Errorf("load relations for %s: %w", n.ID, err)
		}
	}

	return notes, nil
}

// loadNoteRelations fills in the denormalized tag names and recipient
// usernames for a scanned note.
func (s *Store) loadNoteRelations(ctx context.Context, note *domain.Note) error {
	tagRows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM tags t
		JOIN note_tags nt ON nt.tag_id = t.id
		WHERE nt.note_id = ?
		ORDER BY t.name ASC`, note.ID)
	if err != nil {
		return fmt.Errorf("query note tags: %w", err)
	}
	note.Tags, err = collectStrings(tagRows)
	if err != nil {
		return err
	}

	shareRows, err := s.db.QueryContext(ctx, `
		SELECT u.username FROM users u
		JOIN note_shares ns ON ns.shared_with_user_id = u.id
		WHERE ns.note_id = ?
		ORDER BY u.username ASC`, note.ID)
	if err != nil {
		return fmt.Errorf("query note recipients: %w", err)
	}
	note.SharedWith, err = collectStrings(shareRows)
	if err != nil {
		return err
	}

	return nil
}

// collectStrings drains a single-column string result set.
func collectStrings(rows *sql.Rows) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// insertNoteTags writes the note/tag associations within a transaction.
func insertNoteTags(ctx context.Context, tx *sql.Tx, noteID string, tagIDs []string) error {
	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO note_tags (note_id, tag_id)
			VALUES (?, ?)`, noteID, tagID)
		if err != nil {
			return fmt.Errorf("insert note tag %s: %w", tagID, err)
		}
	}
	return nil
}

// insertNoteShares writes initial share rows within a transaction.
func insertNoteShares(ctx context.Context, tx *sql.Tx, shares []*domain.NoteShare) error {
	for _, share := range shares {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO note_shares (id, note_id, shared_with_user_id, shared_at)
			VALUES (?, ?, ?, ?)`,
			share.ID,
			share.NoteID,
			share.SharedWithUserID,
			formatTime(share.SharedAt),
		)
		if err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint failed") {
				return store.ErrAlreadyExists.WithMessage("note already shared with this user")
			}
			return fmt.Errorf("insert note share %s: %w", share.ID, err)
		}
	}
	return nil
}
