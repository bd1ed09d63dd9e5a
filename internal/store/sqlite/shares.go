package sqlite

import (
	"context"
	"strings"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/store"
)

// CreateShare inserts a new note share. The (note_id, shared_with_user_id)
// unique constraint is enforced here by the database, not by application
// locking; a duplicate returns store.ErrAlreadyExists.
func (s *Store) CreateShare(ctx context.Context, share *domain.NoteShare) error {
	_, err := s.db.ExecContext(ctx, `
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
		return err
	}
	return nil
}
