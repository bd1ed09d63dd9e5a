// Package store defines the authoritative persistence interface for the
// notefournote server. The relational SQLite implementation lives in the
// sqlite subpackage; services depend only on this interface.
package store

import (
	"context"

	"github.com/dipa/notefournote-server/internal/domain"
)

// Store is the authoritative relational store for users, notes, tags, and
// note shares. Every mutation that touches more than one table commits or
// rolls back as a single atomic unit.
type Store interface {
	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)

	// Tags. FindOrCreateTag expects an already-normalized name.
	FindOrCreateTag(ctx context.Context, name string) (*domain.Tag, error)
	ListTags(ctx context.Context) ([]*domain.Tag, error)

	// Notes. Loaded notes carry denormalized tag names, owner username, and
	// recipient usernames. CreateNote writes the note, its tag associations,
	// and any initial shares as one atomic unit.
	CreateNote(ctx context.Context, note *domain.Note, tagIDs []string, shares []*domain.NoteShare) error
	GetNote(ctx context.Context, noteID string) (*domain.Note, error)
	GetNotesByIDs(ctx context.Context, noteIDs []string) ([]*domain.Note, error) // unordered
	ListNotesByOwner(ctx context.Context, userID string) ([]*domain.Note, error)
	ListNotesSharedWith(ctx context.Context, userID string) ([]*domain.Note, error)
	ListAllNotes(ctx context.Context) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, note *domain.Note, tagIDs []string) error
	DeleteNote(ctx context.Context, noteID string) error

	// Shares. CreateShare returns ErrAlreadyExists when the
	// (note_id, shared_with_user_id) pair is already present. Recipient
	// usernames are read back through the loaded notes, not listed directly.
	CreateShare(ctx context.Context, share *domain.NoteShare) error

	Close() error
}
