// Package service provides the business logic layer for notes, sharing,
// and search on top of the relational store and the search projection.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/dipa/notefournote-server/internal/domain"
	domainerrors "github.com/dipa/notefournote-server/internal/errors"
	"github.com/dipa/notefournote-server/internal/id"
	"github.com/dipa/notefournote-server/internal/normalize"
	"github.com/dipa/notefournote-server/internal/search"
	"github.com/dipa/notefournote-server/internal/store"
)

// NoteService orchestrates note operations across the relational store and
// the search projection. The store is authoritative: every write commits
// there first, then the projection is synced best-effort. A failed sync is
// logged and repaired by the next sync or a full reindex, never surfaced to
// the caller as a write failure.
type NoteService struct {
	store      store.Store
	projection *ProjectionService
	logger     *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(store store.Store, projection *ProjectionService, logger *slog.Logger) *NoteService {
	return &NoteService{
		store:      store,
		projection: projection,
		logger:     logger,
	}
}

// CreateNoteRequest contains the data for a new note. SharedWith lists
// usernames granted read access as soon as the note exists.
type CreateNoteRequest struct {
	Title      string   `json:"title" validate:"required,max=100"`
	Content    string   `json:"content" validate:"required,min=10"`
	Tags       []string `json:"tags" validate:"omitempty,dive,max=50"`
	SharedWith []string `json:"sharedWith" validate:"omitempty,dive,required"`
}

// UpdateNoteRequest contains the replacement data for an existing note.
type UpdateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=100"`
	Content string   `json:"content" validate:"required,min=10"`
	Tags    []string `json:"tags" validate:"omitempty,dive,max=50"`
}

// ShareNoteRequest names the user a note is shared with.
type ShareNoteRequest struct {
	Username string `json:"username" validate:"required"`
}

// SearchNotesRequest contains the search criteria.
// At least one of Text or Tags must be set.
type SearchNotesRequest struct {
	Text string   `json:"text"`
	Tags []string `json:"tags"`
}

// CreateNote creates a note owned by the named user.
func (s *NoteService) CreateNote(ctx context.Context, username string, req CreateNoteRequest) (*domain.Note, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	tagIDs, tagNames, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	recipients, err := s.resolveRecipients(ctx, username, req.SharedWith)
	if err != nil {
		return nil, err
	}

	noteID, err := id.Generate("note")
	if err != nil {
		return nil, fmt.Errorf("generate note ID: %w", err)
	}

	now := time.Now()
	note := &domain.Note{
		ID:            noteID,
		Title:         req.Title,
		Content:       req.Content,
		Tags:          tagNames,
		OwnerID:       user.ID,
		OwnerUsername: user.Username,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	// Initial shares commit in the same transaction as the note, so a
	// failed create never leaves a shareless note behind.
	shares := make([]*domain.NoteShare, 0, len(recipients))
	for _, recipient := range recipients {
		share, err := newShare(noteID, recipient.ID)
		if err != nil {
			return nil, err
		}
		shares = append(shares, share)
	}

	if err := s.store.CreateNote(ctx, note, tagIDs, shares); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	for _, recipient := range recipients {
		note.SharedWith = append(note.SharedWith, recipient.Username)
	}

	s.syncProjection(ctx, note.ID)

	s.logger.Info("note created", "id", note.ID, "owner", username)
	return note, nil
}

// GetNote returns a note the user owns or has been granted through a share.
func (s *NoteService) GetNote(ctx context.Context, username, noteID string) (*domain.Note, error) {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("note not found")
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	if !note.CanRead(username) {
		return nil, domainerrors.Forbidden("you do not have access to this note")
	}

	return note, nil
}

// ListNotes returns every note the user owns plus every note shared with
// them, most recently updated first. Ties are broken by ID so pagination
// over the merged list stays stable.
func (s *NoteService) ListNotes(ctx context.Context, username string) ([]*domain.Note, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	owned, err := s.store.ListNotesByOwner(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list owned notes: %w", err)
	}

	shared, err := s.store.ListNotesSharedWith(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list shared notes: %w", err)
	}

	seen := make(map[string]bool, len(owned))
	notes := make([]*domain.Note, 0, len(owned)+len(shared))
	for _, n := range owned {
		seen[n.ID] = true
		notes = append(notes, n)
	}
	for _, n := range shared {
		if !seen[n.ID] {
			notes = append(notes, n)
		}
	}

	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].ID < notes[j].ID
	})

	return notes, nil
}

// UpdateNote replaces a note's title, content, and tag set.
// Only the owner can update a note; recipients of a share have read access only.
func (s *NoteService) UpdateNote(ctx context.Context, username, noteID string, req UpdateNoteRequest) (*domain.Note, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("note not found")
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	if !note.IsOwner(username) {
		return nil, domainerrors.Forbidden("only the owner can update a note")
	}

	tagIDs, tagNames, err := s.resolveTags(ctx, req.Tags)
	if err != nil {
		return nil, err
	}

	note.Title = req.Title
	note.Content = req.Content
	note.Tags = tagNames
	note.Touch()

	if err := s.store.UpdateNote(ctx, note, tagIDs); err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}

	s.syncProjection(ctx, note.ID)

	s.logger.Info("note updated", "id", note.ID, "owner", username)
	return note, nil
}

// DeleteNote removes a note, its shares, and its tag associations.
// Only the owner can delete a note.
func (s *NoteService) DeleteNote(ctx context.Context, username, noteID string) error {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("note not found")
		}
		return fmt.Errorf("get note: %w", err)
	}

	if !note.IsOwner(username) {
		return domainerrors.Forbidden("only the owner can delete a note")
	}

	if err := s.store.DeleteNote(ctx, noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}

	if err := s.projection.RemoveNote(ctx, noteID); err != nil {
		s.logger.Error("failed to remove note from index, projection is stale",
			"note_id", noteID,
			"error", err,
		)
	}

	s.logger.Info("note deleted", "id", noteID, "owner", username)
	return nil
}

// ShareNote grants another user read access to a note.
// Sharing is owner-only, idempotently rejected for duplicates, and never
// allowed with yourself.
func (s *NoteService) ShareNote(ctx context.Context, username, noteID string, req ShareNoteRequest) (*domain.Note, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("note not found")
		}
		return nil, fmt.Errorf("get note: %w", err)
	}

	if !note.IsOwner(username) {
		return nil, domainerrors.Forbidden("only the owner can share a note")
	}

	recipientName := normalize.Username(req.Username)
	if recipientName == username {
		return nil, domainerrors.Validation("cannot share a note with yourself")
	}

	recipient, err := s.store.GetUserByUsername(ctx, recipientName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("user %q not found", recipientName)
		}
		return nil, fmt.Errorf("get recipient: %w", err)
	}

	share, err := newShare(noteID, recipient.ID)
	if err != nil {
		return nil, err
	}

	if err := s.store.CreateShare(ctx, share); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("note already shared with %q", recipientName)
		}
		return nil, fmt.Errorf("create share: %w", err)
	}

	s.syncProjection(ctx, noteID)

	s.logger.Info("note shared",
		"note_id", noteID,
		"shared_by", username,
		"shared_with", recipientName,
	)

	note.SharedWith = append(note.SharedWith, recipientName)
	return note, nil
}

// SearchNotes runs a full-text and tag search over the notes the user can
// read and returns them in the index's relevance order. IDs the index knows
// about but the store no longer holds are dropped silently; the store wins.
func (s *NoteService) SearchNotes(ctx context.Context, username string, req SearchNotesRequest) ([]*domain.Note, error) {
	result, err := s.projection.index.Search(ctx, search.SearchParams{
		Username: username,
		Text:     req.Text,
		Tags:     normalize.TagNames(req.Tags),
	})
	if err != nil {
		return nil, err
	}

	if len(result.IDs) == 0 {
		return []*domain.Note{}, nil
	}

	// Hydrate from the authoritative store. The store returns notes in
	// arbitrary order, so restore the index's relevance ranking.
	fetched, err := s.store.GetNotesByIDs(ctx, result.IDs)
	if err != nil {
		return nil, fmt.Errorf("hydrate notes: %w", err)
	}

	byID := make(map[string]*domain.Note, len(fetched))
	for _, n := range fetched {
		byID[n.ID] = n
	}

	notes := make([]*domain.Note, 0, len(result.IDs))
	for _, noteID := range result.IDs {
		n, ok := byID[noteID]
		if !ok {
			// Stale projection entry. A later sync or reindex cleans it up.
			continue
		}
		if !n.CanRead(username) {
			// Access revoked since the last sync.
			continue
		}
		notes = append(notes, n)
	}

	return notes, nil
}

// resolveRecipients looks up the users named in a create request's share
// list, dropping empties and duplicates. Self-shares and unknown usernames
// fail the whole request before the note is written, so a rejected create
// leaves nothing behind.
func (s *NoteService) resolveRecipients(ctx context.Context, owner string, raw []string) ([]*domain.User, error) {
	seen := make(map[string]bool, len(raw))
	recipients := make([]*domain.User, 0, len(raw))
	for _, name := range raw {
		name = normalize.Username(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		if name == owner {
			return nil, domainerrors.Validation("cannot share a note with yourself")
		}

		user, err := s.store.GetUserByUsername(ctx, name)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domainerrors.NotFoundf("user %q not found", name)
			}
			return nil, fmt.Errorf("get recipient: %w", err)
		}
		recipients = append(recipients, user)
	}
	return recipients, nil
}

// newShare builds a share row granting a user read access to a note.
func newShare(noteID, recipientID string) (*domain.NoteShare, error) {
	shareID, err := id.Generate("share")
	if err != nil {
		return nil, fmt.Errorf("generate share ID: %w", err)
	}

	return &domain.NoteShare{
		ID:               shareID,
		NoteID:           noteID,
		SharedWithUserID: recipientID,
		SharedAt:         time.Now(),
	}, nil
}

// resolveTags normalizes the raw tag names and finds or creates each tag.
// Returns the tag IDs for association and the normalized names in input order.
func (s *NoteService) resolveTags(ctx context.Context, raw []string) ([]string, []string, error) {
	names := normalize.TagNames(raw)

	tagIDs := make([]string, 0, len(names))
	for _, name := range names {
		tag, err := s.store.FindOrCreateTag(ctx, name)
		if err != nil {
			return nil, nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}

	return tagIDs, names, nil
}

// syncProjection mirrors the note into the search index after a committed
// write. Failures leave a stale projection, which is acceptable: searches
// may briefly miss or over-return, and reads stay authoritative.
func (s *NoteService) syncProjection(ctx context.Context, noteID string) {
	if err := s.projection.SyncNote(ctx, noteID); err != nil {
		s.logger.Error("failed to sync note to index, projection is stale",
			"note_id", noteID,
			"error", err,
		)
	}
}
