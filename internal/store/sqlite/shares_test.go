package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/store"
)

func TestCreateShare_RecipientsLoaded(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	makeTestUser(t, s, "user-1", "alice")
	makeTestUser(t, s, "user-2", "bob")
	makeTestUser(t, s, "user-3", "carol")
	makeTestNote(t, s, "note-1", "user-1", "Trip")

	first := &domain.NoteShare{
		ID: "share-1", NoteID: "note-1",
		SharedWithUserID: "user-2", SharedAt: time.Now(),
	}
	second := &domain.NoteShare{
		ID: "share-2", NoteID: "note-1",
		SharedWithUserID: "user-3", SharedAt: time.Now(),
	}
	if err := s.CreateShare(ctx, first); err != nil {
		t.Fatalf("CreateShare (bob): %v", err)
	}
	if err := s.CreateShare(ctx, second); err != nil {
		t.Fatalf("CreateShare (carol): %v", err)
	}

	// Recipients come back denormalized on the loaded note, sorted by name.
	got, err := s.GetNote(ctx, "note-1")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if len(got.SharedWith) != 2 || got.SharedWith[0] != "bob" || got.SharedWith[1] != "carol" {
		t.Errorf("SharedWith: got %v, want [bob carol]", got.SharedWith)
	}
}

func TestCreateShare_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	makeTestUser(t, s, "user-1", "alice")
	makeTestUser(t, s, "user-2", "bob")
	makeTestNote(t, s, "note-1", "user-1", "Trip")

	share := &domain.NoteShare{
		ID: "share-1", NoteID: "note-1",
		SharedWithUserID: "user-2", SharedAt: time.Now(),
	}
	if err := s.CreateShare(ctx, share); err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	dup := &domain.NoteShare{
		ID: "share-2", NoteID: "note-1",
		SharedWithUserID: "user-2", SharedAt: time.Now(),
	}
	err := s.CreateShare(ctx, dup)
	if err == nil {
		t.Fatal("expected duplicate share to fail")
	}

	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("expected *store.Error, got %T: %v", err, err)
	}
	if storeErr.Code != store.ErrAlreadyExists.Code {
		t.Errorf("expected status %d, got %d", store.ErrAlreadyExists.Code, storeErr.Code)
	}
}
