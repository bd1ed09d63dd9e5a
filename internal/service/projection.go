package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dipa/notefournote-server/internal/search"
	"github.com/dipa/notefournote-server/internal/store"
)

// ProjectionService keeps the search index in step with the relational store.
// It bridges the note store with the Bleve projection, handling document
// sync, removal, and full rebuilds.
type ProjectionService struct {
	index  *search.NoteIndex
	store  store.Store
	logger *slog.Logger
}

// NewProjectionService creates a new projection service.
func NewProjectionService(index *search.NoteIndex, store store.Store, logger *slog.Logger) *ProjectionService {
	return &ProjectionService{
		index:  index,
		store:  store,
		logger: logger,
	}
}

// SyncNote fetches the note's current relational state and writes the
// corresponding document to the index, replacing any previous version.
// Call this after every committed write that changes the note or its shares.
func (s *ProjectionService) SyncNote(ctx context.Context, noteID string) error {
	note, err := s.store.GetNote(ctx, noteID)
	if err != nil {
		return fmt.Errorf("get note: %w", err)
	}

	doc := search.NoteToDocument(note)
	if err := s.index.IndexDocument(doc); err != nil {
		return fmt.Errorf("index document: %w", err)
	}

	s.logger.Debug("synced note to index", "id", noteID, "title", note.Title)
	return nil
}

// RemoveNote deletes the note's document from the index.
// Removing an absent document is a no-op, so this is safe to call even
// when a previous sync never happened.
func (s *ProjectionService) RemoveNote(_ context.Context, noteID string) error {
	return s.index.DeleteDocument(noteID)
}

// DocumentCount returns the number of indexed documents.
func (s *ProjectionService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// ReindexAll drops the index and rebuilds it from the relational store.
// The store is the source of truth, so this repairs any drift left behind
// by failed syncs. Heavy operation, intended for startup and maintenance.
func (s *ProjectionService) ReindexAll(ctx context.Context) error {
	s.logger.Info("starting full reindex")

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	notes, err := s.store.ListAllNotes(ctx)
	if err != nil {
		return fmt.Errorf("list notes: %w", err)
	}

	docs := make([]*search.NoteDocument, 0, len(notes))
	for _, note := range notes {
		docs = append(docs, search.NoteToDocument(note))
	}

	if len(docs) > 0 {
		if err := s.index.IndexDocuments(docs); err != nil {
			return fmt.Errorf("index notes: %w", err)
		}
	}

	s.logger.Info("full reindex complete", "documents", len(docs))
	return nil
}
