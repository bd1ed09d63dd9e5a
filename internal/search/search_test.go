package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dipa/notefournote-server/internal/domain"
	"github.com/dipa/notefournote-server/internal/errors"
)

// setupTestIndex creates a temporary note index for testing.
func setupTestIndex(t *testing.T) (*NoteIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewNoteIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewNoteIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNoteIndex_IndexDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &NoteDocument{
		ID:            "note-1",
		Title:         "Grocery list",
		Content:       "milk, eggs, flour",
		OwnerUsername: "alice",
	}

	err := index.IndexDocument(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestNoteIndex_IndexDocument_Replaces(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &NoteDocument{ID: "note-1", Title: "Original", Content: "before edit", OwnerUsername: "alice"}
	require.NoError(t, index.IndexDocument(doc))

	doc.Title = "Rewritten"
	require.NoError(t, index.IndexDocument(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	ctx := context.Background()
	result, err := index.Search(ctx, SearchParams{Username: "alice", Text: "Rewritten"})
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1"}, result.IDs)

	result, err = index.Search(ctx, SearchParams{Username: "alice", Text: "Original"})
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
}

func TestNoteIndex_DeleteDocument(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &NoteDocument{ID: "note-1", Title: "Test Note", Content: "c", OwnerUsername: "alice"}
	require.NoError(t, index.IndexDocument(doc))

	require.NoError(t, index.DeleteDocument("note-1"))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)

	// Deleting again is a no-op.
	require.NoError(t, index.DeleteDocument("note-1"))
}

func TestNoteIndex_Search_AccessScoping(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*NoteDocument{
		{ID: "note-1", Title: "Rome trip", Content: "colosseum tickets", OwnerUsername: "alice"},
		{ID: "note-2", Title: "Paris trip", Content: "louvre tickets", OwnerUsername: "bob"},
		{ID: "note-3", Title: "Tokyo trip", Content: "rail pass", OwnerUsername: "bob",
			SharedWithUsernames: []string{"alice"}},
	}
	require.NoError(t, index.IndexDocuments(docs))

	ctx := context.Background()

	// Alice sees her own note and the one shared with her, not Bob's private one.
	result, err := index.Search(ctx, SearchParams{Username: "alice", Text: "trip"})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.ElementsMatch(t, []string{"note-1", "note-3"}, result.IDs)

	// Bob sees both of his notes.
	result, err = index.Search(ctx, SearchParams{Username: "bob", Text: "trip"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"note-2", "note-3"}, result.IDs)

	// A stranger sees nothing.
	result, err = index.Search(ctx, SearchParams{Username: "carol", Text: "trip"})
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
}

func TestNoteIndex_Search_TitleBoost(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*NoteDocument{
		{ID: "note-title", Title: "budget", Content: "nothing relevant here", OwnerUsername: "alice"},
		{ID: "note-content", Title: "misc", Content: "budget", OwnerUsername: "alice"},
	}
	require.NoError(t, index.IndexDocuments(docs))

	result, err := index.Search(context.Background(), SearchParams{Username: "alice", Text: "budget"})
	require.NoError(t, err)
	require.Len(t, result.IDs, 2)
	// Title matches outrank content matches.
	assert.Equal(t, "note-title", result.IDs[0])
}

func TestNoteIndex_Search_AllTagsRequired(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*NoteDocument{
		{ID: "note-1", Title: "Trip", Content: "c", OwnerUsername: "alice",
			Tags: []string{"TRAVEL", "FOOD"}},
		{ID: "note-2", Title: "Dinner", Content: "c", OwnerUsername: "alice",
			Tags: []string{"FOOD"}},
	}
	require.NoError(t, index.IndexDocuments(docs))

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{Username: "alice", Tags: []string{"FOOD"}})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"note-1", "note-2"}, result.IDs)

	// Both tags required: only the note carrying both matches.
	result, err = index.Search(ctx, SearchParams{Username: "alice", Tags: []string{"FOOD", "TRAVEL"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1"}, result.IDs)

	result, err = index.Search(ctx, SearchParams{Username: "alice", Tags: []string{"WORK"}})
	require.NoError(t, err)
	assert.Empty(t, result.IDs)
}

func TestNoteIndex_Search_TextAndTags(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*NoteDocument{
		{ID: "note-1", Title: "Rome itinerary", Content: "c", OwnerUsername: "alice",
			Tags: []string{"TRAVEL"}},
		{ID: "note-2", Title: "Rome recipes", Content: "c", OwnerUsername: "alice",
			Tags: []string{"FOOD"}},
	}
	require.NoError(t, index.IndexDocuments(docs))

	result, err := index.Search(context.Background(), SearchParams{
		Username: "alice",
		Text:     "Rome",
		Tags:     []string{"TRAVEL"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1"}, result.IDs)
}

func TestNoteIndex_Search_RequiresCriteria(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	_, err := index.Search(context.Background(), SearchParams{Username: "alice"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)

	_, err = index.Search(context.Background(), SearchParams{Text: "anything"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)

	// Whitespace-only text is no criterion either.
	_, err = index.Search(context.Background(), SearchParams{Username: "alice", Text: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrValidation)
}

func TestNoteIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &NoteDocument{ID: "note-1", Title: "Test", Content: "c", OwnerUsername: "alice"}
	require.NoError(t, index.IndexDocument(doc))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	require.NoError(t, index.Rebuild())

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestNoteIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	index1, err := NewNoteIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	doc := &NoteDocument{ID: "note-1", Title: "Persisted note", Content: "c", OwnerUsername: "alice"}
	require.NoError(t, index1.IndexDocument(doc))
	require.NoError(t, index1.Close())

	index2, err := NewNoteIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	result, err := index2.Search(context.Background(), SearchParams{Username: "alice", Text: "Persisted"})
	require.NoError(t, err)
	assert.Equal(t, []string{"note-1"}, result.IDs)
}

func TestNoteToDocument(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	note := &domain.Note{
		ID:            "note-123",
		Title:         "Trip",
		Content:       "Rome itinerary",
		Tags:          []string{"TRAVEL"},
		OwnerID:       "user-1",
		OwnerUsername: "alice",
		SharedWith:    []string{"bob"},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	doc := NoteToDocument(note)

	assert.Equal(t, "note-123", doc.ID)
	assert.Equal(t, "Trip", doc.Title)
	assert.Equal(t, "Rome itinerary", doc.Content)
	assert.Equal(t, []string{"TRAVEL"}, doc.Tags)
	assert.Equal(t, "alice", doc.OwnerUsername)
	assert.Equal(t, []string{"bob"}, doc.SharedWithUsernames)
	assert.Equal(t, now.UnixMilli(), doc.UpdatedAt)
}
