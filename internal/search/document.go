// Package search provides full-text note search using Bleve.
// Notes are indexed as denormalized documents carrying the owner and
// recipient usernames so access filtering happens inside the index query.
package search

import (
	"github.com/dipa/notefournote-server/internal/domain"
)

// NoteDocument is the denormalized projection of a note in the Bleve index.
//
// Design note: we flatten the owner and share usernames onto the document so
// that a single index query can combine the access predicate with the text
// and tag criteria. The trade-off is that every share and every edit must
// re-sync the document, which the projection service does after each write.
type NoteDocument struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Tags hold the normalized (uppercase) tag names.
	Tags []string `json:"tags,omitempty"`

	// Access fields, denormalized from the relational store.
	OwnerUsername       string   `json:"owner_username"`
	SharedWithUsernames []string `json:"shared_with_usernames,omitempty"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *NoteDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":             d.ID,
		"title":          d.Title,
		"content":        d.Content,
		"owner_username": d.OwnerUsername,
		"created_at":     d.CreatedAt,
		"updated_at":     d.UpdatedAt,
	}

	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if len(d.SharedWithUsernames) > 0 {
		m["shared_with_usernames"] = d.SharedWithUsernames
	}

	return m
}

// NoteToDocument converts a domain Note to its index projection.
// The note must carry its denormalized owner username, tags, and
// recipient usernames, as loaded by the store.
func NoteToDocument(note *domain.Note) *NoteDocument {
	return &NoteDocument{
		ID:                  note.ID,
		Title:               note.Title,
		Content:             note.Content,
		Tags:                note.Tags,
		OwnerUsername:       note.OwnerUsername,
		SharedWithUsernames: note.SharedWith,
		CreatedAt:           note.CreatedAt.UnixMilli(),
		UpdatedAt:           note.UpdatedAt.UnixMilli(),
	}
}
